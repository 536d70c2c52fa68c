package factory

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/config"
	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestConfig(outputPath string) config.Config {
	return config.Config{
		Name:              "Basement",
		EndpointURL:       "http://127.0.0.1:1/measures/current",
		OutputPath:        outputPath,
		IntervalInSeconds: 1,
	}
}

func TestNewComponentsHandler(t *testing.T) {
	t.Parallel()

	t.Run("invalid config should error", func(t *testing.T) {
		t.Parallel()

		cfg := createTestConfig(filepath.Join(t.TempDir(), "out.csv"))
		cfg.EndpointURL = ""

		handler, err := NewComponentsHandler(cfg)
		assert.Nil(t, handler)
		assert.ErrorContains(t, err, "EndpointURL")
	})
	t.Run("should work", func(t *testing.T) {
		t.Parallel()

		handler, err := NewComponentsHandler(createTestConfig(filepath.Join(t.TempDir(), "out.csv")))
		assert.NotNil(t, handler)
		assert.Nil(t, err)
		assert.Nil(t, handler.GetServer())

		handler.Close()
	})
}

func TestComponentsHandlerMethods(t *testing.T) {
	t.Parallel()

	cfg := createTestConfig(filepath.Join(t.TempDir(), "out.csv"))
	cfg.StatusListenAddress = "127.0.0.1:0"
	handler, _ := NewComponentsHandler(cfg)

	require.Nil(t, handler.Bootstrap(context.Background()))
	handler.Start()

	fetcher := handler.GetFetcher()
	assert.Equal(t, "*fetcher.httpFetcher", fmt.Sprintf("%T", fetcher))

	storage := handler.GetStorage()
	assert.Equal(t, "*storage.csvFile", fmt.Sprintf("%T", storage))

	engine := handler.GetEngine()
	assert.Equal(t, "*engine.loggerEngine", fmt.Sprintf("%T", engine))

	server := handler.GetServer()
	assert.Equal(t, "*api.server", fmt.Sprintf("%T", server))

	handler.Close()
	handler.Close()
}

func TestComponentsHandler_SamplingFetcher(t *testing.T) {
	t.Parallel()

	cfg := createTestConfig(filepath.Join(t.TempDir(), "out.csv"))
	cfg.SamplesPerInterval = 12
	handler, err := NewComponentsHandler(cfg)
	require.Nil(t, err)

	assert.Equal(t, "*sampler.samplingFetcher", fmt.Sprintf("%T", handler.GetFetcher()))
}

func TestComponentsHandler_BootstrapFatal(t *testing.T) {
	t.Parallel()

	outputPath := filepath.Join(t.TempDir(), "out.csv")
	require.Nil(t, os.WriteFile(outputPath, nil, 0644))

	handler, _ := NewComponentsHandler(createTestConfig(outputPath))
	err := handler.Bootstrap(context.Background())
	assert.ErrorIs(t, err, schema.ErrMissingHeader)
}

func TestComponentsHandler_PollLoop(t *testing.T) {
	t.Parallel()

	sensor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"serialno": "A1", "atmp": 21.5, "rhum": 40}`))
	}))
	defer sensor.Close()

	outputPath := filepath.Join(t.TempDir(), "out.csv")
	cfg := createTestConfig(outputPath)
	cfg.EndpointURL = sensor.URL
	handler, _ := NewComponentsHandler(cfg)

	require.Nil(t, handler.Bootstrap(context.Background()))
	handler.Start()
	time.Sleep(time.Millisecond * 300)
	handler.Close()

	data, err := os.ReadFile(outputPath)
	require.Nil(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "timestamp,serialno,atmp,rhum", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], ",A1,21.5,40"))
	assert.Equal(t, uint64(1), handler.GetEngine().Status().RowsWritten)
}
