package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromMetrics(t *testing.T) {
	t.Parallel()

	pm, err := NewPromMetrics()
	require.Nil(t, err)
	assert.False(t, pm.IsInterfaceNil())

	pm.IncRowsWritten()
	pm.IncRowsWritten()
	assert.Equal(t, 2.0, testutil.ToFloat64(pm.rowsWritten))

	pm.ObserveFetch(time.Millisecond*20, nil)
	pm.ObserveFetch(time.Millisecond*30, errors.New("connection refused"))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.fetchFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(pm.fetchDuration))

	pm.SetState(common.Steady)
	assert.Equal(t, 2.0, testutil.ToFloat64(pm.state))
}

func TestPromMetrics_Handler(t *testing.T) {
	t.Parallel()

	pm, _ := NewPromMetrics()
	pm.IncRowsWritten()

	resp := httptest.NewRecorder()
	pm.Handler().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "csvlogger_rows_written_total 1")
	assert.Contains(t, string(body), "csvlogger_fetch_duration_seconds_bucket")
}

func TestPromMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var pm *promMetrics
	assert.True(t, pm.IsInterfaceNil())
}
