package sampler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/common"
	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/testsCommon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSamplingFetcher(t *testing.T) {
	t.Parallel()

	t.Run("nil fetcher should error", func(t *testing.T) {
		sf, err := NewSamplingFetcher(ArgsSamplingFetcher{
			NumSamples: 3,
		})
		assert.Nil(t, sf)
		assert.True(t, sf.IsInterfaceNil())
		assert.ErrorContains(t, err, "nil fetcher")
	})
	t.Run("one sample should error", func(t *testing.T) {
		sf, err := NewSamplingFetcher(ArgsSamplingFetcher{
			Fetcher:    &testsCommon.FetcherStub{},
			NumSamples: 1,
		})
		assert.Nil(t, sf)
		assert.ErrorContains(t, err, "invalid number of samples")
	})
	t.Run("negative interval should error", func(t *testing.T) {
		sf, err := NewSamplingFetcher(ArgsSamplingFetcher{
			Fetcher:        &testsCommon.FetcherStub{},
			NumSamples:     3,
			SampleInterval: -time.Second,
		})
		assert.Nil(t, sf)
		assert.ErrorContains(t, err, "negative sample interval")
	})
	t.Run("should work", func(t *testing.T) {
		sf, err := NewSamplingFetcher(ArgsSamplingFetcher{
			Fetcher:    &testsCommon.FetcherStub{},
			NumSamples: 3,
		})
		assert.Nil(t, err)
		assert.False(t, sf.IsInterfaceNil())
	})
}

func TestSamplingFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("should aggregate all samples", func(t *testing.T) {
		t.Parallel()

		samples := []common.Record{
			{"serialno": "A1", "pm02": "10", "atmp": "20.1"},
			{"serialno": "A1", "pm02": "100", "atmp": "20.2"},
			{"serialno": "A1", "pm02": "12", "atmp": "20.3"},
			{"serialno": "A1", "pm02": "1", "atmp": "20.4"},
		}
		numCalls := 0
		sf, _ := NewSamplingFetcher(ArgsSamplingFetcher{
			Fetcher: &testsCommon.FetcherStub{
				FetchHandler: func(ctx context.Context, url string) (common.Record, error) {
					sample := samples[numCalls]
					numCalls++
					return sample, nil
				},
			},
			NumSamples:     4,
			SampleInterval: time.Millisecond,
		})

		record, err := sf.Fetch(context.Background(), "url")
		require.Nil(t, err)
		assert.Equal(t, 4, numCalls)
		assert.Equal(t, common.Record{"serialno": "A1", "pm02": "11.0", "atmp": "20.25"}, record)
	})
	t.Run("one failed sample should fail the call", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("expected error")
		numCalls := 0
		sf, _ := NewSamplingFetcher(ArgsSamplingFetcher{
			Fetcher: &testsCommon.FetcherStub{
				FetchHandler: func(ctx context.Context, url string) (common.Record, error) {
					numCalls++
					if numCalls == 2 {
						return nil, expectedErr
					}
					return common.Record{"atmp": "20"}, nil
				},
			},
			NumSamples: 3,
		})

		record, err := sf.Fetch(context.Background(), "url")
		assert.Nil(t, record)
		assert.True(t, errors.Is(err, expectedErr))
		assert.Contains(t, err.Error(), "sample 2 of 3")
		assert.Equal(t, 2, numCalls)
	})
	t.Run("cancelled context should stop the sampling", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		sf, _ := NewSamplingFetcher(ArgsSamplingFetcher{
			Fetcher: &testsCommon.FetcherStub{
				FetchHandler: func(ctx context.Context, url string) (common.Record, error) {
					cancel()
					return common.Record{"atmp": "20"}, nil
				},
			},
			NumSamples:     3,
			SampleInterval: time.Hour,
		})

		record, err := sf.Fetch(ctx, "url")
		assert.Nil(t, record)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestAggregateSamples(t *testing.T) {
	t.Parallel()

	t.Run("fewer than 3 numeric values should be averaged as they are", func(t *testing.T) {
		t.Parallel()

		record := AggregateSamples([]common.Record{
			{"rco2": "400"},
			{"rco2": "411"},
		})
		assert.Equal(t, common.Record{"rco2": "405.5"}, record)
	})
	t.Run("means should be rounded to 2 decimals", func(t *testing.T) {
		t.Parallel()

		record := AggregateSamples([]common.Record{
			{"atmp": "1"},
			{"atmp": "1"},
			{"atmp": "2"},
			{"atmp": "2"},
			{"atmp": "2"},
		})
		assert.Equal(t, common.Record{"atmp": "1.67"}, record)
	})
	t.Run("integral means should keep one decimal", func(t *testing.T) {
		t.Parallel()

		record := AggregateSamples([]common.Record{
			{"atmp": "21.9", "rco2": "400"},
			{"atmp": "22.0", "rco2": "410"},
			{"atmp": "22.1", "rco2": "420"},
		})
		assert.Equal(t, common.Record{"atmp": "22.0", "rco2": "410.0"}, record)
	})
	t.Run("non numeric fields should keep the first value", func(t *testing.T) {
		t.Parallel()

		record := AggregateSamples([]common.Record{
			{"model": "I-9PSL", "boot": "true"},
			{"model": "other", "boot": "false"},
		})
		assert.Equal(t, common.Record{"model": "I-9PSL", "boot": "true"}, record)
	})
	t.Run("keys should be united and empty values skipped", func(t *testing.T) {
		t.Parallel()

		record := AggregateSamples([]common.Record{
			{"atmp": "20", "pm01": ""},
			{"rhum": "40", "pm01": ""},
			{"atmp": "22"},
		})
		assert.Equal(t, common.Record{"atmp": "21.0", "rhum": "40.0"}, record)
	})
	t.Run("numeric values should win over text", func(t *testing.T) {
		t.Parallel()

		record := AggregateSamples([]common.Record{
			{"wifi": "n/a"},
			{"wifi": "-60"},
		})
		assert.Equal(t, common.Record{"wifi": "-60.0"}, record)
	})
	t.Run("no samples should produce an empty record", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, AggregateSamples(nil))
	})
}
