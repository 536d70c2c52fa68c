package metrics

import (
	"net/http"
	"time"

	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "csvlogger"

type promMetrics struct {
	registry      *prometheus.Registry
	rowsWritten   prometheus.Counter
	fetchFailures prometheus.Counter
	fetchDuration prometheus.Histogram
	state         prometheus.Gauge
}

// NewPromMetrics creates the logger counters on a private registry
func NewPromMetrics() (*promMetrics, error) {
	pm := &promMetrics{
		registry: prometheus.NewRegistry(),
		rowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Total rows appended to the output file, the first row included.",
		}),
		fetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Total failed attempts to fetch the sensor record.",
		}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of the sensor fetch calls, failed ones included.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state",
			Help:      "Poll state: 0 uninitialized, 1 bootstrapping, 2 steady.",
		}),
	}

	for _, collector := range []prometheus.Collector{pm.rowsWritten, pm.fetchFailures, pm.fetchDuration, pm.state} {
		err := pm.registry.Register(collector)
		if err != nil {
			return nil, err
		}
	}

	return pm, nil
}

// ObserveFetch records the fetch duration and counts the failure, if any
func (pm *promMetrics) ObserveFetch(duration time.Duration, err error) {
	pm.fetchDuration.Observe(duration.Seconds())
	if err != nil {
		pm.fetchFailures.Inc()
	}
}

// IncRowsWritten counts one appended row
func (pm *promMetrics) IncRowsWritten() {
	pm.rowsWritten.Inc()
}

// SetState exposes the current poll state
func (pm *promMetrics) SetState(state common.State) {
	pm.state.Set(float64(state))
}

// Handler returns the exposition handler for the private registry
func (pm *promMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(pm.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// IsInterfaceNil returns true if the value under the interface is nil
func (pm *promMetrics) IsInterfaceNil() bool {
	return pm == nil
}
