package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "regain_housing"

// Metrics holds the Prometheus collectors for analysis runs.
type Metrics struct {
	RecordsFetched         prometheus.Counter
	ObservationsNormalized prometheus.Gauge
	DuplicatesRemoved      prometheus.Counter
	Runs                   *prometheus.CounterVec // labels: outcome={success,error}
	RunDuration            prometheus.Histogram
	FetchDuration          prometheus.Histogram
	LastSuccess            prometheus.Gauge

	// Publisher metrics.
	PublishErrors *prometheus.CounterVec // labels: sink={kafka,postgres,xlsx}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsFetched,
		m.ObservationsNormalized,
		m.DuplicatesRemoved,
		m.Runs,
		m.RunDuration,
		m.FetchDuration,
		m.LastSuccess,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_fetched_total",
			Help:      "Total raw records returned by the data source.",
		}),
		ObservationsNormalized: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "observations",
			Help:      "Monthly observations left after normalization in the latest run.",
		}),
		DuplicatesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_removed_total",
			Help:      "Known spurious duplicate rows removed during normalization.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Analysis runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-to-render analysis run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of the data source request.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failures writing results to an output sink.",
		}, []string{"sink"}),
	}
}
