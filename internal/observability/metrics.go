package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hazard_targets"

// Metrics holds the Prometheus counters, histograms, and gauges for target
// resolution.
type Metrics struct {
	PassesTotal     *prometheus.CounterVec // labels: mode, outcome={success,error}
	PassDuration    prometheus.Histogram
	FeaturesSeen    *prometheus.CounterVec // labels: mode
	TargetsResolved *prometheus.GaugeVec   // labels: mode
	PipelineRunning prometheus.Gauge

	// Zone geometry metrics.
	ZoneFetches *prometheus.CounterVec // labels: outcome={success,error}
	ZoneCache   *prometheus.CounterVec // labels: result={hit,miss}

	PublishErrors prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.PassesTotal,
		m.PassDuration,
		m.FeaturesSeen,
		m.TargetsResolved,
		m.PipelineRunning,
		m.ZoneFetches,
		m.ZoneCache,
		m.PublishErrors,
	)

	return m
}

// NewUnregisteredMetrics creates Metrics that are not registered anywhere.
// Tests and one-shot commands use it to avoid "already registered" panics.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PassesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Target resolution passes by hazard mode and outcome.",
		}, []string{"mode", "outcome"}),
		PassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of a complete fetch, match, and dedupe pass.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		FeaturesSeen: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_total",
			Help:      "Hazard features considered for matching.",
		}, []string{"mode"}),
		TargetsResolved: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "targets_resolved",
			Help:      "Unique target zip codes produced by the latest pass.",
		}, []string{"mode"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		ZoneFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zone_fetch_total",
			Help:      "Zone geometry fetches by outcome.",
		}, []string{"outcome"}),
		ZoneCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zone_cache_total",
			Help:      "Per-pass zone geometry cache lookups by result.",
		}, []string{"result"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Target lists that failed to publish.",
		}),
	}
}
