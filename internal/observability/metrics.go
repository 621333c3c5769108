package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// hazard decode pipeline.
type Metrics struct {
	BulletinsConsumed prometheus.Counter
	ProductsProduced  prometheus.Counter
	DecodeFailures    prometheus.Counter
	PipelineRunning   prometheus.Gauge

	// Per-product decode metrics.
	DecodeDiagnostics *prometheus.CounterVec // labels: kind, severity
	DecodeDuration    prometheus.Histogram

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Lifecycle tracking and archival.
	TrackerApplied prometheus.Counter
	ArchiveUploads *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		BulletinsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_etl",
			Name:      "bulletins_consumed_total",
			Help:      "Total raw bulletins cut out of the source feed.",
		}),
		ProductsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_etl",
			Name:      "products_produced_total",
			Help:      "Total decoded products written to the sink topic.",
		}),
		DecodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_etl",
			Name:      "decode_failures_total",
			Help:      "Total bulletins rejected outright (strict mode or deadline).",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hazard_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		DecodeDiagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_etl",
			Name:      "decode_diagnostics_total",
			Help:      "Decode diagnostics by kind and severity.",
		}, []string{"kind", "severity"}),
		DecodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hazard_etl",
			Name:      "decode_duration_seconds",
			Help:      "Duration of decoding one bulletin into a product.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hazard_etl",
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hazard_etl",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-decode-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		TrackerApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_etl",
			Name:      "tracker_events_applied_total",
			Help:      "Total VTEC snapshots folded into the lifecycle tracker.",
		}),
		ArchiveUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_etl",
			Name:      "archive_uploads_total",
			Help:      "Raw bulletin archive uploads by outcome.",
		}, []string{"outcome"}),
	}

	prometheus.MustRegister(
		m.BulletinsConsumed,
		m.ProductsProduced,
		m.DecodeFailures,
		m.PipelineRunning,
		m.DecodeDiagnostics,
		m.DecodeDuration,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.TrackerApplied,
		m.ArchiveUploads,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		BulletinsConsumed:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hazard_etl", Name: "bulletins_consumed_total"}),
		ProductsProduced:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hazard_etl", Name: "products_produced_total"}),
		DecodeFailures:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hazard_etl", Name: "decode_failures_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "hazard_etl", Name: "pipeline_running"}),
		DecodeDiagnostics:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hazard_etl", Name: "decode_diagnostics_total"}, []string{"kind", "severity"}),
		DecodeDuration:          prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "hazard_etl", Name: "decode_duration_seconds"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "hazard_etl", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "hazard_etl", Name: "batch_processing_duration_seconds"}),
		TrackerApplied:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hazard_etl", Name: "tracker_events_applied_total"}),
		ArchiveUploads:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hazard_etl", Name: "archive_uploads_total"}, []string{"outcome"}),
	}
}
