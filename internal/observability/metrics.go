package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "treecover_lookup"

// Metrics holds the Prometheus counters, histograms, and gauges for the lookup service.
type Metrics struct {
	// Dataset load metrics.
	Loads          *prometheus.CounterVec // labels: outcome={success,error,stale}
	LoadDuration   prometheus.Histogram
	ReloadTriggers *prometheus.CounterVec // labels: trigger={initial,schedule,notify,api}, result={accepted,throttled}
	Generation     prometheus.Gauge

	// Snapshot shape.
	IndexedRecords  prometheus.Gauge
	SkippedEntries  prometheus.Gauge
	KeyCollisions   prometheus.Gauge
	KeyMismatches   prometheus.Gauge
	SnapshotsLoaded prometheus.Gauge

	// Lookup metrics.
	Resolutions    *prometheus.CounterVec // labels: status
	NormalizeCache *prometheus.CounterVec // labels: result={hit,miss}

	// Snapshot event publishing.
	EventsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Loads,
		m.LoadDuration,
		m.ReloadTriggers,
		m.Generation,
		m.IndexedRecords,
		m.SkippedEntries,
		m.KeyCollisions,
		m.KeyMismatches,
		m.SnapshotsLoaded,
		m.Resolutions,
		m.NormalizeCache,
		m.EventsPublished,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      "Dataset load attempts by outcome.",
		}, []string{"outcome"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Duration of a fetch, parse, and index cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ReloadTriggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reload_triggers_total",
			Help:      "Reload requests by trigger and whether they were accepted or throttled.",
		}, []string{"trigger", "result"}),
		Generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "load_generation",
			Help:      "Generation number of the most recently started load.",
		}),
		IndexedRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "indexed_records",
			Help:      "Records in the current canonical index.",
		}),
		SkippedEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "skipped_entries",
			Help:      "Dataset entries excluded from the current index.",
		}),
		KeyCollisions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "key_collisions",
			Help:      "Entries replaced by a later entry with the same canonical key in the current index.",
		}),
		KeyMismatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "key_mismatches",
			Help:      "Entries whose dataset key differs from the computed canonical key.",
		}),
		SnapshotsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_loaded",
			Help:      "1 when a dataset snapshot is being served, 0 otherwise.",
		}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Resolved lookups by status.",
		}, []string{"status"}),
		NormalizeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "normalize_cache_total",
			Help:      "Normalization cache lookups by result.",
		}, []string{"result"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_events_total",
			Help:      "Snapshot events written to Kafka by outcome.",
		}, []string{"outcome"}),
	}
}
