package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the game service.
type Metrics struct {
	ActiveSessions prometheus.Gauge
	Rotations      *prometheus.CounterVec // labels: reason={start,manual,idle}
	Guesses        *prometheus.CounterVec // labels: outcome={correct,wrong,unresolved,rejected}
	RoundsFinished *prometheus.CounterVec // labels: result={solved,failed}

	// Dataset loading metrics.
	DatasetFetches       *prometheus.CounterVec   // labels: kind, outcome={ok,fallback,missing,error}
	DatasetFetchDuration *prometheus.HistogramVec // labels: kind
	DatasetCache         *prometheus.CounterVec   // labels: result={hit,miss}
	SharedCache          *prometheus.CounterVec   // labels: result={hit,miss,error}
	StaleResults         prometheus.Counter

	// Layer construction metrics.
	LayerFallbacks   *prometheus.CounterVec // labels: kind
	PositionsDropped *prometheus.CounterVec // labels: kind

	EventsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "geoguess",
			Name:      "active_sessions",
			Help:      "Number of open game sessions.",
		}),
		Rotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geoguess",
			Name:      "rotations_total",
			Help:      "Location rotations by reason.",
		}, []string{"reason"}),
		Guesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geoguess",
			Name:      "guesses_total",
			Help:      "Submitted guesses by outcome.",
		}, []string{"outcome"}),
		RoundsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geoguess",
			Name:      "rounds_finished_total",
			Help:      "Finished rounds by result.",
		}, []string{"result"}),
		DatasetFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geoguess",
			Name:      "dataset_fetches_total",
			Help:      "Per-layer dataset fetches by kind and outcome.",
		}, []string{"kind", "outcome"}),
		DatasetFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "geoguess",
			Name:      "dataset_fetch_duration_seconds",
			Help:      "Duration of a per-layer dataset fetch including fallbacks.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		DatasetCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geoguess",
			Name:      "dataset_cache_total",
			Help:      "Dataset cache lookups by result.",
		}, []string{"result"}),
		SharedCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geoguess",
			Name:      "shared_cache_total",
			Help:      "Redis dataset cache lookups and write failures by result.",
		}, []string{"result"}),
		StaleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "geoguess",
			Name:      "stale_results_total",
			Help:      "Layer payloads discarded because their location was no longer active.",
		}),
		LayerFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geoguess",
			Name:      "layer_fallbacks_total",
			Help:      "Layers replaced by an empty layer after a construction failure.",
		}, []string{"kind"}),
		PositionsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geoguess",
			Name:      "positions_dropped_total",
			Help:      "Positions removed by geometry sanitization.",
		}, []string{"kind"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geoguess",
			Name:      "events_published_total",
			Help:      "Round events sent to the event sink by outcome.",
		}, []string{"outcome"}),
	}

	prometheus.MustRegister(
		m.ActiveSessions,
		m.Rotations,
		m.Guesses,
		m.RoundsFinished,
		m.DatasetFetches,
		m.DatasetFetchDuration,
		m.DatasetCache,
		m.SharedCache,
		m.StaleResults,
		m.LayerFallbacks,
		m.PositionsDropped,
		m.EventsPublished,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ActiveSessions:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "geoguess", Name: "active_sessions"}),
		Rotations:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "geoguess", Name: "rotations_total"}, []string{"reason"}),
		Guesses:              prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "geoguess", Name: "guesses_total"}, []string{"outcome"}),
		RoundsFinished:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "geoguess", Name: "rounds_finished_total"}, []string{"result"}),
		DatasetFetches:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "geoguess", Name: "dataset_fetches_total"}, []string{"kind", "outcome"}),
		DatasetFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "geoguess", Name: "dataset_fetch_duration_seconds"}, []string{"kind"}),
		DatasetCache:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "geoguess", Name: "dataset_cache_total"}, []string{"result"}),
		SharedCache:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "geoguess", Name: "shared_cache_total"}, []string{"result"}),
		StaleResults:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "geoguess", Name: "stale_results_total"}),
		LayerFallbacks:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "geoguess", Name: "layer_fallbacks_total"}, []string{"kind"}),
		PositionsDropped:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "geoguess", Name: "positions_dropped_total"}, []string{"kind"}),
		EventsPublished:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "geoguess", Name: "events_published_total"}, []string{"outcome"}),
	}
}
