package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the analysis service.
type Metrics struct {
	AnalysesRun      prometheus.Counter
	AnalysesFailed   prometheus.Counter
	AnalysisDuration prometheus.Histogram

	// Fitting metrics.
	FitOutcomes *prometheus.CounterVec // labels: family, outcome={success,failure}

	// Cache metrics.
	CacheLookups *prometheus.CounterVec

	// Collector metrics.
	SamplesCollected prometheus.Counter
	CollectorErrors  prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		AnalysesRun: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydrofreq",
			Name:      "analyses_total",
			Help:      "Total frequency analyses executed.",
		}),
		AnalysesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydrofreq",
			Name:      "analyses_failed_total",
			Help:      "Total analyses that ended with a fatal error.",
		}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hydrofreq",
			Name:      "analysis_duration_seconds",
			Help:      "Duration of a complete aggregate-fit-rank analysis run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FitOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydrofreq",
			Name:      "fit_outcomes_total",
			Help:      "Distribution fit attempts by family and outcome.",
		}, []string{"family", "outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydrofreq",
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by result.",
		}, []string{"result"}),
		SamplesCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydrofreq",
			Name:      "samples_collected_total",
			Help:      "Total observations fetched by the collector.",
		}),
		CollectorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydrofreq",
			Name:      "collector_errors_total",
			Help:      "Total collector polling failures.",
		}),
	}

	prometheus.MustRegister(
		m.AnalysesRun,
		m.AnalysesFailed,
		m.AnalysisDuration,
		m.FitOutcomes,
		m.CacheLookups,
		m.SamplesCollected,
		m.CollectorErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		AnalysesRun:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hydrofreq", Name: "analyses_total"}),
		AnalysesFailed:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hydrofreq", Name: "analyses_failed_total"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "hydrofreq", Name: "analysis_duration_seconds"}),
		FitOutcomes:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hydrofreq", Name: "fit_outcomes_total"}, []string{"family", "outcome"}),
		CacheLookups:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hydrofreq", Name: "cache_lookups_total"}, []string{"result"}),
		SamplesCollected: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hydrofreq", Name: "samples_collected_total"}),
		CollectorErrors:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hydrofreq", Name: "collector_errors_total"}),
	}
}
