package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion and retirement pipelines.
type Metrics struct {
	// Ingestion funnel.
	ReportsFound          prometheus.Counter
	ReportsResolved       prometheus.Counter
	ReportsWithoutAddress prometheus.Counter
	ReportsWithAddress    prometheus.Counter
	IncidentsAdded        prometheus.Counter

	// Retirement.
	IncidentsRemoved *prometheus.CounterVec // labels: reason={resolved,stale,bridge_lift}

	// Run-level accounting.
	RunsTotal   *prometheus.CounterVec   // labels: pipeline, outcome={success,error}
	RunDuration *prometheus.HistogramVec // labels: pipeline

	// Geocoding.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,empty,error}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ReportsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "incident_etl",
			Name:      "reports_found_total",
			Help:      "Total reports returned by the source search.",
		}),
		ReportsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "incident_etl",
			Name:      "reports_resolved_total",
			Help:      "Reports filtered out because a resolution reply already existed.",
		}),
		ReportsWithoutAddress: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "incident_etl",
			Name:      "reports_without_address_total",
			Help:      "Reports whose text yielded no candidate address.",
		}),
		ReportsWithAddress: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "incident_etl",
			Name:      "reports_with_address_total",
			Help:      "Reports with at least one candidate address.",
		}),
		IncidentsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "incident_etl",
			Name:      "incidents_added_total",
			Help:      "Localized, non-duplicate incidents persisted.",
		}),
		IncidentsRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_etl",
			Name:      "incidents_removed_total",
			Help:      "Incidents retired, by reason.",
		}, []string{"reason"}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_etl",
			Name:      "runs_total",
			Help:      "Pipeline runs by pipeline and outcome.",
		}, []string{"pipeline", "outcome"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "incident_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete pipeline run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"pipeline"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_etl",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_etl",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "incident_etl",
			Name:      "geocode_api_duration_seconds",
			Help:      "Nominatim request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}

	prometheus.MustRegister(
		m.ReportsFound,
		m.ReportsResolved,
		m.ReportsWithoutAddress,
		m.ReportsWithAddress,
		m.IncidentsAdded,
		m.IncidentsRemoved,
		m.RunsTotal,
		m.RunDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ReportsFound:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "incident_etl", Name: "reports_found_total"}),
		ReportsResolved:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "incident_etl", Name: "reports_resolved_total"}),
		ReportsWithoutAddress: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "incident_etl", Name: "reports_without_address_total"}),
		ReportsWithAddress:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "incident_etl", Name: "reports_with_address_total"}),
		IncidentsAdded:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "incident_etl", Name: "incidents_added_total"}),
		IncidentsRemoved:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "incident_etl", Name: "incidents_removed_total"}, []string{"reason"}),
		RunsTotal:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "incident_etl", Name: "runs_total"}, []string{"pipeline", "outcome"}),
		RunDuration:           prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "incident_etl", Name: "run_duration_seconds"}, []string{"pipeline"}),
		GeocodeRequests:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "incident_etl", Name: "geocode_requests_total"}, []string{"outcome"}),
		GeocodeCache:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "incident_etl", Name: "geocode_cache_total"}, []string{"result"}),
		GeocodeAPIDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "incident_etl", Name: "geocode_api_duration_seconds"}),
	}
}
