// Package metrics holds the Prometheus collectors for a placescout run.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "placescout"

// Metrics is the set of collectors for one run. Instances are independent so
// tests can assert on fresh counters.
type Metrics struct {
	FetchAttempts   *prometheus.CounterVec
	FetchDuration   *prometheus.HistogramVec
	CacheLookups    *prometheus.CounterVec
	Locations       *prometheus.CounterVec
	UpstreamTotal   *prometheus.CounterVec
	UpstreamLatency *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "Fetch attempts by query kind and outcome",
		}, []string{"kind", "outcome"}),

		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Logical fetch duration including retries",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"kind"}),

		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by query kind and result",
		}, []string{"kind", "result"}), // "hit" / "miss" / "bust"

		Locations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "locations_processed_total",
			Help:      "Locations processed by status",
		}, []string{"status"}), // StatusComplete / StatusIncomplete

		UpstreamTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Outbound HTTP requests by provider and status",
		}, []string{"provider", "status"}),

		UpstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Outbound HTTP request duration",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"provider"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.FetchAttempts, m.FetchDuration,
			m.CacheLookups, m.Locations,
			m.UpstreamTotal, m.UpstreamLatency,
		)
	}
	return m
}

// IncCache records a cache lookup. Safe on a nil receiver.
func (m *Metrics) IncCache(kind, result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(kind, result).Inc()
}

// Location status label values.
const (
	StatusComplete   = "complete"
	StatusIncomplete = "incomplete"
)

// IncLocation records a processed location. Safe on a nil receiver.
func (m *Metrics) IncLocation(status string) {
	if m == nil {
		return
	}
	m.Locations.WithLabelValues(status).Inc()
}
