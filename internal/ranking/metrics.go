package ranking

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricRequestsTotal    = "discovery_rank_requests_total"
	MetricRequestDuration  = "discovery_rank_duration_seconds"
	MetricCandidatesPulled = "discovery_rank_candidates"
	MetricResultsServed    = "discovery_rank_results_served_total"
	MetricSponsoredServed  = "discovery_rank_sponsored_served_total"
)

// Metrics contains Prometheus metrics for the ranking pipeline.
// All operations are thread-safe. A nil *Metrics is a no-op.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	candidates      prometheus.Histogram
	resultsServed   prometheus.Counter
	sponsoredServed prometheus.Counter
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRequestsTotal,
				Help: "Total number of ranking requests by sort mode",
			},
			[]string{"sort_mode"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricRequestDuration,
				Help:    "Histogram of end-to-end ranking duration in seconds by sort mode",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"sort_mode"},
		),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricCandidatesPulled,
			Help:    "Histogram of candidate set sizes pulled per request",
			Buckets: []float64{10, 25, 50, 100, 250, 500},
		}),
		resultsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricResultsServed,
			Help: "Total number of result items served",
		}),
		sponsoredServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSponsoredServed,
			Help: "Total number of sponsored result items served",
		}),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all metric collectors for testing purposes.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.requestsTotal,
		m.requestDuration,
		m.candidates,
		m.resultsServed,
		m.sponsoredServed,
	}
}

// RecordRequest observes one completed ranking request.
func (m *Metrics) RecordRequest(sortMode string, candidates, results, sponsored int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(sortMode).Inc()
	m.requestDuration.WithLabelValues(sortMode).Observe(duration.Seconds())
	m.candidates.Observe(float64(candidates))
	m.resultsServed.Add(float64(results))
	m.sponsoredServed.Add(float64(sponsored))
}
