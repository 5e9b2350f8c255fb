package impression

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricRecordsWrittenTotal = "discovery_impression_records_written_total"
	MetricRecordsDroppedTotal = "discovery_impression_records_dropped_total"
	MetricWriteErrorsTotal    = "discovery_impression_write_errors_total"
)

// Metrics contains Prometheus metrics for the impression pipeline.
// All operations are thread-safe. A nil *Metrics is a no-op so tests can
// run a Recorder without a registry.
type Metrics struct {
	recordsWritten prometheus.Counter
	recordsDropped prometheus.Counter
	writeErrors    prometheus.Counter
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		recordsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRecordsWrittenTotal,
			Help: "Total number of impression and request-log records written",
		}),
		recordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRecordsDroppedTotal,
			Help: "Total number of records dropped due to a full buffer",
		}),
		writeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricWriteErrorsTotal,
			Help: "Total number of failed impression repository writes",
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
		m.recordsWritten,
		m.recordsDropped,
		m.writeErrors,
	}
}

// RecordWritten increments the written counter by n.
func (m *Metrics) RecordWritten(n int) {
	if m == nil {
		return
	}
	m.recordsWritten.Add(float64(n))
}

// RecordDropped increments the dropped counter by n.
func (m *Metrics) RecordDropped(n int) {
	if m == nil {
		return
	}
	m.recordsDropped.Add(float64(n))
}

// RecordWriteError increments the write error counter.
func (m *Metrics) RecordWriteError() {
	if m == nil {
		return
	}
	m.writeErrors.Inc()
}
