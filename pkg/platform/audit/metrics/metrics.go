package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the audit publisher.
type Metrics struct {
	QueueDepth      prometheus.Gauge
	EventsDropped   prometheus.Counter
	EventsDelivered prometheus.Counter
	SendFailures    prometheus.Counter
	SendDuration    prometheus.Histogram
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "f2f_audit_queue_depth",
			Help: "Audit events waiting in the publisher buffer",
		}),
		EventsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "f2f_audit_events_dropped_total",
			Help: "Audit events dropped because the buffer was full",
		}),
		EventsDelivered: f.NewCounter(prometheus.CounterOpts{
			Name: "f2f_audit_events_delivered_total",
			Help: "Audit events acknowledged by the sink",
		}),
		SendFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "f2f_audit_send_failures_total",
			Help: "Audit events the sink failed to accept",
		}),
		SendDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "f2f_audit_send_duration_seconds",
			Help:    "Time taken by the sink to accept one event",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}

func (m *Metrics) IncEventsDropped() {
	m.EventsDropped.Inc()
}

func (m *Metrics) IncEventsDelivered() {
	m.EventsDelivered.Inc()
}

func (m *Metrics) IncSendFailures() {
	m.SendFailures.Inc()
}

func (m *Metrics) ObserveSendDuration(seconds float64) {
	m.SendDuration.Observe(seconds)
}
