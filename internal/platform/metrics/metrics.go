// Package metrics holds the journey-level Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SessionsCreated   prometheus.Counter
	StateTransitions  *prometheus.CounterVec
	AuthFailures      *prometheus.CounterVec
	VendorCalls       *prometheus.CounterVec
	VendorLatency     *prometheus.HistogramVec
	VendorCircuitOpen prometheus.Gauge
	CredentialsIssued prometheus.Counter
	IssuanceSkipped   prometheus.Counter
	CounterIndicators *prometheus.CounterVec
	ExpiryNotices     prometheus.Counter
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers against reg. Tests pass prometheus.NewRegistry().
func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SessionsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "f2f_sessions_created_total",
			Help: "Sessions created",
		}),
		StateTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "f2f_state_transitions_total",
			Help: "Session state transitions, labeled by target state",
		}, []string{"state"}),
		AuthFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "f2f_auth_failures_total",
			Help: "Rejected journey requests, labeled by operation and reason",
		}, []string{"operation", "reason"}),
		VendorCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "f2f_vendor_calls_total",
			Help: "Vendor API calls, labeled by operation and outcome",
		}, []string{"operation", "outcome"}),
		VendorLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "f2f_vendor_latency_seconds",
			Help:    "Vendor API latency including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		VendorCircuitOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "f2f_vendor_circuit_open",
			Help: "1 while the vendor circuit breaker refuses calls",
		}),
		CredentialsIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "f2f_credentials_issued_total",
			Help: "Verifiable credentials signed and issued",
		}),
		IssuanceSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "f2f_credential_issuance_skipped_total",
			Help: "Issuance attempts that found a credential already issued or in flight",
		}),
		CounterIndicators: f.NewCounterVec(prometheus.CounterOpts{
			Name: "f2f_counter_indicators_total",
			Help: "Counter-indicators attached to issued evidence",
		}, []string{"ci"}),
		ExpiryNotices: f.NewCounter(prometheus.CounterOpts{
			Name: "f2f_expiry_notices_total",
			Help: "Expired-session notices sent to the relying party",
		}),
	}
}

// The helpers below are nil-safe so services can run without metrics in tests.

func (m *Metrics) IncSessionsCreated() {
	if m != nil {
		m.SessionsCreated.Inc()
	}
}

func (m *Metrics) IncTransition(state string) {
	if m != nil {
		m.StateTransitions.WithLabelValues(state).Inc()
	}
}

func (m *Metrics) IncAuthFailure(operation, reason string) {
	if m != nil {
		m.AuthFailures.WithLabelValues(operation, reason).Inc()
	}
}

func (m *Metrics) ObserveVendorCall(operation, outcome string, seconds float64) {
	if m != nil {
		m.VendorCalls.WithLabelValues(operation, outcome).Inc()
		m.VendorLatency.WithLabelValues(operation).Observe(seconds)
	}
}

func (m *Metrics) SetVendorCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.VendorCircuitOpen.Set(1)
		return
	}
	m.VendorCircuitOpen.Set(0)
}

func (m *Metrics) IncCredentialsIssued(cis []string) {
	if m == nil {
		return
	}
	m.CredentialsIssued.Inc()
	for _, ci := range cis {
		m.CounterIndicators.WithLabelValues(ci).Inc()
	}
}

func (m *Metrics) IncIssuanceSkipped() {
	if m != nil {
		m.IssuanceSkipped.Inc()
	}
}

func (m *Metrics) IncExpiryNotices() {
	if m != nil {
		m.ExpiryNotices.Inc()
	}
}
