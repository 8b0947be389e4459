package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	OTPIssued         prometheus.Counter
	OTPEmailFailures  prometheus.Counter
	OTPVerifications  *prometheus.CounterVec
	OrderTransitions  *prometheus.CounterVec
	OrderSaveConflict prometheus.Counter
}

// New registers the counters with reg. Pass prometheus.DefaultRegisterer in main
// and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		OTPIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "karvix_otp_issued_total",
			Help: "Total number of one-time codes stored and emailed",
		}),
		OTPEmailFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "karvix_otp_email_failures_total",
			Help: "Total number of one-time code emails the mail transport rejected",
		}),
		OTPVerifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "karvix_otp_verifications_total",
			Help: "One-time code verification attempts by outcome (missing, mismatch, matched)",
		}, []string{"outcome"}),
		OrderTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "karvix_order_transitions_total",
			Help: "Order status change requests by role and result (allowed, rejected)",
		}, []string{"role", "result"}),
		OrderSaveConflict: f.NewCounter(prometheus.CounterOpts{
			Name: "karvix_order_save_conflicts_total",
			Help: "Order writes rejected because the stored version moved on",
		}),
	}
}

func (m *Metrics) IncrementOTPIssued() {
	if m == nil {
		return
	}
	m.OTPIssued.Inc()
}

func (m *Metrics) IncrementOTPEmailFailures() {
	if m == nil {
		return
	}
	m.OTPEmailFailures.Inc()
}

func (m *Metrics) ObserveOTPVerification(outcome string) {
	if m == nil {
		return
	}
	m.OTPVerifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveOrderTransition(role string, allowed bool) {
	if m == nil {
		return
	}
	result := "rejected"
	if allowed {
		result = "allowed"
	}
	m.OrderTransitions.WithLabelValues(role, result).Inc()
}

func (m *Metrics) IncrementOrderSaveConflicts() {
	if m == nil {
		return
	}
	m.OrderSaveConflict.Inc()
}
