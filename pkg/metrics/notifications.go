package metrics

import "github.com/prometheus/client_golang/prometheus"

// DeliveryMetrics counts out-of-band notification deliveries by kind and outcome.
type DeliveryMetrics struct {
	attempts *prometheus.CounterVec
}

const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// NewDeliveryMetrics registers the delivery counter on the provided registerer.
func NewDeliveryMetrics(reg prometheus.Registerer) *DeliveryMetrics {
	if reg == nil {
		return &DeliveryMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_delivery_total",
		Help:      "Out-of-band notification deliveries by kind and outcome.",
	}, []string{"kind", "outcome"})
	reg.MustRegister(attempts)
	return &DeliveryMetrics{attempts: attempts}
}

// Observe increments the counter for the kind/outcome pair.
func (d *DeliveryMetrics) Observe(kind, outcome string) {
	if d == nil || d.attempts == nil {
		return
	}
	d.attempts.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}
