package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestDeliveryMetricsCountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDeliveryMetrics(reg)
	m.Observe("order_confirmed", OutcomeSent)
	m.Observe("order_confirmed", OutcomeSent)
	m.Observe("order_confirmed", OutcomeFailed)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	mf := findMetricFamily(mfs, "fulfillment_notification_delivery_total")
	if mf == nil {
		t.Fatal("fulfillment_notification_delivery_total not exported")
	}

	sent := labelled(mf, map[string]string{"kind": "order_confirmed", "outcome": OutcomeSent})
	failed := labelled(mf, map[string]string{"kind": "order_confirmed", "outcome": OutcomeFailed})
	if sent.GetCounter().GetValue() != 2 || failed.GetCounter().GetValue() != 1 {
		t.Fatalf("unexpected counts sent=%v failed=%v", sent, failed)
	}
}

func TestDeliveryMetricsNilSafe(t *testing.T) {
	var m *DeliveryMetrics
	m.Observe("x", OutcomeSent)
	NewDeliveryMetrics(nil).Observe("x", OutcomeSkipped)
}

func TestOutboxMetricsCountsByEventType(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.Observe("order_status_changed", OutboxPublished)
	m.Observe("notification_requested", OutboxRetry)
	m.Observe("", OutboxDeadLettered)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	mf := findMetricFamily(mfs, "fulfillment_outbox_events_total")
	if mf == nil {
		t.Fatal("fulfillment_outbox_events_total not exported")
	}
	if got := len(mf.GetMetric()); got != 3 {
		t.Fatalf("expected 3 series got %d", got)
	}
	if labelled(mf, map[string]string{"event_type": "unknown"}) == nil {
		t.Fatal("expected empty event type to be reported as unknown")
	}
}
