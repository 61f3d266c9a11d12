package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		webhookEventsTotal,
		webhookDroppedTotal,
	)
}

var (
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Provider webhook events by type and outcome (applied/duplicate/error).",
		},
		[]string{"type", "outcome"},
	)

	webhookDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_dropped_total",
			Help: "Webhook events acknowledged but intentionally dropped, by reason.",
		},
		[]string{"reason"},
	)
)

func IncWebhookEvent(eventType, outcome string) {
	webhookEventsTotal.WithLabelValues(norm(eventType), norm(outcome)).Inc()
}

func IncWebhookDropped(reason string) {
	webhookDroppedTotal.WithLabelValues(norm(reason)).Inc()
}
