package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		creditsGrantedTotal,
		creditsDebitedTotal,
		creditsDebitDenied,
	)
}

var (
	creditsGrantedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_granted_total",
			Help: "Credits granted, labeled by source (signup/purchase/refund).",
		},
		[]string{"source"},
	)

	creditsDebitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "credits_debited_total",
			Help: "Credits consumed by successful generations.",
		},
	)

	creditsDebitDenied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "credits_debit_denied_total",
			Help: "Debit attempts rejected for insufficient balance.",
		},
	)
)

func AddCreditsGranted(source string, n int64) {
	creditsGrantedTotal.WithLabelValues(norm(source)).Add(float64(n))
}

func AddCreditsDebited(n int64) {
	creditsDebitedTotal.Add(float64(n))
}

func IncDebitDenied() {
	creditsDebitDenied.Inc()
}
