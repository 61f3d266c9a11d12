package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		generationsTotal,
		generationLatencyMs,
	)
}

var (
	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generations_total",
			Help: "Image generation calls by provider and outcome.",
		},
		[]string{"provider", "success"},
	)

	generationLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_latency_ms",
			Help:    "Upstream generation latency distribution in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000},
		},
		[]string{"provider"},
	)
)

func ObserveGeneration(provider string, latencyMs int, success bool) {
	generationsTotal.WithLabelValues(norm(provider), strconv.FormatBool(success)).Inc()
	generationLatencyMs.WithLabelValues(norm(provider)).Observe(float64(latencyMs))
}
