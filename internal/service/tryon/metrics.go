package tryon

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tryonRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tryon_requests_total",
			Help: "Try-on pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	tryonStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tryon_stage_duration_seconds",
			Help:    "Duration of remote try-on pipeline stages",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"stage"},
	)
)

func observeOutcome(outcome string) {
	tryonRequestsTotal.WithLabelValues(outcome).Inc()
}

func observeStage(stage string, start time.Time) {
	tryonStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
