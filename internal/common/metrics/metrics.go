package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CompositionsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compose_compositions_completed_total",
			Help: "Total number of successful compositions",
		},
		[]string{"mime_type"},
	)

	CompositionsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compose_compositions_failed_total",
			Help: "Total number of failed compositions",
		},
		[]string{"mime_type", "error_type"},
	)

	ComposeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "compose_duration_seconds",
			Help: "Duration of the full compose pipeline in seconds",
		},
		[]string{"mime_type"},
	)

	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "compose_render_duration_seconds",
			Help: "Duration of the format rendering stage in seconds",
		},
		[]string{"mime_type"},
	)
)
