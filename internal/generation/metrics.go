package generation

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"mediagw/internal/providers/taskapi"
)

var (
	tasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediagw_generation_tasks_total",
			Help: "Total generation orchestrations by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	taskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediagw_generation_task_duration_seconds",
			Help:    "Wall-clock duration of completed generation tasks.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 900},
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(tasksTotal)
	prometheus.MustRegister(taskDuration)
}

func observeOutcome(kind string, err error) {
	tasksTotal.WithLabelValues(kind, outcomeLabel(err)).Inc()
}

// outcomeLabel maps the error taxonomy onto a bounded metric label set.
func outcomeLabel(err error) string {
	if err == nil {
		return "completed"
	}
	var (
		transportErr *taskapi.TransportError
		rejectedErr  *taskapi.ProviderRejectedError
		failedErr    *JobFailedError
		timedOutErr  *JobTimedOutError
		unknownErr   *UnknownStateError
		invalidErr   *ValidationError
		noResErr     *NoResourceError
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &transportErr):
		return "transport_error"
	case errors.As(err, &rejectedErr):
		return "rejected"
	case errors.As(err, &failedErr):
		return "failed"
	case errors.As(err, &timedOutErr):
		return "timeout"
	case errors.As(err, &unknownErr):
		return "unknown_state"
	case errors.As(err, &invalidErr):
		return "invalid_output"
	case errors.As(err, &noResErr):
		return "no_resource"
	default:
		return "error"
	}
}
