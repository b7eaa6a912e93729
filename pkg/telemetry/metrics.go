package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var Metrics = struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	TasksTotal       *prometheus.CounterVec
	ResponderLatency *prometheus.HistogramVec
	ActiveSessions   prometheus.Gauge
	ErrorsTotal      *prometheus.CounterVec
}{
	RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticktock",
		Name:      "a2a_requests_total",
		Help:      "A2A requests by route and outcome (ok or JSON-RPC error code).",
	}, []string{"route", "outcome"}),

	RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ticktock",
		Name:      "a2a_request_duration_seconds",
		Help:      "A2A request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"}),

	TasksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticktock",
		Name:      "tasks_total",
		Help:      "Task executions by resulting state.",
	}, []string{"state"}),

	ResponderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ticktock",
		Name:      "responder_latency_seconds",
		Help:      "Time spent inside the responder per task.",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"responder"}),

	ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ticktock",
		Name:      "sessions",
		Help:      "Sessions held in memory.",
	}),

	ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticktock",
		Name:      "errors_total",
		Help:      "Unexpected errors by component.",
	}, []string{"component"}),
}
