package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector exposed on /metrics.
var Registry = prometheus.NewRegistry()

var (
	actionsTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "conversation_actions_total",
		Help: "Affordance clicks by resolved action.",
	}, []string{"action"})

	noticesTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "conversation_notices_total",
		Help: "Notices shown to users by code.",
	}, []string{"code"})

	generationDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "document_generation_duration_ms",
		Help:    "Document generation duration in milliseconds.",
		Buckets: []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000},
	}, []string{"kind", "outcome"})

	feedbackDelivered = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "feedback_delivered_total",
		Help: "Feedback events processed by the worker.",
	}, []string{"outcome"})

	rateLimited = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "http_rate_limited_total",
		Help: "Requests refused by the rate limiter, by group.",
	}, []string{"group"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// IncAction counts a dispatched action.
func IncAction(action string) {
	actionsTotal.WithLabelValues(action).Inc()
}

// IncNotice counts a notice shown to a user.
func IncNotice(code string) {
	noticesTotal.WithLabelValues(code).Inc()
}

// ObserveGeneration records a generation attempt and its duration.
func ObserveGeneration(kind, outcome string, d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	if ms < 0 {
		ms = 0
	}
	generationDuration.WithLabelValues(kind, outcome).Observe(ms)
}

// IncFeedback counts a feedback event handled by the worker.
func IncFeedback(outcome string) {
	feedbackDelivered.WithLabelValues(outcome).Inc()
}

// IncRateLimited counts a request refused by the rate limiter.
func IncRateLimited(group string) {
	rateLimited.WithLabelValues(group).Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
