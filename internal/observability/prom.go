package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Prom holds every Prometheus collector the orchestrator registers, split
// between the generic HTTP edge metrics and the domain-specific ones fed by
// the HTTP handlers and by the timeout engine and result processor hooks.
type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	JobsDispatchedTotal      *prometheus.CounterVec
	JobsTimedOutTotal        prometheus.Counter
	JobsRetriedTotal         prometheus.Counter
	WorkersFaultyTotal       prometheus.Counter
	CampaignCompletionSeconds prometheus.Histogram
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "orchestrator",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "orchestrator",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "orchestrator",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		JobsDispatchedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "orchestrator",
				Subsystem: "jobs",
				Name:      "dispatched_total",
				Help:      "Jobs pushed to a queue, by routing kind.",
			},
			[]string{"route"}, // route=pinned|capability
		),
		JobsTimedOutTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "orchestrator",
				Subsystem: "jobs",
				Name:      "timed_out_total",
				Help:      "Jobs the timeout engine found stuck in running.",
			},
		),
		JobsRetriedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "orchestrator",
				Subsystem: "jobs",
				Name:      "retried_total",
				Help:      "Jobs requeued by the timeout/retry engine.",
			},
		),
		WorkersFaultyTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "orchestrator",
				Subsystem: "workers",
				Name:      "faulty_total",
				Help:      "Worker transitions into the faulty state made through PUT /workers/{id}/status.",
			},
		),
		CampaignCompletionSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "orchestrator",
				Subsystem: "campaign",
				Name:      "completion_seconds",
				Help:      "Wall-clock time from campaign creation to completion.",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
			},
		),
	}
	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.JobsDispatchedTotal, p.JobsTimedOutTotal, p.JobsRetriedTotal,
		p.WorkersFaultyTotal, p.CampaignCompletionSeconds,
	)

	return p
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}
