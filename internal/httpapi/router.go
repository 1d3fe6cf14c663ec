// Package httpapi wires the HTTP edge: middleware chain, route table, and
// handler dependencies.
package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geocoder89/benchorch/internal/http/middlewares"
	"github.com/geocoder89/benchorch/internal/httpapi/handlers"
	"github.com/geocoder89/benchorch/internal/observability"
)

const maxBodyBytes = 10 << 20 // 10 MiB, generous for campaign submissions with many jobs

// New builds the gin engine: ambient middleware first, then the /api route
// table bound to deps.
func New(deps *handlers.Deps, metrics *observability.Prom, reg *prometheus.Registry, corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(corsOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())
	if metrics != nil {
		r.Use(metrics.GinHandleMiddleware())
	}
	if reg != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	registerLimiter := middlewares.NewRateLimiter(30, time.Minute)
	heartbeatLimiter := middlewares.NewRateLimiter(120, time.Minute)

	api := r.Group("/api")
	{
		api.GET("/health", deps.Health)
		api.POST("/reset", deps.Reset)

		api.GET("/workers", deps.ListWorkers)
		api.GET("/workers/:id", deps.GetWorker)
		api.POST("/register", registerLimiter.RateLimiterMiddleware(middlewares.KeyByIP), deps.Register)
		api.PUT("/workers/:id/status", deps.SetStatus)
		api.PUT("/workers/:id/reset", deps.ResetWorker)
		api.POST("/workers/:id/heartbeat", heartbeatLimiter.RateLimiterMiddleware(middlewares.KeyByWorkerOrIP), deps.Heartbeat)
		api.GET("/workers/:id/health", deps.WorkerHealth)
		api.GET("/health/workers", deps.FleetHealth)

		api.POST("/campaigns", deps.CreateCampaign)
		api.GET("/campaigns", deps.ListCampaigns)
		api.GET("/campaigns/:id", deps.GetCampaign)
		api.GET("/campaigns/:id/results", deps.CampaignResults)

		api.GET("/jobs/:id", deps.GetJob)

		api.GET("/queue/status", deps.QueueStatus)

		api.GET("/results/files", deps.ListResultFiles)
		api.GET("/results/download/:name", deps.DownloadResultFile)

		api.GET("/monitoring/stats", deps.MonitoringStats)
	}

	return r
}
