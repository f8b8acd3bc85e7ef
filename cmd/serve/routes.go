package serve

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	infragin "github.com/jonesrussell/cooper/infrastructure/gin"
	inframetrics "github.com/jonesrussell/cooper/infrastructure/metrics"
	"github.com/jonesrussell/cooper/infrastructure/profiling"
	"github.com/jonesrussell/cooper/internal/bootstrap"
	"github.com/jonesrussell/cooper/internal/metrics"
	"github.com/jonesrussell/cooper/internal/scheduler"
)

// RouteOptions configures the operational endpoints.
type RouteOptions struct {
	ServiceName    string
	ServiceVersion string
	StartTime      time.Time
}

// SetupRoutes registers /health, /ready, /metrics, /schedule and the
// /events stream. Analyses are never started over HTTP.
func SetupRoutes(router *gin.Engine, app *bootstrap.App, sched *scheduler.Scheduler, opts RouteOptions) {
	httpMetrics := inframetrics.NewHTTPMetrics(app.Registry, metrics.MetricsNamespace)
	router.Use(httpMetrics.Middleware())

	infragin.RegisterHealthRoutes(router, infragin.HealthOptions{
		ServiceName:    opts.ServiceName,
		ServiceVersion: opts.ServiceVersion,
		StartTime:      opts.StartTime,
		Checks:         app.HealthChecks(),
	})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})))

	router.GET("/schedule", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"mode":    app.Config.Mode,
			"entries": sched.Entries(),
		})
	})

	router.GET("/events", app.Broker.Handler())

	if app.Config.Server.Profiling {
		profiling.Register(router)
	}
}
