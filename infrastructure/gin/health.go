package gin

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus is the status of the service or one dependency.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

const checkTimeout = 3 * time.Second

// HealthResponse is the body of GET /health and GET /ready.
type HealthResponse struct {
	Status  HealthStatus           `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Uptime  string                 `json:"uptime,omitempty"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of one dependency check.
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Latency string       `json:"latency,omitempty"`
}

// Check pings one dependency. Critical failures make the service unhealthy;
// the rest only degrade it.
type Check struct {
	Name     string
	Critical bool
	Ping     func(ctx context.Context) error
}

// HealthOptions configures the health endpoints.
type HealthOptions struct {
	ServiceName    string
	ServiceVersion string
	StartTime      time.Time
	Checks         []Check
}

// RegisterHealthRoutes adds:
//   - GET /health: liveness with uptime, never runs checks
//   - HEAD /health: load balancer check
//   - GET /ready: runs every check, 503 when a critical one fails
func RegisterHealthRoutes(router *gin.Engine, opts HealthOptions) {
	if opts.StartTime.IsZero() {
		opts.StartTime = time.Now()
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:  HealthStatusHealthy,
			Service: opts.ServiceName,
			Version: opts.ServiceVersion,
			Uptime:  time.Since(opts.StartTime).Round(time.Second).String(),
		})
	})
	router.HEAD("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/ready", readyHandler(opts))
}

func readyHandler(opts HealthOptions) gin.HandlerFunc {
	checks := append([]Check(nil), opts.Checks...)
	sort.Slice(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })

	return func(c *gin.Context) {
		response := HealthResponse{
			Status:  HealthStatusHealthy,
			Service: opts.ServiceName,
			Version: opts.ServiceVersion,
		}

		if len(checks) > 0 {
			response.Checks = make(map[string]CheckResult, len(checks))
		}

		for _, check := range checks {
			result := runCheck(c.Request.Context(), check)
			response.Checks[check.Name] = result

			switch {
			case result.Status == HealthStatusUnhealthy:
				response.Status = HealthStatusUnhealthy
			case result.Status == HealthStatusDegraded && response.Status == HealthStatusHealthy:
				response.Status = HealthStatusDegraded
			}
		}

		statusCode := http.StatusOK
		if response.Status == HealthStatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, response)
	}
}

func runCheck(ctx context.Context, check Check) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := check.Ping(ctx)
	latency := time.Since(start).String()

	if err == nil {
		return CheckResult{Status: HealthStatusHealthy, Message: "OK", Latency: latency}
	}

	status := HealthStatusDegraded
	if check.Critical {
		status = HealthStatusUnhealthy
	}
	return CheckResult{Status: status, Message: err.Error(), Latency: latency}
}
