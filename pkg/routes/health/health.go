// Package health provides health check endpoints for the insumos service.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cuevaio/cpp-insumos/pkg/database"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the result of a health check
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Response represents a health check response
type Response struct {
	Status     Status                 `json:"status"`
	Version    string                 `json:"version,omitempty"`
	Uptime     string                 `json:"uptime,omitempty"`
	Checks     map[string]CheckResult `json:"checks,omitempty"`
	ReportedAt time.Time              `json:"reported_at"`
}

// Checker provides health check functionality
type Checker struct {
	db        database.DB
	startTime time.Time
	version   string
	mu        sync.RWMutex
	ready     bool
}

// NewChecker creates a new health checker
func NewChecker(db database.DB, version string) *Checker {
	return &Checker{
		db:        db,
		startTime: time.Now(),
		version:   version,
	}
}

// SetReady marks the service as ready to receive traffic
func (c *Checker) SetReady(ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = ready
}

// IsReady returns whether the service is ready
func (c *Checker) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// RegisterRoutes registers the health probe routes
func (c *Checker) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", c.HealthHandler)
	e.GET("/health/live", c.LivenessHandler)
	e.GET("/health/ready", c.ReadinessHandler)
}

// LivenessHandler reports whether the process is running.
func (c *Checker) LivenessHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, Response{
		Status:     StatusHealthy,
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		ReportedAt: time.Now(),
	})
}

// ReadinessHandler reports whether the service can accept traffic.
func (c *Checker) ReadinessHandler(ctx echo.Context) error {
	if !c.IsReady() {
		return ctx.JSON(http.StatusServiceUnavailable, Response{
			Status:     StatusUnhealthy,
			Version:    c.version,
			ReportedAt: time.Now(),
			Checks: map[string]CheckResult{
				"startup": {Status: StatusUnhealthy, Message: "service is still starting up"},
			},
		})
	}
	return c.report(ctx)
}

// HealthHandler reports the detailed health of the service.
func (c *Checker) HealthHandler(ctx echo.Context) error {
	return c.report(ctx)
}

func (c *Checker) report(ctx echo.Context) error {
	checks := map[string]CheckResult{
		"database": c.checkDatabase(ctx.Request().Context()),
	}

	status := StatusHealthy
	statusCode := http.StatusOK
	for _, check := range checks {
		if check.Status == StatusUnhealthy {
			status = StatusUnhealthy
			statusCode = http.StatusServiceUnavailable
		}
	}

	return ctx.JSON(statusCode, Response{
		Status:     status,
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		Checks:     checks,
		ReportedAt: time.Now(),
	})
}

func (c *Checker) checkDatabase(ctx context.Context) CheckResult {
	if c.db == nil {
		return CheckResult{Status: StatusUnhealthy, Message: "database not configured"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := c.db.PingContext(checkCtx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Message: err.Error()}
	}

	return CheckResult{
		Status:  StatusHealthy,
		Latency: time.Since(start).Round(time.Millisecond).String(),
	}
}
