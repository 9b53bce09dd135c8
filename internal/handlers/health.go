package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"classroom-notifier/internal/contextutil"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	checks             map[string]HealthCheck
	nextSweep          func(now time.Time) time.Time
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. nextSweep may be nil when no
// scheduler is running.
func NewHealthHandler(checks map[string]HealthCheck, nextSweep func(now time.Time) time.Time) *HealthHandler {
	return &HealthHandler{
		checks:             checks,
		nextSweep:          nextSweep,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// NextSweep is when the scheduler fires next, if one is running.
	NextSweep string `json:"nextSweep,omitempty"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles GET /api/health.
// Returns 200 OK if healthy, 503 Service Unavailable otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	var issues []string
	for _, name := range names {
		if h.runCheck(checkCtx, logger, name) {
			checks[name] = "ok"
		} else {
			checks[name] = "error"
			issues = append(issues, name+"_unavailable")
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	now := time.Now().UTC()
	response := HealthResponse{
		Status:    status,
		Timestamp: now.Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	}
	if h.nextSweep != nil {
		response.NextSweep = h.nextSweep(now).Format(time.RFC3339)
	}

	writeJSON(ctx, w, httpStatus, response)
}

func (h *HealthHandler) runCheck(ctx context.Context, logger *slog.Logger, name string) bool {
	if err := h.checks[name](ctx); err != nil {
		logger.WarnContext(ctx, "health check failed", "check", name, "error", err)
		return false
	}
	return true
}
