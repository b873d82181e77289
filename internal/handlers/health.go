package handlers

import (
	"context"
	"net/http"
	"time"

	"airport-weather-map/pkg/logging"
)

// HealthChecker is anything that can report its own health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler reports liveness plus the state of its dependencies
type HealthHandler struct {
	checks map[string]HealthChecker
	tables map[string]int
	logger *logging.StructuredLogger
}

// NewHealthHandler creates a health handler. tables holds the loaded row
// counts and may be nil when the server runs without lookup tables.
func NewHealthHandler(checks map[string]HealthChecker, tables map[string]int, logger *logging.StructuredLogger) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		tables: tables,
		logger: logger,
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
	Tables    map[string]int    `json:"tables,omitempty"`
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Tables:    h.tables,
	}
	statusCode := http.StatusOK

	if len(h.checks) > 0 {
		response.Checks = make(map[string]string, len(h.checks))
	}
	for name, check := range h.checks {
		if err := check.HealthCheck(ctx); err != nil {
			response.Checks[name] = err.Error()
			response.Status = "unhealthy"
			statusCode = http.StatusServiceUnavailable
			continue
		}
		response.Checks[name] = "ok"
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{
		"status": response.Status,
	})
	sendJSON(w, response, statusCode)
}
