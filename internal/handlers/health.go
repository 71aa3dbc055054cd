package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health check endpoint
type HealthHandler struct {
	logger     *slog.Logger
	instanceID string
	db         pinger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(logger *slog.Logger, instanceID string, db pinger) *HealthHandler {
	return &HealthHandler{
		logger:     logger,
		instanceID: instanceID,
		db:         db,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version"`
	InstanceID string    `json:"instance_id"`
	Database   string    `json:"database"`
}

// ServeHTTP handles health check requests
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:     "healthy",
		Timestamp:  time.Now().UTC(),
		Version:    Version,
		InstanceID: h.instanceID,
		Database:   "up",
	}
	status := http.StatusOK

	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.Warn("health check: database unreachable", "error", err)
		response.Status = "degraded"
		response.Database = "down"
		status = http.StatusServiceUnavailable
	}

	WriteJSON(w, status, response, h.logger)
}
