package handlers

import (
	"log/slog"
	"net/http"

	"github.com/eatly/dishes-api/internal/service"
)

// DiagnosticsHandler serves read-only probes. None of them touch the schema,
// so they work before the dishes table exists.
type DiagnosticsHandler struct {
	service *service.DishService
	env     map[string]interface{}
	logger  *slog.Logger
}

// NewDiagnosticsHandler creates a new diagnostics handler. env is served
// as-is by /env and must already be free of secrets.
func NewDiagnosticsHandler(service *service.DishService, env map[string]interface{}, logger *slog.Logger) *DiagnosticsHandler {
	return &DiagnosticsHandler{
		service: service,
		env:     env,
		logger:  logger,
	}
}

// Ping handles GET /ping
func (h *DiagnosticsHandler) Ping(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"message": "pong"}, h.logger)
}

// Env handles GET /env
func (h *DiagnosticsHandler) Env(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.env, h.logger)
}

// DBInfo handles GET /db-info
func (h *DiagnosticsHandler) DBInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.DBInfo(r.Context())
	if err != nil {
		h.logger.Error("failed to read database info", "error", err)
		writeStorageError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, info, h.logger)
}

// TestConnection handles GET /test-connection and GET /test-db
func (h *DiagnosticsHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	result := h.service.TestConnection(r.Context())

	status := http.StatusOK
	if !result.Connected() {
		status = http.StatusServiceUnavailable
	}
	WriteJSON(w, status, result, h.logger)
}
