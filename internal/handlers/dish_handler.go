package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/eatly/dishes-api/internal/models"
	"github.com/eatly/dishes-api/internal/service"
)

// DishHandler handles dish-related HTTP requests
type DishHandler struct {
	service *service.DishService
	logger  *slog.Logger
}

// NewDishHandler creates a new dish handler
func NewDishHandler(service *service.DishService, logger *slog.Logger) *DishHandler {
	return &DishHandler{
		service: service,
		logger:  logger,
	}
}

// ListDishes handles GET /dishes
// Creates and seeds the table on first use, then returns every dish
func (h *DishHandler) ListDishes(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.EnsureAndList(r.Context())
	if err != nil {
		h.logger.Error("failed to list dishes", "error", err)
		writeStorageError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, result, h.logger)
}

// ListSummaries handles GET /dishes/summary
// Read-only: an unprovisioned table returns an empty list
func (h *DishHandler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	dishes, err := h.service.ListReadOnly(r.Context())
	if err != nil {
		h.logger.Error("failed to list dish summaries", "error", err)
		writeStorageError(w, err, h.logger)
		return
	}

	summaries := make([]models.DishSummary, len(dishes))
	for i, d := range dishes {
		summaries[i] = d.Summary()
	}
	WriteJSON(w, http.StatusOK, summaries, h.logger)
}

// SetupDishes handles POST /setup-dishes
// ?skip_columns=true only checks that the table exists
func (h *DishHandler) SetupDishes(w http.ResponseWriter, r *http.Request) {
	var opts service.SetupOptions
	if v := r.URL.Query().Get("skip_columns"); v != "" {
		skip, err := strconv.ParseBool(v)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid skip_columns: must be true or false", h.logger)
			return
		}
		opts.SkipColumns = skip
	}

	result, err := h.service.Setup(r.Context(), opts)
	if err != nil {
		h.logger.Error("failed to set up dishes table", "error", err)
		writeStorageError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, result, h.logger)
}
