package handlers

import (
	"log/slog"
	"net/http"

	"github.com/eatly/dishes-api/internal/models"
	"github.com/eatly/dishes-api/internal/seed"
	"github.com/eatly/dishes-api/internal/service"
)

// AdminHandler serves the destructive reset endpoints. Mount it behind
// API key authentication.
type AdminHandler struct {
	service *service.DishService
	logger  *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(service *service.DishService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		logger:  logger,
	}
}

// AddSampleDishes handles POST /add-sample-dishes
func (h *AdminHandler) AddSampleDishes(w http.ResponseWriter, r *http.Request) {
	h.reseed(w, r, "sample", seed.Sample())
}

// AddCatalogDishes handles POST /add-100-dishes
func (h *AdminHandler) AddCatalogDishes(w http.ResponseWriter, r *http.Request) {
	h.reseed(w, r, "catalog", seed.Catalog(seed.CatalogSize))
}

func (h *AdminHandler) reseed(w http.ResponseWriter, r *http.Request, dataset string, dishes []models.Dish) {
	result, err := h.service.Reseed(r.Context(), dishes)
	if err != nil {
		h.logger.Error("failed to reseed dishes", "dataset", dataset, "error", err)
		writeStorageError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, result, h.logger)
}
