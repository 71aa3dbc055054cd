package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/eatly/dishes-api/internal/config"
	"github.com/eatly/dishes-api/internal/middleware"
	"github.com/eatly/dishes-api/internal/service"
)

// RouterDeps holds everything the HTTP surface needs
type RouterDeps struct {
	Service    *service.DishService
	Config     *config.Config
	InstanceID string
	Logger     *slog.Logger
}

// NewRouter wires middleware and every endpoint
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger

	healthHandler := NewHealthHandler(log, deps.InstanceID, deps.Service)
	dishHandler := NewDishHandler(deps.Service, log)
	adminHandler := NewAdminHandler(deps.Service, log)
	diagHandler := NewDiagnosticsHandler(deps.Service, deps.Config.Redacted(), log)

	r := chi.NewRouter()

	// Apply middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// The browser client is served from another origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "api_key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Diagnostics
	r.Get("/health", healthHandler.ServeHTTP)
	r.Get("/ping", diagHandler.Ping)
	r.Get("/env", diagHandler.Env)
	r.Get("/db-info", diagHandler.DBInfo)
	r.Get("/test-connection", diagHandler.TestConnection)
	r.Get("/test-db", diagHandler.TestConnection)

	// Dishes
	r.Get("/dishes", dishHandler.ListDishes)
	r.Get("/dishes/summary", dishHandler.ListSummaries)
	r.Post("/setup-dishes", dishHandler.SetupDishes)

	// Destructive resets
	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(deps.Config.Auth))
		r.Post("/add-sample-dishes", adminHandler.AddSampleDishes)
		r.Post("/add-100-dishes", adminHandler.AddCatalogDishes)
	})

	return r
}
