package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/eatly/dishes-api/internal/config"
	"github.com/eatly/dishes-api/internal/handlers"
	"github.com/eatly/dishes-api/internal/repository"
	"github.com/eatly/dishes-api/internal/service"
	"github.com/eatly/dishes-api/pkg/logger"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	instanceID := uuid.New().String()

	log.Info("starting dishes api server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"storage_driver", cfg.StorageDriver,
		"instance_id", instanceID,
		"log_level", cfg.LogLevel,
	)

	if cfg.Auth.UsesDefaultKey() {
		log.Warn("default API key is accepted; set API_KEYS before exposing the reset endpoints",
			"environment", cfg.Environment,
		)
	}

	ctx := context.Background()

	// Initialize storage
	repo, closeRepo, err := repository.Open(ctx, cfg)
	if err != nil {
		log.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	// The server still starts when the database is down; /health and
	// /test-connection report it.
	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	if err := repo.Ping(pingCtx); err != nil {
		log.Warn("database not reachable at startup", "error", err)
	} else {
		log.Info("database reachable", "table", cfg.Database.Schema+"."+cfg.Database.Table)
	}
	cancelPing()

	// Initialize services
	dishService := service.NewDishService(repo, cfg.Database.Table, log)

	// Create router
	r := handlers.NewRouter(handlers.RouterDeps{
		Service:    dishService,
		Config:     cfg,
		InstanceID: instanceID,
		Logger:     log,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		log.Error("server failed to start", "error", err)
		closeRepo()
		os.Exit(1)
	}

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}
