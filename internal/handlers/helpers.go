package handlers

import (
	"log/slog"
	"net/http"

	"github.com/eatly/dishes-api/internal/repository"
)

// writeStorageError maps a service error to a status code: an unreachable
// store is 503, anything else 500. The message carries the underlying cause.
func writeStorageError(w http.ResponseWriter, err error, logger *slog.Logger) {
	status := http.StatusInternalServerError
	if repository.IsUnavailable(err) {
		status = http.StatusServiceUnavailable
	}
	WriteError(w, status, err.Error(), logger)
}
