package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eatly/dishes-api/internal/repository"
)

// downRepo cannot reach its store at all
type downRepo struct {
	*repository.InMemoryDishRepository
}

func (downRepo) Info(ctx context.Context) (*repository.DBInfo, error) {
	return nil, &repository.StorageError{Op: "read database info", Kind: repository.KindUnavailable, Err: errors.New("connection refused")}
}

func (downRepo) Ping(ctx context.Context) error {
	return &repository.StorageError{Op: "ping database", Kind: repository.KindUnavailable, Err: errors.New("connection refused")}
}

func TestProbesDoNotMutate(t *testing.T) {
	paths := []string{"/ping", "/health", "/env", "/db-info", "/test-connection", "/test-db", "/dishes/summary"}

	repo := repository.NewInMemoryDishRepository()
	r := newTestRouter(repo)

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("expected status 200, got %d: %s", w.Code, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected JSON content type, got %q", ct)
			}
		})
	}

	if exists, _ := repo.TableExists(context.Background()); exists {
		t.Error("probes must not create the dishes table")
	}
}

func TestHealth(t *testing.T) {
	testCases := []struct {
		name           string
		repo           repository.DishRepository
		expectedStatus int
		expectedHealth string
		expectedDB     string
	}{
		{"healthy", repository.NewInMemoryDishRepository(), http.StatusOK, "healthy", "up"},
		{"database down", downRepo{repository.NewInMemoryDishRepository()}, http.StatusServiceUnavailable, "degraded", "down"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(tc.repo)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.expectedStatus {
				t.Errorf("expected status %d, got %d", tc.expectedStatus, w.Code)
			}

			var response HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Status != tc.expectedHealth || response.Database != tc.expectedDB {
				t.Errorf("unexpected health response: %+v", response)
			}
			if response.InstanceID != "test-instance" || response.Version != Version {
				t.Errorf("unexpected identity in health response: %+v", response)
			}
		})
	}
}

func TestEnv_RedactsSecrets(t *testing.T) {
	r := newTestRouter(repository.NewInMemoryDishRepository())

	req := httptest.NewRequest(http.MethodGet, "/env", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := w.Body.String()
	if strings.Contains(body, "hunter2") || strings.Contains(body, "apitest") {
		t.Errorf("env output leaks a secret: %s", body)
	}

	var response map[string]interface{}
	if err := json.Unmarshal([]byte(body), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["environment"] != "test" || response["db_password_set"] != true {
		t.Errorf("unexpected env response: %v", response)
	}
}

func TestDBInfo(t *testing.T) {
	r := newTestRouter(repository.NewInMemoryDishRepository())

	req := httptest.NewRequest(http.MethodGet, "/db-info", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["table_exists"] != false {
		t.Errorf("expected table_exists false, got %v", response["table_exists"])
	}
	if response["row_count"] != nil {
		t.Errorf("expected no row count for a missing table, got %v", response["row_count"])
	}
}

func TestTestConnection_Down(t *testing.T) {
	r := newTestRouter(downRepo{repository.NewInMemoryDishRepository()})

	for _, path := range []string{"/test-connection", "/test-db"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected status 503, got %d", path, w.Code)
		}

		var response map[string]string
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response["status"] != "error" || !strings.Contains(response["detail"], "connection refused") {
			t.Errorf("%s: unexpected response %v", path, response)
		}
	}
}
