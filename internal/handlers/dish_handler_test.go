package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eatly/dishes-api/internal/config"
	"github.com/eatly/dishes-api/internal/models"
	"github.com/eatly/dishes-api/internal/repository"
	"github.com/eatly/dishes-api/internal/service"
	"github.com/eatly/dishes-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// unavailableRepo fails every write as if the database were down
type unavailableRepo struct {
	*repository.InMemoryDishRepository
}

func (unavailableRepo) Exclusive(ctx context.Context, fn func(ctx context.Context, tx repository.SchemaTx) error) error {
	return &repository.StorageError{Op: "begin transaction", Kind: repository.KindUnavailable, Err: errors.New("dial tcp: connection refused")}
}

// brokenRepo fails writes with a statement-level error
type brokenRepo struct {
	*repository.InMemoryDishRepository
}

func (brokenRepo) Exclusive(ctx context.Context, fn func(ctx context.Context, tx repository.SchemaTx) error) error {
	return &repository.StorageError{Op: "create table", Kind: repository.KindQuery, Err: errors.New("permission denied for schema public")}
}

func newTestRouter(repo repository.DishRepository) http.Handler {
	log := logger.New("error")
	cfg := &config.Config{
		Auth:          config.AuthConfig{APIKeys: []string{"apitest"}},
		StorageDriver: config.StorageDriverMemory,
		Environment:   "test",
		Database:      config.DatabaseConfig{Table: "dishes", Schema: "public", Password: "hunter2"},
	}
	return NewRouter(RouterDeps{
		Service:    service.NewDishService(repo, "dishes", log),
		Config:     cfg,
		InstanceID: "test-instance",
		Logger:     log,
	})
}

func TestListDishes_SeedsEmptyStore(t *testing.T) {
	// Setup
	repo := repository.NewInMemoryDishRepository()
	r := newTestRouter(repo)

	// Create request
	req := httptest.NewRequest(http.MethodGet, "/dishes", nil)
	w := httptest.NewRecorder()

	// Execute
	r.ServeHTTP(w, req)

	// Assert
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response struct {
		Success     bool          `json:"success"`
		Count       int           `json:"count"`
		Dishes      []models.Dish `json:"dishes"`
		AutoCreated bool          `json:"auto_created"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if !response.Success {
		t.Error("expected success to be true")
	}
	if response.Count != 20 {
		t.Errorf("expected 20 dishes, got %d", response.Count)
	}
	if len(response.Dishes) != response.Count {
		t.Errorf("count %d does not match %d dishes", response.Count, len(response.Dishes))
	}
	if !response.AutoCreated {
		t.Error("expected auto_created to be true on first call")
	}
	if response.Dishes[0].ID != 1 || response.Dishes[0].Name != "Plov" {
		t.Errorf("unexpected first dish: %+v", response.Dishes[0])
	}
	if !response.Dishes[0].Price.Equal(decimal.RequireFromString("12.50")) {
		t.Errorf("expected price 12.50, got %s", response.Dishes[0].Price)
	}
}

func TestListDishes_ExistingRows(t *testing.T) {
	repo := repository.NewInMemoryDishRepository(repository.WithDishes(
		models.Dish{Name: "A", Price: decimal.NewFromInt(1)},
		models.Dish{Name: "B", Price: decimal.NewFromInt(2)},
		models.Dish{Name: "C", Price: decimal.NewFromInt(3)},
	))
	r := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/dishes", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response["count"] != float64(3) {
		t.Errorf("expected count 3, got %v", response["count"])
	}
	if response["auto_created"] != false {
		t.Errorf("expected auto_created false, got %v", response["auto_created"])
	}
}

func TestListDishes_StorageErrors(t *testing.T) {
	testCases := []struct {
		name           string
		repo           repository.DishRepository
		expectedStatus int
		expectedCause  string
	}{
		{
			name:           "database unreachable",
			repo:           unavailableRepo{repository.NewInMemoryDishRepository()},
			expectedStatus: http.StatusServiceUnavailable,
			expectedCause:  "connection refused",
		},
		{
			name:           "query failure",
			repo:           brokenRepo{repository.NewInMemoryDishRepository()},
			expectedStatus: http.StatusInternalServerError,
			expectedCause:  "permission denied",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(tc.repo)

			req := httptest.NewRequest(http.MethodGet, "/dishes", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.expectedStatus {
				t.Errorf("expected status %d, got %d", tc.expectedStatus, w.Code)
			}

			var response ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if response.Success {
				t.Error("expected success to be false")
			}
			if !strings.Contains(response.Error, tc.expectedCause) {
				t.Errorf("expected error to mention %q, got %q", tc.expectedCause, response.Error)
			}
		})
	}
}

func TestListSummaries(t *testing.T) {
	t.Run("table missing", func(t *testing.T) {
		repo := repository.NewInMemoryDishRepository()
		r := newTestRouter(repo)

		req := httptest.NewRequest(http.MethodGet, "/dishes/summary", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		if body := w.Body.String(); body != "[]\n" {
			t.Errorf("expected empty array, got %q", body)
		}
		if exists, _ := repo.TableExists(context.Background()); exists {
			t.Error("summary listing must not create the table")
		}
	})

	t.Run("projects fields", func(t *testing.T) {
		minutes := int32(25)
		category := "Soup"
		repo := repository.NewInMemoryDishRepository(repository.WithDishes(
			models.Dish{Name: "Shurpa", Price: decimal.RequireFromString("8.20"), DeliveryTime: &minutes, Category: &category},
		))
		r := newTestRouter(repo)

		req := httptest.NewRequest(http.MethodGet, "/dishes/summary", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		var summaries []map[string]interface{}
		if err := json.NewDecoder(w.Body).Decode(&summaries); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(summaries) != 1 {
			t.Fatalf("expected 1 summary, got %d", len(summaries))
		}
		s := summaries[0]
		if s["name"] != "Shurpa" || s["price"] != 8.2 || s["delivery_time"] != float64(25) {
			t.Errorf("unexpected summary: %v", s)
		}
		if _, ok := s["category"]; ok {
			t.Error("summary must not include category")
		}
	})
}

func TestSetupDishes(t *testing.T) {
	testCases := []struct {
		name           string
		opts           []repository.MemoryOption
		expectedStatus string
		expectedAdded  []string
	}{
		{"no table", nil, service.StatusCreated, []string{}},
		{"complete table", []repository.MemoryOption{repository.WithTable()}, service.StatusAlreadyComplete, []string{}},
		{"missing rating", []repository.MemoryOption{repository.WithTable("rating")}, service.StatusUpdated, []string{"rating"}},
		{"missing both", []repository.MemoryOption{repository.WithTable("delivery_time", "rating")}, service.StatusUpdated, []string{"delivery_time", "rating"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(repository.NewInMemoryDishRepository(tc.opts...))

			req := httptest.NewRequest(http.MethodPost, "/setup-dishes", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}

			var response service.SetupResult
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Status != tc.expectedStatus {
				t.Errorf("expected status %s, got %s", tc.expectedStatus, response.Status)
			}
			if len(response.AddedColumns) != len(tc.expectedAdded) {
				t.Fatalf("expected added columns %v, got %v", tc.expectedAdded, response.AddedColumns)
			}
			for i := range tc.expectedAdded {
				if response.AddedColumns[i] != tc.expectedAdded[i] {
					t.Errorf("expected added columns %v, got %v", tc.expectedAdded, response.AddedColumns)
				}
			}
		})
	}
}

func TestSetupDishes_SkipColumns(t *testing.T) {
	testCases := []struct {
		name           string
		query          string
		expectedCode   int
		expectedStatus string
	}{
		{"skip", "?skip_columns=true", http.StatusOK, service.StatusAlreadyExists},
		{"explicit false", "?skip_columns=false", http.StatusOK, service.StatusUpdated},
		{"invalid value", "?skip_columns=maybe", http.StatusBadRequest, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := repository.NewInMemoryDishRepository(repository.WithTable("rating"))
			r := newTestRouter(repo)

			req := httptest.NewRequest(http.MethodPost, "/setup-dishes"+tc.query, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.expectedCode {
				t.Fatalf("expected status %d, got %d: %s", tc.expectedCode, w.Code, w.Body.String())
			}
			if tc.expectedStatus == "" {
				if strings.Contains(strings.Join(repo.Columns(), ","), "rating") {
					t.Error("rejected request must not alter the table")
				}
				return
			}

			var response service.SetupResult
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Status != tc.expectedStatus {
				t.Errorf("expected status %s, got %s", tc.expectedStatus, response.Status)
			}
		})
	}
}

func TestSetupDishes_GetNotAllowed(t *testing.T) {
	r := newTestRouter(repository.NewInMemoryDishRepository())

	req := httptest.NewRequest(http.MethodGet, "/setup-dishes", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}
