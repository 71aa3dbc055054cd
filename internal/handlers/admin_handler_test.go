package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eatly/dishes-api/internal/models"
	"github.com/eatly/dishes-api/internal/repository"
	"github.com/eatly/dishes-api/internal/service"
	"github.com/shopspring/decimal"
)

func TestAdminReseed(t *testing.T) {
	testCases := []struct {
		path     string
		expected int
	}{
		{"/add-sample-dishes", 10},
		{"/add-100-dishes", 100},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			repo := repository.NewInMemoryDishRepository(repository.WithDishes(
				models.Dish{Name: "Leftover", Price: decimal.NewFromInt(1)},
			))
			r := newTestRouter(repo)

			req := httptest.NewRequest(http.MethodPost, tc.path, nil)
			req.Header.Set("api_key", "apitest")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
			}

			var response service.ReseedResult
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if !response.Success || response.Inserted != tc.expected {
				t.Errorf("expected %d inserted, got %+v", tc.expected, response)
			}

			dishes, err := repo.List(context.Background())
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(dishes) != tc.expected {
				t.Errorf("expected %d rows after reseed, got %d", tc.expected, len(dishes))
			}
			if dishes[0].Name == "Leftover" {
				t.Error("existing rows should have been replaced")
			}
		})
	}
}

func TestAdminReseed_RequiresAPIKey(t *testing.T) {
	repo := repository.NewInMemoryDishRepository(repository.WithDishes(
		models.Dish{Name: "Keep", Price: decimal.NewFromInt(1)},
	))
	r := newTestRouter(repo)

	testCases := []struct {
		name           string
		apiKey         string
		expectedStatus int
	}{
		{"missing key", "", http.StatusUnauthorized},
		{"wrong key", "nope", http.StatusForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/add-100-dishes", nil)
			if tc.apiKey != "" {
				req.Header.Set("api_key", tc.apiKey)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.expectedStatus {
				t.Errorf("expected status %d, got %d", tc.expectedStatus, w.Code)
			}
		})
	}

	dishes, _ := repo.List(context.Background())
	if len(dishes) != 1 || dishes[0].Name != "Keep" {
		t.Errorf("rejected requests must not modify data, got %v", dishes)
	}
}
