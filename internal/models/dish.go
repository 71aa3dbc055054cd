package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Clients expect price and rating as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

var (
	ErrNameRequired   = errors.New("name is required")
	ErrNegativePrice  = errors.New("price must not be negative")
	ErrRatingRange    = errors.New("rating must be between 0.0 and 5.0")
	ErrNegativeMinute = errors.New("delivery time must not be negative")
)

var maxRating = decimal.NewFromInt(5)

// Dish represents a menu item stored in the dishes table.
// Optional columns are pointers so that NULL and zero stay distinguishable.
type Dish struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	Description  *string          `json:"description"`
	Price        decimal.Decimal  `json:"price"`
	Category     *string          `json:"category"`
	DeliveryTime *int32           `json:"delivery_time"`
	Rating       *decimal.Decimal `json:"rating"`
	ImageURL     *string          `json:"image_url"`
	CreatedAt    time.Time        `json:"created_at"`
}

// DishSummary is the short projection served by the read-only listing.
type DishSummary struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	DeliveryTime *int32          `json:"delivery_time"`
}

// Summary projects the dish onto its summary fields.
func (d Dish) Summary() DishSummary {
	return DishSummary{
		ID:           d.ID,
		Name:         d.Name,
		Price:        d.Price,
		DeliveryTime: d.DeliveryTime,
	}
}

// Validate checks the column constraints of a dish.
func (d Dish) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrNameRequired
	}
	if d.Price.IsNegative() {
		return fmt.Errorf("%w: %s", ErrNegativePrice, d.Price)
	}
	if d.Rating != nil && (d.Rating.IsNegative() || d.Rating.GreaterThan(maxRating)) {
		return fmt.Errorf("%w: %s", ErrRatingRange, d.Rating)
	}
	if d.DeliveryTime != nil && *d.DeliveryTime < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeMinute, *d.DeliveryTime)
	}
	return nil
}
