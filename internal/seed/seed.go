// Package seed holds the constant dish datasets written by the service: the
// default set used to populate an empty table and the administrative reset sets.
package seed

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/eatly/dishes-api/internal/models"
)

// DefaultSize is the number of rows inserted into an empty table.
const DefaultSize = 20

// SampleSize is the number of rows written by the sample reset.
const SampleSize = 10

// CatalogSize is the number of rows written by the large reset.
const CatalogSize = 100

type entry struct {
	name        string
	description string
	price       string
	category    string
	minutes     int32
	rating      string
	image       string
}

var defaults = []entry{
	{"Plov", "Rice pilaf with lamb, carrots and chickpeas", "12.50", "Main", 35, "4.9", "plov.jpg"},
	{"Lagman", "Hand-pulled noodles with beef and vegetables", "10.90", "Main", 30, "4.7", "lagman.jpg"},
	{"Manti", "Steamed dumplings filled with lamb and onion", "9.80", "Main", 40, "4.8", "manti.jpg"},
	{"Samsa", "Tandoor-baked pastry with minced meat", "3.50", "Bakery", 20, "4.6", "samsa.jpg"},
	{"Shashlik", "Grilled skewers of marinated lamb", "14.00", "Grill", 35, "4.8", "shashlik.jpg"},
	{"Shurpa", "Clear lamb soup with potatoes and herbs", "8.20", "Soup", 25, "4.5", "shurpa.jpg"},
	{"Mastava", "Rice soup with beef and tomato", "7.40", "Soup", 25, "4.3", "mastava.jpg"},
	{"Chuchvara", "Small dumplings in broth with sour cream", "8.90", "Soup", 30, "4.4", "chuchvara.jpg"},
	{"Achichuk Salad", "Tomato and onion salad with hot pepper", "4.20", "Salad", 15, "4.2", "achichuk.jpg"},
	{"Olivier Salad", "Potato salad with chicken, peas and pickles", "5.60", "Salad", 15, "4.1", "olivier.jpg"},
	{"Margherita Pizza", "Tomato, mozzarella and basil", "11.00", "Pizza", 30, "4.4", "margherita.jpg"},
	{"Pepperoni Pizza", "Spicy pepperoni with mozzarella", "13.00", "Pizza", 30, "4.5", "pepperoni.jpg"},
	{"Classic Burger", "Beef patty, cheddar, lettuce and tomato", "9.50", "Burger", 25, "4.3", "burger.jpg"},
	{"Chicken Burger", "Crispy chicken fillet with garlic sauce", "8.90", "Burger", 25, "4.2", "chicken-burger.jpg"},
	{"Caesar Salad", "Romaine, croutons, parmesan and chicken", "7.90", "Salad", 15, "4.4", "caesar.jpg"},
	{"Lavash Wrap", "Grilled chicken and vegetables in lavash", "6.80", "Street Food", 20, "4.3", "lavash.jpg"},
	{"Non Bread", "Round tandoor bread", "1.20", "Bakery", 10, "4.9", "non.jpg"},
	{"Chak-Chak", "Fried dough with honey", "4.00", "Dessert", 15, "4.5", "chak-chak.jpg"},
	{"Medovik", "Layered honey cake", "5.20", "Dessert", 15, "4.7", "medovik.jpg"},
	{"Green Tea", "Pot of green tea", "2.00", "Drinks", 10, "4.6", "green-tea.jpg"},
}

// Default returns the ordered default dataset. Each call returns a fresh
// copy the caller may modify.
func Default() []models.Dish {
	out := make([]models.Dish, len(defaults))
	for i, e := range defaults {
		out[i] = e.dish("")
	}
	return out
}

// Sample returns the fixed dataset used by the sample reset.
func Sample() []models.Dish {
	return Default()[:SampleSize]
}

// Catalog returns a deterministic dataset of n dishes built by cycling the
// default set. Later rounds get a numbered name suffix and a price step of
// 0.50 per round so rows stay distinguishable.
func Catalog(n int) []models.Dish {
	if n <= 0 {
		return nil
	}
	out := make([]models.Dish, 0, n)
	step := decimal.RequireFromString("0.50")
	for i := 0; i < n; i++ {
		round := i / len(defaults)
		e := defaults[i%len(defaults)]
		suffix := ""
		if round > 0 {
			suffix = fmt.Sprintf(" #%d", round+1)
		}
		d := e.dish(suffix)
		d.Price = d.Price.Add(step.Mul(decimal.NewFromInt(int64(round))))
		out = append(out, d)
	}
	return out
}

func (e entry) dish(suffix string) models.Dish {
	description := e.description
	category := e.category
	minutes := e.minutes
	rating := decimal.RequireFromString(e.rating)
	image := "/static/dishes/" + e.image
	return models.Dish{
		Name:         e.name + suffix,
		Description:  &description,
		Price:        decimal.RequireFromString(e.price),
		Category:     &category,
		DeliveryTime: &minutes,
		Rating:       &rating,
		ImageURL:     &image,
	}
}
