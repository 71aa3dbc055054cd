package seed

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eatly/dishes-api/internal/models"
)

func TestDatasetSizes(t *testing.T) {
	assert.Len(t, Default(), DefaultSize)
	assert.Len(t, Sample(), SampleSize)
	assert.Len(t, Catalog(CatalogSize), CatalogSize)
	assert.Empty(t, Catalog(0))
}

func TestDatasetsAreValid(t *testing.T) {
	sets := map[string][]models.Dish{
		"default": Default(),
		"sample":  Sample(),
		"catalog": Catalog(CatalogSize),
	}
	for name, dishes := range sets {
		for i, d := range dishes {
			require.NoError(t, d.Validate(), "%s[%d] %s", name, i, d.Name)
			assert.Zero(t, d.ID, "seed rows must leave id to the database")
		}
	}
}

func TestDefault_ReturnsCopies(t *testing.T) {
	a := Default()
	a[0].Name = "changed"
	*a[0].Category = "changed"

	b := Default()
	assert.Equal(t, "Plov", b[0].Name)
	assert.Equal(t, "Main", *b[0].Category)
}

func TestCatalog_Deterministic(t *testing.T) {
	a := Catalog(CatalogSize)
	b := Catalog(CatalogSize)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Name, b[i].Name)
		assert.True(t, a[i].Price.Equal(b[i].Price))
	}

	assert.Equal(t, "Plov", a[0].Name)
	assert.Equal(t, "Plov #2", a[DefaultSize].Name)
	assert.True(t, a[DefaultSize].Price.Equal(decimal.RequireFromString("13.00")))
}

func TestCatalog_UniqueNames(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range Catalog(CatalogSize) {
		assert.False(t, seen[d.Name], "duplicate name %s", d.Name)
		seen[d.Name] = true
	}
}
