package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/eatly/dishes-api/internal/models"
	"github.com/eatly/dishes-api/internal/seed"
	"github.com/eatly/dishes-api/internal/service"
)

var (
	// Seed flags
	dataset string
)

// seedCmd replaces the table contents, like the admin reset endpoints
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace all dishes with a built-in dataset",
	Long: `Delete every row and insert one of the built-in datasets in a single
transaction. Ids restart from 1.

Datasets:
  sample    the first 10 default dishes
  catalog   100 dishes built from the default set

Examples:
  dishctl seed --dataset sample
  dishctl seed --dataset catalog --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dishes, err := datasetByName(dataset)
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *service.DishService) error {
			return runSeed(ctx, cmd.OutOrStdout(), svc, dishes)
		})
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVarP(&dataset, "dataset", "d", "sample", "Dataset to load (sample, catalog)")
}

func datasetByName(name string) ([]models.Dish, error) {
	switch name {
	case "sample":
		return seed.Sample(), nil
	case "catalog":
		return seed.Catalog(seed.CatalogSize), nil
	default:
		return nil, fmt.Errorf("unknown dataset %q (must be sample or catalog)", name)
	}
}

func runSeed(ctx context.Context, w io.Writer, svc *service.DishService, dishes []models.Dish) error {
	result, err := svc.Reseed(ctx, dishes)
	if err != nil {
		return err
	}

	return render(w, result, func(w io.Writer) {
		fmt.Fprintln(w, result.Message)
	})
}
