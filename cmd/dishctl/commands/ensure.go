package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eatly/dishes-api/internal/models"
	"github.com/eatly/dishes-api/internal/service"
)

// ensureCmd runs the same ensure-and-list step as GET /dishes
var ensureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create, complete and seed the dishes table, then list it",
	Long: `Ensure the dishes table exists with every column, seed it with the
default dishes when it is empty, and print its contents.

Examples:
  dishctl ensure
  dishctl ensure --json
  dishctl ensure --db postgres://postgres@localhost:5432/EatlyServer`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *service.DishService) error {
			return runEnsure(ctx, cmd.OutOrStdout(), svc)
		})
	},
}

func init() {
	rootCmd.AddCommand(ensureCmd)
}

func runEnsure(ctx context.Context, w io.Writer, svc *service.DishService) error {
	result, err := svc.EnsureAndList(ctx)
	if err != nil {
		return err
	}

	return render(w, result, func(w io.Writer) {
		switch {
		case result.TableCreated:
			fmt.Fprintln(w, "Table created.")
		case len(result.AddedColumns) > 0:
			fmt.Fprintf(w, "Added columns: %s\n", strings.Join(result.AddedColumns, ", "))
		}
		if result.AutoCreated {
			fmt.Fprintf(w, "Seeded %d dishes.\n", result.Count)
		}
		fmt.Fprintf(w, "%d dishes\n\n", result.Count)
		printDishes(w, result.Dishes)
	})
}

func printDishes(w io.Writer, dishes []models.Dish) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tPRICE\tCATEGORY\tDELIVERY\tRATING")
	_, _ = fmt.Fprintln(tw, "--\t----\t-----\t--------\t--------\t------")
	for _, d := range dishes {
		category, delivery, rating := "-", "-", "-"
		if d.Category != nil {
			category = *d.Category
		}
		if d.DeliveryTime != nil {
			delivery = fmt.Sprintf("%d min", *d.DeliveryTime)
		}
		if d.Rating != nil {
			rating = d.Rating.StringFixed(1)
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", d.ID, d.Name, d.Price.StringFixed(2), category, delivery, rating)
	}
	_ = tw.Flush()
}
