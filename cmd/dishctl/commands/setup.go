package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eatly/dishes-api/internal/service"
)

var (
	// Setup flags
	skipColumns bool
)

// setupCmd runs the schema-only step of POST /setup-dishes
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create or complete the dishes table without seeding",
	Long: `Ensure the dishes table exists and has every column. No rows are
inserted.

With --skip-columns an existing table is left untouched and reported as
already_exists.

Examples:
  dishctl setup
  dishctl setup --skip-columns`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *service.DishService) error {
			return runSetup(ctx, cmd.OutOrStdout(), svc, service.SetupOptions{SkipColumns: skipColumns})
		})
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)

	setupCmd.Flags().BoolVar(&skipColumns, "skip-columns", false, "Only check that the table exists")
}

func runSetup(ctx context.Context, w io.Writer, svc *service.DishService, opts service.SetupOptions) error {
	result, err := svc.Setup(ctx, opts)
	if err != nil {
		return err
	}

	return render(w, result, func(w io.Writer) {
		fmt.Fprintf(w, "%s: %s\n", result.Table, result.Status)
		if len(result.AddedColumns) > 0 {
			fmt.Fprintf(w, "Added columns: %s\n", strings.Join(result.AddedColumns, ", "))
		}
		if len(result.Columns) > 0 {
			fmt.Fprintf(w, "Columns: %s\n", strings.Join(result.Columns, ", "))
		}
	})
}
