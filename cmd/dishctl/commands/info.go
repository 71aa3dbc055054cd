package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eatly/dishes-api/internal/service"
)

// infoCmd prints the same data as GET /db-info
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show database and table information",
	Long: `Show the connected database, user and server version, whether the
dishes table exists and how many rows it holds. Nothing is modified.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *service.DishService) error {
			return runInfo(ctx, cmd.OutOrStdout(), svc)
		})
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(ctx context.Context, w io.Writer, svc *service.DishService) error {
	info, err := svc.DBInfo(ctx)
	if err != nil {
		return err
	}

	return render(w, info, func(w io.Writer) {
		rows := "-"
		if info.RowCount != nil {
			rows = fmt.Sprintf("%d", *info.RowCount)
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(tw, "Database:\t%s\n", info.Database)
		_, _ = fmt.Fprintf(tw, "User:\t%s\n", info.User)
		_, _ = fmt.Fprintf(tw, "Server version:\t%s\n", info.ServerVersion)
		_, _ = fmt.Fprintf(tw, "Table:\t%s\n", info.Table)
		_, _ = fmt.Fprintf(tw, "Table exists:\t%t\n", info.TableExists)
		_, _ = fmt.Fprintf(tw, "Rows:\t%s\n", rows)
		_ = tw.Flush()
	})
}
