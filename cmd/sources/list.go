package sources

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/goharvest/cmd/common"
	"github.com/jonesrussell/goharvest/internal/domain"
)

// newListCommand creates the list command, which displays all
// configured sources in a formatted table.
func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configured sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			deps, err := common.Build(ctx)
			if err != nil {
				return err
			}
			defer deps.Close()

			list, err := deps.Sources.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list sources: %w", err)
			}
			if len(list) == 0 {
				deps.Logger.Info("no sources configured")
				return nil
			}

			renderTable(list)
			return nil
		},
	}
}

// renderTable formats and displays the sources in a table.
func renderTable(list []domain.Source) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Name", "Type", "URL", "Active", "Interval", "Next Fetch"})
	for i := range list {
		s := &list[i]
		t.AppendRow(table.Row{
			s.Name,
			s.Type,
			s.URL,
			s.Active,
			s.FetchInterval.String(),
			formatNextFetch(s.NextFetchAt),
		})
	}

	t.Render()
}

func formatNextFetch(at *time.Time) string {
	if at == nil {
		return "due now"
	}
	return at.Format(time.RFC3339)
}
