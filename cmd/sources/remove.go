package sources

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/goharvest/cmd/common"
)

// newRemoveCommand creates the remove command.
func newRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			deps, err := common.Build(ctx)
			if err != nil {
				return err
			}
			defer deps.Close()

			if err := deps.Sources.Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to remove source: %w", err)
			}

			deps.Logger.Info("source removed", "id", args[0])
			return nil
		},
	}
}
