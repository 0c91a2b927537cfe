package sources

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/goharvest/cmd/common"
)

// newSetActiveCommand creates the enable and disable commands.
func newSetActiveCommand(use string, active bool) *cobra.Command {
	short := "Enable a source"
	if !active {
		short = "Disable a source"
	}

	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			deps, err := common.Build(ctx)
			if err != nil {
				return err
			}
			defer deps.Close()

			if err := deps.Sources.SetActive(ctx, args[0], active); err != nil {
				return fmt.Errorf("failed to %s source: %w", use, err)
			}

			deps.Logger.Info("source updated", "id", args[0], "active", active)
			return nil
		},
	}
}
