// Package sources implements the command-line interface for managing
// harvest sources.
package sources

import (
	"github.com/spf13/cobra"
)

// Command returns the sources parent command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage harvest sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newAddCommand())
	cmd.AddCommand(newSetActiveCommand("enable", true))
	cmd.AddCommand(newSetActiveCommand("disable", false))
	cmd.AddCommand(newRemoveCommand())

	return cmd
}
