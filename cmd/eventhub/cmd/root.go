package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "eventhub",
		Short: "Event Hub backend",
		Long: `Event Hub serves event discovery, participation with capacity enforcement,
and tag-based filtering over a PostgreSQL store.

Configuration is read from environment variables (and a .env file outside production).`,
		SilenceUsage: true,
	}
	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newSeedCommand(),
		newTokenCommand(),
		newVersionCommand(),
	)
	return root
}
