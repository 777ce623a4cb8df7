package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/ribbonsync/cmd/ribbonsync/cmd/cache"
	"github.com/agentstation/ribbonsync/cmd/ribbonsync/cmd/discover"
	"github.com/agentstation/ribbonsync/cmd/ribbonsync/cmd/fingerprint"
	"github.com/agentstation/ribbonsync/cmd/ribbonsync/cmd/sync"
	"github.com/agentstation/ribbonsync/cmd/ribbonsync/cmd/watch"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(sync.NewCommand(a))
	rootCmd.AddCommand(watch.NewCommand(a))
	rootCmd.AddCommand(discover.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(fingerprint.NewCommand(a))
	rootCmd.AddCommand(cache.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(a.newVersionCommand())
}

// newVersionCommand creates the version command.
func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("ribbonsync %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
