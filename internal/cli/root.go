// Package cli provides the command-line interface for sqlshift.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/sqlshift/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors keeps Cobra from printing this itself
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	global := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "sqlshift",
		Short: "Shift row identifiers in SQL dump files",
		Long: `sqlshift rewrites SQL dumps line by line. For every
INSERT INTO <table> VALUES (<id>, ...) line of a configured table it adds a
fixed offset to the leading identifier; every other line is copied unchanged.

Typical use is merging two datasets whose primary keys overlap: inspect the
live dump for the highest id, then rewrite the other dump past it.

Reports go to stdout, logs and progress to stderr.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&global.LogLevel, "log-level", "", "Log level (trace|debug|info|warn|error|off)")
	rootCmd.PersistentFlags().StringVar(&global.LogFormat, "log-format", "", "Log format (console|json)")

	rootCmd.AddCommand(commands.NewRewriteCommand(global))
	rootCmd.AddCommand(commands.NewInspectCommand(global))
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
