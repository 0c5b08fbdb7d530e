package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/sqlshift/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a sqlshift configuration file without rewriting anything.

Checks:
  - YAML syntax and unknown keys
  - Required fields (input, output, rules with table and offset)
  - Table names and duplicate rule names
  - Environment overrides (SQLSHIFT_INPUT, SQLSHIFT_OUTPUT, SQLSHIFT_OFFSET)
  - Input file existence and output directory (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Input:  %s\n", cfg.Input)
	fmt.Fprintf(w, "  Output: %s\n", cfg.Output)
	fmt.Fprintf(w, "  Rules:  %d\n", len(cfg.Rules))

	fmt.Fprintf(w, "\nRules:\n")
	for i, rule := range cfg.Rules {
		fmt.Fprintf(w, "  %d. [%s] INSERT INTO %s VALUES (<id> %+d\n", i+1, rule.Name, rule.Table, rule.OffsetValue())
		if rule.Description != "" {
			fmt.Fprintf(w, "     %s\n", rule.Description)
		}
	}

	// File checks are warnings only; the dump may not exist yet
	if info, err := os.Stat(cfg.Input); err != nil {
		fmt.Fprintf(w, "\nWarning: input %s is not readable: %v\n", cfg.Input, err)
	} else if info.IsDir() {
		fmt.Fprintf(w, "\nWarning: input %s is a directory\n", cfg.Input)
	}
	if dir := filepath.Dir(cfg.Output); dir != "." {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			fmt.Fprintf(w, "\nWarning: output directory %s does not exist\n", dir)
		}
	}

	return nil
}
