package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/sqlshift/internal/logger"
	"github.com/ccollicutt/sqlshift/pkg/config"
	"github.com/ccollicutt/sqlshift/pkg/output"
	"github.com/ccollicutt/sqlshift/pkg/rewriter"
)

// RewriteOptions holds command-line options for the rewrite command.
type RewriteOptions struct {
	Input  string
	Output string
	Table  string
	Offset int64

	Format        string
	Verbose       bool
	Quiet         bool
	DryRun        bool
	Progress      bool
	FailOnSkipped bool
}

// NewRewriteCommand creates the rewrite command.
func NewRewriteCommand(global *GlobalOptions) *cobra.Command {
	opts := &RewriteOptions{}

	cmd := &cobra.Command{
		Use:   "rewrite [config-file]",
		Short: "Shift INSERT identifiers in a SQL dump",
		Long: `Read a SQL dump, shift the leading identifier of every matching
INSERT INTO <table> VALUES (<id>, ...) line by the configured offset, and
write the result. All other lines are copied byte for byte.

Lines that name the table but do not have the expected shape, or whose
identifier is not an integer, are copied unchanged and reported as skipped.

Without a config file the defaults apply: s.sql -> q.sql, table
sub_category, offset 14887. Flags override SQLSHIFT_* environment
variables, which override the config file, which overrides the defaults.

Exit codes:
  0 - Rewrite completed
  1 - Lines were skipped and --fail-on-skipped was set
  2 - Configuration or runtime error

Example:
  sqlshift rewrite
  sqlshift rewrite -i legacy.sql -o merged.sql --offset 14887
  sqlshift rewrite --dry-run -v sqlshift.yaml
  sqlshift rewrite --offset -14887 -i q.sql -o s.sql`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewrite(cmd, args, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Source dump (default from config or s.sql)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Destination file (default from config or q.sql)")
	cmd.Flags().StringVar(&opts.Table, "table", "", "Table to rewrite; replaces the configured rules with one rule")
	cmd.Flags().Int64Var(&opts.Offset, "offset", config.DefaultOffset, "Offset added to each identifier")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "text", "Report format (text|json)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "List every change and skipped line")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report what would change without writing the output")
	cmd.Flags().BoolVar(&opts.Progress, "progress", false, "Show a progress bar on stderr")
	cmd.Flags().BoolVar(&opts.FailOnSkipped, "fail-on-skipped", false, "Exit 1 if any matching line was skipped")

	return cmd
}

func runRewrite(cmd *cobra.Command, args []string, global *GlobalOptions, opts *RewriteOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Verbose && opts.Quiet {
		return errors.New("--verbose and --quiet are mutually exclusive")
	}

	var (
		cfg        *config.Config
		configPath string
		err        error
	)
	if len(args) == 1 {
		configPath = args[0]
		cfg, err = config.Load(ctx, configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := applyRewriteFlags(cmd, cfg, opts); err != nil {
		return err
	}

	formatter, err := output.NewFormatter(opts.Format, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
	if err != nil {
		return err
	}

	log, err := initLogger(global, cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	rwOpts := []rewriter.Option{
		rewriter.WithDryRun(opts.DryRun),
		rewriter.WithLogger(logger.Named("rewriter")),
	}
	if opts.Progress {
		rwOpts = append(rwOpts, rewriter.WithObserver(newProgressObserver(cmd.ErrOrStderr())))
	}

	rw, err := rewriter.New(rulesFromConfig(cfg), rwOpts...)
	if err != nil {
		return fmt.Errorf("creating rewriter: %w", err)
	}

	result, err := rw.RewriteFile(ctx, cfg.Input, cfg.Output)
	if err != nil {
		return fmt.Errorf("rewrite failed: %w", err)
	}

	report := output.NewReport(result, configPath)
	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	log.Info().
		Str("run_id", report.Metadata.RunID).
		Str("input", cfg.Input).
		Str("output", cfg.Output).
		Int("rewritten", report.Summary.Rewritten).
		Int("skipped", report.Summary.PrefixMismatch+report.Summary.InvalidID).
		Bool("dry_run", opts.DryRun).
		Msg("rewrite complete")

	if opts.FailOnSkipped && report.HasSkips() {
		ExitCode = 1
	}

	return nil
}

// applyRewriteFlags layers explicitly set flags over the loaded config and
// revalidates it.
func applyRewriteFlags(cmd *cobra.Command, cfg *config.Config, opts *RewriteOptions) error {
	flags := cmd.Flags()

	if flags.Changed("input") {
		cfg.Input = opts.Input
	}
	if flags.Changed("output") {
		cfg.Output = opts.Output
	}

	switch {
	case flags.Changed("table"):
		offset := cfg.Rules[0].OffsetValue()
		if flags.Changed("offset") {
			offset = opts.Offset
		}
		cfg.Rules = []config.RuleConfig{{Table: opts.Table, Offset: config.Int64(offset)}}
	case flags.Changed("offset"):
		if len(cfg.Rules) != 1 {
			return fmt.Errorf("--offset needs --table when %d rules are configured", len(cfg.Rules))
		}
		cfg.Rules[0].Offset = config.Int64(opts.Offset)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

func rulesFromConfig(cfg *config.Config) []rewriter.Rule {
	rules := make([]rewriter.Rule, 0, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		rules = append(rules, rewriter.Rule{
			Name:   rc.Name,
			Table:  rc.Table,
			Offset: rc.OffsetValue(),
		})
	}
	return rules
}
