package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/sqlshift/internal/logger"
	"github.com/ccollicutt/sqlshift/pkg/config"
	"github.com/ccollicutt/sqlshift/pkg/inspector"
)

// InspectOptions holds command-line options for the inspect command.
type InspectOptions struct {
	Output      string
	Tables      []string
	Suggest     string
	MaxLines    int
	WriteConfig string
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(global *GlobalOptions) *cobra.Command {
	opts := &InspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect <dump-file>",
		Short: "Summarise the INSERT statements in a SQL dump",
		Long: `Scan a SQL dump and report, per table, how many INSERT lines it holds,
how many have the INSERT INTO <table> VALUES (<id>, ...) shape that rewrite
understands, and the identifier range.

With --suggest <table>, prints the offset that moves identifiers starting at
zero past every identifier already in that table. --write-config saves a
rewrite config using that offset.

Example:
  sqlshift inspect live.sql
  sqlshift inspect --table sub_category --suggest sub_category live.sql
  sqlshift inspect --suggest sub_category -w sqlshift.yaml live.sql`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringSliceVar(&opts.Tables, "table", nil, "Only report these tables (can be repeated)")
	cmd.Flags().StringVar(&opts.Suggest, "suggest", "", "Suggest an offset that clears this table's identifiers")
	cmd.Flags().IntVarP(&opts.MaxLines, "max-lines", "n", 0, "Stop after this many lines (0 scans everything)")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write a rewrite config using the suggested offset (will not overwrite)")

	return cmd
}

func runInspect(cmd *cobra.Command, args []string, global *GlobalOptions, opts *InspectOptions) error {
	dumpFile := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Output != "text" && opts.Output != "json" {
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}
	if opts.WriteConfig != "" && opts.Suggest == "" {
		return fmt.Errorf("--write-config needs --suggest <table>")
	}

	if _, err := os.Stat(dumpFile); os.IsNotExist(err) {
		return fmt.Errorf("dump file not found: %s", dumpFile)
	}

	if _, err := initLogger(global, config.LoggingConfig{}, cmd.ErrOrStderr()); err != nil {
		return err
	}
	log := logger.Named("inspector")

	in := inspector.New(
		inspector.WithTables(opts.Tables...),
		inspector.WithMaxLines(opts.MaxLines),
	)
	result, err := in.InspectFile(ctx, dumpFile)
	if err != nil {
		return fmt.Errorf("inspection failed: %w", err)
	}
	log.Debug().Str("file", dumpFile).Int("lines", result.LinesScanned).Int("tables", len(result.Tables)).Msg("dump scanned")

	var suggestion *int64
	if opts.Suggest != "" {
		offset, err := result.SuggestOffset(opts.Suggest)
		if err != nil {
			return fmt.Errorf("suggesting offset: %w", err)
		}
		suggestion = &offset
	}

	if opts.WriteConfig != "" {
		cfg := config.DefaultConfig()
		cfg.Rules = []config.RuleConfig{{
			Name:        opts.Suggest,
			Table:       opts.Suggest,
			Offset:      config.Int64(*suggestion),
			Description: fmt.Sprintf("move ids past max %d found in %s", *suggestion-1, dumpFile),
		}}
		if err := config.Write(opts.WriteConfig, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote rewrite config to: %s\n", opts.WriteConfig)
	}

	if opts.Output == "json" {
		return outputInspectJSON(cmd.OutOrStdout(), result, dumpFile, opts.Suggest, suggestion)
	}
	outputInspectText(cmd.OutOrStdout(), result, dumpFile, opts.Suggest, suggestion)
	return nil
}

func outputInspectText(w io.Writer, result *inspector.Result, dumpFile, suggestTable string, suggestion *int64) {
	fmt.Fprintln(w, "=== SQL Dump Inspection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", dumpFile)
	fmt.Fprintf(w, "Lines scanned: %d", result.LinesScanned)
	if result.Truncated {
		fmt.Fprint(w, " (stopped at --max-lines)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "INSERT lines: %d\n", result.InsertLines)
	fmt.Fprintln(w)

	if len(result.Tables) == 0 {
		fmt.Fprintln(w, "No INSERT statements found.")
		return
	}

	for _, ts := range result.Tables {
		fmt.Fprintf(w, "[%s]\n", ts.Table)
		fmt.Fprintf(w, "  Statements: %d (rewritable shape: %d)\n", ts.Statements, ts.Canonical)
		if ts.NumericIDs > 0 {
			fmt.Fprintf(w, "  Identifiers: %d numeric, range %d..%d\n", ts.NumericIDs, ts.MinID, ts.MaxID)
		}
		if ts.InvalidIDs > 0 {
			fmt.Fprintf(w, "  Non-numeric identifiers: %d\n", ts.InvalidIDs)
		}
		fmt.Fprintf(w, "  First seen: line %d\n", ts.FirstLine)
	}
	fmt.Fprintln(w)

	if suggestion != nil {
		fmt.Fprintf(w, "Suggested offset for %s: %d\n", suggestTable, *suggestion)
		fmt.Fprintf(w, "  sqlshift rewrite --table %s --offset %d -i <other-dump> -o <out>\n", suggestTable, *suggestion)
	}
}

// InspectJSONTable is one table in JSON inspect output.
type InspectJSONTable struct {
	Table      string `json:"table"`
	Statements int    `json:"statements"`
	Canonical  int    `json:"canonical"`
	NumericIDs int    `json:"numeric_ids"`
	InvalidIDs int    `json:"invalid_ids"`
	MinID      *int64 `json:"min_id,omitempty"`
	MaxID      *int64 `json:"max_id,omitempty"`
	FirstLine  int    `json:"first_line"`
	SampleLine string `json:"sample_line"`
}

// InspectJSONOutput represents the full JSON inspect output.
type InspectJSONOutput struct {
	File            string             `json:"file"`
	LinesScanned    int                `json:"lines_scanned"`
	InsertLines     int                `json:"insert_lines"`
	Truncated       bool               `json:"truncated,omitempty"`
	Tables          []InspectJSONTable `json:"tables"`
	SuggestTable    string             `json:"suggest_table,omitempty"`
	SuggestedOffset *int64             `json:"suggested_offset,omitempty"`
}

func outputInspectJSON(w io.Writer, result *inspector.Result, dumpFile, suggestTable string, suggestion *int64) error {
	out := InspectJSONOutput{
		File:            dumpFile,
		LinesScanned:    result.LinesScanned,
		InsertLines:     result.InsertLines,
		Truncated:       result.Truncated,
		Tables:          make([]InspectJSONTable, 0, len(result.Tables)),
		SuggestTable:    suggestTable,
		SuggestedOffset: suggestion,
	}

	for _, ts := range result.Tables {
		jt := InspectJSONTable{
			Table:      ts.Table,
			Statements: ts.Statements,
			Canonical:  ts.Canonical,
			NumericIDs: ts.NumericIDs,
			InvalidIDs: ts.InvalidIDs,
			FirstLine:  ts.FirstLine,
			SampleLine: ts.SampleLine,
		}
		if ts.NumericIDs > 0 {
			minID, maxID := ts.MinID, ts.MaxID
			jt.MinID, jt.MaxID = &minID, &maxID
		}
		out.Tables = append(out.Tables, jt)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
