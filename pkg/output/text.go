package output

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8800")).Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00CC66"))
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(_ context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "sqlshift: %d lines, %d rewritten, %d skipped\n",
		report.Summary.LinesRead,
		report.Summary.Rewritten,
		report.Summary.PrefixMismatch+report.Summary.InvalidID)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	title := "=== sqlshift Rewrite Report ==="
	if report.Metadata.DryRun {
		title = "=== sqlshift Rewrite Report (dry run) ==="
	}
	fmt.Fprintln(w, headingStyle.Render(title))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Input:  %s\n", report.Metadata.Input)
	if report.Metadata.DryRun {
		fmt.Fprintf(w, "Output: %s %s\n", report.Metadata.Output, mutedStyle.Render("(not written)"))
	} else {
		fmt.Fprintf(w, "Output: %s\n", report.Metadata.Output)
	}
	fmt.Fprintln(w)

	for _, rule := range report.Rules {
		f.formatRule(&rule, w)
	}

	if f.opts.Verbose {
		f.formatChanges(report, w)
		f.formatSkips(report, w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d lines read, %d written, %d rewritten, %d unmatched, %d skipped\n",
		report.Summary.LinesRead,
		report.Summary.LinesWritten,
		report.Summary.Rewritten,
		report.Summary.Unmatched,
		report.Summary.PrefixMismatch+report.Summary.InvalidID)

	if f.opts.Verbose {
		fmt.Fprintf(w, "Run ID: %s\n", report.Metadata.RunID)
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}

	return nil
}

func (f *TextFormatter) formatRule(rule *RuleSummary, w io.Writer) {
	fmt.Fprintf(w, "[%s] table=%s offset=%+d\n", rule.Name, rule.Table, rule.Offset)

	skipped := rule.PrefixMismatch + rule.InvalidID
	if skipped == 0 {
		fmt.Fprintf(w, "  %s\n", okStyle.Render(fmt.Sprintf("Rewritten: %d", rule.Rewritten)))
	} else {
		fmt.Fprintf(w, "  Rewritten: %d\n", rule.Rewritten)
		fmt.Fprintf(w, "  %s\n", warnStyle.Render(fmt.Sprintf("Skipped: %d (invalid id: %d, prefix mismatch: %d)",
			skipped, rule.InvalidID, rule.PrefixMismatch)))
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatChanges(report *Report, w io.Writer) {
	if len(report.Changes) == 0 {
		return
	}
	fmt.Fprintln(w, headingStyle.Render("Changes:"))
	for _, c := range report.Changes {
		fmt.Fprintf(w, "  - line %d [%s]: %d -> %d\n", c.Line, c.Rule, c.OldID, c.NewID)
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatSkips(report *Report, w io.Writer) {
	if len(report.Skips) == 0 {
		return
	}
	fmt.Fprintln(w, headingStyle.Render("Skipped lines:"))
	for _, s := range report.Skips {
		fmt.Fprintf(w, "  - line %d [%s] %s: %s\n", s.Line, s.Rule, s.Outcome, s.Reason)
	}
	fmt.Fprintln(w)
}
