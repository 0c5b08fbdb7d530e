// Package output provides formatting for rewrite run reports.
package output

import (
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/sqlshift/pkg/rewriter"
)

// Report is the complete output of a rewrite run.
type Report struct {
	Summary  Summary       `json:"summary"`
	Rules    []RuleSummary `json:"rules"`
	Changes  []Change      `json:"changes,omitempty"`
	Skips    []Skip        `json:"skips,omitempty"`
	Metadata Metadata      `json:"metadata"`
}

// Summary provides aggregate counts.
type Summary struct {
	LinesRead      int `json:"lines_read"`
	LinesWritten   int `json:"lines_written"`
	Rewritten      int `json:"rewritten"`
	Unmatched      int `json:"unmatched"`
	PrefixMismatch int `json:"prefix_mismatch"`
	InvalidID      int `json:"invalid_id"`
}

// RuleSummary gives the counts for one rule.
type RuleSummary struct {
	Name           string `json:"name"`
	Table          string `json:"table"`
	Offset         int64  `json:"offset"`
	Rewritten      int    `json:"rewritten"`
	PrefixMismatch int    `json:"prefix_mismatch"`
	InvalidID      int    `json:"invalid_id"`
}

// Change is one shifted identifier.
type Change struct {
	Line  int    `json:"line"`
	Rule  string `json:"rule"`
	OldID int64  `json:"old_id"`
	NewID int64  `json:"new_id"`
}

// Skip is one candidate line passed through unchanged.
type Skip struct {
	Line    int    `json:"line"`
	Rule    string `json:"rule"`
	Outcome string `json:"outcome"`
	Reason  string `json:"reason"`
}

// Metadata provides context about the run.
type Metadata struct {
	RunID      string        `json:"run_id"`
	ConfigFile string        `json:"config_file,omitempty"`
	Input      string        `json:"input"`
	Output     string        `json:"output"`
	DryRun     bool          `json:"dry_run"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration_ns"`
}

// NewReport creates a Report from a rewriter result.
func NewReport(result *rewriter.Result, configFile string) *Report {
	report := &Report{
		Summary: Summary{
			LinesRead:      result.LinesRead,
			LinesWritten:   result.LinesWritten,
			Rewritten:      result.Rewritten,
			Unmatched:      result.Unmatched,
			PrefixMismatch: result.PrefixMismatch,
			InvalidID:      result.InvalidID,
		},
		Rules: make([]RuleSummary, 0, len(result.Rules)),
		Metadata: Metadata{
			RunID:      uuid.NewString(),
			ConfigFile: configFile,
			Input:      result.Input,
			Output:     result.Output,
			DryRun:     result.DryRun,
			StartedAt:  result.StartTime,
			Duration:   result.Duration(),
		},
	}

	for _, rs := range result.Rules {
		report.Rules = append(report.Rules, RuleSummary{
			Name:           rs.Name,
			Table:          rs.Table,
			Offset:         rs.Offset,
			Rewritten:      rs.Rewritten,
			PrefixMismatch: rs.PrefixMismatch,
			InvalidID:      rs.InvalidID,
		})
	}

	for _, c := range result.Changes {
		report.Changes = append(report.Changes, Change{
			Line:  c.LineNum,
			Rule:  c.Rule,
			OldID: c.OldID,
			NewID: c.NewID,
		})
	}

	for _, s := range result.Skips {
		report.Skips = append(report.Skips, Skip{
			Line:    s.LineNum,
			Rule:    s.Rule,
			Outcome: string(s.Outcome),
			Reason:  s.Reason,
		})
	}

	return report
}

// HasSkips returns true if any candidate line was passed through.
func (r *Report) HasSkips() bool {
	return r.Summary.PrefixMismatch+r.Summary.InvalidID > 0
}
