// Package rewriter shifts row identifiers in SQL dump files, one line at a time.
package rewriter

import (
	"errors"
	"time"
)

// Errors returned by New.
var (
	ErrNoRules       = errors.New("at least one rule is required")
	ErrEmptyTable    = errors.New("rule table is required")
	ErrDuplicateRule = errors.New("duplicate rule name")
)

// Outcome describes what happened to a single line.
type Outcome string

const (
	// OutcomeUnmatched means no rule keyword appears in the line.
	OutcomeUnmatched Outcome = "unmatched"
	// OutcomeRewritten means the identifier was shifted.
	OutcomeRewritten Outcome = "rewritten"
	// OutcomePrefixMismatch means the keyword appears but the first field
	// does not start with the VALUES prefix.
	OutcomePrefixMismatch Outcome = "prefix_mismatch"
	// OutcomeInvalidID means the prefix matched but the identifier could not
	// be parsed or shifted.
	OutcomeInvalidID Outcome = "invalid_id"
)

// rank orders the pass-through outcomes when several rules look at one line.
func (o Outcome) rank() int {
	switch o {
	case OutcomeRewritten:
		return 3
	case OutcomeInvalidID:
		return 2
	case OutcomePrefixMismatch:
		return 1
	default:
		return 0
	}
}

// Skipped reports whether the line carried a rule keyword but was passed through.
func (o Outcome) Skipped() bool {
	return o == OutcomePrefixMismatch || o == OutcomeInvalidID
}

// Rule shifts the identifiers of one table.
type Rule struct {
	// Name identifies the rule in reports. Defaults to Table.
	Name string

	// Table is the table name as written after INSERT INTO.
	Table string

	// Offset is added to every identifier. May be negative.
	Offset int64
}

// Keyword is the substring that marks a line as a candidate for this rule.
func (r Rule) Keyword() string {
	return "INSERT INTO " + r.Table
}

// Prefix is the text expected immediately before the identifier.
func (r Rule) Prefix() string {
	return r.Keyword() + " VALUES ("
}

// LineResult is the outcome of filtering one line.
type LineResult struct {
	// LineNum is the 1-based position in the input. Zero from RewriteLine.
	LineNum int

	Input   string
	Output  string
	Outcome Outcome

	// Rule is the name of the rule that produced Outcome. Empty when unmatched.
	Rule string

	OldID int64
	NewID int64

	// Reason explains a skip.
	Reason string
}

// Changed reports whether Output differs from Input.
func (l LineResult) Changed() bool {
	return l.Outcome == OutcomeRewritten
}

// Change records one rewritten identifier.
type Change struct {
	LineNum int
	Rule    string
	OldID   int64
	NewID   int64
}

// Skip records a candidate line that was passed through unchanged.
type Skip struct {
	LineNum int
	Rule    string
	Outcome Outcome
	Reason  string
	Line    string
}

// RuleStats counts outcomes for one rule.
type RuleStats struct {
	Name           string
	Table          string
	Offset         int64
	Rewritten      int
	PrefixMismatch int
	InvalidID      int
}

// Result summarises a rewrite run.
type Result struct {
	Input  string
	Output string
	DryRun bool

	LinesRead    int
	LinesWritten int

	Rewritten      int
	Unmatched      int
	PrefixMismatch int
	InvalidID      int

	Rules   []*RuleStats
	Changes []Change
	Skips   []Skip

	StartTime time.Time
	EndTime   time.Time

	byName map[string]*RuleStats
}

// Skipped is the number of candidate lines that were passed through.
func (r *Result) Skipped() int {
	return r.PrefixMismatch + r.InvalidID
}

// Duration is the wall time of the run.
func (r *Result) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

func newResult(rules []Rule) *Result {
	res := &Result{
		Rules:  make([]*RuleStats, 0, len(rules)),
		byName: make(map[string]*RuleStats, len(rules)),
	}
	for _, rule := range rules {
		rs := &RuleStats{Name: rule.Name, Table: rule.Table, Offset: rule.Offset}
		res.Rules = append(res.Rules, rs)
		res.byName[rule.Name] = rs
	}
	return res
}

func (r *Result) record(lr LineResult) {
	r.LinesRead++
	r.LinesWritten++

	rs := r.byName[lr.Rule]
	switch lr.Outcome {
	case OutcomeRewritten:
		r.Rewritten++
		if rs != nil {
			rs.Rewritten++
		}
		r.Changes = append(r.Changes, Change{
			LineNum: lr.LineNum,
			Rule:    lr.Rule,
			OldID:   lr.OldID,
			NewID:   lr.NewID,
		})
	case OutcomePrefixMismatch, OutcomeInvalidID:
		if lr.Outcome == OutcomeInvalidID {
			r.InvalidID++
			if rs != nil {
				rs.InvalidID++
			}
		} else {
			r.PrefixMismatch++
			if rs != nil {
				rs.PrefixMismatch++
			}
		}
		r.Skips = append(r.Skips, Skip{
			LineNum: lr.LineNum,
			Rule:    lr.Rule,
			Outcome: lr.Outcome,
			Reason:  lr.Reason,
			Line:    lr.Input,
		})
	default:
		r.Unmatched++
	}
}

// Observer is notified as a run progresses.
type Observer interface {
	Start(total int)
	Line(result LineResult)
	Finish()
}
