package rewriter

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Rewriter applies a fixed set of rules to lines of a SQL dump.
// It holds no per-line state and is safe for sequential reuse.
type Rewriter struct {
	rules    []Rule
	dryRun   bool
	observer Observer
	log      zerolog.Logger
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithDryRun makes RewriteFile compute the result without creating the output file.
func WithDryRun(dryRun bool) Option {
	return func(r *Rewriter) {
		r.dryRun = dryRun
	}
}

// WithObserver registers an observer for progress reporting.
func WithObserver(o Observer) Option {
	return func(r *Rewriter) {
		r.observer = o
	}
}

// WithLogger sets the logger used for per-line diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Rewriter) {
		r.log = l
	}
}

// New creates a Rewriter. Rules are tried in the order given.
func New(rules []Rule, opts ...Option) (*Rewriter, error) {
	if len(rules) == 0 {
		return nil, ErrNoRules
	}

	seen := make(map[string]bool, len(rules))
	normalized := make([]Rule, 0, len(rules))
	for i, rule := range rules {
		rule.Table = strings.TrimSpace(rule.Table)
		if rule.Table == "" {
			return nil, fmt.Errorf("rules[%d]: %w", i, ErrEmptyTable)
		}
		if rule.Name == "" {
			rule.Name = rule.Table
		}
		if seen[rule.Name] {
			return nil, fmt.Errorf("rules[%d] (%s): %w", i, rule.Name, ErrDuplicateRule)
		}
		seen[rule.Name] = true
		normalized = append(normalized, rule)
	}

	r := &Rewriter{
		rules: normalized,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Rules returns a copy of the configured rules.
func (r *Rewriter) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// RewriteLine filters a single line. The first rule that rewrites the line
// wins; otherwise the line is returned unchanged with the strongest
// pass-through outcome any rule produced.
func (r *Rewriter) RewriteLine(line string) LineResult {
	best := LineResult{Input: line, Output: line, Outcome: OutcomeUnmatched}
	for _, rule := range r.rules {
		lr := applyRule(rule, line)
		if lr.Outcome == OutcomeRewritten {
			return lr
		}
		if lr.Outcome.rank() > best.Outcome.rank() {
			best = lr
		}
	}
	return best
}

func applyRule(rule Rule, line string) LineResult {
	res := LineResult{Input: line, Output: line, Outcome: OutcomeUnmatched}
	if !strings.Contains(line, rule.Keyword()) {
		return res
	}
	res.Rule = rule.Name

	first, rest, hasRest := strings.Cut(strings.TrimSpace(line), ",")
	prefix := rule.Prefix()
	if !strings.HasPrefix(first, prefix) {
		res.Outcome = OutcomePrefixMismatch
		res.Reason = fmt.Sprintf("first field does not start with %q", prefix)
		return res
	}

	idText := strings.TrimSpace(first[len(prefix):])
	oldID, err := strconv.ParseInt(idText, 10, 64)
	if err != nil {
		res.Outcome = OutcomeInvalidID
		res.Reason = fmt.Sprintf("identifier %q is not an integer", idText)
		return res
	}

	newID, ok := shift(oldID, rule.Offset)
	if !ok {
		res.Outcome = OutcomeInvalidID
		res.Reason = fmt.Sprintf("identifier %d shifted by %d overflows int64", oldID, rule.Offset)
		return res
	}

	var b strings.Builder
	b.Grow(len(line) + 8)
	b.WriteString(prefix)
	b.WriteString(strconv.FormatInt(newID, 10))
	if hasRest {
		b.WriteByte(',')
		b.WriteString(rest)
	}
	b.WriteByte('\n')

	res.Output = b.String()
	res.Outcome = OutcomeRewritten
	res.OldID = oldID
	res.NewID = newID
	return res
}

func shift(id, offset int64) (int64, bool) {
	if offset > 0 && id > math.MaxInt64-offset {
		return 0, false
	}
	if offset < 0 && id < math.MinInt64-offset {
		return 0, false
	}
	return id + offset, true
}

// Rewrite filters lines in order and writes every emitted line to w.
// The context is checked between lines.
func (r *Rewriter) Rewrite(ctx context.Context, lines []string, w io.Writer) (*Result, error) {
	res := newResult(r.rules)
	res.DryRun = r.dryRun
	res.StartTime = time.Now()

	if r.observer != nil {
		r.observer.Start(len(lines))
		defer r.observer.Finish()
	}

	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lr := r.RewriteLine(line)
		lr.LineNum = i + 1

		if _, err := io.WriteString(w, lr.Output); err != nil {
			return nil, fmt.Errorf("writing line %d: %w", lr.LineNum, err)
		}

		res.record(lr)
		r.logLine(lr)
		if r.observer != nil {
			r.observer.Line(lr)
		}
	}

	res.EndTime = time.Now()
	return res, nil
}

func (r *Rewriter) logLine(lr LineResult) {
	switch {
	case lr.Outcome == OutcomeRewritten:
		r.log.Trace().
			Int("line", lr.LineNum).
			Str("rule", lr.Rule).
			Int64("old_id", lr.OldID).
			Int64("new_id", lr.NewID).
			Msg("identifier shifted")
	case lr.Outcome.Skipped():
		r.log.Debug().
			Int("line", lr.LineNum).
			Str("rule", lr.Rule).
			Str("outcome", string(lr.Outcome)).
			Msg(lr.Reason)
	}
}
