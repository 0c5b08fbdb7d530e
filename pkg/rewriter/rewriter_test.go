package rewriter

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultRules() []Rule {
	return []Rule{{Name: "sub_category", Table: "sub_category", Offset: 14887}}
}

func newTestRewriter(t *testing.T, rules []Rule, opts ...Option) *Rewriter {
	t.Helper()
	r, err := New(rules, opts...)
	require.NoError(t, err)
	return r
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoRules)

	_, err = New([]Rule{{Name: "x", Table: "  "}})
	assert.ErrorIs(t, err, ErrEmptyTable)

	_, err = New([]Rule{{Table: "a"}, {Table: "a"}})
	assert.ErrorIs(t, err, ErrDuplicateRule)

	r, err := New([]Rule{{Table: " category ", Offset: 1}})
	require.NoError(t, err)
	assert.Equal(t, []Rule{{Name: "category", Table: "category", Offset: 1}}, r.Rules())
}

func TestRewriteLine(t *testing.T) {
	r := newTestRewriter(t, defaultRules())

	tests := []struct {
		name    string
		line    string
		want    string
		outcome Outcome
		oldID   int64
		newID   int64
	}{
		{
			name:    "shifts identifier",
			line:    "INSERT INTO sub_category VALUES (5,'Shoes',1)\n",
			want:    "INSERT INTO sub_category VALUES (14892,'Shoes',1)\n",
			outcome: OutcomeRewritten,
			oldID:   5,
			newID:   14892,
		},
		{
			name:    "non numeric identifier passes through",
			line:    "INSERT INTO sub_category VALUES (abc,'X')\n",
			want:    "INSERT INTO sub_category VALUES (abc,'X')\n",
			outcome: OutcomeInvalidID,
		},
		{
			name:    "other table passes through",
			line:    "INSERT INTO category VALUES (5,'Y')\n",
			want:    "INSERT INTO category VALUES (5,'Y')\n",
			outcome: OutcomeUnmatched,
		},
		{
			name:    "keyword without values prefix",
			line:    "INSERT INTO sub_category (id, name) VALUES (5,'Z')  \n",
			want:    "INSERT INTO sub_category (id, name) VALUES (5,'Z')  \n",
			outcome: OutcomePrefixMismatch,
		},
		{
			name:    "longer table name sharing the keyword",
			line:    "INSERT INTO sub_category_map VALUES (5,6)\n",
			want:    "INSERT INTO sub_category_map VALUES (5,6)\n",
			outcome: OutcomePrefixMismatch,
		},
		{
			name:    "no commas",
			line:    "INSERT INTO sub_category VALUES (7\n",
			want:    "INSERT INTO sub_category VALUES (14894\n",
			outcome: OutcomeRewritten,
			oldID:   7,
			newID:   14894,
		},
		{
			name:    "whitespace around identifier",
			line:    "INSERT INTO sub_category VALUES (  12 , 'a')\n",
			want:    "INSERT INTO sub_category VALUES (14899, 'a')\n",
			outcome: OutcomeRewritten,
			oldID:   12,
			newID:   14899,
		},
		{
			name:    "surrounding whitespace is trimmed on rewrite",
			line:    "  INSERT INTO sub_category VALUES (1,'a')  \r\n",
			want:    "INSERT INTO sub_category VALUES (14888,'a')\n",
			outcome: OutcomeRewritten,
			oldID:   1,
			newID:   14888,
		},
		{
			name:    "negative identifier",
			line:    "INSERT INTO sub_category VALUES (-14887,'neg')\n",
			want:    "INSERT INTO sub_category VALUES (0,'neg')\n",
			outcome: OutcomeRewritten,
			oldID:   -14887,
			newID:   0,
		},
		{
			name:    "missing terminator gains newline",
			line:    "INSERT INTO sub_category VALUES (1,'last')",
			want:    "INSERT INTO sub_category VALUES (14888,'last')\n",
			outcome: OutcomeRewritten,
			oldID:   1,
			newID:   14888,
		},
		{
			name:    "empty identifier",
			line:    "INSERT INTO sub_category VALUES (,'x')\n",
			want:    "INSERT INTO sub_category VALUES (,'x')\n",
			outcome: OutcomeInvalidID,
		},
		{
			name:    "empty line",
			line:    "\n",
			want:    "\n",
			outcome: OutcomeUnmatched,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.RewriteLine(tt.line)
			assert.Equal(t, tt.want, got.Output)
			assert.Equal(t, tt.outcome, got.Outcome)
			assert.Equal(t, tt.line, got.Input)
			if tt.outcome == OutcomeRewritten {
				assert.Equal(t, tt.oldID, got.OldID)
				assert.Equal(t, tt.newID, got.NewID)
				assert.True(t, got.Changed())
			} else {
				assert.False(t, got.Changed())
			}
			if tt.outcome.Skipped() {
				assert.NotEmpty(t, got.Reason)
				assert.Equal(t, "sub_category", got.Rule)
			}
		})
	}
}

func TestRewriteLine_LaterFieldsUntouched(t *testing.T) {
	r := newTestRewriter(t, defaultRules())

	line := "INSERT INTO sub_category VALUES (42,'a,b', NULL ,3.5,'INSERT INTO sub_category VALUES (1')\n"
	got := r.RewriteLine(line)
	require.Equal(t, OutcomeRewritten, got.Outcome)

	inFields := strings.Split(strings.TrimSpace(line), ",")
	outFields := strings.Split(strings.TrimSpace(got.Output), ",")
	require.Len(t, outFields, len(inFields))
	assert.Equal(t, "INSERT INTO sub_category VALUES (14929", outFields[0])
	assert.Equal(t, inFields[1:], outFields[1:])
}

func TestRewriteLine_Overflow(t *testing.T) {
	r := newTestRewriter(t, []Rule{{Table: "t", Offset: 1}})
	line := "INSERT INTO t VALUES (9223372036854775807,'max')\n"

	got := r.RewriteLine(line)
	assert.Equal(t, OutcomeInvalidID, got.Outcome)
	assert.Equal(t, line, got.Output)
	assert.Contains(t, got.Reason, "overflows")

	r = newTestRewriter(t, []Rule{{Table: "t", Offset: -1}})
	line = "INSERT INTO t VALUES (-9223372036854775808,'min')\n"
	got = r.RewriteLine(line)
	assert.Equal(t, OutcomeInvalidID, got.Outcome)
	assert.Equal(t, line, got.Output)
	assert.Contains(t, got.Reason, "overflows")
}

func TestRewriteLine_ClosingParenIsNotAnIdentifier(t *testing.T) {
	r := newTestRewriter(t, defaultRules())

	line := "INSERT INTO sub_category VALUES (1)\n"
	got := r.RewriteLine(line)
	assert.Equal(t, OutcomeInvalidID, got.Outcome)
	assert.Equal(t, line, got.Output)
}

func TestShift(t *testing.T) {
	tests := []struct {
		id, offset int64
		want       int64
		ok         bool
	}{
		{5, 14887, 14892, true},
		{14892, -14887, 5, true},
		{math.MaxInt64, 0, math.MaxInt64, true},
		{math.MaxInt64, 1, 0, false},
		{math.MinInt64, -1, 0, false},
		{math.MinInt64, 1, math.MinInt64 + 1, true},
	}
	for _, tt := range tests {
		got, ok := shift(tt.id, tt.offset)
		assert.Equal(t, tt.ok, ok, "shift(%d, %d)", tt.id, tt.offset)
		if tt.ok {
			assert.Equal(t, tt.want, got, "shift(%d, %d)", tt.id, tt.offset)
		}
	}
}

func TestRewriteLine_MultipleRules(t *testing.T) {
	r := newTestRewriter(t, []Rule{
		{Name: "sub", Table: "sub_category", Offset: 100},
		{Name: "map", Table: "sub_category_map", Offset: 1000},
	})

	got := r.RewriteLine("INSERT INTO sub_category_map VALUES (1,2)\n")
	assert.Equal(t, OutcomeRewritten, got.Outcome)
	assert.Equal(t, "map", got.Rule)
	assert.Equal(t, "INSERT INTO sub_category_map VALUES (1001,2)\n", got.Output)

	got = r.RewriteLine("INSERT INTO sub_category VALUES (1,2)\n")
	assert.Equal(t, "sub", got.Rule)
	assert.Equal(t, int64(101), got.NewID)

	got = r.RewriteLine("INSERT INTO sub_category_map VALUES (x,2)\n")
	assert.Equal(t, OutcomeInvalidID, got.Outcome)
	assert.Equal(t, "map", got.Rule)
}

func TestRewrite_Stream(t *testing.T) {
	r := newTestRewriter(t, defaultRules())

	input := "-- dump\n" +
		"INSERT INTO category VALUES (5,'Y')\n" +
		"INSERT INTO sub_category VALUES (5,'Shoes',1)\n" +
		"INSERT INTO sub_category VALUES (abc,'X')\n" +
		"INSERT INTO sub_category (id) VALUES (1)\n" +
		"INSERT INTO sub_category VALUES (6,'Hats',1)"
	lines := SplitLines([]byte(input))

	var buf bytes.Buffer
	res, err := r.Rewrite(context.Background(), lines, &buf)
	require.NoError(t, err)

	want := "-- dump\n" +
		"INSERT INTO category VALUES (5,'Y')\n" +
		"INSERT INTO sub_category VALUES (14892,'Shoes',1)\n" +
		"INSERT INTO sub_category VALUES (abc,'X')\n" +
		"INSERT INTO sub_category (id) VALUES (1)\n" +
		"INSERT INTO sub_category VALUES (14893,'Hats',1)\n"
	assert.Equal(t, want, buf.String())

	assert.Equal(t, 6, res.LinesRead)
	assert.Equal(t, 6, res.LinesWritten)
	assert.Equal(t, len(lines), len(SplitLines(buf.Bytes())))
	assert.Equal(t, 2, res.Rewritten)
	assert.Equal(t, 2, res.Unmatched)
	assert.Equal(t, 1, res.InvalidID)
	assert.Equal(t, 1, res.PrefixMismatch)
	assert.Equal(t, 2, res.Skipped())

	require.Len(t, res.Changes, 2)
	assert.Equal(t, Change{LineNum: 3, Rule: "sub_category", OldID: 5, NewID: 14892}, res.Changes[0])
	require.Len(t, res.Skips, 2)
	assert.Equal(t, 4, res.Skips[0].LineNum)
	assert.Equal(t, OutcomeInvalidID, res.Skips[0].Outcome)
	assert.Equal(t, 5, res.Skips[1].LineNum)
	assert.Equal(t, OutcomePrefixMismatch, res.Skips[1].Outcome)

	require.Len(t, res.Rules, 1)
	assert.Equal(t, 2, res.Rules[0].Rewritten)
	assert.Equal(t, 1, res.Rules[0].InvalidID)
	assert.Equal(t, 1, res.Rules[0].PrefixMismatch)
	assert.False(t, res.EndTime.Before(res.StartTime))
}

func TestRewrite_RoundTrip(t *testing.T) {
	forward := newTestRewriter(t, []Rule{{Table: "sub_category", Offset: 14887}})
	inverse := newTestRewriter(t, []Rule{{Table: "sub_category", Offset: -14887}})

	input := "INSERT INTO sub_category VALUES (1,'a')\n" +
		"INSERT INTO sub_category VALUES (250,'b',3)\n" +
		"INSERT INTO sub_category VALUES (0,'c')\n" +
		"SELECT 1;\n"

	var mid, back bytes.Buffer
	_, err := forward.Rewrite(context.Background(), SplitLines([]byte(input)), &mid)
	require.NoError(t, err)
	assert.NotEqual(t, input, mid.String())

	_, err = inverse.Rewrite(context.Background(), SplitLines(mid.Bytes()), &back)
	require.NoError(t, err)
	assert.Equal(t, input, back.String())
}

func TestRewrite_ContextCancelled(t *testing.T) {
	r := newTestRewriter(t, defaultRules())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Rewrite(ctx, []string{"a\n"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRewrite_WriteError(t *testing.T) {
	r := newTestRewriter(t, defaultRules())

	_, err := r.Rewrite(context.Background(), []string{"a\n"}, failingWriter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing line 1")
}

type recordingObserver struct {
	total    int
	lines    []LineResult
	finished bool
}

func (o *recordingObserver) Start(total int)    { o.total = total }
func (o *recordingObserver) Line(lr LineResult) { o.lines = append(o.lines, lr) }
func (o *recordingObserver) Finish()            { o.finished = true }

func TestRewrite_Observer(t *testing.T) {
	obs := &recordingObserver{}
	r := newTestRewriter(t, defaultRules(), WithObserver(obs))

	lines := []string{"x\n", "INSERT INTO sub_category VALUES (1,'a')\n"}
	_, err := r.Rewrite(context.Background(), lines, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, 2, obs.total)
	require.Len(t, obs.lines, 2)
	assert.Equal(t, 2, obs.lines[1].LineNum)
	assert.Equal(t, OutcomeRewritten, obs.lines[1].Outcome)
	assert.True(t, obs.finished)
}
