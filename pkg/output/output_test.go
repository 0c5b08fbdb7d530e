package output

import (
	"time"

	"github.com/ccollicutt/sqlshift/pkg/rewriter"
)

func createTestResult() *rewriter.Result {
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	return &rewriter.Result{
		Input:          "s.sql",
		Output:         "q.sql",
		LinesRead:      5,
		LinesWritten:   5,
		Rewritten:      2,
		Unmatched:      2,
		InvalidID:      1,
		PrefixMismatch: 0,
		Rules: []*rewriter.RuleStats{
			{Name: "sub_category", Table: "sub_category", Offset: 14887, Rewritten: 2, InvalidID: 1},
		},
		Changes: []rewriter.Change{
			{LineNum: 2, Rule: "sub_category", OldID: 5, NewID: 14892},
			{LineNum: 3, Rule: "sub_category", OldID: 6, NewID: 14893},
		},
		Skips: []rewriter.Skip{
			{LineNum: 4, Rule: "sub_category", Outcome: rewriter.OutcomeInvalidID, Reason: `identifier "abc" is not an integer`},
		},
		StartTime: start,
		EndTime:   start.Add(1500 * time.Millisecond),
	}
}

func createTestReport() *Report {
	return NewReport(createTestResult(), "sqlshift.yaml")
}
