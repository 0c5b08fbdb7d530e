// Package inspector summarises the INSERT statements found in a SQL dump so an
// operator can pick tables and offsets before rewriting.
package inspector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// insertPattern captures the table of any single-row INSERT line.
	insertPattern = regexp.MustCompile(`^INSERT INTO (\S+)`)

	// valuesPattern captures the table and leading identifier in the shape
	// the rewriter understands.
	valuesPattern = regexp.MustCompile(`^INSERT INTO (\S+) VALUES \(([^,]*)`)
)

// ErrUnknownTable is returned by SuggestOffset for a table that was not seen.
var ErrUnknownTable = errors.New("table not found in dump")

// TableStats describes the INSERT statements of one table.
type TableStats struct {
	Table string

	// Statements counts every INSERT line for the table.
	Statements int

	// Canonical counts lines of the form INSERT INTO t VALUES (...
	Canonical int

	// NumericIDs and InvalidIDs split the canonical lines by identifier.
	NumericIDs int
	InvalidIDs int

	MinID int64
	MaxID int64

	FirstLine  int
	SampleLine string
}

// Result holds the outcome of inspecting a dump.
type Result struct {
	Path         string
	LinesScanned int
	InsertLines  int
	Truncated    bool

	// Tables is sorted by statement count descending, then by name.
	Tables []*TableStats
}

// Table returns the stats for name, or nil.
func (r *Result) Table(name string) *TableStats {
	for _, ts := range r.Tables {
		if ts.Table == name {
			return ts
		}
	}
	return nil
}

// SuggestOffset returns the offset that moves identifiers starting at zero
// past every identifier already present for table.
func (r *Result) SuggestOffset(table string) (int64, error) {
	ts := r.Table(table)
	if ts == nil {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	if ts.NumericIDs == 0 {
		return 0, fmt.Errorf("table %s has no numeric identifiers", table)
	}
	if ts.MaxID == math.MaxInt64 {
		return 0, fmt.Errorf("table %s: max identifier %d leaves no room for an offset", table, ts.MaxID)
	}
	return ts.MaxID + 1, nil
}

// Inspector scans dumps.
type Inspector struct {
	tables   map[string]bool
	maxLines int
}

// Option configures the Inspector.
type Option func(*Inspector)

// WithTables restricts the report to the named tables.
func WithTables(names ...string) Option {
	return func(in *Inspector) {
		for _, n := range names {
			if n = strings.TrimSpace(n); n != "" {
				in.tables[n] = true
			}
		}
	}
}

// WithMaxLines stops scanning after n lines. Zero means no limit.
func WithMaxLines(n int) Option {
	return func(in *Inspector) {
		if n > 0 {
			in.maxLines = n
		}
	}
}

// New creates an Inspector.
func New(opts ...Option) *Inspector {
	in := &Inspector{tables: make(map[string]bool)}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// InspectFile scans the dump at path.
func (in *Inspector) InspectFile(ctx context.Context, path string) (*Result, error) {
	// #nosec G304 - path is provided by user via CLI
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	sc := newScan(in)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024) // dumps carry long extended inserts

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if in.maxLines > 0 && sc.result.LinesScanned >= in.maxLines {
			sc.result.Truncated = true
			break
		}
		sc.add(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	res := sc.finish()
	res.Path = path
	return res, nil
}

// InspectLines scans lines already in memory.
func (in *Inspector) InspectLines(lines []string) *Result {
	sc := newScan(in)
	for _, line := range lines {
		if in.maxLines > 0 && sc.result.LinesScanned >= in.maxLines {
			sc.result.Truncated = true
			break
		}
		sc.add(line)
	}
	return sc.finish()
}

type scan struct {
	in     *Inspector
	result *Result
	stats  map[string]*TableStats
}

func newScan(in *Inspector) *scan {
	return &scan{
		in:     in,
		result: &Result{},
		stats:  make(map[string]*TableStats),
	}
}

func (s *scan) add(line string) {
	s.result.LinesScanned++

	trimmed := strings.TrimSpace(line)
	m := insertPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return
	}
	table := m[1]
	if len(s.in.tables) > 0 && !s.in.tables[table] {
		return
	}
	s.result.InsertLines++

	ts := s.stats[table]
	if ts == nil {
		ts = &TableStats{Table: table, FirstLine: s.result.LinesScanned, SampleLine: trimmed}
		s.stats[table] = ts
	}
	ts.Statements++

	vm := valuesPattern.FindStringSubmatch(trimmed)
	if vm == nil || vm[1] != table {
		return
	}
	ts.Canonical++

	id, err := strconv.ParseInt(strings.TrimSpace(vm[2]), 10, 64)
	if err != nil {
		ts.InvalidIDs++
		return
	}
	if ts.NumericIDs == 0 || id < ts.MinID {
		ts.MinID = id
	}
	if ts.NumericIDs == 0 || id > ts.MaxID {
		ts.MaxID = id
	}
	ts.NumericIDs++
}

func (s *scan) finish() *Result {
	for _, ts := range s.stats {
		s.result.Tables = append(s.result.Tables, ts)
	}
	sort.Slice(s.result.Tables, func(i, j int) bool {
		a, b := s.result.Tables[i], s.result.Tables[j]
		if a.Statements != b.Statements {
			return a.Statements > b.Statements
		}
		return a.Table < b.Table
	})
	return s.result
}
