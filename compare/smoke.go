package compare

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shibukawa/snapcheck/queryexec"
)

// SmokeDetails is the payload of the single-table smoke operations.
type SmokeDetails struct {
	Check    string
	Table    string
	RowCount int64
	Columns  []string
	Missing  []string
	Elapsed  time.Duration
}

func (d SmokeDetails) Operation() string { return "smoke_" + d.Check }

// Connection verifies a round trip to the database.
type Connection struct{}

func (Connection) Compare(ctx context.Context, q queryexec.Querier, _ Request) Outcome {
	start := time.Now()

	if err := q.Ping(ctx); err != nil {
		return fault("Connection test", err)
	}

	details := SmokeDetails{Check: "connection", Elapsed: time.Since(start)}

	return pass(details, "Connection to %s database established", q.Dialect())
}

// Queries runs the query parameter (default SELECT 1) and expects it to succeed.
type Queries struct{}

func (Queries) Compare(ctx context.Context, q queryexec.Querier, req Request) Outcome {
	query := req.Params.Value("query", "SELECT 1")

	rows, err := q.Query(ctx, query)
	if err != nil {
		return fault("Basic query test", err)
	}

	details := SmokeDetails{Check: "queries", RowCount: int64(len(rows.Values)), Columns: rows.Columns}

	return pass(details, "Query returned %d rows", len(rows.Values))
}

// Performance pings the database iterations times (default 5) and fails when the
// average round trip exceeds max_ms (default 1000).
type Performance struct{}

func (Performance) Compare(ctx context.Context, q queryexec.Querier, req Request) Outcome {
	const op = "Connection performance test"

	iterations, err := intParam(req, "iterations", 5)
	if err != nil || iterations <= 0 {
		return fault(op, fmt.Errorf("%w: iterations '%s'", ErrInvalidParameter, req.Params.Value("iterations", "")))
	}

	maxMS, err := intParam(req, "max_ms", 1000)
	if err != nil || maxMS <= 0 {
		return fault(op, fmt.Errorf("%w: max_ms '%s'", ErrInvalidParameter, req.Params.Value("max_ms", "")))
	}

	start := time.Now()

	for range iterations {
		if err := q.Ping(ctx); err != nil {
			return fault(op, err)
		}
	}

	average := time.Since(start) / time.Duration(iterations)
	details := SmokeDetails{Check: "performance", Elapsed: average}
	limit := time.Duration(maxMS) * time.Millisecond

	if average > limit {
		return fail(details, "Average round trip %s exceeds %s", average, limit)
	}

	return pass(details, "Average round trip %s over %d iterations", average, iterations)
}

// TableExists checks that table_name exists.
type TableExists struct{}

func (TableExists) Compare(ctx context.Context, q queryexec.Querier, req Request) Outcome {
	const op = "Table existence check"

	if err := requireTables(req, false); err != nil {
		return fault(op, err)
	}

	exists, err := q.TableExists(ctx, req.Source)
	if err != nil {
		return fault(op, err)
	}

	details := SmokeDetails{Check: "table_exists", Table: req.Source}

	if !exists {
		return fail(details, "Table %s does not exist", req.Source)
	}

	return pass(details, "Table %s exists", req.Source)
}

// TableRows checks that table_name holds at least min_rows rows (default 1).
type TableRows struct{}

func (TableRows) Compare(ctx context.Context, q queryexec.Querier, req Request) Outcome {
	const op = "Table row check"

	if err := requireTables(req, false); err != nil {
		return fault(op, err)
	}

	minRows, err := intParam(req, "min_rows", 1)
	if err != nil {
		return fault(op, fmt.Errorf("%w: min_rows '%s'", ErrInvalidParameter, req.Params.Value("min_rows", "")))
	}

	count, err := q.RowCount(ctx, req.Source)
	if err != nil {
		return fault(op, err)
	}

	details := SmokeDetails{Check: "table_rows", Table: req.Source, RowCount: count}

	if count < int64(minRows) {
		return fail(details, "Table %s has %d rows, expected at least %d", req.Source, count, minRows)
	}

	return pass(details, "Table %s has %d rows", req.Source, count)
}

// TableSelect checks that a single row can be selected from table_name.
type TableSelect struct{}

func (TableSelect) Compare(ctx context.Context, q queryexec.Querier, req Request) Outcome {
	const op = "Table select check"

	if err := requireTables(req, false); err != nil {
		return fault(op, err)
	}

	t, err := quoteTable(q, req.Source)
	if err != nil {
		return fault(op, err)
	}

	rows, err := q.Query(ctx, "SELECT * FROM "+t+" LIMIT 1")
	if err != nil {
		return fault(op, err)
	}

	details := SmokeDetails{Check: "table_select", Table: req.Source, RowCount: int64(len(rows.Values)), Columns: rows.Columns}

	return pass(details, "SELECT on %s succeeded (%d columns)", req.Source, len(rows.Columns))
}

// TableStructure checks that every name in the columns parameter exists in table_name.
type TableStructure struct{}

func (TableStructure) Compare(ctx context.Context, q queryexec.Querier, req Request) Outcome {
	const op = "Table structure check"

	if err := requireTables(req, false); err != nil {
		return fault(op, err)
	}

	columns, err := q.Columns(ctx, req.Source)
	if err != nil {
		return fault(op, err)
	}

	present := make(map[string]bool, len(columns))
	details := SmokeDetails{Check: "table_structure", Table: req.Source}

	for _, col := range columns {
		present[strings.ToLower(col.Name)] = true
		details.Columns = append(details.Columns, col.Name)
	}

	for _, want := range req.Params.List("columns") {
		if !present[strings.ToLower(want)] {
			details.Missing = append(details.Missing, want)
		}
	}

	if len(details.Missing) > 0 {
		return fail(details, "Table %s is missing columns: %s", req.Source, strings.Join(details.Missing, ", "))
	}

	return pass(details, "Table %s has %d columns", req.Source, len(columns))
}

func intParam(req Request, key string, fallback int) (int, error) {
	raw := req.Params.Value(key, "")
	if raw == "" {
		return fallback, nil
	}

	return strconv.Atoi(raw)
}
