package compare

import (
	"context"
	"fmt"
	"sort"

	"github.com/shibukawa/snapcheck/definition"
	"github.com/shibukawa/snapcheck/queryexec"
)

// ValueDiff is one key whose column value differs.
type ValueDiff struct {
	Key    string
	Source any
	Target any
}

// ColumnDetails is the payload of ColumnCompare.
type ColumnDetails struct {
	SourceTable      string
	TargetTable      string
	Column           string
	KeyColumn        string
	RecordsCompared  int
	TotalDifferences int
	// Differences, MissingInTarget and MissingInSource are bounded samples.
	Differences          []ValueDiff
	MissingInTarget      []string
	MissingInSource      []string
	MissingInTargetCount int
	MissingInSourceCount int
}

func (ColumnDetails) Operation() string { return "column_compare" }

// ColumnCompare compares one column's values keyed by key_column (default: first source column).
type ColumnCompare struct {
	Settings Settings
}

func (c ColumnCompare) Compare(ctx context.Context, q queryexec.Querier, req Request) Outcome {
	const op = "Column comparison"

	if err := requireTables(req, true); err != nil {
		return fault(op, err)
	}

	column := req.Params.Value("column_name", "")
	if column == "" {
		return fault(op, fmt.Errorf("%w: column_name", ErrMissingParameter))
	}

	key := req.Params.Value("key_column", "")
	if key == "" {
		columns, err := q.Columns(ctx, req.Source)
		if err != nil {
			return fault(op, err)
		}

		key = columns[0].Name
	}

	source, err := keyedValues(ctx, q, req.Source, key, column)
	if err != nil {
		return fault(op, err)
	}

	target, err := keyedValues(ctx, q, req.Target, key, column)
	if err != nil {
		return fault(op, err)
	}

	details := ColumnDetails{SourceTable: req.Source, TargetTable: req.Target, Column: column, KeyColumn: key}
	limit := c.Settings.sampleLimit()

	for _, k := range sortedKeys(source) {
		tv, ok := target[k]
		if !ok {
			details.MissingInTargetCount++
			if len(details.MissingInTarget) < limit {
				details.MissingInTarget = append(details.MissingInTarget, k)
			}

			continue
		}

		details.RecordsCompared++

		sv := source[k]
		if sameValue(sv, tv) {
			continue
		}

		details.TotalDifferences++
		if len(details.Differences) < limit {
			details.Differences = append(details.Differences, ValueDiff{Key: k, Source: sv, Target: tv})
		}
	}

	for _, k := range sortedKeys(target) {
		if _, ok := source[k]; ok {
			continue
		}

		details.MissingInSourceCount++
		if len(details.MissingInSource) < limit {
			details.MissingInSource = append(details.MissingInSource, k)
		}
	}

	if details.TotalDifferences > 0 || details.MissingInTargetCount > 0 || details.MissingInSourceCount > 0 {
		return fail(details, "Column comparison failed for %s: %d value differences, %d missing in target, %d missing in source",
			column, details.TotalDifferences, details.MissingInTargetCount, details.MissingInSourceCount)
	}

	return pass(details, "Column comparison passed for %s (%d records matched)", column, details.RecordsCompared)
}

func keyedValues(ctx context.Context, q queryexec.Querier, table, key, column string) (map[string]any, error) {
	t, k, err := quotePair(q, table, key)
	if err != nil {
		return nil, err
	}

	col, err := quote(q, column)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, fmt.Sprintf("SELECT %s, %s FROM %s ORDER BY %s", k, col, t, k))
	if err != nil {
		return nil, err
	}

	values := make(map[string]any, len(rows.Values))
	for _, row := range rows.Values {
		values[definition.CellString(row[0])] = row[1]
	}

	return values, nil
}

// sameValue compares NULL-aware textual forms so numeric widths and driver types do not matter.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return definition.CellString(a) == definition.CellString(b)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
