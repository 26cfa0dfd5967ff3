package compare

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shibukawa/snapcheck/queryexec"
)

// NullIssue classifies a column whose NULL pattern differs.
type NullIssue string

const (
	ConstraintViolation NullIssue = "CONSTRAINT_VIOLATION"
	NullCountMismatch   NullIssue = "NULL_COUNT_MISMATCH"
)

// NullDiff is one column whose NULL pattern differs between source and target.
type NullDiff struct {
	Column         string
	Issue          NullIssue
	DataType       string
	SourceNullable bool
	TargetNullable bool
	SourceNulls    int64
	TargetNulls    int64
	SourceNullPct  decimal.Decimal
	TargetNullPct  decimal.Decimal
	Difference     int64
}

// NullDetails is the payload of NullPatternCompare.
type NullDetails struct {
	SourceTable   string
	TargetTable   string
	CommonColumns int
	SourceRows    int64
	TargetRows    int64
	Diffs         []NullDiff
}

func (NullDetails) Operation() string { return "null_compare" }

// NullPatternCompare counts NULLs per common column on both sides.
// A differing column is a CONSTRAINT_VIOLATION when either side declares NOT NULL
// and either side holds NULLs; otherwise it is a NULL_COUNT_MISMATCH.
type NullPatternCompare struct {
	Settings Settings
}

func (c NullPatternCompare) Compare(ctx context.Context, q queryexec.Querier, req Request) Outcome {
	const op = "NULL value validation"

	if err := requireTables(req, true); err != nil {
		return fault(op, err)
	}

	sourceCols, err := q.Columns(ctx, req.Source)
	if err != nil {
		return fault(op, err)
	}

	targetCols, err := q.Columns(ctx, req.Target)
	if err != nil {
		return fault(op, err)
	}

	targetByName := make(map[string]queryexec.ColumnMeta, len(targetCols))
	for _, col := range targetCols {
		targetByName[strings.ToLower(col.Name)] = col
	}

	type pair struct{ src, tgt queryexec.ColumnMeta }

	var common []pair

	for _, src := range sourceCols {
		if tgt, ok := targetByName[strings.ToLower(src.Name)]; ok {
			common = append(common, pair{src, tgt})
		}
	}

	sort.Slice(common, func(i, j int) bool { return common[i].src.Name < common[j].src.Name })

	details := NullDetails{SourceTable: req.Source, TargetTable: req.Target, CommonColumns: len(common)}

	if details.SourceRows, err = q.RowCount(ctx, req.Source); err != nil {
		return fault(op, err)
	}

	if details.TargetRows, err = q.RowCount(ctx, req.Target); err != nil {
		return fault(op, err)
	}

	for _, p := range common {
		sourceNulls, err := countNulls(ctx, q, req.Source, p.src.Name)
		if err != nil {
			return fault(op, err)
		}

		targetNulls, err := countNulls(ctx, q, req.Target, p.tgt.Name)
		if err != nil {
			return fault(op, err)
		}

		notNullDeclared := !p.src.Nullable || !p.tgt.Nullable
		violation := notNullDeclared && (sourceNulls > 0 || targetNulls > 0)

		if sourceNulls == targetNulls && !violation {
			continue
		}

		issue := NullCountMismatch
		if violation {
			issue = ConstraintViolation
		}

		diff := sourceNulls - targetNulls
		if diff < 0 {
			diff = -diff
		}

		details.Diffs = append(details.Diffs, NullDiff{
			Column:         p.src.Name,
			Issue:          issue,
			DataType:       p.src.Type,
			SourceNullable: p.src.Nullable,
			TargetNullable: p.tgt.Nullable,
			SourceNulls:    sourceNulls,
			TargetNulls:    targetNulls,
			SourceNullPct:  percentage(sourceNulls, details.SourceRows),
			TargetNullPct:  percentage(targetNulls, details.TargetRows),
			Difference:     diff,
		})
	}

	if len(details.Diffs) > 0 {
		return fail(details, "NULL value differences found in %d columns", len(details.Diffs))
	}

	return pass(details, "NULL value validation passed for %d common columns", len(common))
}

func countNulls(ctx context.Context, q queryexec.Querier, table, column string) (int64, error) {
	t, err := quoteTable(q, table)
	if err != nil {
		return 0, err
	}

	col, err := quote(q, column)
	if err != nil {
		return 0, err
	}

	return q.Count(ctx, "SELECT COUNT(*) FROM "+t+" WHERE "+col+" IS NULL")
}
