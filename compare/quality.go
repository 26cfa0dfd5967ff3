package compare

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shibukawa/snapcheck/definition"
	"github.com/shibukawa/snapcheck/queryexec"
)

// Issue is one data-quality finding.
type Issue struct {
	Check    CheckKind
	Severity Severity
	Table    string
	Column   string
	// Count is the number of offending rows.
	Count      int64
	Percentage decimal.Decimal
	// AffectedValues is the number of distinct duplicated keys (duplicates only).
	AffectedValues int64
	Description    string
	Sample         []any
}

// QualityDetails is the payload of DataQualityCompare.
type QualityDetails struct {
	Table              string
	TotalRows          int64
	ChecksRun          []CheckKind
	Issues             []Issue
	TotalIssues        int
	HighSeverityIssues int
}

func (QualityDetails) Operation() string { return "quality_compare" }

// Issue returns the first issue of the given kind.
func (d QualityDetails) Issue(kind CheckKind) (Issue, bool) {
	for _, issue := range d.Issues {
		if issue.Check == kind {
			return issue, true
		}
	}

	return Issue{}, false
}

// DataQualityCompare runs the data-quality checklist against the target table.
//
// Parameters:
//   - key_column: duplicate detection key (defaults to the first column)
//   - fk_column, reference_table, reference_column: orphaned foreign keys
//   - rule_column with min_value/max_value, pattern or rule_expr: invalid values
//   - required_column: missing critical data
type DataQualityCompare struct {
	Settings Settings
}

func (c DataQualityCompare) Compare(ctx context.Context, q queryexec.Querier, req Request) Outcome {
	const op = "Data quality validation"

	table := req.Target
	if table == "" {
		table = req.Source
	}

	if table == "" {
		return fault(op, fmt.Errorf("%w: target_table (or table_name)", ErrMissingParameter))
	}

	rule, err := parseRule(req.Params)
	if err != nil {
		return fault(op, err)
	}

	details := QualityDetails{Table: table}

	if details.TotalRows, err = q.RowCount(ctx, table); err != nil {
		return fault(op, err)
	}

	checks := []struct {
		kind    CheckKind
		enabled bool
		run     func() (*Issue, error)
	}{
		{CheckDuplicates, true, func() (*Issue, error) { return c.duplicates(ctx, q, table, req.Params) }},
		{CheckOrphans, req.Params.Has("fk_column") && req.Params.Has("reference_table"), func() (*Issue, error) {
			return c.orphans(ctx, q, table, req.Params, details.TotalRows)
		}},
		{CheckInvalidValues, rule != nil && req.Params.Has("rule_column"), func() (*Issue, error) {
			return c.invalidValues(ctx, q, table, req.Params.Value("rule_column", ""), rule, details.TotalRows)
		}},
		{CheckMissingData, req.Params.Has("required_column"), func() (*Issue, error) {
			return c.missing(ctx, q, table, req.Params.Value("required_column", ""), details.TotalRows)
		}},
	}

	for _, check := range checks {
		if !check.enabled {
			continue
		}

		issue, err := check.run()
		if err != nil {
			return fault(op, err)
		}

		details.ChecksRun = append(details.ChecksRun, check.kind)

		if issue != nil {
			details.Issues = append(details.Issues, *issue)
			if issue.Severity == SeverityHigh {
				details.HighSeverityIssues++
			}
		}
	}

	details.TotalIssues = len(details.Issues)

	if details.TotalIssues > 0 {
		return fail(details, "Data quality issues found in %s: %d issues (%d high severity)",
			table, details.TotalIssues, details.HighSeverityIssues)
	}

	return pass(details, "Data quality validation passed for %s (%d checks)", table, len(details.ChecksRun))
}

func (c DataQualityCompare) duplicates(ctx context.Context, q queryexec.Querier, table string, params definition.Params) (*Issue, error) {
	key := params.Value("key_column", "")
	if key == "" {
		columns, err := q.Columns(ctx, table)
		if err != nil {
			return nil, err
		}

		key = columns[0].Name
	}

	t, col, err := quotePair(q, table, key)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, fmt.Sprintf(
		"SELECT %s, COUNT(*) FROM %s WHERE %s IS NOT NULL GROUP BY %s HAVING COUNT(*) > 1 ORDER BY COUNT(*) DESC",
		col, t, col, col))
	if err != nil {
		return nil, err
	}

	if len(rows.Values) == 0 {
		return nil, nil
	}

	var extra int64

	sample := make([]any, 0, c.Settings.sampleLimit())

	for _, row := range rows.Values {
		extra += toInt64(row[1]) - 1

		if len(sample) < c.Settings.sampleLimit() {
			sample = append(sample, row[0])
		}
	}

	return &Issue{
		Check:          CheckDuplicates,
		Severity:       c.Settings.severity(CheckDuplicates),
		Table:          table,
		Column:         key,
		Count:          extra,
		AffectedValues: int64(len(rows.Values)),
		Description:    fmt.Sprintf("%d duplicated values in %s (%d extra rows)", len(rows.Values), key, extra),
		Sample:         sample,
	}, nil
}

func (c DataQualityCompare) orphans(ctx context.Context, q queryexec.Querier, table string, params definition.Params, total int64) (*Issue, error) {
	fk := params.Value("fk_column", "")
	refTable := params.Value("reference_table", "")
	refColumn := params.Value("reference_column", fk)

	t, fkCol, err := quotePair(q, table, fk)
	if err != nil {
		return nil, err
	}

	r, refCol, err := quotePair(q, refTable, refColumn)
	if err != nil {
		return nil, err
	}

	where := fmt.Sprintf("c.%s IS NOT NULL AND NOT EXISTS (SELECT 1 FROM %s p WHERE p.%s = c.%s)", fkCol, r, refCol, fkCol)

	count, err := q.Count(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s c WHERE %s", t, where))
	if err != nil {
		return nil, err
	}

	if count == 0 {
		return nil, nil
	}

	rows, err := q.Query(ctx, fmt.Sprintf("SELECT DISTINCT c.%s FROM %s c WHERE %s LIMIT %d", fkCol, t, where, c.Settings.sampleLimit()))
	if err != nil {
		return nil, err
	}

	return &Issue{
		Check:       CheckOrphans,
		Severity:    c.Settings.severity(CheckOrphans),
		Table:       table,
		Column:      fk,
		Count:       count,
		Percentage:  percentage(count, total),
		Description: fmt.Sprintf("%d rows in %s reference missing %s.%s", count, fk, refTable, refColumn),
		Sample:      firstColumn(rows),
	}, nil
}

func (c DataQualityCompare) invalidValues(ctx context.Context, q queryexec.Querier, table, column string, rule valueRule, total int64) (*Issue, error) {
	t, col, err := quotePair(q, table, column)
	if err != nil {
		return nil, err
	}

	var (
		count  int64
		sample []any
	)

	if predicate := rule.predicate(col); predicate != "" {
		where := col + " IS NOT NULL AND " + predicate

		if count, err = q.Count(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", t, where)); err != nil {
			return nil, err
		}

		if count > 0 {
			rows, err := q.Query(ctx, fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT %d", col, t, where, c.Settings.sampleLimit()))
			if err != nil {
				return nil, err
			}

			sample = firstColumn(rows)
		}
	} else {
		rows, err := q.Query(ctx, fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NOT NULL", col, t, col))
		if err != nil {
			return nil, err
		}

		for _, row := range rows.Values {
			if rule.valid(row[0]) {
				continue
			}

			count++

			if len(sample) < c.Settings.sampleLimit() {
				sample = append(sample, row[0])
			}
		}
	}

	if count == 0 {
		return nil, nil
	}

	return &Issue{
		Check:       CheckInvalidValues,
		Severity:    c.Settings.severity(CheckInvalidValues),
		Table:       table,
		Column:      column,
		Count:       count,
		Percentage:  percentage(count, total),
		Description: fmt.Sprintf("%d values in %s %s", count, column, rule.describe()),
		Sample:      sample,
	}, nil
}

func (c DataQualityCompare) missing(ctx context.Context, q queryexec.Querier, table, column string, total int64) (*Issue, error) {
	count, err := countNulls(ctx, q, table, column)
	if err != nil {
		return nil, err
	}

	if count == 0 {
		return nil, nil
	}

	return &Issue{
		Check:       CheckMissingData,
		Severity:    c.Settings.severity(CheckMissingData),
		Table:       table,
		Column:      column,
		Count:       count,
		Percentage:  percentage(count, total),
		Description: fmt.Sprintf("%d rows missing required %s", count, column),
	}, nil
}

func quotePair(q queryexec.Querier, table, column string) (string, string, error) {
	t, err := quoteTable(q, table)
	if err != nil {
		return "", "", err
	}

	col, err := quote(q, column)
	if err != nil {
		return "", "", err
	}

	return t, col, nil
}

func firstColumn(rows *queryexec.Rows) []any {
	values := make([]any, 0, len(rows.Values))
	for _, row := range rows.Values {
		values = append(values, row[0])
	}

	return values
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return 0
		}

		return d.IntPart()
	default:
		return 0
	}
}
