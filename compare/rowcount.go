package compare

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shibukawa/snapcheck/queryexec"
)

var hundred = decimal.NewFromInt(100)

// RowCountDetails is the payload of RowCountCompare.
type RowCountDetails struct {
	SourceTable string
	TargetTable string
	SourceCount int64
	TargetCount int64
	// Difference is |source - target|.
	Difference int64
	// DifferencePct is Difference relative to SourceCount, rounded to two places.
	DifferencePct decimal.Decimal
	TolerancePct  *decimal.Decimal
}

func (RowCountDetails) Operation() string { return "row_count_compare" }

// RowCountCompare compares COUNT(*) of source and target, optionally within tolerance_pct of the source count.
type RowCountCompare struct {
	Settings Settings
}

func (c RowCountCompare) Compare(ctx context.Context, q queryexec.Querier, req Request) Outcome {
	const op = "Row count validation"

	if err := requireTables(req, true); err != nil {
		return fault(op, err)
	}

	details := RowCountDetails{SourceTable: req.Source, TargetTable: req.Target}

	if raw := req.Params.Value("tolerance_pct", ""); raw != "" {
		tolerance, err := decimal.NewFromString(raw)
		if err != nil || tolerance.IsNegative() {
			return fault(op, fmt.Errorf("%w: tolerance_pct '%s'", ErrInvalidParameter, raw))
		}

		details.TolerancePct = &tolerance
	}

	var err error

	if details.SourceCount, err = q.RowCount(ctx, req.Source); err != nil {
		return fault(op, err)
	}

	if details.TargetCount, err = q.RowCount(ctx, req.Target); err != nil {
		return fault(op, err)
	}

	details.Difference = details.SourceCount - details.TargetCount
	if details.Difference < 0 {
		details.Difference = -details.Difference
	}

	details.DifferencePct = percentage(details.Difference, details.SourceCount)

	if details.Difference == 0 {
		return pass(details, "Row count validation passed: %d rows in both tables", details.SourceCount)
	}

	if details.TolerancePct != nil && withinTolerance(details.Difference, details.SourceCount, *details.TolerancePct) {
		return pass(details, "Row count within tolerance: source=%d, target=%d (%s%% <= %s%%)",
			details.SourceCount, details.TargetCount, details.DifferencePct, details.TolerancePct)
	}

	return fail(details, "Row count mismatch: source=%d, target=%d, difference=%d",
		details.SourceCount, details.TargetCount, details.Difference)
}

// withinTolerance reports diff*100 <= tolerance*base without rounding.
func withinTolerance(diff, base int64, tolerance decimal.Decimal) bool {
	return decimal.NewFromInt(diff).Mul(hundred).LessThanOrEqual(tolerance.Mul(decimal.NewFromInt(base)))
}

// percentage returns part/total*100 rounded to two places; a zero total yields zero.
func percentage(part, total int64) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}

	return decimal.NewFromInt(part).Mul(hundred).Div(decimal.NewFromInt(total)).Round(2)
}
