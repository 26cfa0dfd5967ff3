package validator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shibukawa/snapcheck/definition"
	"github.com/shibukawa/snapcheck/registry"
)

// validateBusinessRules runs the cross-field checks. Rows whose category is unknown were
// already reported by the row pass and are skipped here.
func (v *Validator) validateBusinessRules(report *Report, rows [][]any) {
	for i, row := range rows {
		if definition.IsBlankRow(row) {
			continue
		}

		rowNum := i + 2
		category := registry.ParseCategory(definition.Cell(row, definition.ColCategory))
		tags := definition.ParseTags(definition.Cell(row, definition.ColTags))
		params := definition.ParseParameters(definition.Cell(row, definition.ColParameters))

		warn := func(col int, msg, value, suggested string) {
			report.add(Diagnostic{
				Severity:  SeverityWarning,
				Row:       rowNum,
				Column:    definition.ColumnLetter(col),
				Field:     definition.Headers[col],
				Message:   msg,
				Value:     value,
				Suggested: suggested,
			})
		}

		if category == registry.Performance || hasTag(tags, "performance") {
			v.checkPerformanceTimeout(warn, row)
		}

		if category == registry.Unknown {
			continue
		}

		if category.TableParams() > 0 && params.Value("source_table", params.Value(definition.DefaultKey, "")) == "" {
			warn(definition.ColParameters,
				fmt.Sprintf("%s requires a table_name or source_table parameter", category), params.String(), "table_name=<table>")
		}

		switch category {
		case registry.DataQualityValidation:
			if params.Has("fk_column") && !params.Has("reference_table") {
				warn(definition.ColParameters, "fk_column is set without reference_table; the orphan check will not run",
					params.String(), "reference_table=<table>")
			}

			for _, key := range []string{"min_value", "max_value"} {
				if raw, ok := params.Get(key); ok && !isDecimal(raw) {
					warn(definition.ColParameters, key+" is not numeric", raw, "")
				}
			}
		case registry.ColumnCompareValidation:
			if !params.Has("column_name") {
				warn(definition.ColParameters, "COLUMN_COMPARE_VALIDATION requires a column_name parameter",
					params.String(), "column_name=<column>")
			}
		case registry.RowCountValidation:
			if raw, ok := params.Get("tolerance_pct"); ok && !isDecimal(raw) {
				warn(definition.ColParameters, "tolerance_pct is not numeric", raw, "tolerance_pct=5")
			}
		}
	}
}

func (v *Validator) checkPerformanceTimeout(warn func(col int, msg, value, suggested string), row []any) {
	if v.opts.PerformanceMinTimeout <= 0 {
		return
	}

	raw := definition.Cell(row, definition.ColTimeout)

	timeout := v.opts.DefaultTimeout
	if raw != "" {
		t, err := definition.ParseTimeout(raw)
		if err != nil {
			return
		}

		timeout = t
	}

	if timeout < v.opts.PerformanceMinTimeout {
		warn(definition.ColTimeout,
			fmt.Sprintf("Performance tests should have a higher timeout (%ds+ recommended)", v.opts.PerformanceMinTimeout),
			raw, strconv.Itoa(v.opts.DefaultTimeout))
	}
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}

	return false
}

func isDecimal(s string) bool {
	_, err := decimal.NewFromString(s)
	return err == nil
}
