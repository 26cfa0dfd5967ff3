// Package validator checks definition sheets against the header contract and the per-field rules,
// and decides whether a sheet is usable.
package validator

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	snapcheck "github.com/shibukawa/snapcheck"
	"github.com/shibukawa/snapcheck/definition"
	"github.com/shibukawa/snapcheck/registry"
)

// Options configure a Validator.
type Options struct {
	Registry              *registry.Registry
	MaxDescription        int
	MaxPrerequisites      int
	MinTimeout            int
	MaxTimeout            int
	PerformanceMinTimeout int
	DefaultTimeout        int
}

// DefaultOptions returns the stock limits bound to reg.
func DefaultOptions(reg *registry.Registry) Options {
	return Options{
		Registry:              reg,
		MaxDescription:        500,
		MaxPrerequisites:      1000,
		MinTimeout:            5,
		MaxTimeout:            3600,
		PerformanceMinTimeout: 30,
		DefaultTimeout:        60,
	}
}

// OptionsFromConfig reads the limits from the loaded configuration.
func OptionsFromConfig(cfg *snapcheck.Config, reg *registry.Registry) Options {
	return Options{
		Registry:              reg,
		MaxDescription:        cfg.Validation.MaxDescription,
		MaxPrerequisites:      cfg.Validation.MaxPrerequisites,
		MinTimeout:            cfg.Validation.MinTimeout,
		MaxTimeout:            cfg.Validation.MaxTimeout,
		PerformanceMinTimeout: cfg.Validation.PerformanceMinTimeout,
		DefaultTimeout:        cfg.Execution.DefaultTimeout,
	}
}

// Validator is stateless; one instance may check any number of sheets.
type Validator struct {
	opts Options
}

// New creates a Validator. A nil registry is replaced by one without allow-lists.
func New(opts Options) (*Validator, error) {
	if opts.Registry == nil {
		reg, err := registry.New(registry.Options{})
		if err != nil {
			return nil, err
		}

		opts.Registry = reg
	}

	return &Validator{opts: opts}, nil
}

// Validate checks header and rows. rows excludes the header; rows[0] is sheet row 2.
func (v *Validator) Validate(header []string, rows [][]any) Report {
	var report Report

	v.validateHeader(&report, header)

	seen := make(map[string]int)
	flagged := make(map[int]bool)

	for i, row := range rows {
		if definition.IsBlankRow(row) {
			continue
		}

		report.Rows++
		rowNum := i + 2

		if v.validateRow(&report, row, rowNum, seen) {
			flagged[rowNum] = true
		}
	}

	v.validateDuplicates(&report, rows, flagged)
	v.validateBusinessRules(&report, rows)

	return report
}

func (v *Validator) validateHeader(report *Report, header []string) {
	for i, expected := range definition.Headers {
		col := definition.ColumnLetter(i)

		if i >= len(header) || strings.TrimSpace(header[i]) == "" {
			report.add(Diagnostic{
				Severity:  SeverityError,
				Row:       1,
				Column:    col,
				Field:     "header",
				Message:   fmt.Sprintf("Missing required header in column %s: expected '%s'", col, expected),
				Suggested: expected,
			})

			continue
		}

		if actual := strings.TrimSpace(header[i]); actual != expected {
			report.add(Diagnostic{
				Severity:  SeverityError,
				Row:       1,
				Column:    col,
				Field:     "header",
				Message:   fmt.Sprintf("Header mismatch in column %s: expected '%s', found '%s'", col, expected, actual),
				Value:     actual,
				Suggested: expected,
			})
		}
	}
}

// validateRow applies the per-field rules. It reports whether the row was flagged as a duplicate ID.
func (v *Validator) validateRow(report *Report, row []any, rowNum int, seen map[string]int) bool {
	at := func(sev Severity, col int, msg, value, suggested string) {
		report.add(Diagnostic{
			Severity:  sev,
			Row:       rowNum,
			Column:    definition.ColumnLetter(col),
			Field:     definition.Headers[col],
			Message:   msg,
			Value:     value,
			Suggested: suggested,
		})
	}

	reg := v.opts.Registry

	enable := definition.Cell(row, definition.ColEnable)
	if _, ok := definition.ParseBool(enable); !ok {
		at(SeverityError, definition.ColEnable, "Invalid boolean value", enable, "TRUE or FALSE")
	}

	duplicate := false

	id := definition.Cell(row, definition.ColID)
	switch {
	case id == "":
		at(SeverityError, definition.ColID, "Test_Case_ID is required", "", "SMOKE_PG_001")
	default:
		if !reg.MatchesIDPattern(id) {
			at(SeverityWarning, definition.ColID, "Test_Case_ID doesn't follow the recommended pattern", id, reg.IDPattern())
		}

		if first, ok := seen[id]; ok {
			at(SeverityError, definition.ColID, fmt.Sprintf("Duplicate Test_Case_ID (first used in row %d)", first), id, "Use a unique identifier")
			duplicate = true
		} else {
			seen[id] = rowNum
		}
	}

	if definition.Cell(row, definition.ColName) == "" {
		at(SeverityError, definition.ColName, "Test_Case_Name is required", "", "Enter descriptive text")
	}

	v.validateAllowListed(at, row, definition.ColApplication, reg.KnownApplication)
	v.validateAllowListed(at, row, definition.ColEnvironment, reg.KnownEnvironment)

	priorities := "HIGH, MEDIUM, LOW"
	if raw := definition.Cell(row, definition.ColPriority); raw == "" {
		at(SeverityWarning, definition.ColPriority, "Priority not specified, defaulting to MEDIUM", "", priorities)
	} else if _, ok := definition.ParsePriority(raw); !ok {
		at(SeverityError, definition.ColPriority, "Invalid priority value", raw, priorities)
	}

	categories := strings.Join(registry.Names(), ", ")
	if raw := definition.Cell(row, definition.ColCategory); raw == "" {
		at(SeverityError, definition.ColCategory, "Test_Category is required to select the operation", "", categories)
	} else if entry, ok := reg.Lookup(raw); !ok {
		at(SeverityError, definition.ColCategory, "Unknown Test_Category: no operation is registered for it", raw, categories)
	} else {
		at(SeverityInfo, definition.ColCategory, "Will execute operation "+entry.Operation, entry.Category.String(), "")
	}

	expectations := "PASS, FAIL, SKIP"
	if raw := definition.Cell(row, definition.ColExpectedResult); raw == "" {
		at(SeverityWarning, definition.ColExpectedResult, "Expected_Result not specified, defaulting to PASS", "", expectations)
	} else if _, ok := definition.ParseExpectedResult(raw); !ok {
		at(SeverityError, definition.ColExpectedResult, "Invalid expected result", raw, expectations)
	}

	v.validateTimeout(at, row)

	if raw := definition.Cell(row, definition.ColDescription); v.opts.MaxDescription > 0 && len(raw) > v.opts.MaxDescription {
		at(SeverityWarning, definition.ColDescription,
			fmt.Sprintf("Description too long (max %d chars)", v.opts.MaxDescription),
			fmt.Sprintf("%d characters", len(raw)), fmt.Sprintf("Shorten to %d chars", v.opts.MaxDescription))
	}

	if raw := definition.Cell(row, definition.ColPrerequisites); v.opts.MaxPrerequisites > 0 && len(raw) > v.opts.MaxPrerequisites {
		at(SeverityWarning, definition.ColPrerequisites,
			fmt.Sprintf("Prerequisites too long (max %d chars)", v.opts.MaxPrerequisites),
			fmt.Sprintf("%d characters", len(raw)), fmt.Sprintf("Shorten to %d chars", v.opts.MaxPrerequisites))
	}

	for _, tag := range definition.ParseTags(definition.Cell(row, definition.ColTags)) {
		if strings.ContainsFunc(tag, unicode.IsSpace) {
			at(SeverityWarning, definition.ColTags, "Tags should not contain spaces", tag, strings.Join(strings.Fields(tag), "_"))
		}
	}

	return duplicate
}

type emitFunc func(sev Severity, col int, msg, value, suggested string)

func (v *Validator) validateAllowListed(at emitFunc, row []any, col int, known func(string) bool) {
	field := definition.Headers[col]

	raw := definition.Cell(row, col)
	if raw == "" {
		at(SeverityError, col, field+" is required", "", "")
		return
	}

	if !known(raw) {
		at(SeverityWarning, col, field+" is not in the predefined list", raw, "")
	}
}

func (v *Validator) validateTimeout(at emitFunc, row []any) {
	raw := definition.Cell(row, definition.ColTimeout)
	if raw == "" {
		at(SeverityWarning, definition.ColTimeout,
			fmt.Sprintf("Timeout not specified, defaulting to %d seconds", v.opts.DefaultTimeout),
			"", strconv.Itoa(v.opts.DefaultTimeout))

		return
	}

	timeout, err := definition.ParseTimeout(raw)
	if err != nil {
		at(SeverityError, definition.ColTimeout, "Timeout must be a valid integer", raw, strconv.Itoa(v.opts.DefaultTimeout))
		return
	}

	switch {
	case v.opts.MinTimeout > 0 && timeout < v.opts.MinTimeout:
		at(SeverityWarning, definition.ColTimeout,
			fmt.Sprintf("Timeout too low (minimum %ds recommended)", v.opts.MinTimeout),
			raw, strconv.Itoa(v.opts.MinTimeout))
	case v.opts.MaxTimeout > 0 && timeout > v.opts.MaxTimeout:
		at(SeverityWarning, definition.ColTimeout,
			fmt.Sprintf("Timeout very high (maximum %ds recommended)", v.opts.MaxTimeout),
			raw, strconv.Itoa(v.opts.MaxTimeout))
	}
}

// validateDuplicates re-checks the whole ID column. Occurrences already flagged by the row pass
// are not reported twice.
func (v *Validator) validateDuplicates(report *Report, rows [][]any, flagged map[int]bool) {
	seen := make(map[string]bool)

	for i, row := range rows {
		id := definition.Cell(row, definition.ColID)
		if id == "" {
			continue
		}

		rowNum := i + 2

		if seen[id] && !flagged[rowNum] {
			report.add(Diagnostic{
				Severity:  SeverityError,
				Row:       rowNum,
				Column:    definition.ColumnLetter(definition.ColID),
				Field:     definition.Headers[definition.ColID],
				Message:   "Duplicate Test_Case_ID found",
				Value:     id,
				Suggested: "Use a unique identifier",
			})
		}

		seen[id] = true
	}
}
