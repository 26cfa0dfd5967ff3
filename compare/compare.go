// Package compare implements the read-only comparison operations run for each test definition.
//
// Every operation returns an Outcome. A difference found in the data is reported as
// Passed=false; a fault (connectivity, missing table, bad query) is carried in Outcome.Fault.
// Nothing in this package panics or returns an error past the Comparator boundary.
package compare

import (
	"context"
	"errors"
	"fmt"
	"strings"

	snapcheck "github.com/shibukawa/snapcheck"
	"github.com/shibukawa/snapcheck/definition"
	"github.com/shibukawa/snapcheck/queryexec"
)

// Sentinel errors carried in Outcome.Fault
var (
	ErrMissingParameter = errors.New("required parameter is missing")
	ErrInvalidParameter = errors.New("invalid parameter value")
	ErrInvalidRule      = errors.New("invalid data-quality rule")
)

// Comparator is the strategy behind one test category.
type Comparator interface {
	Compare(ctx context.Context, q queryexec.Querier, req Request) Outcome
}

// Func adapts a function to Comparator.
type Func func(ctx context.Context, q queryexec.Querier, req Request) Outcome

// Compare calls f.
func (f Func) Compare(ctx context.Context, q queryexec.Querier, req Request) Outcome {
	return f(ctx, q, req)
}

// Request names the tables an operation reads.
type Request struct {
	Source string
	Target string
	Params definition.Params
}

// NewRequest resolves source and target tables from parameters.
// source_table falls back to table_name; target_table falls back to prefix + source.
func NewRequest(params definition.Params, targetPrefix string) Request {
	source := params.Value("source_table", params.Value(definition.DefaultKey, ""))
	target := params.Value("target_table", "")

	if target == "" && source != "" {
		target = PrefixTable(source, targetPrefix)
	}

	return Request{Source: source, Target: target, Params: params}
}

// PrefixTable prepends prefix to the table part of a possibly schema-qualified name.
func PrefixTable(table, prefix string) string {
	if idx := strings.LastIndex(table, "."); idx >= 0 {
		return table[:idx+1] + prefix + table[idx+1:]
	}

	return prefix + table
}

// Details is the operation-specific payload of an Outcome.
type Details interface {
	Operation() string
}

// Outcome is the result of one operation run.
type Outcome struct {
	Passed  bool
	Message string
	Details Details
	// Fault is set when the operation could not run to completion.
	Fault error
	// Skipped marks a category that is accepted but has nothing to run.
	Skipped bool
}

// Faulted reports whether the operation failed to run.
func (o Outcome) Faulted() bool {
	return o.Fault != nil
}

func pass(details Details, format string, args ...any) Outcome {
	return Outcome{Passed: true, Message: fmt.Sprintf(format, args...), Details: details}
}

func fail(details Details, format string, args ...any) Outcome {
	return Outcome{Passed: false, Message: fmt.Sprintf(format, args...), Details: details}
}

func fault(operation string, err error) Outcome {
	return Outcome{
		Passed:  false,
		Message: fmt.Sprintf("%s failed: %v", operation, err),
		Fault:   err,
	}
}

// Severity of a data-quality issue.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// CheckKind names one data-quality check.
type CheckKind string

const (
	CheckDuplicates    CheckKind = "duplicate_records"
	CheckOrphans       CheckKind = "orphaned_records"
	CheckInvalidValues CheckKind = "invalid_values"
	CheckMissingData   CheckKind = "missing_critical_data"
)

// DefaultSeverities assigns HIGH to duplicates and orphans, MEDIUM to invalid values and LOW to missing data.
func DefaultSeverities() map[CheckKind]Severity {
	return map[CheckKind]Severity{
		CheckDuplicates:    SeverityHigh,
		CheckOrphans:       SeverityHigh,
		CheckInvalidValues: SeverityMedium,
		CheckMissingData:   SeverityLow,
	}
}

// BaselineLoader opens a documented schema for SchemaCompare.
type BaselineLoader func(ctx context.Context, location string) (*queryexec.Baseline, error)

// Settings holds the knobs shared by all operations.
type Settings struct {
	// SampleLimit bounds every sample list in Details.
	SampleLimit  int
	Severities   map[CheckKind]Severity
	LoadBaseline BaselineLoader
	// Config and Environment select the database entry inspected by the environment checks.
	Config       *snapcheck.Config
	Environment  string
}

// DefaultSettings returns settings with a sample limit of 10 and the default severities.
func DefaultSettings() Settings {
	return Settings{
		SampleLimit:  10,
		Severities:   DefaultSeverities(),
		LoadBaseline: queryexec.LoadBaseline,
	}
}

func (s Settings) sampleLimit() int {
	if s.SampleLimit <= 0 {
		return 10
	}

	return s.SampleLimit
}

func (s Settings) severity(kind CheckKind) Severity {
	if sev, ok := s.Severities[kind]; ok && sev != "" {
		return sev
	}

	return DefaultSeverities()[kind]
}

// quote quotes a column name.
func quote(q queryexec.Querier, name string) (string, error) {
	return q.Dialect().QuoteIdentifier(name)
}

// quoteTable quotes a table name qualified with the connection's schema.
func quoteTable(q queryexec.Querier, table string) (string, error) {
	return q.QuoteTable(table)
}

func requireTables(req Request, both bool) error {
	if req.Source == "" {
		return fmt.Errorf("%w: source_table (or table_name)", ErrMissingParameter)
	}

	if both && req.Target == "" {
		return fmt.Errorf("%w: target_table", ErrMissingParameter)
	}

	return nil
}
