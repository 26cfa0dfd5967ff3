package validator

import (
	"fmt"
	"strings"
)

// Severity grades a diagnostic. Only ERROR blocks a sheet.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// Diagnostic is one finding about a definition sheet.
type Diagnostic struct {
	Severity Severity
	// Row is 1-based; the header is row 1.
	Row int
	// Column is the spreadsheet letter of the offending cell.
	Column    string
	Field     string
	Message   string
	Value     string
	Suggested string
}

func (d Diagnostic) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s row %d, column %s (%s): %s", d.Severity, d.Row, d.Column, d.Field, d.Message)

	if d.Value != "" {
		fmt.Fprintf(&b, " [current: '%s']", d.Value)
	}

	if d.Suggested != "" {
		fmt.Fprintf(&b, " [suggested: %s]", d.Suggested)
	}

	return b.String()
}

// Report collects the diagnostics of one sheet in the order they were found.
type Report struct {
	Diagnostics []Diagnostic
	// Rows is the number of non-blank data rows inspected.
	Rows int
}

// Usable reports whether no diagnostic is an ERROR.
func (r Report) Usable() bool {
	return r.Count(SeverityError) == 0
}

// Count returns the number of diagnostics with severity s.
func (r Report) Count(s Severity) int {
	n := 0

	for _, d := range r.Diagnostics {
		if d.Severity == s {
			n++
		}
	}

	return n
}

// Filter returns the diagnostics with severity s.
func (r Report) Filter(s Severity) []Diagnostic {
	var out []Diagnostic

	for _, d := range r.Diagnostics {
		if d.Severity == s {
			out = append(out, d)
		}
	}

	return out
}

// Summary is a one-line count by severity.
func (r Report) Summary() string {
	return fmt.Sprintf("%d errors, %d warnings, %d info",
		r.Count(SeverityError), r.Count(SeverityWarning), r.Count(SeverityInfo))
}

func (r *Report) add(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}
