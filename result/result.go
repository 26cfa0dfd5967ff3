// Package result holds the terminal status records produced by the dispatcher and their aggregates.
package result

import (
	"time"

	"github.com/shibukawa/snapcheck/compare"
	"github.com/shibukawa/snapcheck/definition"
)

// Status is the closed set of terminal states of one test.
type Status string

const (
	StatusPass           Status = "PASS"
	StatusFail           Status = "FAIL"
	StatusSkip           Status = "SKIP"
	StatusError          Status = "ERROR"
	StatusTimeoutWarning Status = "TIMEOUT_WARNING"
	StatusUnexpectedPass Status = "UNEXPECTED_PASS"
)

// Statuses lists every status in reporting order.
var Statuses = []Status{
	StatusPass,
	StatusFail,
	StatusSkip,
	StatusError,
	StatusTimeoutWarning,
	StatusUnexpectedPass,
}

// Failed reports whether s should make the surrounding process exit non-zero.
func (s Status) Failed() bool {
	return s == StatusFail || s == StatusError
}

// TestResult is the final record for one executed definition. It is never mutated after creation.
type TestResult struct {
	DefinitionID string
	Name         string
	Status       Status
	Start        time.Time
	End          time.Time
	Duration     time.Duration
	Message      string
	Environment  string
	Application  string
	Priority     definition.Priority
	Category     string
	Operation    string
	// Details is the structured payload of the comparison, nil when nothing ran.
	Details compare.Details
}

// Summary aggregates a list of results.
type Summary struct {
	Total    int
	Counts   map[Status]int
	Duration time.Duration
}

// Summarize counts results by status and adds up their durations.
func Summarize(results []TestResult) Summary {
	s := Summary{Counts: make(map[Status]int, len(Statuses))}

	for _, r := range results {
		s.Add(r)
	}

	return s
}

// Add folds one result into the summary.
func (s *Summary) Add(r TestResult) {
	if s.Counts == nil {
		s.Counts = make(map[Status]int, len(Statuses))
	}

	s.Total++
	s.Counts[r.Status]++
	s.Duration += r.Duration
}

// Merge folds another summary into s.
func (s *Summary) Merge(other Summary) {
	if s.Counts == nil {
		s.Counts = make(map[Status]int, len(Statuses))
	}

	s.Total += other.Total
	s.Duration += other.Duration

	for status, n := range other.Counts {
		s.Counts[status] += n
	}
}

// Count returns the number of results with the given status.
func (s Summary) Count(status Status) int {
	return s.Counts[status]
}

// Failures is the number of FAIL and ERROR results.
func (s Summary) Failures() int {
	return s.Count(StatusFail) + s.Count(StatusError)
}

// SuccessRate is the share of PASS results in percent; 0 for an empty summary.
func (s Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}

	return float64(s.Count(StatusPass)) * 100 / float64(s.Total)
}

// Passed reports whether no result failed.
func (s Summary) Passed() bool {
	return s.Failures() == 0
}
