// Package definition models test-definition rows and the controller sheet that enables them.
package definition

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidTimeout is returned when a Timeout_Seconds cell is not an integer.
var ErrInvalidTimeout = errors.New("timeout is not an integer")

// Column positions of a definition sheet.
const (
	ColEnable = iota
	ColID
	ColName
	ColApplication
	ColEnvironment
	ColPriority
	ColCategory
	ColExpectedResult
	ColTimeout
	ColDescription
	ColPrerequisites
	ColTags
	ColParameters
)

// Headers is the fixed header contract of a definition sheet.
var Headers = []string{
	"Enable",
	"Test_Case_ID",
	"Test_Case_Name",
	"Application_Name",
	"Environment_Name",
	"Priority",
	"Test_Category",
	"Expected_Result",
	"Timeout_Seconds",
	"Description",
	"Prerequisites",
	"Tags",
	"Parameters",
}

// Priority of a test or sheet.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// ParsePriority accepts HIGH, MEDIUM and LOW in any case.
func ParsePriority(s string) (Priority, bool) {
	switch p := Priority(strings.ToUpper(strings.TrimSpace(s))); p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, true
	default:
		return "", false
	}
}

// ExpectedResult is the outcome a test author anticipates.
type ExpectedResult string

const (
	ExpectPass ExpectedResult = "PASS"
	ExpectFail ExpectedResult = "FAIL"
	ExpectSkip ExpectedResult = "SKIP"
)

// ParseExpectedResult accepts PASS, FAIL and SKIP in any case.
func ParseExpectedResult(s string) (ExpectedResult, bool) {
	switch e := ExpectedResult(strings.ToUpper(strings.TrimSpace(s))); e {
	case ExpectPass, ExpectFail, ExpectSkip:
		return e, true
	default:
		return "", false
	}
}

// TestDefinition is one declarative row describing a single check.
type TestDefinition struct {
	Enable         bool
	ID             string
	Name           string
	Application    string
	Environment    string
	Priority       Priority
	Category       string
	ExpectedResult ExpectedResult
	TimeoutSeconds int
	Description    string
	Prerequisites  string
	Tags           []string
	Parameters     Params

	// Row is the 1-based sheet row the definition was read from.
	Row int
}

// HasTag reports whether the definition carries tag, ignoring case.
func (d TestDefinition) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}

	return false
}

// ParseTags splits a comma separated Tags cell.
func ParseTags(s string) []string {
	var tags []string

	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}

// ParseTimeout parses a Timeout_Seconds cell. Numeric cells stored as "30.0" are accepted.
func ParseTimeout(s string) (int, error) {
	s = strings.TrimSpace(s)

	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("%w: '%s'", ErrInvalidTimeout, s)
	}

	return int(f), nil
}

// Decode builds a TestDefinition from a row that already passed validation.
// Priority falls back to MEDIUM, the expectation to PASS, and an empty timeout to defaultTimeout.
// Missing trailing cells read as empty.
func Decode(row []any, rowNum int, defaultTimeout int) (TestDefinition, error) {
	def := TestDefinition{
		Enable:        IsTruthy(Cell(row, ColEnable)),
		ID:            Cell(row, ColID),
		Name:          Cell(row, ColName),
		Application:   Cell(row, ColApplication),
		Environment:   Cell(row, ColEnvironment),
		Category:      strings.ToUpper(Cell(row, ColCategory)),
		Description:   Cell(row, ColDescription),
		Prerequisites: Cell(row, ColPrerequisites),
		Tags:          ParseTags(Cell(row, ColTags)),
		Parameters:    ParseParameters(Cell(row, ColParameters)),
		Row:           rowNum,
	}

	var ok bool
	if def.Priority, ok = ParsePriority(Cell(row, ColPriority)); !ok {
		def.Priority = PriorityMedium
	}

	if def.ExpectedResult, ok = ParseExpectedResult(Cell(row, ColExpectedResult)); !ok {
		def.ExpectedResult = ExpectPass
	}

	def.TimeoutSeconds = defaultTimeout
	if raw := Cell(row, ColTimeout); raw != "" {
		timeout, err := ParseTimeout(raw)
		if err != nil {
			return TestDefinition{}, fmt.Errorf("row %d: %w", rowNum, err)
		}

		def.TimeoutSeconds = timeout
	}

	return def, nil
}
