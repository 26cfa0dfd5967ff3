package result

import (
	"bytes"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func results(statuses ...Status) []TestResult {
	out := make([]TestResult, len(statuses))
	for i, s := range statuses {
		out[i] = TestResult{DefinitionID: string(s), Status: s, Duration: time.Second}
	}

	return out
}

func TestSummarize(t *testing.T) {
	s := Summarize(results(StatusPass, StatusPass, StatusFail, StatusSkip, StatusError, StatusTimeoutWarning, StatusUnexpectedPass, StatusPass))

	assert.Equal(t, 8, s.Total)
	assert.Equal(t, 3, s.Count(StatusPass))
	assert.Equal(t, 1, s.Count(StatusUnexpectedPass))
	assert.Equal(t, 2, s.Failures())
	assert.Equal(t, 8*time.Second, s.Duration)
	assert.Equal(t, 37.5, s.SuccessRate())
	assert.False(t, s.Passed())
}

func TestSummary_Empty(t *testing.T) {
	s := Summarize(nil)

	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0.0, s.SuccessRate())
	assert.True(t, s.Passed())
}

func TestSummary_Merge(t *testing.T) {
	var total Summary

	total.Merge(Summarize(results(StatusPass, StatusSkip)))
	total.Merge(Summarize(results(StatusPass, StatusTimeoutWarning)))

	assert.Equal(t, 4, total.Total)
	assert.Equal(t, 2, total.Count(StatusPass))
	assert.Equal(t, 4*time.Second, total.Duration)
	assert.True(t, total.Passed())
}

func TestStatus_Failed(t *testing.T) {
	for _, s := range Statuses {
		assert.Equal(t, s == StatusFail || s == StatusError, s.Failed(), string(s))
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer

	PrintSummary(&buf, "Overall", Summarize(results(StatusPass, StatusFail)))

	out := buf.String()
	assert.Contains(t, out, "=== Overall ===")
	assert.Contains(t, out, "Tests: 2 total, 1 PASS, 1 FAIL")
	assert.Contains(t, out, "Success rate: 50.0%")
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer

	PrintResult(&buf, TestResult{DefinitionID: "ROW_PG_001", Name: "orders", Status: StatusFail, Message: "row count mismatch", Duration: 250 * time.Millisecond})

	assert.Contains(t, buf.String(), "FAIL")
	assert.Contains(t, buf.String(), "ROW_PG_001 - orders (0.25s)")
	assert.Contains(t, buf.String(), "row count mismatch")
}
