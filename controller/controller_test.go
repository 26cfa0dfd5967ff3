package controller

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	snapcheck "github.com/shibukawa/snapcheck"
	"github.com/shibukawa/snapcheck/compare"
	"github.com/shibukawa/snapcheck/definition"
	"github.com/shibukawa/snapcheck/dispatcher"
	"github.com/shibukawa/snapcheck/queryexec"
	"github.com/shibukawa/snapcheck/registry"
	"github.com/shibukawa/snapcheck/result"
	"github.com/shibukawa/snapcheck/validator"
	"github.com/shibukawa/snapcheck/workbook"
)

func TestMain(m *testing.M) {
	color.NoColor = true

	os.Exit(m.Run())
}

// recordingExecutor returns FAIL for definitions whose ID is listed in fail, PASS otherwise.
type recordingExecutor struct {
	executed []string
	fail     map[string]bool
}

func (e *recordingExecutor) Execute(_ context.Context, def definition.TestDefinition) result.TestResult {
	e.executed = append(e.executed, def.ID)

	status := result.StatusPass
	if e.fail[def.ID] {
		status = result.StatusFail
	}

	return result.TestResult{DefinitionID: def.ID, Name: def.Name, Status: status, Category: def.Category, Duration: time.Second}
}

func defRow(enable, id, category, priority, tags, params string) []any {
	return []any{enable, id, "test " + id, "DATABASE", "DEV", priority, category, "PASS", "60", "", "", tags, params}
}

func newValidator(t *testing.T) *validator.Validator {
	t.Helper()

	reg, err := registry.New(registry.Options{Settings: compare.DefaultSettings()})
	require.NoError(t, err)

	v, err := validator.New(validator.DefaultOptions(reg))
	require.NoError(t, err)

	return v
}

func newController(t *testing.T, src workbook.Source, exec Executor, listener Listener) *Controller {
	t.Helper()

	c, err := New(Options{Source: src, Validator: newValidator(t), Executor: exec, Listener: listener})
	require.NoError(t, err)

	return c
}

func sampleWorkbook() *workbook.Memory {
	return workbook.NewMemory().
		Add("CONTROLLER", definition.ControllerHeaders,
			[]any{"TRUE", "SMOKE", "Smoke tests", "HIGH"},
			[]any{"TRUE", "ARCHIVE", "Removed sheet", "LOW"},
			[]any{"FALSE", "NIGHTLY", "Nightly only", "LOW"},
			[]any{"", "", "", ""},
			[]any{"yes", "DATA", "Data validation", "MEDIUM"},
		).
		Add("SMOKE", definition.Headers,
			defRow("TRUE", "SMOKE_PG_001", "CONNECTION", "HIGH", "smoke", ""),
			defRow("FALSE", "SMOKE_PG_002", "TABLE_EXISTS", "HIGH", "smoke", "products"),
			defRow("TRUE", "SMOKE_PG_003", "TABLE_ROWS", "LOW", "smoke,slow", "products"),
		).
		Add("NIGHTLY", definition.Headers,
			defRow("TRUE", "NIGHT_PG_001", "CONNECTION", "LOW", "", ""),
		).
		Add("DATA", definition.Headers,
			defRow("TRUE", "DATA_PG_001", "SCHEMA_VALIDATION", "HIGH", "schema", "source_table=products"),
			defRow("TRUE", "DATA_PG_002", "ROW_COUNT_VALIDATION", "MEDIUM", "rowcount", "source_table=products"),
		)
}

func TestExecute_SheetOrderAndMissingSheet(t *testing.T) {
	exec := &recordingExecutor{}
	c := newController(t, sampleWorkbook(), exec, nil)

	run, err := c.Execute(t.Context(), Filters{})
	require.NoError(t, err)

	require.Len(t, run.Sheets, 3)
	assert.Equal(t, "SMOKE", run.Sheets[0].Sheet.SheetName)
	assert.Equal(t, SheetExecuted, run.Sheets[0].Status)
	assert.Equal(t, "ARCHIVE", run.Sheets[1].Sheet.SheetName)
	assert.Equal(t, SheetMissing, run.Sheets[1].Status)
	assert.Contains(t, run.Sheets[1].Notice, "not found")
	assert.Equal(t, "DATA", run.Sheets[2].Sheet.SheetName)

	require.Len(t, run.Disabled, 1)
	assert.Equal(t, "NIGHTLY", run.Disabled[0].SheetName)

	assert.Equal(t, []string{"SMOKE_PG_001", "SMOKE_PG_003", "DATA_PG_001", "DATA_PG_002"}, exec.executed)

	results := run.Results()
	assert.Len(t, results, 2)
	assert.NotContains(t, results, "ARCHIVE")
	assert.Len(t, results["SMOKE"], 2)
	assert.Equal(t, "SMOKE_PG_003", results["SMOKE"][1].DefinitionID)

	assert.Equal(t, 4, run.Summary.Total)
	assert.Equal(t, 4*time.Second, run.Summary.Duration)
	assert.True(t, run.Passed())
	assert.NotEqual(t, uuid.Nil, run.ID)
}

func TestExecute_InvalidSheetIsIsolated(t *testing.T) {
	src := sampleWorkbook()
	src.Add("SMOKE", definition.Headers,
		defRow("TRUE", "SMOKE_PG_001", "CONNECTION", "HIGH", "", ""),
		defRow("TRUE", "SMOKE_PG_001", "CONNECTION", "HIGH", "", ""),
	)

	exec := &recordingExecutor{}
	c := newController(t, src, exec, nil)

	run, err := c.Execute(t.Context(), Filters{})
	require.NoError(t, err)

	smoke, ok := run.Sheet("SMOKE")
	require.True(t, ok)
	assert.Equal(t, SheetInvalid, smoke.Status)
	assert.False(t, smoke.Report.Usable())

	results := run.Results()
	assert.Contains(t, results, "SMOKE")
	assert.Empty(t, results["SMOKE"])
	assert.Len(t, results["DATA"], 2)
	assert.Equal(t, []string{"DATA_PG_001", "DATA_PG_002"}, exec.executed)
}

func TestExecute_Filters(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"priority", Filters{Priority: "high"}, []string{"SMOKE_PG_001", "DATA_PG_001"}},
		{"category", Filters{Category: "row_count_validation"}, []string{"DATA_PG_002"}},
		{"environment", Filters{Environment: "prod"}, nil},
		{"application", Filters{Application: "database"}, []string{"SMOKE_PG_001", "SMOKE_PG_003", "DATA_PG_001", "DATA_PG_002"}},
		{"test ids", Filters{TestIDs: []string{" SMOKE_PG_003", "DATA_PG_001 "}}, []string{"SMOKE_PG_003", "DATA_PG_001"}},
		{"disabled id stays disabled", Filters{TestIDs: []string{"SMOKE_PG_002"}}, nil},
		{"all tags required", Filters{Tags: []string{"SMOKE", "slow"}}, []string{"SMOKE_PG_003"}},
		{"dimensions are ANDed", Filters{Priority: "HIGH", Tags: []string{"schema"}}, []string{"DATA_PG_001"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &recordingExecutor{}
			c := newController(t, sampleWorkbook(), exec, nil)

			_, err := c.Execute(t.Context(), tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.want, exec.executed)
		})
	}
}

func TestExecute_FailuresReachSummary(t *testing.T) {
	exec := &recordingExecutor{fail: map[string]bool{"DATA_PG_002": true}}
	c := newController(t, sampleWorkbook(), exec, nil)

	run, err := c.Execute(t.Context(), Filters{})
	require.NoError(t, err)

	assert.False(t, run.Passed())
	assert.Equal(t, 1, run.Summary.Failures())

	data, _ := run.Sheet("DATA")
	assert.Equal(t, 1, data.Summary.Count(result.StatusFail))
	assert.Equal(t, 50.0, data.Summary.SuccessRate())
}

func TestLoadSheets(t *testing.T) {
	c := newController(t, sampleWorkbook(), &recordingExecutor{}, nil)

	entries, err := c.LoadSheets()
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, 3, entries[0].TotalTests)
	assert.Equal(t, 2, entries[0].EnabledTests)
	assert.Equal(t, 0, entries[1].TotalTests)
	assert.Equal(t, "DATA", entries[3].SheetName)
	assert.True(t, entries[3].Enable)
	assert.Equal(t, 6, entries[3].Row)
}

func TestLoadSheets_Errors(t *testing.T) {
	t.Run("missing controller sheet", func(t *testing.T) {
		src := workbook.NewMemory().Add("SMOKE", definition.Headers)
		c := newController(t, src, &recordingExecutor{}, nil)

		assert.False(t, c.HasControllerSheet())

		_, err := c.Execute(t.Context(), Filters{})
		assert.True(t, errors.Is(err, ErrControllerSheetMissing))
	})

	t.Run("header mismatch", func(t *testing.T) {
		src := workbook.NewMemory().Add("CONTROLLER", []string{"Enable", "Sheet", "Description", "Priority"})
		c := newController(t, src, &recordingExecutor{}, nil)

		_, err := c.LoadSheets()
		assert.True(t, errors.Is(err, ErrControllerHeader))
		assert.Contains(t, err.Error(), "column B")
	})
}

func TestExecuteSheet(t *testing.T) {
	exec := &recordingExecutor{}
	c := newController(t, sampleWorkbook(), exec, nil)

	run, err := c.ExecuteSheet(t.Context(), "nightly", Filters{})
	require.NoError(t, err)

	require.Len(t, run.Sheets, 1)
	assert.Equal(t, "NIGHTLY", run.Sheets[0].Sheet.SheetName)
	assert.Equal(t, []string{"NIGHT_PG_001"}, exec.executed)

	_, err = c.ExecuteSheet(t.Context(), "ABSENT", Filters{})
	assert.True(t, errors.Is(err, workbook.ErrSheetNotFound))
}

func TestValidateSheet(t *testing.T) {
	c := newController(t, sampleWorkbook(), &recordingExecutor{}, nil)

	report, err := c.ValidateSheet("DATA")
	require.NoError(t, err)
	assert.True(t, report.Usable())
	assert.Equal(t, 2, report.Rows)
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Options{Source: workbook.NewMemory()})
	assert.True(t, errors.Is(err, ErrMissingDependency))
}

func TestConsoleListener(t *testing.T) {
	src := sampleWorkbook()
	src.Add("DATA", definition.Headers, defRow("TRUE", "DATA_PG_001", "NO_SUCH_CHECK", "HIGH", "", ""))

	var buf bytes.Buffer

	c := newController(t, src, &recordingExecutor{}, NewConsoleListener(&buf, false))

	_, err := c.Execute(t.Context(), Filters{})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Sheet SMOKE")
	assert.Contains(t, out, "Tests to execute: 2")
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "Skipping ARCHIVE")
	assert.Contains(t, out, "Sheet DATA is not executable")
	assert.Contains(t, out, "NO_SUCH_CHECK")
}

func TestExecute_WithDispatcher(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range []string{
		"CREATE TABLE products (id INTEGER PRIMARY KEY, name TEXT NOT NULL, price NUMERIC)",
		"CREATE TABLE new_products (id INTEGER PRIMARY KEY, name TEXT NOT NULL, price NUMERIC)",
		"INSERT INTO products VALUES (1, 'apple', 1.5), (2, 'pear', 2.0), (3, 'plum', 0.5)",
		"INSERT INTO new_products SELECT * FROM products",
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}

	reg, err := registry.New(registry.Options{Settings: compare.DefaultSettings()})
	require.NoError(t, err)

	v, err := validator.New(validator.DefaultOptions(reg))
	require.NoError(t, err)

	d := dispatcher.New(dispatcher.Options{
		Registry:     reg,
		Connections:  queryexec.NewPool(db, snapcheck.DialectSQLite, ""),
		TargetPrefix: "new_",
	})

	src := workbook.NewMemory().
		Add("CONTROLLER", definition.ControllerHeaders, []any{"TRUE", "DATA"}).
		Add("DATA", definition.Headers,
			defRow("TRUE", "DATA_SQ_001", "SCHEMA_VALIDATION", "HIGH", "", "products"),
			defRow("TRUE", "DATA_SQ_002", "ROW_COUNT_VALIDATION", "HIGH", "", "products"),
			defRow("TRUE", "DATA_SQ_003", "NULL_VALUE_VALIDATION", "HIGH", "", "products"),
			defRow("TRUE", "DATA_SQ_004", "DATA_QUALITY_VALIDATION", "HIGH", "", "products"),
			defRow("TRUE", "DATA_SQ_005", "TABLE_EXISTS", "HIGH", "", "missing_table"),
		)

	c, err := New(Options{Source: src, Validator: v, Executor: d})
	require.NoError(t, err)

	run, err := c.Execute(t.Context(), Filters{})
	require.NoError(t, err)

	results := run.Results()["DATA"]
	require.Len(t, results, 5)

	for _, r := range results[:4] {
		assert.Equal(t, result.StatusPass, r.Status, "%s: %s", r.DefinitionID, r.Message)
	}

	assert.Equal(t, result.StatusFail, results[4].Status)
	assert.False(t, run.Passed())
}
