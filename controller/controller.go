// Package controller runs the definition sheets enabled by a controller sheet, one sheet and one
// definition at a time, and aggregates their results.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shibukawa/snapcheck/definition"
	"github.com/shibukawa/snapcheck/result"
	"github.com/shibukawa/snapcheck/validator"
	"github.com/shibukawa/snapcheck/workbook"
)

// DefaultControllerSheet is the sheet consulted when Options.ControllerSheet is empty.
const DefaultControllerSheet = "CONTROLLER"

// Sentinel errors
var (
	ErrControllerSheetMissing = errors.New("controller sheet not found")
	ErrControllerHeader       = errors.New("controller sheet header mismatch")
	ErrMissingDependency      = errors.New("controller dependency is missing")
)

// Executor runs one definition; *dispatcher.Dispatcher implements it.
type Executor interface {
	Execute(ctx context.Context, def definition.TestDefinition) result.TestResult
}

// SheetStatus tells what happened to one enabled sheet.
type SheetStatus string

const (
	SheetExecuted SheetStatus = "EXECUTED"
	// SheetMissing marks a controller entry naming a sheet the workbook does not contain.
	SheetMissing SheetStatus = "MISSING"
	// SheetInvalid marks a sheet whose validation reported errors.
	SheetInvalid SheetStatus = "INVALID"
)

// SheetRun is the outcome of one enabled controller entry.
type SheetRun struct {
	Sheet   definition.SheetController
	Status  SheetStatus
	Notice  string
	Report  validator.Report
	Results []result.TestResult
	Summary result.Summary
}

// Run is the outcome of one Execute call.
type Run struct {
	ID       uuid.UUID
	Started  time.Time
	Finished time.Time
	// Sheets holds the enabled entries in controller order.
	Sheets   []SheetRun
	Disabled []definition.SheetController
	Summary  result.Summary
}

// Results maps each processed sheet to its results. Missing sheets have no entry;
// invalid sheets map to an empty list.
func (r *Run) Results() map[string][]result.TestResult {
	out := make(map[string][]result.TestResult, len(r.Sheets))

	for _, s := range r.Sheets {
		if s.Status == SheetMissing {
			continue
		}

		out[s.Sheet.SheetName] = append([]result.TestResult{}, s.Results...)
	}

	return out
}

// Sheet returns the run of the named sheet.
func (r *Run) Sheet(name string) (SheetRun, bool) {
	for _, s := range r.Sheets {
		if s.Sheet.SheetName == name {
			return s, true
		}
	}

	return SheetRun{}, false
}

// Passed reports whether no result is FAIL or ERROR.
func (r *Run) Passed() bool {
	return r.Summary.Passed()
}

// Options configure a Controller.
type Options struct {
	Source          workbook.Source
	Validator       *validator.Validator
	Executor        Executor
	ControllerSheet string
	DefaultTimeout  int
	Logger          *slog.Logger
	Listener        Listener
	Now             func() time.Time
}

// Controller orchestrates sheets of one workbook.
type Controller struct {
	source          workbook.Source
	validator       *validator.Validator
	executor        Executor
	controllerSheet string
	defaultTimeout  int
	logger          *slog.Logger
	listener        Listener
	now             func() time.Time
}

// New creates a Controller.
func New(opts Options) (*Controller, error) {
	if opts.Source == nil || opts.Validator == nil || opts.Executor == nil {
		return nil, fmt.Errorf("%w: source, validator and executor are required", ErrMissingDependency)
	}

	c := &Controller{
		source:          opts.Source,
		validator:       opts.Validator,
		executor:        opts.Executor,
		controllerSheet: opts.ControllerSheet,
		defaultTimeout:  opts.DefaultTimeout,
		logger:          opts.Logger,
		listener:        opts.Listener,
		now:             opts.Now,
	}

	if c.controllerSheet == "" {
		c.controllerSheet = DefaultControllerSheet
	}

	if c.defaultTimeout <= 0 {
		c.defaultTimeout = 60
	}

	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if c.listener == nil {
		c.listener = NopListener{}
	}

	if c.now == nil {
		c.now = time.Now
	}

	return c, nil
}

// HasControllerSheet reports whether the workbook carries the controller sheet.
func (c *Controller) HasControllerSheet() bool {
	return workbook.HasSheet(c.source, c.controllerSheet)
}

// LoadSheets reads the controller sheet. Entries naming an existing sheet get their test counts filled.
func (c *Controller) LoadSheets() ([]definition.SheetController, error) {
	sheet, err := c.source.Sheet(c.controllerSheet)
	if err != nil {
		if errors.Is(err, workbook.ErrSheetNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrControllerSheetMissing, c.controllerSheet)
		}

		return nil, err
	}

	for i, expected := range definition.ControllerHeaders {
		actual := ""
		if i < len(sheet.Header) {
			actual = strings.TrimSpace(sheet.Header[i])
		}

		if actual != expected {
			return nil, fmt.Errorf("%w: column %s: expected '%s', found '%s'",
				ErrControllerHeader, definition.ColumnLetter(i), expected, actual)
		}
	}

	var entries []definition.SheetController

	for i, row := range sheet.Rows {
		sc, ok := definition.DecodeController(row, i+2)
		if !ok {
			continue
		}

		if target, err := c.source.Sheet(sc.SheetName); err == nil {
			sc.TotalTests, sc.EnabledTests = countTests(target.Rows)
		}

		entries = append(entries, sc)
	}

	return entries, nil
}

func countTests(rows [][]any) (total, enabled int) {
	for _, row := range rows {
		if definition.IsBlankRow(row) {
			continue
		}

		total++

		if definition.IsTruthy(definition.Cell(row, definition.ColEnable)) {
			enabled++
		}
	}

	return total, enabled
}

// Execute runs every enabled controller entry in declaration order. Only a missing or malformed
// controller sheet is returned as an error; sheet and row failures are recorded in the Run.
func (c *Controller) Execute(ctx context.Context, filters Filters) (*Run, error) {
	entries, err := c.LoadSheets()
	if err != nil {
		return nil, err
	}

	run := c.newRun()

	for _, sc := range entries {
		if !sc.Enable {
			run.Disabled = append(run.Disabled, sc)
		}
	}

	for _, sc := range entries {
		if !sc.Enable {
			continue
		}

		c.record(run, c.executeSheet(ctx, sc, filters))
	}

	run.Finished = c.now()

	return run, nil
}

// ExecuteSheet runs a single definition sheet without consulting the controller sheet.
func (c *Controller) ExecuteSheet(ctx context.Context, name string, filters Filters) (*Run, error) {
	sheet, err := c.source.Sheet(name)
	if err != nil {
		return nil, err
	}

	sc := definition.SheetController{Enable: true, SheetName: sheet.Name}
	sc.TotalTests, sc.EnabledTests = countTests(sheet.Rows)

	run := c.newRun()
	c.record(run, c.executeSheet(ctx, sc, filters))
	run.Finished = c.now()

	return run, nil
}

// ValidateSheet validates one sheet without executing it.
func (c *Controller) ValidateSheet(name string) (validator.Report, error) {
	sheet, err := c.source.Sheet(name)
	if err != nil {
		return validator.Report{}, err
	}

	return c.validator.Validate(sheet.Header, sheet.Rows), nil
}

func (c *Controller) newRun() *Run {
	return &Run{
		ID:      uuid.New(),
		Started: c.now(),
		Summary: result.Summarize(nil),
	}
}

func (c *Controller) record(run *Run, sr SheetRun) {
	run.Sheets = append(run.Sheets, sr)
	run.Summary.Merge(sr.Summary)
}

func (c *Controller) executeSheet(ctx context.Context, sc definition.SheetController, filters Filters) SheetRun {
	sr := SheetRun{Sheet: sc, Summary: result.Summarize(nil)}
	logger := c.logger.With("sheet", sc.SheetName)

	sheet, err := c.source.Sheet(sc.SheetName)
	if err != nil {
		sr.Status = SheetMissing
		sr.Notice = fmt.Sprintf("sheet '%s' referenced in controller but not found in workbook", sc.SheetName)
		logger.Warn("skipping sheet", "reason", sr.Notice)
		c.listener.SheetSkipped(sc, sr.Notice)

		return sr
	}

	sr.Report = c.validator.Validate(sheet.Header, sheet.Rows)
	if !sr.Report.Usable() {
		sr.Status = SheetInvalid
		sr.Notice = fmt.Sprintf("sheet '%s' failed validation: %s", sc.SheetName, sr.Report.Summary())
		logger.Warn("skipping sheet", "reason", sr.Notice)
		c.listener.SheetInvalid(sc, sr.Report)

		return sr
	}

	var defs []definition.TestDefinition

	for i, row := range sheet.Rows {
		if definition.IsBlankRow(row) {
			continue
		}

		def, err := definition.Decode(row, i+2, c.defaultTimeout)
		if err != nil {
			logger.Error("failed to decode definition", "row", i+2, "error", err)
			continue
		}

		if filters.Match(def) {
			defs = append(defs, def)
		}
	}

	sr.Status = SheetExecuted
	c.listener.SheetStarted(sc, len(defs))
	logger.Info("executing sheet", "tests", len(defs))

	for _, def := range defs {
		res := c.executor.Execute(ctx, def)
		sr.Results = append(sr.Results, res)
		sr.Summary.Add(res)
		c.listener.TestFinished(sc.SheetName, res)
	}

	c.listener.SheetFinished(sc.SheetName, sr.Summary)

	return sr
}
