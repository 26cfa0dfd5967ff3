package controller

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/shibukawa/snapcheck/definition"
	"github.com/shibukawa/snapcheck/result"
	"github.com/shibukawa/snapcheck/validator"
)

// Listener observes a run as it progresses.
type Listener interface {
	SheetStarted(sheet definition.SheetController, tests int)
	SheetSkipped(sheet definition.SheetController, reason string)
	SheetInvalid(sheet definition.SheetController, report validator.Report)
	TestFinished(sheet string, res result.TestResult)
	SheetFinished(sheet string, summary result.Summary)
}

// NopListener ignores every event.
type NopListener struct{}

func (NopListener) SheetStarted(definition.SheetController, int)              {}
func (NopListener) SheetSkipped(definition.SheetController, string)           {}
func (NopListener) SheetInvalid(definition.SheetController, validator.Report) {}
func (NopListener) TestFinished(string, result.TestResult)                    {}
func (NopListener) SheetFinished(string, result.Summary)                      {}

var (
	sheetFmt   = color.New(color.FgBlue, color.Bold).SprintfFunc()
	warningFmt = color.New(color.FgYellow).SprintfFunc()
	errorFmt   = color.New(color.FgRed).SprintfFunc()
)

// ConsoleListener prints progress to a writer.
type ConsoleListener struct {
	w io.Writer
	// Verbose also prints validation warnings of usable sheets.
	verbose bool
}

// NewConsoleListener creates a listener writing to w.
func NewConsoleListener(w io.Writer, verbose bool) *ConsoleListener {
	return &ConsoleListener{w: w, verbose: verbose}
}

func (l *ConsoleListener) SheetStarted(sheet definition.SheetController, tests int) {
	fmt.Fprintf(l.w, "\n%s\n", sheetFmt("Sheet %s", sheet.SheetName))

	if sheet.Description != "" {
		fmt.Fprintf(l.w, "  %s\n", sheet.Description)
	}

	fmt.Fprintf(l.w, "  Tests to execute: %d\n", tests)
}

func (l *ConsoleListener) SheetSkipped(sheet definition.SheetController, reason string) {
	fmt.Fprintf(l.w, "\n%s\n", warningFmt("Skipping %s: %s", sheet.SheetName, reason))
}

func (l *ConsoleListener) SheetInvalid(sheet definition.SheetController, report validator.Report) {
	fmt.Fprintf(l.w, "\n%s\n", errorFmt("Sheet %s is not executable (%s)", sheet.SheetName, report.Summary()))

	for _, d := range report.Filter(validator.SeverityError) {
		fmt.Fprintf(l.w, "  %s\n", d)
	}

	if l.verbose {
		for _, d := range report.Filter(validator.SeverityWarning) {
			fmt.Fprintf(l.w, "  %s\n", d)
		}
	}
}

func (l *ConsoleListener) TestFinished(_ string, res result.TestResult) {
	result.PrintResult(l.w, res)
}

func (l *ConsoleListener) SheetFinished(sheet string, summary result.Summary) {
	result.PrintSummary(l.w, "Sheet "+sheet, summary)
}
