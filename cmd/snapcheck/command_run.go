package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"

	snapcheck "github.com/shibukawa/snapcheck"
	"github.com/shibukawa/snapcheck/controller"
	"github.com/shibukawa/snapcheck/dispatcher"
	"github.com/shibukawa/snapcheck/queryexec"
	"github.com/shibukawa/snapcheck/result"
)

// RunCmd represents the run command
type RunCmd struct {
	WorkbookArgs `embed:""`

	DB          string   `help:"Database connection URL (overrides the configured environment)"`
	Env         string   `help:"Database environment to use from config" short:"e"`
	Priority    string   `help:"Only run definitions with this priority"`
	Category    string   `help:"Only run definitions of this category"`
	Environment string   `help:"Only run definitions whose Environment_Name matches"`
	Application string   `help:"Only run definitions whose Application_Name matches"`
	TestIDs     []string `help:"Only run these Test_Case_IDs (comma separated)" name:"test-ids"`
	Tags        []string `help:"Only run definitions carrying all of these tags (comma separated)"`
}

func (cmd *RunCmd) filters() controller.Filters {
	return controller.Filters{
		Priority:    cmd.Priority,
		Category:    cmd.Category,
		Environment: cmd.Environment,
		Application: cmd.Application,
		TestIDs:     cmd.TestIDs,
		Tags:        cmd.Tags,
	}
}

// Run executes the run command
func (cmd *RunCmd) Run(ctx *Context) error {
	bg := context.Background()

	s, err := openSession(bg, ctx, cmd.WorkbookArgs, cmd.Env)
	if err != nil {
		return err
	}
	defer s.Close()

	pool, err := cmd.openPool(bg, s.config)
	if err != nil {
		return err
	}
	defer pool.Close()

	d := dispatcher.New(dispatcher.Options{
		Registry:     s.registry,
		Connections:  pool,
		TargetPrefix: s.config.Execution.TargetPrefix,
		Logger:       ctx.logger(),
	})

	out := ctx.out()

	c, err := s.controller(d, controller.NewConsoleListener(out, ctx.Verbose))
	if err != nil {
		return err
	}

	var run *controller.Run

	switch {
	case cmd.Sheet != "":
		run, err = c.ExecuteSheet(bg, cmd.Sheet, cmd.filters())
	case c.HasControllerSheet():
		run, err = c.Execute(bg, cmd.filters())
	default:
		names, nameErr := s.sheetNames(cmd.WorkbookArgs)
		if nameErr != nil {
			return nameErr
		}

		if len(names) == 0 {
			return fmt.Errorf("%w: workbook has no sheets", ErrNoWorkbook)
		}

		if ctx.Verbose {
			color.Yellow("No %s sheet found, executing sheet %s", s.config.Workbook.ControllerSheet, names[0])
		}

		run, err = c.ExecuteSheet(bg, names[0], cmd.filters())
	}

	if err != nil {
		return err
	}

	printRun(ctx, run)

	if !run.Passed() {
		return fmt.Errorf("%w: %d failed, %d errors", ErrTestsFailed,
			run.Summary.Count(result.StatusFail), run.Summary.Count(result.StatusError))
	}

	return nil
}

// openPool connects to --db or to the configured environment.
func (cmd *RunCmd) openPool(ctx context.Context, config *snapcheck.Config) (*queryexec.Pool, error) {
	if cmd.DB != "" {
		return queryexec.Open(ctx, "", cmd.DB, "")
	}

	if len(config.Databases) == 0 {
		return nil, ErrNoDatabase
	}

	db, err := config.Database(cmd.Env)
	if err != nil {
		return nil, err
	}

	dialect, err := config.DatabaseDialect(db)
	if err != nil {
		return nil, err
	}

	return queryexec.Open(ctx, dialect, db.Connection, db.Schema)
}

func printRun(ctx *Context, run *controller.Run) {
	out := ctx.out()

	fmt.Fprintf(out, "\nRun %s\n", run.ID)

	for _, sr := range run.Sheets {
		switch sr.Status {
		case controller.SheetMissing, controller.SheetInvalid:
			fmt.Fprintf(out, "  %-10s %s: %s\n", sr.Status, sr.Sheet.SheetName, sr.Notice)
		default:
			fmt.Fprintf(out, "  %-10s %s: %d tests, %.1f%% passed\n", sr.Status, sr.Sheet.SheetName,
				sr.Summary.Total, sr.Summary.SuccessRate())
		}
	}

	for _, sc := range run.Disabled {
		fmt.Fprintf(out, "  %-10s %s\n", "DISABLED", sc.SheetName)
	}

	result.PrintSummary(out, "Overall", run.Summary)
}
