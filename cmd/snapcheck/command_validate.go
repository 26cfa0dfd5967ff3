package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"

	"github.com/shibukawa/snapcheck/validator"
)

// ValidateCmd represents the validate command
type ValidateCmd struct {
	WorkbookArgs `embed:""`

	Warnings bool `help:"Also list warnings and informational messages"`
}

var (
	okFmt      = color.New(color.FgGreen).SprintfFunc()
	warnFmt    = color.New(color.FgYellow).SprintfFunc()
	failFmt    = color.New(color.FgRed).SprintfFunc()
	headingFmt = color.New(color.FgBlue, color.Bold).SprintfFunc()
)

// Run executes the validate command
func (cmd *ValidateCmd) Run(ctx *Context) error {
	s, err := openSession(context.Background(), ctx, cmd.WorkbookArgs, "")
	if err != nil {
		return err
	}
	defer s.Close()

	names, err := s.sheetNames(cmd.WorkbookArgs)
	if err != nil {
		return err
	}

	c, err := s.controller(nil, nil)
	if err != nil {
		return err
	}

	out := ctx.out()

	var unusable []string

	for _, name := range names {
		report, err := c.ValidateSheet(name)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s (%d rows): %s\n", headingFmt("Sheet %s", name), report.Rows, report.Summary())

		for _, d := range report.Diagnostics {
			if d.Severity != validator.SeverityError && !cmd.Warnings && !ctx.Verbose {
				continue
			}

			switch d.Severity {
			case validator.SeverityError:
				fmt.Fprintf(out, "  %s\n", failFmt("%s", d))
			case validator.SeverityWarning:
				fmt.Fprintf(out, "  %s\n", warnFmt("%s", d))
			default:
				fmt.Fprintf(out, "  %s\n", d)
			}
		}

		if report.Usable() {
			fmt.Fprintf(out, "  %s\n", okFmt("ready to execute"))
		} else {
			unusable = append(unusable, name)
		}
	}

	if len(unusable) > 0 {
		return fmt.Errorf("%w: %v", ErrSheetNotUsable, unusable)
	}

	return nil
}
