package main

import (
	"context"
	"fmt"

	"github.com/shibukawa/snapcheck/workbook"
)

// SheetsCmd represents the sheets command
type SheetsCmd struct {
	Workbook string `arg:"" optional:"" help:"Workbook path or URL (defaults to workbook.location)"`
}

// Run executes the sheets command
func (cmd *SheetsCmd) Run(ctx *Context) error {
	args := WorkbookArgs{Workbook: cmd.Workbook}

	s, err := openSession(context.Background(), ctx, args, "")
	if err != nil {
		return err
	}
	defer s.Close()

	c, err := s.controller(nil, nil)
	if err != nil {
		return err
	}

	entries, err := c.LoadSheets()
	if err != nil {
		return err
	}

	out := ctx.out()

	fmt.Fprintln(out, headingFmt("Sheets in %s", s.config.Workbook.ControllerSheet))

	enabled := 0

	for _, e := range entries {
		state := okFmt("%-8s", "ENABLED")
		if !e.Enable {
			state = warnFmt("%-8s", "DISABLED")
		} else {
			enabled++
		}

		if !workbook.HasSheet(s.workbook, e.SheetName) {
			fmt.Fprintf(out, "  %s %-20s %s\n", state, e.SheetName, failFmt("sheet not found in workbook"))
			continue
		}

		fmt.Fprintf(out, "  %s %-20s %d/%d tests enabled", state, e.SheetName, e.EnabledTests, e.TotalTests)

		if e.Priority != "" {
			fmt.Fprintf(out, "  [%s]", e.Priority)
		}

		if e.Description != "" {
			fmt.Fprintf(out, "  %s", e.Description)
		}

		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "%d of %d sheets enabled\n", enabled, len(entries))

	return nil
}
