package main

import (
	"context"
	"fmt"

	snapcheck "github.com/shibukawa/snapcheck"
	"github.com/shibukawa/snapcheck/controller"
	"github.com/shibukawa/snapcheck/definition"
	"github.com/shibukawa/snapcheck/registry"
	"github.com/shibukawa/snapcheck/result"
	"github.com/shibukawa/snapcheck/validator"
	"github.com/shibukawa/snapcheck/workbook"
)

// WorkbookArgs selects the workbook and the sheet to work on.
type WorkbookArgs struct {
	Workbook string `arg:"" optional:"" help:"Workbook path or URL (defaults to workbook.location)"`
	Sheet    string `help:"Work on a single definition sheet instead of the controller sheet" short:"s"`
}

// session bundles what every workbook command needs.
type session struct {
	config    *snapcheck.Config
	registry  *registry.Registry
	validator *validator.Validator
	workbook  *workbook.Excel
}

func (s *session) Close() error {
	if s.workbook == nil {
		return nil
	}

	return s.workbook.Close()
}

// openSession loads the config and the workbook. A non-empty env replaces execution.environment.
func openSession(ctx context.Context, appCtx *Context, args WorkbookArgs, env string) (*session, error) {
	config, err := snapcheck.LoadConfig(appCtx.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if env != "" {
		config.Execution.Environment = env
	}

	reg, err := registry.FromConfig(config)
	if err != nil {
		return nil, err
	}

	v, err := validator.New(validator.OptionsFromConfig(config, reg))
	if err != nil {
		return nil, err
	}

	location := args.Workbook
	if location == "" {
		location = config.Workbook.Location
	}

	if location == "" {
		return nil, ErrNoWorkbook
	}

	wb, err := workbook.Open(ctx, location)
	if err != nil {
		return nil, err
	}

	return &session{config: config, registry: reg, validator: v, workbook: wb}, nil
}

// sheetNames resolves the sheets a command works on: the --sheet flag, the enabled controller
// entries, or every sheet when the workbook has no controller sheet.
func (s *session) sheetNames(args WorkbookArgs) ([]string, error) {
	if args.Sheet != "" {
		return []string{args.Sheet}, nil
	}

	c, err := s.controller(nil, nil)
	if err != nil {
		return nil, err
	}

	if !c.HasControllerSheet() {
		var names []string

		for _, name := range s.workbook.SheetNames() {
			if name != s.config.Workbook.ControllerSheet {
				names = append(names, name)
			}
		}

		return names, nil
	}

	entries, err := c.LoadSheets()
	if err != nil {
		return nil, err
	}

	var names []string

	for _, e := range entries {
		if e.Enable && workbook.HasSheet(s.workbook, e.SheetName) {
			names = append(names, e.SheetName)
		}
	}

	return names, nil
}

func (s *session) controller(exec controller.Executor, listener controller.Listener) (*controller.Controller, error) {
	if exec == nil {
		exec = noExecutor{}
	}

	return controller.New(controller.Options{
		Source:          s.workbook,
		Validator:       s.validator,
		Executor:        exec,
		ControllerSheet: s.config.Workbook.ControllerSheet,
		DefaultTimeout:  s.config.Execution.DefaultTimeout,
		Listener:        listener,
	})
}

// noExecutor backs controllers used only for reading and validating sheets.
type noExecutor struct{}

func (noExecutor) Execute(_ context.Context, def definition.TestDefinition) result.TestResult {
	return result.TestResult{DefinitionID: def.ID, Name: def.Name, Status: result.StatusSkip, Message: "not executed"}
}
