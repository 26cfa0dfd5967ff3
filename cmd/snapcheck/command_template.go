package main

import (
	"fmt"
	"os"

	snapcheck "github.com/shibukawa/snapcheck"
	"github.com/shibukawa/snapcheck/registry"
	"github.com/shibukawa/snapcheck/workbook"
)

// TemplateCmd represents the template command
type TemplateCmd struct {
	Output    string `arg:"" help:"Path of the .xlsx file to create"`
	SheetName string `help:"Name of the definition sheet" default:"SMOKE"`
	NoSamples bool   `help:"Leave the definition sheet empty"`
	Force     bool   `help:"Overwrite an existing file" short:"f"`
}

// Run executes the template command
func (cmd *TemplateCmd) Run(ctx *Context) error {
	config, err := snapcheck.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cmd.Force {
		if _, err := os.Stat(cmd.Output); err == nil {
			return fmt.Errorf("%w: %s", ErrOutputFileExists, cmd.Output)
		}
	}

	f, err := os.Create(cmd.Output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", cmd.Output, err)
	}
	defer f.Close()

	err = workbook.WriteTemplate(f, workbook.TemplateOptions{
		SheetName:       cmd.SheetName,
		ControllerSheet: config.Workbook.ControllerSheet,
		Categories:      registry.ExecutableNames(),
		Applications:    config.Registry.Applications,
		Environments:    config.Registry.Environments,
		Samples:         !cmd.NoSamples,
	})
	if err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}

	fmt.Fprintf(ctx.out(), "Created %s\n", cmd.Output)

	return nil
}
