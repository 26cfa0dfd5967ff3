package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// Context represents the global context for commands
type Context struct {
	Config  string
	Verbose bool
	Quiet   bool
	// Stdout receives command output; os.Stdout when nil.
	Stdout io.Writer
}

func (c *Context) out() io.Writer {
	if c.Quiet {
		return io.Discard
	}

	if c.Stdout == nil {
		return os.Stdout
	}

	return c.Stdout
}

// logger writes debug logs to stderr in verbose mode and warnings otherwise.
func (c *Context) logger() *slog.Logger {
	if c.Quiet {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	level := slog.LevelWarn
	if c.Verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// CLI represents the command-line interface
var CLI struct {
	Config   string      `help:"Configuration file path" default:"snapcheck.yaml"`
	Verbose  bool        `help:"Enable verbose output" short:"v"`
	Quiet    bool        `help:"Suppress output" short:"q"`
	Run      RunCmd      `cmd:"" help:"Execute the enabled test sheets of a workbook"`
	Validate ValidateCmd `cmd:"" help:"Validate definition sheets without executing them"`
	Sheets   SheetsCmd   `cmd:"" help:"List the sheets configured in the controller sheet"`
	Template TemplateCmd `cmd:"" help:"Write a workbook template with drop-down lists"`
	Version  VersionCmd  `cmd:"" help:"Show version information"`
}

// VersionCmd represents the version command
type VersionCmd struct{}

// Run executes the version command
func (cmd *VersionCmd) Run(ctx *Context) error {
	fmt.Fprintln(ctx.out(), "SnapCheck v0.1.0")
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("snapcheck"),
		kong.Description("Workbook-driven data validation tests for migrations and ETL pipelines"),
	)

	appCtx := &Context{
		Config:  CLI.Config,
		Verbose: CLI.Verbose,
		Quiet:   CLI.Quiet,
	}

	err := ctx.Run(appCtx)
	if err != nil {
		if !errors.Is(err, ErrTestsFailed) || !CLI.Quiet {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}

		os.Exit(1)
	}
}
