package result

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	headerFmt = color.New(color.FgBlue, color.Bold).SprintfFunc()
	statusFmt = map[Status]func(format string, a ...any) string{
		StatusPass:           color.New(color.FgGreen).SprintfFunc(),
		StatusFail:           color.New(color.FgRed, color.Bold).SprintfFunc(),
		StatusSkip:           color.New(color.FgCyan).SprintfFunc(),
		StatusError:          color.New(color.FgRed).SprintfFunc(),
		StatusTimeoutWarning: color.New(color.FgYellow).SprintfFunc(),
		StatusUnexpectedPass: color.New(color.FgMagenta).SprintfFunc(),
	}
)

// FormatStatus renders a status label with its color.
func FormatStatus(s Status) string {
	if f, ok := statusFmt[s]; ok {
		return f("%s", s)
	}

	return string(s)
}

// PrintResult writes one result line, followed by its message when present.
func PrintResult(w io.Writer, r TestResult) {
	fmt.Fprintf(w, "  %-16s %s - %s (%.2fs)\n", FormatStatus(r.Status), r.DefinitionID, r.Name, r.Duration.Seconds())

	if r.Message != "" && r.Status != StatusPass {
		fmt.Fprintf(w, "      %s\n", r.Message)
	}
}

// PrintSummary writes a titled summary block.
func PrintSummary(w io.Writer, title string, s Summary) {
	fmt.Fprintf(w, "\n%s\n", headerFmt("=== %s ===", title))
	fmt.Fprintf(w, "Tests: %d total", s.Total)

	for _, status := range Statuses {
		if n := s.Count(status); n > 0 {
			fmt.Fprintf(w, ", %d %s", n, FormatStatus(status))
		}
	}

	fmt.Fprintf(w, "\nDuration: %.3fs\n", s.Duration.Seconds())
	fmt.Fprintf(w, "Success rate: %.1f%%\n", s.SuccessRate())
}
