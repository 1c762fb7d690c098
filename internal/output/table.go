package output

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/inferbatch/inferbatch/internal/core"
)

const timeResolution = 10 * time.Millisecond

// TableFormatter renders a run summary as an ASCII table.
type TableFormatter struct{}

// FormatRun renders the summary as a table, one row per processed file.
func (f *TableFormatter) FormatRun(summary *core.RunSummary) (string, error) {
	if summary == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Input", "Records", "Failures", "Skipped Lines", "Output", "Duration"})

	for _, file := range summary.Files {
		t.AppendRow(table.Row{
			file.Input,
			file.Records,
			file.Failures,
			file.SkippedLines,
			file.Output,
			file.Duration.Round(timeResolution),
		})
	}

	for _, skipped := range summary.SkippedFiles {
		t.AppendRow(table.Row{skipped, "-", "-", "-", "skipped (not .jsonl)", "-"})
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("execution %s", summary.ExecutionID),
		summary.TotalRecords(),
		summary.TotalFailures(),
		"",
		"",
		summary.CompletedAt.Sub(summary.StartedAt).Round(timeResolution),
	})

	return t.Render(), nil
}
