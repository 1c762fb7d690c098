// Package output renders run summaries for the CLI.
package output

import (
	"fmt"
	"strings"

	"github.com/inferbatch/inferbatch/internal/core"
)

// Format represents an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// Formatter renders a run summary.
type Formatter interface {
	FormatRun(summary *core.RunSummary) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	if format == FormatJSON {
		return &JSONFormatter{Indent: true}
	}
	return &TableFormatter{}
}

// FormatRunSummary renders a summary using the requested format.
func FormatRunSummary(format Format, summary *core.RunSummary) (string, error) {
	return NewFormatter(format).FormatRun(summary)
}
