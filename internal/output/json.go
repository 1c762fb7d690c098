package output

import (
	"encoding/json"

	"github.com/inferbatch/inferbatch/internal/core"
)

// JSONFormatter renders a run summary as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatRun renders the summary as JSON.
func (f *JSONFormatter) FormatRun(summary *core.RunSummary) (string, error) {
	if summary == nil {
		return "", nil
	}

	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(summary, "", "  ")
	} else {
		data, err = json.Marshal(summary)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
