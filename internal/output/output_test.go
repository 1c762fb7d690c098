package output

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inferbatch/inferbatch/internal/core"
)

func sampleSummary() *core.RunSummary {
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &core.RunSummary{
		ExecutionID: "1748779200",
		StartedAt:   started,
		CompletedAt: started.Add(90 * time.Second),
		Files: []core.FileResult{
			{
				Input:        "s3://bucket/in/a.jsonl",
				Output:       "s3://bucket/out/job_0/1748779200/a.jsonl.out",
				Records:      100,
				Failures:     2,
				SkippedLines: 1,
				Duration:     90 * time.Second,
			},
		},
		SkippedFiles: []string{"s3://bucket/in/notes.txt"},
	}
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseFormat(" JSON ")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	_, err = ParseFormat("xml")
	require.Error(t, err)
}

func TestJSONFormatter(t *testing.T) {
	rendered, err := FormatRunSummary(FormatJSON, sampleSummary())
	require.NoError(t, err)
	require.Contains(t, rendered, `"execution_id": "1748779200"`)
	require.Contains(t, rendered, `"failures": 2`)
}

func TestTableFormatter(t *testing.T) {
	rendered, err := FormatRunSummary(FormatTable, sampleSummary())
	require.NoError(t, err)
	require.Contains(t, rendered, "a.jsonl")
	require.Contains(t, rendered, "100")
	require.Contains(t, rendered, "execution 1748779200")
	require.Contains(t, rendered, "skipped (not .jsonl)")
}
