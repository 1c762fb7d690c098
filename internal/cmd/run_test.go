package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inferbatch/inferbatch/internal/config"
)

func TestOverlayRunFlags(t *testing.T) {
	cfg := &config.Config{
		Inputs:     []string{"config.jsonl"},
		OutputRoot: "config-out",
		RPM:        60,
		MaxWorkers: 10,
	}

	require.NoError(t, runCmd.Flags().Set("input", "a.jsonl"))
	require.NoError(t, runCmd.Flags().Set("input", "s3://bucket/b.jsonl"))
	require.NoError(t, runCmd.Flags().Set("rpm", "15"))
	require.NoError(t, runCmd.Flags().Set("workflow-url", "https://wf.example"))

	require.NoError(t, overlayRunFlags(runCmd, cfg))

	require.Equal(t, []string{"a.jsonl", "s3://bucket/b.jsonl"}, cfg.Inputs)
	require.Equal(t, 15, cfg.RPM)
	require.Equal(t, "https://wf.example", cfg.Workflow.URL)
	// Untouched flags keep config values.
	require.Equal(t, "config-out", cfg.OutputRoot)
	require.Equal(t, 10, cfg.MaxWorkers)
}

func TestReadInvokeRecordFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "record.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"recordId":"r1","modelInput":{"prompt":"hi"}}`), 0o644))

	record, err := readInvokeRecord([]string{path})
	require.NoError(t, err)
	require.Equal(t, "r1", record.ID())
}

func TestReadInvokeRecordRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "record.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := readInvokeRecord([]string{path})
	require.ErrorContains(t, err, "decode record")
}
