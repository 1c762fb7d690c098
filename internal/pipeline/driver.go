// Package pipeline orchestrates a batch run: read each input file, dispatch
// its records through the rate-limited engine, and write annotated results to
// a collision-free output path.
package pipeline

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/inferbatch/inferbatch/internal/core"
	"github.com/inferbatch/inferbatch/internal/core/engine"
	"github.com/inferbatch/inferbatch/internal/storage"
)

const inputExtension = ".jsonl"

// Driver runs the batch pipeline for a set of input files. Storage failures
// are fatal for the whole run; everything below the dispatcher captures its
// failures per record.
type Driver struct {
	Store      storage.Store
	Dispatcher *engine.Dispatcher
	Logger     *zap.Logger

	// Clock feeds the execution identifier; nil means time.Now.
	Clock func() time.Time
}

// OutputPath derives the destination for one input file. The job index and
// time-derived execution id keep repeated runs from overwriting each other.
func OutputPath(root string, fileIndex int, executionID, input string) string {
	name := path.Base(input)
	return fmt.Sprintf("%s/job_%d/%s/%s.out",
		strings.TrimRight(root, "/"), fileIndex, executionID, name)
}

// Run processes every input file in order and returns the run summary. Input
// files without the expected extension are skipped with a warning; a storage
// error aborts the run.
func (d *Driver) Run(ctx context.Context, inputs []string, outputRoot string) (*core.RunSummary, error) {
	executionID := strconv.FormatInt(d.now().Unix(), 10)
	summary := &core.RunSummary{
		ExecutionID: executionID,
		StartedAt:   d.now(),
	}

	d.logInfo("starting batch run",
		zap.String("execution_id", executionID),
		zap.Int("input_files", len(inputs)))

	for i, input := range inputs {
		if !strings.HasSuffix(input, inputExtension) {
			d.logWarn("skipping input without .jsonl extension", zap.String("input", input))
			summary.SkippedFiles = append(summary.SkippedFiles, input)
			continue
		}

		fileStarted := d.now()

		data, err := d.Store.Read(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("read input %s: %w", input, err)
		}

		records, skippedLines, err := storage.DecodeRecords(data, d.Logger)
		if err != nil {
			return nil, fmt.Errorf("decode input %s: %w", input, err)
		}
		d.logInfo("processing input file",
			zap.String("input", input),
			zap.Int("records", len(records)),
			zap.Int("skipped_lines", skippedLines))

		results, err := d.Dispatcher.ProcessBatch(ctx, records)
		if err != nil {
			return nil, fmt.Errorf("process %s: %w", input, err)
		}

		encoded, err := storage.EncodeRecords(results)
		if err != nil {
			return nil, fmt.Errorf("encode results for %s: %w", input, err)
		}

		outputPath := OutputPath(outputRoot, i, executionID, input)
		if err := d.Store.Write(ctx, outputPath, encoded); err != nil {
			return nil, fmt.Errorf("write output %s: %w", outputPath, err)
		}

		failures := 0
		for _, result := range results {
			if result.Failed() {
				failures++
			}
		}

		fileResult := core.FileResult{
			Input:        input,
			Output:       outputPath,
			Records:      len(results),
			Failures:     failures,
			SkippedLines: skippedLines,
			Duration:     d.now().Sub(fileStarted),
		}
		summary.Files = append(summary.Files, fileResult)

		d.logInfo("wrote output file",
			zap.String("output", outputPath),
			zap.Int("records", fileResult.Records),
			zap.Int("failures", fileResult.Failures),
			zap.Duration("duration", fileResult.Duration))
	}

	summary.CompletedAt = d.now()
	return summary, nil
}

func (d *Driver) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now()
}

func (d *Driver) logInfo(msg string, fields ...zap.Field) {
	if d.Logger != nil {
		d.Logger.Info(msg, fields...)
	}
}

func (d *Driver) logWarn(msg string, fields ...zap.Field) {
	if d.Logger != nil {
		d.Logger.Warn(msg, fields...)
	}
}
