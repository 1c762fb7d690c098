package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/inferbatch/inferbatch/internal/core"
)

type batchJob struct {
	index  int
	record core.Record
}

// Dispatcher fans a batch of records across a bounded worker pool. The pool
// bounds in-flight concurrency; the shared limiter behind the Caller bounds
// the aggregate rate. Output order matches input order regardless of
// completion order, and a single record's captured failure never aborts the
// batch.
type Dispatcher struct {
	Caller  Caller
	Workers int
}

// ProcessBatch processes every record and returns the annotated results in
// input order. It blocks until the full batch has completed; per-record
// failures come back embedded in the annotated records, and the error return
// is reserved for batch-level faults such as a cancelled context.
func (d *Dispatcher) ProcessBatch(ctx context.Context, records []core.Record) ([]core.AnnotatedRecord, error) {
	if d.Caller == nil {
		return nil, errors.New("dispatcher caller is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if len(records) == 0 {
		return []core.AnnotatedRecord{}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]core.AnnotatedRecord, len(records))
	jobs := make(chan batchJob)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	setErr := func(err error) {
		if err == nil {
			return
		}
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	worker := func() {
		defer wg.Done()
		for job := range jobs {
			if ctx.Err() != nil {
				return
			}
			out, err := d.Caller.Call(ctx, job.record)
			if err != nil {
				setErr(err)
				return
			}
			results[job.index] = out
		}
	}

	workers := d.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(records) {
		workers = len(records)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker()
	}

sendLoop:
	for i, rec := range records {
		select {
		case <-ctx.Done():
			break sendLoop
		case jobs <- batchJob{index: i, record: rec}:
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
