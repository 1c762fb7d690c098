package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inferbatch/inferbatch/internal/core"
)

func echoCaller(latency time.Duration) Caller {
	return CallerFunc(func(ctx context.Context, rec core.Record) (core.AnnotatedRecord, error) {
		if latency > 0 {
			time.Sleep(time.Duration(rand.Int63n(int64(latency))))
		}
		return core.Annotate(rec[core.FieldModelInput], map[string]any{"ok": true}, rec.ID()), nil
	})
}

func makeRecords(n int) []core.Record {
	records := make([]core.Record, n)
	for i := range records {
		records[i] = core.Record{
			core.FieldRecordID:   fmt.Sprintf("rec-%d", i),
			core.FieldModelInput: map[string]any{"i": i},
		}
	}
	return records
}

func TestProcessBatchPreservesOrder(t *testing.T) {
	records := makeRecords(32)
	d := &Dispatcher{Caller: echoCaller(10 * time.Millisecond), Workers: 8}

	results, err := d.ProcessBatch(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, results, len(records))
	for i, result := range results {
		require.Equal(t, fmt.Sprintf("rec-%d", i), result[core.FieldRecordID])
	}
}

func TestProcessBatchContainsPerRecordFailures(t *testing.T) {
	records := makeRecords(5)
	failing := records[2].ID()

	caller := CallerFunc(func(ctx context.Context, rec core.Record) (core.AnnotatedRecord, error) {
		if rec.ID() == failing {
			return core.AnnotateError(rec[core.FieldModelInput], errors.New("simulated endpoint failure"), rec.ID()), nil
		}
		return core.Annotate(rec[core.FieldModelInput], map[string]any{"ok": true}, rec.ID()), nil
	})

	d := &Dispatcher{Caller: caller, Workers: 3}
	results, err := d.ProcessBatch(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, results, 5)

	for i, result := range results {
		if i == 2 {
			require.True(t, result.Failed())
			continue
		}
		require.False(t, result.Failed())
	}
}

func TestProcessBatchEmpty(t *testing.T) {
	d := &Dispatcher{Caller: echoCaller(0), Workers: 4}
	results, err := d.ProcessBatch(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestProcessBatchRequiresCaller(t *testing.T) {
	d := &Dispatcher{Workers: 1}
	_, err := d.ProcessBatch(context.Background(), makeRecords(1))
	require.Error(t, err)
}

func TestProcessBatchPropagatesBatchLevelError(t *testing.T) {
	boom := errors.New("limiter misconfigured")
	caller := CallerFunc(func(ctx context.Context, rec core.Record) (core.AnnotatedRecord, error) {
		return nil, boom
	})

	d := &Dispatcher{Caller: caller, Workers: 2}
	_, err := d.ProcessBatch(context.Background(), makeRecords(4))
	require.ErrorIs(t, err, boom)
}

// Five records through a ceiling of two per window must wait out at least two
// window rollovers before the batch completes.
func TestProcessBatchThrottledWallClock(t *testing.T) {
	const window = 150 * time.Millisecond

	limiter, err := NewLimiter(2, window)
	require.NoError(t, err)

	d := &Dispatcher{
		Caller:  Guarded(limiter, echoCaller(0)),
		Workers: 3,
	}

	started := time.Now()
	results, err := d.ProcessBatch(context.Background(), makeRecords(5))
	elapsed := time.Since(started)

	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, result := range results {
		require.Equal(t, fmt.Sprintf("rec-%d", i), result[core.FieldRecordID])
		require.False(t, result.Failed())
	}
	require.GreaterOrEqual(t, elapsed, 2*window)
}
