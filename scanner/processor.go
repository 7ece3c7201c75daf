package scanner

import (
	"context"
	"fmt"
	"runtime/debug"

	"imagesync/logging"
	"imagesync/signalhandler"
	"imagesync/types"

	"golang.org/x/sync/errgroup"
)

// ResolveConcurrency maps a configured worker count to the pool size.
// Zero means one worker per usable CPU, negative means the default.
func ResolveConcurrency(workers int) int {
	switch {
	case workers == 0:
		return signalhandler.GetOptimalProcs()
	case workers < 0:
		return DefaultConcurrency
	default:
		return workers
	}
}

// ProcessAll runs process over every record with at most concurrency
// records in flight. Panics are recovered and counted. Once ctx is cancelled
// no new records are started, but records already running finish.
func ProcessAll(ctx context.Context, records []*types.ImageRecord, concurrency int, process ProcessFunc, report ProgressFunc) ProcessSummary {
	summary := ProcessSummary{Total: len(records)}
	if len(records) == 0 {
		return summary
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	tracker := NewProgressTracker(len(records), report)

	var group errgroup.Group
	group.SetLimit(concurrency)

	for _, rec := range records {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}
		// Go blocks while the pool is full, so the context is checked
		// again once the record actually gets a slot
		group.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			tracker.Record(processOne(rec, process))
			return nil
		})
	}
	_ = group.Wait()

	if ctx.Err() != nil {
		summary.Cancelled = true
	}
	summary.Processed, summary.Failed = tracker.Counts()
	return summary
}

// processOne runs process for a single record, converting a panic into a
// failed result
func processOne(rec *types.ImageRecord, process ProcessFunc) (result ProcessImageResult) {
	result = ProcessImageResult{Path: rec.Path}

	defer func() {
		if r := recover(); r != nil {
			logging.LogError("Panic while processing %s: %v\nStack trace: %s", rec.Path, r, string(debug.Stack()))
			result.Success = false
			result.Error = fmt.Errorf("panic during processing: %v", r)
		}
	}()

	process(rec)
	result.Success = true
	return result
}
