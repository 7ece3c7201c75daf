// Package organizer runs the full organize flow: collect both sources,
// fingerprint every image, group matches and relocate the files.
package organizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"imagesync/database"
	"imagesync/grouping"
	"imagesync/imageprocessor"
	"imagesync/logging"
	"imagesync/relocator"
	"imagesync/scanner"
	"imagesync/types"
	"imagesync/utils"

	"github.com/google/uuid"
)

// MessageNoImages is the message of a run that found nothing to organize
const MessageNoImages = "No images found in either folder"

// Organizer is the entry point used by the CLI. Cancel may be called from any
// goroutine; once cancelled, the organizer stays cancelled.
type Organizer struct {
	opts     Options
	progress func(percent float64, message string)
	status   func(message string)
	recorder relocator.MoveRecorder
	journal  *database.Journal

	cancelled atomic.Bool
	stopCtx   context.Context
	stop      context.CancelFunc
}

// New creates an Organizer. Zero-valued options fall back to DefaultOptions.
func New(opts Options, options ...Option) *Organizer {
	defaults := DefaultOptions()
	if opts.Threshold == 0 {
		opts.Threshold = defaults.Threshold
	}
	if opts.HashSize == 0 {
		opts.HashSize = defaults.HashSize
	}
	if opts.ContextLength == 0 {
		opts.ContextLength = defaults.ContextLength
	}

	stopCtx, stop := context.WithCancel(context.Background())
	o := &Organizer{
		opts:     opts,
		progress: func(float64, string) {},
		status:   func(string) {},
		stopCtx:  stopCtx,
		stop:     stop,
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

// Cancel requests cooperative cancellation of the current and any future run.
// It is safe to call at any time and more than once.
func (o *Organizer) Cancel() {
	if o.cancelled.CompareAndSwap(false, true) {
		logging.LogInfo("Cancellation requested")
	}
	o.stop()
}

// Cancelled reports whether Cancel has been called
func (o *Organizer) Cancelled() bool {
	return o.cancelled.Load()
}

// Organize groups similar images from sourceA and sourceB and moves every
// image into outputRoot. It never panics; every failure is reported in the
// returned statistics.
func (o *Organizer) Organize(ctx context.Context, sourceA, sourceB, outputRoot string) (stats types.RunStatistics) {
	started := time.Now()
	stats.RunID = uuid.NewString()

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	stopAfter := context.AfterFunc(o.stopCtx, cancelRun)
	defer stopAfter()
	if o.cancelled.Load() {
		cancelRun()
	}

	o.startJournal(stats.RunID, started, sourceA, sourceB, outputRoot)

	defer func() {
		if r := recover(); r != nil {
			logging.LogError("Organize panicked: %v", r)
			runID := stats.RunID
			stats = types.RunStatistics{RunID: runID, Failed: true, Message: fmt.Sprintf("unexpected failure: %v", r)}
		}
		stats.Duration = time.Since(started)
		o.finishJournal(stats)
		logging.WithFields(map[string]interface{}{
			"run_id":          stats.RunID,
			"outcome":         stats.Outcome(),
			"similar_groups":  stats.SimilarGroups,
			"unique_images":   stats.UniqueImages,
			"total_processed": stats.TotalProcessed,
			"errors":          stats.Errors,
			"duration":        stats.Duration.String(),
		}).Info("Organize finished")
	}()

	result, err := o.run(runCtx, sourceA, sourceB, outputRoot)
	result.RunID = stats.RunID
	switch {
	case errors.Is(err, errCancelled):
		// Partial counters are kept for the journal
		result.Cancelled = true
	case err != nil:
		result = types.RunStatistics{RunID: stats.RunID, Failed: true, Message: err.Error()}
	}
	return result
}

var errCancelled = errors.New("organize cancelled")

// stopped also consults the flag directly since the AfterFunc that cancels
// ctx runs asynchronously
func (o *Organizer) stopped(ctx context.Context) bool {
	return ctx.Err() != nil || o.cancelled.Load()
}

func (o *Organizer) run(ctx context.Context, sourceA, sourceB, outputRoot string) (types.RunStatistics, error) {
	var stats types.RunStatistics

	if err := utils.ValidateThreshold(o.opts.Threshold); err != nil {
		return stats, err
	}
	fingerprinter, err := imageprocessor.NewFingerprinter(imageprocessor.FingerprintOptions{
		HashSize:      o.opts.HashSize,
		MaxFileSize:   o.opts.MaxFileSize,
		ContextLength: o.opts.ContextLength,
		Registry:      o.opts.Registry,
	})
	if err != nil {
		return stats, err
	}
	if o.stopped(ctx) {
		return stats, errCancelled
	}

	o.status("Starting image organization...")
	if err := os.MkdirAll(outputRoot, 0o755); err != nil {
		return stats, fmt.Errorf("create output folder %s: %w", outputRoot, err)
	}

	o.status("Collecting images from folder 1...")
	imagesA := scanner.Collect(ctx, sourceA, types.SourceA)
	o.status("Collecting images from folder 2...")
	imagesB := scanner.Collect(ctx, sourceB, types.SourceB)
	if o.stopped(ctx) {
		return stats, errCancelled
	}
	if len(imagesA) == 0 && len(imagesB) == 0 {
		return stats, errors.New(MessageNoImages)
	}
	logging.LogInfo("Collected %d images from %s and %d from %s", len(imagesA), sourceA, len(imagesB), sourceB)

	all := make([]*types.ImageRecord, 0, len(imagesA)+len(imagesB))
	all = append(all, imagesA...)
	all = append(all, imagesB...)

	o.status(fmt.Sprintf("Processing %d images...", len(all)))
	summary := scanner.ProcessAll(ctx, all, scanner.ResolveConcurrency(o.opts.Workers), fingerprinter.Process, o.progress)
	if summary.Cancelled || o.stopped(ctx) {
		return stats, errCancelled
	}

	o.status("Finding similar images...")
	groups := grouping.FindGroups(ctx, imagesA, imagesB, o.opts.Threshold, o.progress)
	if o.stopped(ctx) {
		return stats, errCancelled
	}
	ungrouped := grouping.Ungrouped(imagesA, imagesB, groups)

	mover := relocator.New(relocator.Options{
		SimilarPrefix:       o.opts.SimilarPrefix,
		UniqueFolder:        o.opts.UniqueFolder,
		FallbackName:        o.opts.FallbackName,
		MaxFolderNameLength: o.opts.MaxFolderNameLength,
		PreserveTimestamps:  o.opts.PreserveTimestamps,
		VerifyAfterMove:     o.opts.VerifyAfterMove,
		Recorder:            o.recorder,
		Progress:            o.progress,
		Status:              o.status,
	})
	stats = mover.Relocate(ctx, groups, ungrouped, outputRoot)
	if stats.Cancelled || o.stopped(ctx) {
		return stats, errCancelled
	}

	o.progress(100, "Organization complete!")
	o.status("Image organization completed successfully!")
	return stats, nil
}

func (o *Organizer) startJournal(runID string, started time.Time, sourceA, sourceB, outputRoot string) {
	if o.journal == nil {
		return
	}
	err := o.journal.StartRun(database.Run{
		ID:         runID,
		StartedAt:  started,
		SourceA:    sourceA,
		SourceB:    sourceB,
		OutputRoot: outputRoot,
		Threshold:  o.opts.Threshold,
	})
	if err != nil {
		logging.LogWarning("Cannot journal run %s: %v", runID, err)
	}
}

func (o *Organizer) finishJournal(stats types.RunStatistics) {
	if o.journal == nil {
		return
	}
	if err := o.journal.FinishRun(stats); err != nil {
		logging.LogWarning("Cannot finish journal for run %s: %v", stats.RunID, err)
	}
}
