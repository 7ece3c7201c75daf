package scanner

import (
	"fmt"
	"sync"

	"imagesync/logging"
)

// processingShare is the slice of overall progress owned by fingerprinting
const processingShare = 50.0

// ProgressTracker counts finished records and forwards progress to a callback
type ProgressTracker struct {
	mu        sync.Mutex
	total     int
	processed int
	errors    int
	report    ProgressFunc
}

// NewProgressTracker initializes the progress tracker
func NewProgressTracker(total int, report ProgressFunc) *ProgressTracker {
	return &ProgressTracker{
		total:  total,
		report: report,
	}
}

// Record updates the tracker state with one finished record. Updates are
// serialized so the reported percentage never goes backwards.
func (p *ProgressTracker) Record(result ProcessImageResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed++
	if !result.Success {
		p.errors++
		if result.Error != nil {
			logging.LogError("Processing failed for %s: %v", result.Path, result.Error)
		}
	}

	if p.report != nil && p.total > 0 {
		percent := float64(p.processed) / float64(p.total) * processingShare
		p.report(percent, fmt.Sprintf("Processing images... %d/%d", p.processed, p.total))
	}
}

// Counts returns the number of finished and failed records
func (p *ProgressTracker) Counts() (processed, errors int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed, p.errors
}
