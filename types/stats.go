package types

import "time"

// RunStatistics is the aggregate outcome of one organize run
type RunStatistics struct {
	RunID          string        `json:"run_id,omitempty"`
	SimilarGroups  int           `json:"similar_groups"`
	UniqueImages   int           `json:"unique_images"`
	TotalProcessed int           `json:"total_processed"`
	Errors         int           `json:"errors"`
	Cancelled      bool          `json:"cancelled,omitempty"`
	Failed         bool          `json:"error,omitempty"`
	Message        string        `json:"message,omitempty"`
	Duration       time.Duration `json:"duration,omitempty"`
}

// Outcome labels used by the journal and the CLI
const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
	OutcomeError     = "error"
)

// Outcome returns the terminal label for the run
func (s RunStatistics) Outcome() string {
	switch {
	case s.Failed:
		return OutcomeError
	case s.Cancelled:
		return OutcomeCancelled
	default:
		return OutcomeCompleted
	}
}

// Add merges counters from another partial result
func (s *RunStatistics) Add(other RunStatistics) {
	s.SimilarGroups += other.SimilarGroups
	s.UniqueImages += other.UniqueImages
	s.TotalProcessed += other.TotalProcessed
	s.Errors += other.Errors
}

// AsMap returns the caller-facing mapping. The cancelled and error forms are
// mutually exclusive with the counter form.
func (s RunStatistics) AsMap() map[string]any {
	switch {
	case s.Failed:
		return map[string]any{"error": 1, "message": s.Message}
	case s.Cancelled:
		return map[string]any{"cancelled": 1}
	}
	return map[string]any{
		"similar_groups":  s.SimilarGroups,
		"unique_images":   s.UniqueImages,
		"total_processed": s.TotalProcessed,
		"errors":          s.Errors,
	}
}
