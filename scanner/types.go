package scanner

import "imagesync/types"

// ProgressFunc receives a percentage in [0, 100] and a human-readable message
type ProgressFunc func(percent float64, message string)

// ProcessFunc computes the fingerprints of a single record in place
type ProcessFunc func(rec *types.ImageRecord)

// DefaultConcurrency is the worker count used when none is configured
const DefaultConcurrency = 4

// ProcessImageResult holds the result of processing an image
type ProcessImageResult struct {
	Path    string
	Success bool
	Error   error
}

// ProcessSummary reports how a ProcessAll batch went
type ProcessSummary struct {
	Total     int
	Processed int
	Failed    int
	Cancelled bool
}
