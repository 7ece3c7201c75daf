package organizer

import (
	"imagesync/database"
	"imagesync/imageprocessor"
	"imagesync/relocator"
	"imagesync/scanner"
	"imagesync/utils"
)

// Options holds the tunables of an organize run
type Options struct {
	Threshold     float64
	Workers       int // 0 = one per usable CPU
	HashSize      int
	MaxFileSize   int64 // bytes, 0 = unlimited
	ContextLength int
	Registry      *imageprocessor.ImageLoaderRegistry

	SimilarPrefix       string
	UniqueFolder        string
	FallbackName        string
	MaxFolderNameLength int
	PreserveTimestamps  bool
	VerifyAfterMove     bool
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		Threshold:           utils.DefaultThreshold,
		Workers:             scanner.DefaultConcurrency,
		HashSize:            imageprocessor.DefaultHashSize,
		ContextLength:       imageprocessor.DefaultContextLength,
		SimilarPrefix:       relocator.DefaultSimilarPrefix,
		UniqueFolder:        relocator.DefaultUniqueFolder,
		FallbackName:        relocator.DefaultFallbackName,
		MaxFolderNameLength: relocator.DefaultMaxFolderNameLength,
		PreserveTimestamps:  true,
		VerifyAfterMove:     true,
	}
}

// Option customises the Organizer.
type Option func(*Organizer)

// WithProgress installs the percent/message callback.
func WithProgress(fn func(percent float64, message string)) Option {
	return func(o *Organizer) {
		if fn != nil {
			o.progress = fn
		}
	}
}

// WithStatus installs the phase status callback.
func WithStatus(fn func(message string)) Option {
	return func(o *Organizer) {
		if fn != nil {
			o.status = fn
		}
	}
}

// WithRecorder reports every move attempt to r.
func WithRecorder(r relocator.MoveRecorder) Option {
	return func(o *Organizer) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithJournal records the run and its moves in the journal.
func WithJournal(j *database.Journal) Option {
	return func(o *Organizer) {
		if j != nil {
			o.journal = j
			o.recorder = j
		}
	}
}
