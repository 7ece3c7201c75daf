package imageprocessor

import (
	"fmt"
	"os"

	"imagesync/logging"
	"imagesync/types"
)

// FingerprintOptions configures a Fingerprinter
type FingerprintOptions struct {
	HashSize      int
	MaxFileSize   int64 // bytes, 0 = unlimited
	ContextLength int
	Registry      *ImageLoaderRegistry
}

// Fingerprinter computes the exact hash, perceptual hashes and naming
// context for image records
type Fingerprinter struct {
	hashSize      int
	maxFileSize   int64
	contextLength int
	registry      *ImageLoaderRegistry
}

// NewFingerprinter creates a Fingerprinter, filling unset options with defaults
func NewFingerprinter(opts FingerprintOptions) (*Fingerprinter, error) {
	if opts.HashSize == 0 {
		opts.HashSize = DefaultHashSize
	}
	if err := ValidateHashSize(opts.HashSize); err != nil {
		return nil, err
	}
	if opts.ContextLength <= 0 {
		opts.ContextLength = DefaultContextLength
	}
	if opts.Registry == nil {
		opts.Registry = NewImageLoaderRegistry()
	}
	if opts.MaxFileSize < 0 {
		opts.MaxFileSize = 0
	}

	return &Fingerprinter{
		hashSize:      opts.HashSize,
		maxFileSize:   opts.MaxFileSize,
		contextLength: opts.ContextLength,
		registry:      opts.Registry,
	}, nil
}

// HashSize returns the configured grid side length
func (f *Fingerprinter) HashSize() int {
	return f.hashSize
}

// ComputePerceptual decodes the image and computes every perceptual family.
// Any failure, including a panic in a decoder, yields an empty map.
func (f *Fingerprinter) ComputePerceptual(path string) (hashes map[string]types.Fingerprint, err error) {
	defer func() {
		if r := recover(); r != nil {
			hashes = map[string]types.Fingerprint{}
			err = fmt.Errorf("panic while hashing %s: %v", path, r)
		}
	}()

	img, err := f.registry.LoadImage(path)
	if err != nil {
		return map[string]types.Fingerprint{}, err
	}

	hashes, err = ComputeHashes(img, f.hashSize)
	if err != nil {
		return map[string]types.Fingerprint{}, fmt.Errorf("hashing %s: %w", path, err)
	}
	return hashes, nil
}

// ExtractContext derives the naming context using the configured length
func (f *Fingerprinter) ExtractContext(path string) string {
	return extractContext(path, f.contextLength)
}

// Process fills in every computed field of the record. A record that has
// already been processed is left untouched.
func (f *Fingerprinter) Process(rec *types.ImageRecord) {
	if rec == nil || rec.Processed {
		return
	}

	rec.ExactHash = ComputeExact(rec.Path)
	rec.Context = f.ExtractContext(rec.Path)

	if rec.Size == 0 {
		if info, err := os.Stat(rec.Path); err == nil {
			rec.Size = info.Size()
		}
	}

	if f.maxFileSize > 0 && rec.Size > f.maxFileSize {
		rec.Perceptual = map[string]types.Fingerprint{}
		rec.DecodeErr = fmt.Sprintf("file exceeds size limit of %d bytes", f.maxFileSize)
		logging.LogImageProcessed(rec.Path, false, rec.DecodeErr)
	} else {
		hashes, err := f.ComputePerceptual(rec.Path)
		rec.Perceptual = hashes
		if err != nil {
			rec.DecodeErr = err.Error()
			logging.LogImageProcessed(rec.Path, false, rec.DecodeErr)
		} else {
			rec.TakenAt = ReadTakenAt(rec.Path)
			logging.LogImageProcessed(rec.Path, true, "")
		}
	}

	rec.Processed = true
}
