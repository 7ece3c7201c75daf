// Package relocator moves grouped and unique records into the output tree.
package relocator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"imagesync/logging"
	"imagesync/types"
	"imagesync/utils"
)

// ErrDestinationExists is returned when a copy target appeared before it could be created
var ErrDestinationExists = errors.New("destination already exists")

// Defaults for the output layout
const (
	DefaultSimilarPrefix       = "similar_"
	DefaultUniqueFolder        = "unique_images"
	DefaultFallbackName        = "unknown"
	DefaultMaxFolderNameLength = 50

	maxNameAttempts = 10000
	progressStart   = 80.0
	progressShare   = 20.0
)

// MoveRecord describes one attempted move
type MoveRecord struct {
	Source      string
	Destination string
	GroupKey    string // empty for unique images
	TakenAt     time.Time
	Err         error
}

// MoveRecorder receives every attempted move, successful or not
type MoveRecorder interface {
	RecordMove(rec MoveRecord) error
}

// Options configures a Relocator
type Options struct {
	SimilarPrefix       string
	UniqueFolder        string
	FallbackName        string
	MaxFolderNameLength int
	PreserveTimestamps  bool
	VerifyAfterMove     bool

	Recorder MoveRecorder
	Progress func(percent float64, message string)
	Status   func(message string)
}

// Relocator moves files into similar_* and unique folders
type Relocator struct {
	opts Options
}

// New creates a Relocator, filling unset options with defaults
func New(opts Options) *Relocator {
	if opts.SimilarPrefix == "" {
		opts.SimilarPrefix = DefaultSimilarPrefix
	}
	if opts.UniqueFolder == "" {
		opts.UniqueFolder = DefaultUniqueFolder
	}
	if opts.FallbackName == "" {
		opts.FallbackName = DefaultFallbackName
	}
	if opts.MaxFolderNameLength <= 0 {
		opts.MaxFolderNameLength = DefaultMaxFolderNameLength
	}
	return &Relocator{opts: opts}
}

// Relocate moves every group member into its similar_* folder and every
// ungrouped record into the unique folder. Per-file failures are counted in
// Errors and the run continues. Cancellation is checked before each group
// and each file; files already moved stay where they are.
func (r *Relocator) Relocate(ctx context.Context, groups []*types.Group, ungrouped []*types.ImageRecord, outputRoot string) types.RunStatistics {
	var stats types.RunStatistics

	total := len(ungrouped)
	for _, g := range groups {
		total += len(g.Members)
	}
	done := 0
	step := func() {
		done++
		if r.opts.Progress != nil && total > 0 {
			percent := progressStart + float64(done)/float64(total)*progressShare
			r.opts.Progress(percent, fmt.Sprintf("Moving images... %d/%d", done, total))
		}
	}

	usedFolders := map[string]bool{r.opts.UniqueFolder: true}
	for _, g := range groups {
		if ctx.Err() != nil {
			stats.Cancelled = true
			return stats
		}

		r.status(fmt.Sprintf("Creating folder for similar images: %s", g.Key))
		folder := filepath.Join(outputRoot, r.uniqueGroupFolder(g.Key, usedFolders))
		if err := os.MkdirAll(folder, 0o755); err != nil {
			logging.LogError("Cannot create group folder %s: %v", folder, err)
			for _, m := range g.Members {
				r.record(MoveRecord{Source: m.Path, GroupKey: g.Key, TakenAt: m.TakenAt, Err: err})
				stats.Errors++
				step()
			}
			continue
		}

		for _, m := range g.Members {
			if ctx.Err() != nil {
				stats.Cancelled = true
				return stats
			}
			if _, err := r.move(m, folder, g.Key); err != nil {
				stats.Errors++
			} else {
				stats.TotalProcessed++
			}
			step()
		}
		stats.SimilarGroups++
	}

	if len(ungrouped) == 0 {
		return stats
	}
	if ctx.Err() != nil {
		stats.Cancelled = true
		return stats
	}

	r.status("Moving unique images...")
	folder := filepath.Join(outputRoot, r.opts.UniqueFolder)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		logging.LogError("Cannot create unique folder %s: %v", folder, err)
		stats.Errors += len(ungrouped)
		for _, rec := range ungrouped {
			r.record(MoveRecord{Source: rec.Path, TakenAt: rec.TakenAt, Err: err})
		}
		return stats
	}

	for _, rec := range ungrouped {
		if ctx.Err() != nil {
			stats.Cancelled = true
			return stats
		}
		if _, err := r.move(rec, folder, ""); err != nil {
			stats.Errors++
		} else {
			stats.UniqueImages++
			stats.TotalProcessed++
		}
		step()
	}

	return stats
}

// GroupFolderName builds the similar_* folder name for a group key
func (r *Relocator) GroupFolderName(key string) string {
	return r.opts.SimilarPrefix + r.folderStem(key, 0)
}

// folderStem sanitizes key and cuts it so that reserve more runes still fit
// within MaxFolderNameLength
func (r *Relocator) folderStem(key string, reserve int) string {
	limit := r.opts.MaxFolderNameLength - reserve
	if limit < 1 {
		limit = 1
	}
	name := strings.TrimSpace(utils.TruncateRunes(utils.SanitizeName(key), limit))
	if name == "" {
		name = strings.TrimSpace(utils.TruncateRunes(r.opts.FallbackName, limit))
	}
	return name
}

// uniqueGroupFolder returns a folder name no earlier group of this run has
// used. Taken names get _2, _3, ... with the stem shortened so the suffix
// stays within MaxFolderNameLength.
func (r *Relocator) uniqueGroupFolder(key string, used map[string]bool) string {
	candidate := r.GroupFolderName(key)
	for n := 2; used[candidate]; n++ {
		suffix := fmt.Sprintf("_%d", n)
		candidate = r.opts.SimilarPrefix + r.folderStem(key, utf8.RuneCountInString(suffix)) + suffix
	}
	used[candidate] = true
	return candidate
}

func (r *Relocator) status(message string) {
	if r.opts.Status != nil {
		r.opts.Status(message)
	}
}

func (r *Relocator) record(rec MoveRecord) {
	if r.opts.Recorder == nil {
		return
	}
	if err := r.opts.Recorder.RecordMove(rec); err != nil {
		logging.LogWarning("Failed to journal move of %s: %v", rec.Source, err)
	}
}

// move relocates one record into dir under a collision-free name
func (r *Relocator) move(rec *types.ImageRecord, dir, groupKey string) (string, error) {
	dst, err := r.MoveFile(rec.Path, dir)
	r.record(MoveRecord{Source: rec.Path, Destination: dst, GroupKey: groupKey, TakenAt: rec.TakenAt, Err: err})
	if err != nil {
		logging.LogError("Error moving %s: %v", rec.Path, err)
		return "", err
	}
	logging.DebugLog("Moved %s -> %s", rec.Path, dst)
	return dst, nil
}

// MoveFile moves src into dir without overwriting anything, returning the
// final destination path
func (r *Relocator) MoveFile(src, dir string) (string, error) {
	base := filepath.Base(src)
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		dst, err := NextFreeName(dir, base)
		if err != nil {
			return "", err
		}

		err = renameNoReplace(src, dst)
		switch {
		case err == nil:
			return dst, nil
		case errors.Is(err, fs.ErrExist):
			// Another writer took the name between the check and the rename
			continue
		case isCrossDevice(err):
			copyErr := r.copyAcross(src, dst)
			if errors.Is(copyErr, ErrDestinationExists) {
				continue
			}
			if copyErr != nil {
				return "", copyErr
			}
			return dst, nil
		default:
			return "", fmt.Errorf("move %s: %w", src, err)
		}
	}
	return "", fmt.Errorf("exhausted destination names for %s in %s", base, dir)
}

// NextFreeName returns dir/name, or dir/stem_N.ext for the smallest N >= 1
// that does not exist yet
func NextFreeName(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(dir, name)
	for n := 1; n <= maxNameAttempts; n++ {
		_, err := os.Lstat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
	}
	return "", fmt.Errorf("exhausted destination names for %s in %s", name, dir)
}
