package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"imagesync/imageprocessor"
	"imagesync/logging"
	"imagesync/types"
)

// Collect walks root recursively and returns a record for every supported
// image file. A missing root yields an empty list. Entries that cannot be
// read are logged and skipped. When ctx is cancelled the records gathered so
// far are returned.
func Collect(ctx context.Context, root string, source types.Source) []*types.ImageRecord {
	records := []*types.ImageRecord{}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		logging.LogWarning("Cannot resolve folder %s: %v", root, err)
		return records
	}

	info, err := os.Stat(absRoot)
	if err != nil || !info.IsDir() {
		logging.LogWarning("Folder %s does not exist or is not a directory", absRoot)
		return records
	}

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return filepath.SkipAll
		}
		if err != nil {
			logging.LogWarning("Error accessing path %s: %v", path, err)
			if d != nil && d.IsDir() && path != absRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !imageprocessor.IsImageFile(path) {
			return nil
		}

		size, ok := regularFileSize(path, d)
		if !ok {
			return nil
		}

		records = append(records, types.NewImageRecord(path, source, size))
		return nil
	})
	if walkErr != nil && !errors.Is(walkErr, filepath.SkipAll) {
		logging.LogWarning("Walking %s stopped early: %v", absRoot, walkErr)
	}

	logging.DebugLog("Collected %d images from %s", len(records), absRoot)
	return records
}

// regularFileSize resolves symlinks to files and rejects everything that is
// not a regular file
func regularFileSize(path string, d fs.DirEntry) (int64, bool) {
	if d.Type()&fs.ModeSymlink != 0 {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return 0, false
		}
		return info.Size(), true
	}

	if !d.Type().IsRegular() {
		return 0, false
	}
	info, err := d.Info()
	if err != nil {
		logging.LogWarning("Cannot stat %s: %v", path, err)
		return 0, false
	}
	return info.Size(), true
}
