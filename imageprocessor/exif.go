package imageprocessor

import (
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// ReadTakenAt extracts the capture date from the file's EXIF metadata.
// Returns the zero time when the file has no usable EXIF date.
func ReadTakenAt(path string) time.Time {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		// Normal for PNG, GIF and most non-camera files
		return time.Time{}
	}

	taken, err := x.DateTime()
	if err != nil {
		return time.Time{}
	}
	return taken
}
