//go:build unix && !linux

package relocator

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// renameNoReplace refuses to rename over an existing destination
func renameNoReplace(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: unix.EEXIST}
	}
	return os.Rename(src, dst)
}

func isCrossDevice(err error) bool {
	return errors.Is(err, unix.EXDEV)
}
