package relocator

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"imagesync/logging"
)

const copyBufferSize = 1 << 20

// copyAcross moves src to dst by copying, used when a rename cannot cross
// filesystems. dst is created exclusively so an existing file is never
// replaced; the source is only removed once the copy is durable.
func (r *Relocator) copyAcross(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
		}
		return fmt.Errorf("create destination: %w", err)
	}

	defer func() {
		if err != nil {
			if rmErr := os.Remove(dst); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				logging.LogWarning("Failed to clean up partial copy %s: %v", dst, rmErr)
			}
		}
	}()

	buf := make([]byte, copyBufferSize)
	if _, err = io.CopyBuffer(out, in, buf); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err = out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("sync %s: %w", dst, err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}

	if r.opts.VerifyAfterMove {
		copied, statErr := os.Stat(dst)
		if statErr != nil {
			err = fmt.Errorf("verify %s: %w", dst, statErr)
			return err
		}
		if copied.Size() != info.Size() {
			err = fmt.Errorf("verify %s: size %d, expected %d", dst, copied.Size(), info.Size())
			return err
		}
	}

	if r.opts.PreserveTimestamps {
		if chErr := os.Chtimes(dst, info.ModTime(), info.ModTime()); chErr != nil {
			logging.LogWarning("Could not preserve timestamps on %s: %v", dst, chErr)
		}
	}

	in.Close()
	if err = os.Remove(src); err != nil {
		err = fmt.Errorf("remove source after copy: %w", err)
		return err
	}
	return nil
}
