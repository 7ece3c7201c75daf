package imageprocessor

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"imagesync/logging"
)

const exactHashBufferSize = 64 * 1024

// ComputeExact returns the hex SHA-256 of the file contents, or "" when the
// file cannot be read
func ComputeExact(path string) string {
	f, err := os.Open(path)
	if err != nil {
		logging.DebugLog("Cannot open %s for hashing: %v", path, err)
		return ""
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, exactHashBufferSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		logging.DebugLog("Cannot read %s for hashing: %v", path, err)
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}
