package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultThreshold is the similarity threshold used when none is given
const DefaultThreshold = 0.85

// ErrInvalidThreshold is returned for thresholds outside (0, 1]
var ErrInvalidThreshold = errors.New("threshold must be greater than 0 and at most 1")

// ParseThreshold parses and validates the threshold value from string
func ParseThreshold(thresholdStr string) (float64, error) {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(thresholdStr), 64)
	if err != nil {
		return DefaultThreshold, fmt.Errorf("invalid threshold value %q: %w", thresholdStr, ErrInvalidThreshold)
	}
	if err := ValidateThreshold(parsed); err != nil {
		return DefaultThreshold, fmt.Errorf("invalid threshold value %q: %w", thresholdStr, err)
	}
	return parsed, nil
}

// ValidateThreshold checks the (0, 1] range
func ValidateThreshold(threshold float64) error {
	if threshold <= 0 || threshold > 1 {
		return ErrInvalidThreshold
	}
	return nil
}

// GetDefaultDataDir returns the directory holding the journal and lock files
func GetDefaultDataDir() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "imagesync")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return ".imagesync"
	}
	return filepath.Join(home, ".local", "share", "imagesync")
}

// IsWithin reports whether path equals root or lies underneath it
func IsWithin(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
