package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeOrganization()
	c.normalizeLogging()
	return c.normalizeJournal()
}

func (c *Config) normalizeOrganization() {
	c.Organization.SimilarFolderPrefix = strings.TrimSpace(c.Organization.SimilarFolderPrefix)
	c.Organization.UniqueFolderName = strings.TrimSpace(c.Organization.UniqueFolderName)
	c.Organization.FallbackFolderName = strings.TrimSpace(c.Organization.FallbackFolderName)
	if c.Organization.FallbackFolderName == "" {
		c.Organization.FallbackFolderName = Default().Organization.FallbackFolderName
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Level == "warning" {
		c.Logging.Level = "warn"
	}
}

func (c *Config) normalizeJournal() error {
	if strings.TrimSpace(c.Journal.Path) == "" {
		c.Journal.Path = defaultJournalPath
	}
	var err error
	if c.Journal.Path, err = expandPath(c.Journal.Path); err != nil {
		return fmt.Errorf("journal.path: %w", err)
	}
	if c.Logging.File != "" {
		if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath applies the same tilde and absolute-path rules used for config
// values.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
