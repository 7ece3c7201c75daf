package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Processing controls discovery and fingerprinting.
type Processing struct {
	HashSize            int     `toml:"hash_size"`
	MaxWorkers          int     `toml:"max_workers"`
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	MaxFileSizeMB       int     `toml:"max_file_size_mb"`
	OpenCVFallback      bool    `toml:"opencv_fallback"`
}

// MaxFileSizeBytes converts the size limit to bytes. Zero means unlimited.
func (p Processing) MaxFileSizeBytes() int64 {
	return int64(p.MaxFileSizeMB) * 1024 * 1024
}

// Organization controls the output folder layout.
type Organization struct {
	SimilarFolderPrefix string `toml:"similar_folder_prefix"`
	UniqueFolderName    string `toml:"unique_folder_name"`
	MaxFolderNameLength int    `toml:"max_folder_name_length"`
	FallbackFolderName  string `toml:"fallback_folder_name"`
}

// FileOperations controls how files are moved.
type FileOperations struct {
	PreserveTimestamps bool `toml:"preserve_timestamps"`
	VerifyAfterMove    bool `toml:"verify_after_move"`
}

// Logging configures the logrus output.
type Logging struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
	Debug bool   `toml:"debug"`
}

// Journal configures the sqlite move journal.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Config is the full imagesync configuration.
type Config struct {
	Processing     Processing     `toml:"processing"`
	Organization   Organization   `toml:"organization"`
	FileOperations FileOperations `toml:"file_operations"`
	Logging        Logging        `toml:"logging"`
	Journal        Journal        `toml:"journal"`
}

// DefaultConfigPath returns the per-user configuration location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. It returns the
// resolved path and whether a file was actually read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s does not exist", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(defaultProjectFile)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// CreateSample writes the annotated sample configuration to path. An
// existing file is never overwritten.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("config file %s already exists", path)
		}
		return fmt.Errorf("write sample config: %w", err)
	}
	if _, err := file.WriteString(sampleConfig); err != nil {
		file.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return file.Close()
}
