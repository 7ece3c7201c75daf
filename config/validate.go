package config

import (
	"errors"
	"fmt"
	"strings"

	"imagesync/imageprocessor"
	"imagesync/utils"
)

var validLogLevels = map[string]struct{}{
	"trace": {},
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProcessing(); err != nil {
		return err
	}
	if err := c.validateOrganization(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateProcessing() error {
	if err := imageprocessor.ValidateHashSize(c.Processing.HashSize); err != nil {
		return fmt.Errorf("processing.hash_size: %w", err)
	}
	if err := utils.ValidateThreshold(c.Processing.SimilarityThreshold); err != nil {
		return fmt.Errorf("processing.similarity_threshold: %w", err)
	}
	if c.Processing.MaxWorkers < 0 {
		return errors.New("processing.max_workers must be 0 (auto) or positive")
	}
	if c.Processing.MaxFileSizeMB < 0 {
		return errors.New("processing.max_file_size_mb must be 0 (unlimited) or positive")
	}
	return nil
}

func (c *Config) validateOrganization() error {
	if c.Organization.UniqueFolderName == "" {
		return errors.New("organization.unique_folder_name must be set")
	}
	if strings.ContainsAny(c.Organization.UniqueFolderName, `/\`) {
		return errors.New("organization.unique_folder_name must be a single folder name")
	}
	if strings.ContainsAny(c.Organization.SimilarFolderPrefix, `/\`) {
		return errors.New("organization.similar_folder_prefix must not contain path separators")
	}
	if c.Organization.MaxFolderNameLength < 1 {
		return errors.New("organization.max_folder_name_length must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, ok := validLogLevels[c.Logging.Level]; !ok {
		return fmt.Errorf("logging.level %q is not one of trace, debug, info, warn, error", c.Logging.Level)
	}
	return nil
}
