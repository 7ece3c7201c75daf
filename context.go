package main

import (
	"fmt"
	"strings"
	"sync"

	"imagesync/config"
	"imagesync/logging"
)

type globalFlags struct {
	configPath string
	debug      bool
	logFile    string
	logLevel   string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the configuration once, applies the logging flags and
// configures the logger
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(strings.TrimSpace(c.flags.configPath))
		if err != nil {
			c.configErr = err
			return
		}

		if c.flags.debug {
			cfg.Logging.Debug = true
		}
		if c.flags.logFile != "" {
			cfg.Logging.File = c.flags.logFile
		}
		if c.flags.logLevel != "" {
			cfg.Logging.Level = c.flags.logLevel
		}
		if err := logging.Configure(logging.Options{
			Level: cfg.Logging.Level,
			File:  cfg.Logging.File,
			Debug: cfg.Logging.Debug,
		}); err != nil {
			c.configErr = fmt.Errorf("configure logging: %w", err)
			return
		}

		if exists {
			logging.DebugLog("Loaded configuration from %s", path)
		} else {
			logging.DebugLog("No configuration file at %s, using defaults", path)
		}
		c.config = cfg
	})
	return c.config, c.configErr
}
