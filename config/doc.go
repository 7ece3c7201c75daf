// Package config loads, normalizes, and validates imagesync configuration.
//
// Settings come from a TOML file layered over repository defaults. Paths
// such as the journal location accept tilde shortcuts and are expanded to
// absolute form before validation. Command-line flags are applied by the
// caller after Load returns.
package config
