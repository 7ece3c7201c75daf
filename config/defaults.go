package config

import (
	"imagesync/imageprocessor"
	"imagesync/relocator"
	"imagesync/scanner"
	"imagesync/utils"
)

const (
	defaultConfigPath  = "~/.config/imagesync/config.toml"
	defaultProjectFile = "imagesync.toml"
	defaultJournalPath = "~/.local/share/imagesync/journal.db"
	defaultLogLevel    = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Processing: Processing{
			HashSize:            imageprocessor.DefaultHashSize,
			MaxWorkers:          scanner.DefaultConcurrency,
			SimilarityThreshold: utils.DefaultThreshold,
		},
		Organization: Organization{
			SimilarFolderPrefix: relocator.DefaultSimilarPrefix,
			UniqueFolderName:    relocator.DefaultUniqueFolder,
			MaxFolderNameLength: relocator.DefaultMaxFolderNameLength,
			FallbackFolderName:  relocator.DefaultFallbackName,
		},
		FileOperations: FileOperations{
			PreserveTimestamps: true,
			VerifyAfterMove:    true,
		},
		Logging: Logging{
			Level: defaultLogLevel,
		},
		Journal: Journal{
			Enabled: true,
			Path:    defaultJournalPath,
		},
	}
}
