package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"imagesync/config"
	"imagesync/database"
	"imagesync/imageprocessor"
	"imagesync/imageprocessor/opencv"
	"imagesync/logging"
	"imagesync/organizer"
	"imagesync/signalhandler"
	"imagesync/types"
	"imagesync/utils"
)

const lockFileName = "imagesync.lock"

type organizeFlags struct {
	threshold float64
	workers   int
	hashSize  int
	jsonOut   bool
	noJournal bool
	opencv    bool
}

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var flags organizeFlags

	cmd := &cobra.Command{
		Use:   "organize <folderA> <folderB> <output>",
		Short: "Group similar images from two folders into an output folder",
		Long: `Collects every image under both folders, groups exact and near-duplicate
images into similar_<name> folders under the output folder, and moves the
remaining images into unique_images. Files are moved, never overwritten.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyOrganizeFlags(cmd, cfg, flags); err != nil {
				return err
			}
			return runOrganize(cmd, cfg, args[0], args[1], args[2], flags)
		},
	}

	cmd.Flags().Float64VarP(&flags.threshold, "threshold", "t", utils.DefaultThreshold, "Similarity threshold in (0, 1]")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "Fingerprint workers (0 = one per usable CPU)")
	cmd.Flags().IntVar(&flags.hashSize, "hash-size", imageprocessor.DefaultHashSize, "Perceptual hash grid size (power of two, 8-64)")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&flags.noJournal, "no-journal", false, "Do not record the run in the journal")
	cmd.Flags().BoolVar(&flags.opencv, "opencv", false, "Retry undecodable images with OpenCV")
	return cmd
}

// applyOrganizeFlags lets explicitly set flags override the configuration
func applyOrganizeFlags(cmd *cobra.Command, cfg *config.Config, flags organizeFlags) error {
	if cmd.Flags().Changed("threshold") {
		cfg.Processing.SimilarityThreshold = flags.threshold
	}
	if cmd.Flags().Changed("workers") {
		cfg.Processing.MaxWorkers = flags.workers
	}
	if cmd.Flags().Changed("hash-size") {
		cfg.Processing.HashSize = flags.hashSize
	}
	if cmd.Flags().Changed("opencv") {
		cfg.Processing.OpenCVFallback = flags.opencv
	}
	if flags.noJournal {
		cfg.Journal.Enabled = false
	}
	return cfg.Validate()
}

func runOrganize(cmd *cobra.Command, cfg *config.Config, folderA, folderB, output string, flags organizeFlags) error {
	folderA, folderB, output, err := resolveFolders(folderA, folderB, output)
	if err != nil {
		return err
	}

	lock, err := acquireRunLock()
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logging.LogWarning("Failed to release run lock: %v", err)
		}
	}()

	registry := imageprocessor.NewImageLoaderRegistry()
	if cfg.Processing.OpenCVFallback {
		opencv.Register(registry)
	}

	reporter := newProgressReporter(cmd.ErrOrStderr())
	defer reporter.Finish()

	options := []organizer.Option{
		organizer.WithProgress(reporter.Progress),
		organizer.WithStatus(reporter.Status),
	}
	if cfg.Journal.Enabled {
		db, err := database.InitDatabase(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer db.Close()
		options = append(options, organizer.WithJournal(database.NewJournal(db)))
	}

	org := organizer.New(organizerOptions(cfg, registry), options...)
	stop := signalhandler.SetupHandler(org.Cancel)
	defer stop()

	logging.LogInfo("Organizing %s and %s into %s (threshold %.2f)", folderA, folderB, output, cfg.Processing.SimilarityThreshold)
	stats := org.Organize(cmd.Context(), folderA, folderB, output)
	reporter.Finish()

	if flags.jsonOut {
		result := stats.AsMap()
		result["run_id"] = stats.RunID
		if err := writeJSON(cmd, result); err != nil {
			return err
		}
	} else {
		printRunSummary(cmd, stats, output)
	}

	if stats.Failed {
		return errors.New(stats.Message)
	}
	return nil
}

func organizerOptions(cfg *config.Config, registry *imageprocessor.ImageLoaderRegistry) organizer.Options {
	opts := organizer.DefaultOptions()
	opts.Threshold = cfg.Processing.SimilarityThreshold
	opts.Workers = cfg.Processing.MaxWorkers
	opts.HashSize = cfg.Processing.HashSize
	opts.MaxFileSize = cfg.Processing.MaxFileSizeBytes()
	opts.Registry = registry
	opts.SimilarPrefix = cfg.Organization.SimilarFolderPrefix
	opts.UniqueFolder = cfg.Organization.UniqueFolderName
	opts.FallbackName = cfg.Organization.FallbackFolderName
	opts.MaxFolderNameLength = cfg.Organization.MaxFolderNameLength
	opts.PreserveTimestamps = cfg.FileOperations.PreserveTimestamps
	opts.VerifyAfterMove = cfg.FileOperations.VerifyAfterMove
	return opts
}

// resolveFolders makes every path absolute and rejects layouts where moving
// into the output folder would feed back into an input
func resolveFolders(folderA, folderB, output string) (string, string, string, error) {
	var err error
	if folderA, err = requireDirectory("folder A", folderA); err != nil {
		return "", "", "", err
	}
	if folderB, err = requireDirectory("folder B", folderB); err != nil {
		return "", "", "", err
	}
	if output, err = filepath.Abs(output); err != nil {
		return "", "", "", fmt.Errorf("resolve output folder: %w", err)
	}

	if folderA == folderB {
		return "", "", "", fmt.Errorf("folder A and folder B are the same folder: %s", folderA)
	}
	for _, input := range []string{folderA, folderB} {
		if utils.IsWithin(output, input) {
			return "", "", "", fmt.Errorf("output folder %s must not be inside input folder %s", output, input)
		}
		if utils.IsWithin(input, output) {
			return "", "", "", fmt.Errorf("input folder %s must not be inside output folder %s", input, output)
		}
	}
	return folderA, folderB, output, nil
}

func requireDirectory(label, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", label, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s does not exist: %s", label, abs)
		}
		return "", fmt.Errorf("cannot access %s %s: %w", label, abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory: %s", label, abs)
	}
	return abs, nil
}

// acquireRunLock prevents two organize runs from moving files at once
func acquireRunLock() (*flock.Flock, error) {
	dir := utils.GetDefaultDataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	lock := flock.New(filepath.Join(dir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another imagesync run holds %s", lock.Path())
	}
	return lock, nil
}

func printRunSummary(cmd *cobra.Command, stats types.RunStatistics, output string) {
	out := cmd.OutOrStdout()
	switch {
	case stats.Failed:
		return
	case stats.Cancelled:
		fmt.Fprintln(out, "Organization cancelled. Files already moved stay in place.")
		return
	}

	rows := [][2]string{
		{"Similar groups", strconv.Itoa(stats.SimilarGroups)},
		{"Unique images", strconv.Itoa(stats.UniqueImages)},
		{"Total processed", strconv.Itoa(stats.TotalProcessed)},
		{"Errors", strconv.Itoa(stats.Errors)},
		{"Duration", stats.Duration.Round(time.Millisecond).String()},
	}
	fmt.Fprintln(out, renderSummary(rows))
	fmt.Fprintf(out, "Output: %s\n", output)
	fmt.Fprintf(out, "Run ID: %s\n", stats.RunID)
}
