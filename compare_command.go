package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"imagesync/config"
	"imagesync/imageprocessor"
	"imagesync/imageprocessor/opencv"
	"imagesync/types"
)

type compareResult struct {
	ImageA     string              `json:"image_a"`
	ImageB     string              `json:"image_b"`
	Families   []types.FamilyScore `json:"families"`
	Mean       float64             `json:"mean"`
	Scored     int                 `json:"scored_families"`
	ExactMatch bool                `json:"exact_match"`
	Threshold  float64             `json:"threshold"`
	Similar    bool                `json:"similar"`
	Errors     []string            `json:"errors,omitempty"`
}

func newCompareCommand(ctx *commandContext) *cobra.Command {
	var threshold float64
	var hashSize int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "compare <imageA> <imageB>",
		Short: "Show how similar two images are",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("threshold") {
				cfg.Processing.SimilarityThreshold = threshold
			}
			if cmd.Flags().Changed("hash-size") {
				cfg.Processing.HashSize = hashSize
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			result, err := compareImages(cfg, args[0], args[1])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, result)
			}
			printComparison(cmd, result)
			return nil
		},
	}

	cmd.Flags().Float64VarP(&threshold, "threshold", "t", 0, "Similarity threshold in (0, 1]")
	cmd.Flags().IntVar(&hashSize, "hash-size", 0, "Perceptual hash grid size (power of two, 8-64)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	return cmd
}

func compareImages(cfg *config.Config, pathA, pathB string) (compareResult, error) {
	registry := imageprocessor.NewImageLoaderRegistry()
	if cfg.Processing.OpenCVFallback {
		opencv.Register(registry)
	}
	fingerprinter, err := imageprocessor.NewFingerprinter(imageprocessor.FingerprintOptions{
		HashSize:    cfg.Processing.HashSize,
		MaxFileSize: cfg.Processing.MaxFileSizeBytes(),
		Registry:    registry,
	})
	if err != nil {
		return compareResult{}, err
	}

	records := make([]*types.ImageRecord, 0, 2)
	for _, path := range []string{pathA, pathB} {
		abs, err := requireFile(path)
		if err != nil {
			return compareResult{}, err
		}
		rec := types.NewImageRecord(abs, types.SourceA, 0)
		fingerprinter.Process(rec)
		records = append(records, rec)
	}
	a, b := records[0], records[1]

	result := compareResult{
		ImageA:     a.Path,
		ImageB:     b.Path,
		Families:   imageprocessor.FamilyScores(a.Perceptual, b.Perceptual),
		ExactMatch: imageprocessor.IsExactMatch(a, b),
		Threshold:  cfg.Processing.SimilarityThreshold,
	}
	result.Mean, result.Scored = imageprocessor.Score(a.Perceptual, b.Perceptual)
	result.Similar = result.ExactMatch || imageprocessor.Similar(a.Perceptual, b.Perceptual, result.Threshold)
	for _, rec := range records {
		if rec.DecodeErr != "" {
			result.Errors = append(result.Errors, rec.DecodeErr)
		}
	}
	return result, nil
}

func requireFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	if !imageprocessor.IsImageFile(abs) {
		return "", fmt.Errorf("unsupported image format: %s", abs)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access %s: %w", abs, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", abs)
	}
	return abs, nil
}

func printComparison(cmd *cobra.Command, result compareResult) {
	out := cmd.OutOrStdout()

	rows := make([][]string, 0, len(result.Families))
	for _, s := range result.Families {
		if !s.Scored {
			rows = append(rows, []string{s.Family, strconv.Itoa(s.Bits), "-", "n/a"})
			continue
		}
		rows = append(rows, []string{
			s.Family,
			strconv.Itoa(s.Bits),
			strconv.Itoa(s.Distance),
			strconv.FormatFloat(s.Similarity, 'f', 4, 64),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Family", "Bits", "Distance", "Similarity"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
	))

	for _, msg := range result.Errors {
		fmt.Fprintf(out, "Warning: %s\n", msg)
	}
	fmt.Fprintf(out, "Mean similarity: %.4f over %d families\n", result.Mean, result.Scored)
	fmt.Fprintf(out, "Exact match: %s\n", yesNo(result.ExactMatch))
	fmt.Fprintf(out, "Similar at %.2f: %s\n", result.Threshold, yesNo(result.Similar))
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
