package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"imagesync/database"
)

const historyTimeLayout = "2006-01-02 15:04:05"

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled organize runs, or the moves of one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			if _, err := os.Stat(cfg.Journal.Path); errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintf(cmd.OutOrStdout(), "No journal at %s yet\n", cfg.Journal.Path)
				return nil
			}
			db, err := database.OpenDatabase(cfg.Journal.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			runID = strings.TrimSpace(runID)
			if runID != "" {
				moves, err := database.ListMoves(db, runID)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, moves)
				}
				printMoves(cmd, runID, moves)
				return nil
			}

			runs, err := database.ListRuns(db, limit)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, runs)
			}
			printRuns(cmd, runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "Show the moves of this run")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	return cmd
}

func printRuns(cmd *cobra.Command, runs []database.Run) {
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			formatHistoryTime(run.StartedAt),
			run.Outcome,
			strconv.Itoa(run.SimilarGroups),
			strconv.Itoa(run.UniqueImages),
			strconv.Itoa(run.TotalProcessed),
			strconv.Itoa(run.Errors),
			run.OutputRoot,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Run", "Started", "Outcome", "Groups", "Unique", "Processed", "Errors", "Output"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignPath},
	))
}

func printMoves(cmd *cobra.Command, runID string, moves []database.Move) {
	out := cmd.OutOrStdout()
	if len(moves) == 0 {
		fmt.Fprintf(out, "No moves recorded for run %s\n", runID)
		return
	}

	rows := make([][]string, 0, len(moves))
	for _, m := range moves {
		rows = append(rows, []string{
			m.Status,
			m.SourcePath,
			m.DestPath,
			m.GroupKey,
			formatHistoryTime(m.TakenAt),
			m.Error,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Status", "Source", "Destination", "Group", "Taken", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignPath, alignPath, alignLeft, alignLeft, alignLeft},
	))
}

func formatHistoryTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(historyTimeLayout)
}
