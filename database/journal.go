package database

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"imagesync/relocator"
	"imagesync/types"
)

// Move statuses stored in the journal
const (
	MoveStatusMoved  = "moved"
	MoveStatusFailed = "failed"
)

// Run is one organize invocation as stored in the journal
type Run struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at,omitempty"`
	SourceA        string    `json:"source_a"`
	SourceB        string    `json:"source_b"`
	OutputRoot     string    `json:"output_root"`
	Threshold      float64   `json:"threshold"`
	Outcome        string    `json:"outcome"`
	SimilarGroups  int       `json:"similar_groups"`
	UniqueImages   int       `json:"unique_images"`
	TotalProcessed int       `json:"total_processed"`
	Errors         int       `json:"errors"`
	Message        string    `json:"message,omitempty"`
}

// Move is one journaled move attempt
type Move struct {
	ID         int64     `json:"id"`
	RunID      string    `json:"run_id"`
	SourcePath string    `json:"source_path"`
	DestPath   string    `json:"dest_path,omitempty"`
	GroupKey   string    `json:"group_key,omitempty"`
	TakenAt    time.Time `json:"taken_at,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}

// Journal records organize runs and their moves. It records one run at a
// time and implements relocator.MoveRecorder for the active run.
type Journal struct {
	db    *sql.DB
	mu    sync.Mutex
	runID string
}

var _ relocator.MoveRecorder = (*Journal)(nil)

// NewJournal wraps an initialized database
func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// StartRun inserts the run row and makes it the target of RecordMove
func (j *Journal) StartRun(run Run) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(`
		INSERT INTO runs (id, started_at, source_a, source_b, output_root, threshold)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, formatTime(run.StartedAt), run.SourceA, run.SourceB, run.OutputRoot, run.Threshold,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	j.runID = run.ID
	return nil
}

// RecordMove stores one move attempt for the active run
func (j *Journal) RecordMove(rec relocator.MoveRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.runID == "" {
		return errors.New("no active run")
	}

	status := MoveStatusMoved
	var errText sql.NullString
	if rec.Err != nil {
		status = MoveStatusFailed
		errText = sql.NullString{String: rec.Err.Error(), Valid: true}
	}

	_, err := j.db.Exec(`
		INSERT INTO moves (run_id, source_path, dest_path, group_key, taken_at, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		j.runID, rec.Source, nullString(rec.Destination), nullString(rec.GroupKey),
		nullTime(rec.TakenAt), status, errText,
	)
	if err != nil {
		return fmt.Errorf("insert move for %s: %w", rec.Source, err)
	}
	return nil
}

// FinishRun stores the outcome of the active run and detaches it
func (j *Journal) FinishRun(stats types.RunStatistics) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.runID == "" {
		return errors.New("no active run")
	}

	_, err := j.db.Exec(`
		UPDATE runs SET finished_at = ?, outcome = ?, similar_groups = ?, unique_images = ?,
			total_processed = ?, errors = ?, message = ?
		WHERE id = ?`,
		formatTime(time.Now()), stats.Outcome(), stats.SimilarGroups, stats.UniqueImages,
		stats.TotalProcessed, stats.Errors, nullString(stats.Message), j.runID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", j.runID, err)
	}
	j.runID = ""
	return nil
}

// ListRuns returns the most recent runs first
func ListRuns(db *sql.DB, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT id, started_at, finished_at, source_a, source_b, output_root, threshold,
			outcome, similar_groups, unique_images, total_processed, errors, message
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started string
		var finished, outcome, message sql.NullString
		if err := rows.Scan(&run.ID, &started, &finished, &run.SourceA, &run.SourceB, &run.OutputRoot,
			&run.Threshold, &outcome, &run.SimilarGroups, &run.UniqueImages, &run.TotalProcessed,
			&run.Errors, &message); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished.String)
		run.Outcome = outcome.String
		run.Message = message.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListMoves returns the moves of one run in the order they happened
func ListMoves(db *sql.DB, runID string) ([]Move, error) {
	rows, err := db.Query(`
		SELECT id, run_id, source_path, dest_path, group_key, taken_at, status, error
		FROM moves WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query moves for %s: %w", runID, err)
	}
	defer rows.Close()

	var moves []Move
	for rows.Next() {
		var move Move
		var dest, groupKey, takenAt, errText sql.NullString
		if err := rows.Scan(&move.ID, &move.RunID, &move.SourcePath, &dest, &groupKey,
			&takenAt, &move.Status, &errText); err != nil {
			return nil, fmt.Errorf("scan move: %w", err)
		}
		move.DestPath = dest.String
		move.GroupKey = groupKey.String
		move.TakenAt = parseTime(takenAt.String)
		move.Error = errText.String
		moves = append(moves, move)
	}
	return moves, rows.Err()
}

// timeLayout keeps every fraction digit so stored timestamps sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}
