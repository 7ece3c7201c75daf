package database

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"imagesync/relocator"
	"imagesync/types"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	db, err := InitDatabase(filepath.Join(t.TempDir(), "nested", "journal.db"))
	if err != nil {
		t.Fatalf("InitDatabase: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewJournal(db)
}

func TestJournalRoundTrip(t *testing.T) {
	j := newTestJournal(t)

	run := Run{ID: "run-1", SourceA: "/a", SourceB: "/b", OutputRoot: "/out", Threshold: 0.85}
	if err := j.StartRun(run); err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	taken := time.Date(2023, 7, 1, 12, 30, 0, 0, time.UTC)
	moves := []relocator.MoveRecord{
		{Source: "/a/x.jpg", Destination: "/out/similar_x/x.jpg", GroupKey: "x", TakenAt: taken},
		{Source: "/b/y.jpg", Err: errors.New("permission denied")},
		{Source: "/b/z.png", Destination: "/out/unique_images/z.png"},
	}
	for _, m := range moves {
		if err := j.RecordMove(m); err != nil {
			t.Fatalf("RecordMove: %v", err)
		}
	}

	stats := types.RunStatistics{SimilarGroups: 1, UniqueImages: 1, TotalProcessed: 2, Errors: 1}
	if err := j.FinishRun(stats); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := ListRuns(j.db, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	got := runs[0]
	if got.Outcome != types.OutcomeCompleted || got.TotalProcessed != 2 || got.Errors != 1 || got.FinishedAt.IsZero() {
		t.Fatalf("unexpected run %+v", got)
	}

	stored, err := ListMoves(j.db, "run-1")
	if err != nil {
		t.Fatalf("ListMoves: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("expected 3 moves, got %d", len(stored))
	}
	if stored[0].Status != MoveStatusMoved || stored[0].GroupKey != "x" || !stored[0].TakenAt.Equal(taken) {
		t.Fatalf("unexpected first move %+v", stored[0])
	}
	if stored[1].Status != MoveStatusFailed || stored[1].Error != "permission denied" || stored[1].DestPath != "" {
		t.Fatalf("unexpected failed move %+v", stored[1])
	}
}

func TestJournalRequiresActiveRun(t *testing.T) {
	j := newTestJournal(t)
	if err := j.RecordMove(relocator.MoveRecord{Source: "/a.jpg"}); err == nil {
		t.Fatal("RecordMove without a run should fail")
	}
	if err := j.FinishRun(types.RunStatistics{}); err == nil {
		t.Fatal("FinishRun without a run should fail")
	}
	if err := j.StartRun(Run{}); err == nil {
		t.Fatal("StartRun without an id should fail")
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	j := newTestJournal(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "middle", "new"} {
		if err := j.StartRun(Run{ID: id, StartedAt: base.Add(time.Duration(i) * time.Hour), SourceA: "a", SourceB: "b", OutputRoot: "o"}); err != nil {
			t.Fatal(err)
		}
		stats := types.RunStatistics{Cancelled: id == "middle"}
		if err := j.FinishRun(stats); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := ListRuns(j.db, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != "new" || runs[1].ID != "middle" {
		t.Fatalf("unexpected order %+v", runs)
	}
	if runs[1].Outcome != types.OutcomeCancelled {
		t.Fatalf("middle run outcome = %q", runs[1].Outcome)
	}
}

func TestListRunsOrdersWithinOneSecond(t *testing.T) {
	j := newTestJournal(t)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	starts := []struct {
		id string
		at time.Time
	}{
		{"later", base.Add(120 * time.Millisecond)},
		{"earlier", base.Add(100 * time.Millisecond)},
		{"whole", base},
	}
	for _, s := range starts {
		if err := j.StartRun(Run{ID: s.id, StartedAt: s.at, SourceA: "a", SourceB: "b", OutputRoot: "o"}); err != nil {
			t.Fatal(err)
		}
		if err := j.FinishRun(types.RunStatistics{}); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := ListRuns(j.db, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 || runs[0].ID != "later" || runs[1].ID != "earlier" || runs[2].ID != "whole" {
		t.Fatalf("unexpected order %+v", runs)
	}
	if !runs[0].StartedAt.Equal(starts[0].at) {
		t.Fatalf("started_at = %v, want %v", runs[0].StartedAt, starts[0].at)
	}
}

func TestFormatTimeFixedWidth(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	want := len(formatTime(base))
	for _, d := range []time.Duration{time.Nanosecond, 100 * time.Millisecond, 123456789} {
		if got := formatTime(base.Add(d)); len(got) != want {
			t.Errorf("formatTime(+%v) = %q, width %d want %d", d, got, len(got), want)
		}
	}
}
