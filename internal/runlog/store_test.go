package runlog_test

import (
	"context"
	"path/filepath"
	"testing"

	"voxpull/internal/runlog"
)

func openStore(t *testing.T) *runlog.Store {
	t.Helper()
	store, err := runlog.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, "Release-42", "ta", false)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if run.ID == "" {
		t.Fatal("expected a run id")
	}

	if err := store.FinishRun(ctx, run.ID, 12, 3, 1, "/out/Metadata_05_Mar_2026.csv"); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected one run, got %d", len(runs))
	}
	got := runs[0]
	if got.ID != run.ID || got.ReleaseName != "Release-42" || got.Language != "ta" {
		t.Fatalf("unexpected run: %+v", got)
	}
	if !got.Finished || got.Admitted != 12 || got.Skipped != 3 || got.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", got)
	}
	if got.ExportPath != "/out/Metadata_05_Mar_2026.csv" {
		t.Fatalf("export path = %q", got.ExportPath)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first, err := store.BeginRun(ctx, "Release-1", "ta", false)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	second, err := store.BeginRun(ctx, "Release-2", "ta", true)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected two runs, got %d", len(runs))
	}
	if runs[0].ID != second.ID || runs[1].ID != first.ID {
		t.Fatalf("runs out of order: %v then %v", runs[0].ReleaseName, runs[1].ReleaseName)
	}
	if !runs[0].DryRun {
		t.Fatal("dry-run flag lost")
	}
	if runs[0].Finished {
		t.Fatal("unfinished run reported as finished")
	}
}

func TestRecordAndListEvents(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, "Release-42", "ta", false)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	events := []runlog.Event{
		{RunID: run.ID, UploadID: "u-1", SpeakerID: "00001", Verdict: runlog.VerdictAdmitted,
			AssetPath: "/out/R/00001/00001-001.wav", Representative: true},
		{RunID: run.ID, UploadID: "u-2", Verdict: runlog.VerdictSkipped, Reason: "insufficient_approved_volume"},
		{RunID: run.ID, UploadID: "u-3", SpeakerID: "00001", Verdict: runlog.VerdictFailed, Reason: "download error"},
	}
	for _, event := range events {
		if err := store.RecordEvent(ctx, event); err != nil {
			t.Fatalf("RecordEvent(%s): %v", event.UploadID, err)
		}
	}

	got, err := store.EventsForRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("EventsForRun: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected three events, got %d", len(got))
	}
	if got[0].UploadID != "u-1" || !got[0].Representative || got[0].Verdict != runlog.VerdictAdmitted {
		t.Fatalf("unexpected first event: %+v", got[0])
	}
	if got[1].Reason != "insufficient_approved_volume" || got[1].SpeakerID != "" {
		t.Fatalf("unexpected second event: %+v", got[1])
	}
	if got[2].Verdict != runlog.VerdictFailed {
		t.Fatalf("unexpected third event: %+v", got[2])
	}
}

func TestReopenExistingJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := runlog.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.BeginRun(context.Background(), "Release-42", "ta", false); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := runlog.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	runs, err := reopened.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected one run after reopen, got %d", len(runs))
	}
}
