package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Verdict classifies what happened to one upload during a run.
type Verdict string

const (
	VerdictAdmitted Verdict = "admitted"
	VerdictSkipped  Verdict = "skipped"
	VerdictFailed   Verdict = "failed"
)

// Run is one journal entry for a full ingest pass over a release.
type Run struct {
	ID          string
	ReleaseName string
	Language    string
	DryRun      bool
	StartedAt   time.Time
	FinishedAt  time.Time
	Finished    bool
	Admitted    int
	Skipped     int
	Failed      int
	ExportPath  string
}

// Event records the outcome for one upload within a run.
type Event struct {
	RunID    string
	UploadID string
	// SpeakerID is empty for uploads rejected before identity assignment.
	SpeakerID string
	Verdict   Verdict
	Reason    string
	AssetPath string
	// Representative marks the upload whose consent facts stand in for
	// the whole task group.
	Representative bool
	RecordedAt     time.Time
}

// BeginRun opens a new journal entry and returns it with a fresh id.
func (s *Store) BeginRun(ctx context.Context, releaseName, language string, dryRun bool) (*Run, error) {
	run := &Run{
		ID:          uuid.NewString(),
		ReleaseName: releaseName,
		Language:    language,
		DryRun:      dryRun,
		StartedAt:   time.Now().UTC(),
	}
	err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, release_name, language, dry_run, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.ReleaseName, run.Language, boolToInt(run.DryRun), run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun closes a journal entry with its final counts.
func (s *Store) FinishRun(ctx context.Context, runID string, admitted, skipped, failed int, exportPath string) error {
	err := s.execWithRetry(ctx,
		`UPDATE runs SET finished_at = ?, admitted = ?, skipped = ?, failed = ?, export_path = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), admitted, skipped, failed, nullableString(exportPath), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RecordEvent appends one upload outcome to the journal.
func (s *Store) RecordEvent(ctx context.Context, event Event) error {
	recordedAt := event.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	err := s.execWithRetry(ctx,
		`INSERT INTO upload_events (run_id, upload_id, speaker_id, verdict, reason, asset_path, representative, recorded_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.RunID, event.UploadID, nullableString(event.SpeakerID), string(event.Verdict),
		nullableString(event.Reason), nullableString(event.AssetPath),
		boolToInt(event.Representative), recordedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert upload event: %w", err)
	}
	return nil
}

// ListRuns returns journal entries newest first, at most limit of them.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, release_name, language, dry_run, started_at, finished_at, admitted, skipped, failed, export_path
         FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			dryRun     int
			startedAt  string
			finishedAt sql.NullString
			exportPath sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.ReleaseName, &run.Language, &dryRun, &startedAt,
			&finishedAt, &run.Admitted, &run.Skipped, &run.Failed, &exportPath); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.DryRun = dryRun != 0
		run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		if finishedAt.Valid {
			run.Finished = true
			run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt.String)
		}
		run.ExportPath = exportPath.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// EventsForRun returns a run's upload outcomes in insertion order.
func (s *Store) EventsForRun(ctx context.Context, runID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, upload_id, speaker_id, verdict, reason, asset_path, representative, recorded_at
         FROM upload_events WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query upload events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event          Event
			speakerID      sql.NullString
			reason         sql.NullString
			assetPath      sql.NullString
			representative int
			recordedAt     string
		)
		if err := rows.Scan(&event.RunID, &event.UploadID, &speakerID, (*string)(&event.Verdict),
			&reason, &assetPath, &representative, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan upload event: %w", err)
		}
		event.SpeakerID = speakerID.String
		event.Reason = reason.String
		event.AssetPath = assetPath.String
		event.Representative = representative != 0
		event.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate upload events: %w", err)
	}
	return events, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
