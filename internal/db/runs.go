package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sankeertg21/traffic-wait-timer/internal/geom"
	"github.com/sankeertg21/traffic-wait-timer/internal/version"
)

// Run is one pass of the tracker over a detection stream.
type Run struct {
	ID              string     `json:"run_id"`
	Source          string     `json:"source"`
	ConfigJSON      string     `json:"config_json"`
	ROI             geom.Rect  `json:"roi"`
	Version         string     `json:"version"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	FramesRead      int        `json:"frames_read"`
	FramesProcessed int        `json:"frames_processed"`
	FramesSkipped   int        `json:"frames_skipped"`
	Observations    int        `json:"observations"`

	// Filled from run_wait_summary.
	Visits           int     `json:"visits"`
	TotalWaitSeconds float64 `json:"total_wait_seconds"`
	MaxWaitSeconds   float64 `json:"max_wait_seconds"`
}

// RunCounts are the frame counters written when a run finishes.
type RunCounts struct {
	FramesRead      int
	FramesProcessed int
	FramesSkipped   int
	Observations    int
}

// StartRun inserts a new run and returns it with a fresh id.
func (db *DB) StartRun(ctx context.Context, source, configJSON string, roi geom.Rect) (*Run, error) {
	r := &Run{
		ID:         uuid.NewString(),
		Source:     source,
		ConfigJSON: configJSON,
		ROI:        roi,
		Version:    version.Version,
		StartedAt:  db.clock.Now().UTC().Truncate(time.Millisecond),
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO runs (run_id, source, config_json, roi_x1, roi_y1, roi_x2, roi_y2, version, started_unix_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Source, r.ConfigJSON, roi.X1, roi.Y1, roi.X2, roi.Y2, r.Version, r.StartedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return r, nil
}

// FinishRun stamps the finish time and the frame counters.
func (db *DB) FinishRun(ctx context.Context, runID string, c RunCounts) error {
	res, err := db.ExecContext(ctx, `
		UPDATE runs
		SET finished_unix_ms = ?, frames_read = ?, frames_processed = ?, frames_skipped = ?, observations = ?
		WHERE run_id = ?`,
		db.clock.Now().UnixMilli(), c.FramesRead, c.FramesProcessed, c.FramesSkipped, c.Observations, runID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

const runColumns = `
	r.run_id, r.source, r.config_json, r.roi_x1, r.roi_y1, r.roi_x2, r.roi_y2, r.version,
	r.started_unix_ms, r.finished_unix_ms, r.frames_read, r.frames_processed, r.frames_skipped, r.observations,
	COALESCE(s.visits, 0), COALESCE(s.total_wait_seconds, 0), COALESCE(s.max_wait_seconds, 0)
	FROM runs r LEFT JOIN run_wait_summary s ON s.run_id = r.run_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var started int64
	var finished sql.NullInt64
	err := row.Scan(&r.ID, &r.Source, &r.ConfigJSON, &r.ROI.X1, &r.ROI.Y1, &r.ROI.X2, &r.ROI.Y2, &r.Version,
		&started, &finished, &r.FramesRead, &r.FramesProcessed, &r.FramesSkipped, &r.Observations,
		&r.Visits, &r.TotalWaitSeconds, &r.MaxWaitSeconds)
	if err != nil {
		return nil, err
	}
	r.StartedAt = time.UnixMilli(started).UTC()
	if finished.Valid {
		t := time.UnixMilli(finished.Int64).UTC()
		r.FinishedAt = &t
	}
	return &r, nil
}

// GetRun returns the run with the given id, or ErrRunNotFound.
func (db *DB) GetRun(ctx context.Context, runID string) (*Run, error) {
	r, err := scanRun(db.QueryRowContext(ctx, `SELECT `+runColumns+` WHERE r.run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return r, nil
}

// ListRuns returns up to limit runs, newest first. A non-positive limit
// returns every run.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx, `SELECT `+runColumns+` ORDER BY r.started_unix_ms DESC, r.run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run together with its events and visits.
func (db *DB) DeleteRun(ctx context.Context, runID string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	return nil
}
