package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/sankeertg21/traffic-wait-timer/internal/monitoring"
	"github.com/sankeertg21/traffic-wait-timer/internal/waittime"
)

// RecordEvents inserts events for a run in one transaction.
func (db *DB) RecordEvents(ctx context.Context, runID string, events []waittime.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO track_events (run_id, kind, track_id, class, stream_time, wait_seconds)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare event insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, runID, string(e.Kind), e.TrackID, e.Class, e.Timestamp, e.WaitSeconds); err != nil {
			return fmt.Errorf("insert %s event for track %d: %w", e.Kind, e.TrackID, err)
		}
	}
	return tx.Commit()
}

// RecordEvent inserts a single event.
func (db *DB) RecordEvent(ctx context.Context, runID string, e waittime.Event) error {
	return db.RecordEvents(ctx, runID, []waittime.Event{e})
}

// ListEvents returns the events of a run in insertion order. A non-nil
// trackID restricts the result to that track.
func (db *DB) ListEvents(ctx context.Context, runID string, trackID *int64) ([]waittime.Event, error) {
	query := `SELECT kind, track_id, class, stream_time, wait_seconds FROM track_events WHERE run_id = ?`
	args := []interface{}{runID}
	if trackID != nil {
		query += ` AND track_id = ?`
		args = append(args, *trackID)
	}
	query += ` ORDER BY event_id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []waittime.Event{}
	for rows.Next() {
		var e waittime.Event
		var kind string
		if err := rows.Scan(&kind, &e.TrackID, &e.Class, &e.Timestamp, &e.WaitSeconds); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Kind = waittime.EventKind(kind)
		events = append(events, e)
	}
	return events, rows.Err()
}

// EventRecorder is a waittime.EventSink that buffers events and writes
// them to the database in batches.
type EventRecorder struct {
	db        *DB
	runID     string
	batchSize int

	mu      sync.Mutex
	pending []waittime.Event
	written int
	err     error
}

// NewEventRecorder buffers up to batchSize events before writing. A
// non-positive batchSize uses 256.
func NewEventRecorder(db *DB, runID string, batchSize int) *EventRecorder {
	if batchSize <= 0 {
		batchSize = 256
	}
	return &EventRecorder{db: db, runID: runID, batchSize: batchSize}
}

// HandleEvent implements waittime.EventSink. Write failures are logged and
// kept for Flush to report; later events are still buffered.
func (r *EventRecorder) HandleEvent(e waittime.Event) {
	r.mu.Lock()
	r.pending = append(r.pending, e)
	full := len(r.pending) >= r.batchSize
	r.mu.Unlock()

	if full {
		if err := r.Flush(context.Background()); err != nil {
			monitoring.Logf("event recorder: %v", err)
		}
	}
}

// Flush writes buffered events. It returns the first write error seen
// since the recorder was created.
func (r *EventRecorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pending) > 0 {
		if err := r.db.RecordEvents(ctx, r.runID, r.pending); err != nil {
			if r.err == nil {
				r.err = err
			}
		} else {
			r.written += len(r.pending)
			r.pending = r.pending[:0]
		}
	}
	return r.err
}

// Written returns the number of events stored so far.
func (r *EventRecorder) Written() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}
