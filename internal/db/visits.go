package db

import (
	"context"
	"fmt"

	"github.com/sankeertg21/traffic-wait-timer/internal/waittime"
)

// SaveVisits replaces the stored visits of a run.
func (db *DB) SaveVisits(ctx context.Context, runID string, visits []waittime.Visit) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM wait_visits WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("clear visits: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO wait_visits (run_id, track_id, class, first_seen, last_seen, wait_seconds, live)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare visit insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range visits {
		if _, err := stmt.ExecContext(ctx, runID, v.TrackID, v.Class, v.FirstSeen, v.LastSeen, v.WaitSeconds, v.Live); err != nil {
			return fmt.Errorf("insert visit for track %d: %w", v.TrackID, err)
		}
	}
	return tx.Commit()
}

// ListVisits returns the visits of a run ordered by track id, then by
// first sighting.
func (db *DB) ListVisits(ctx context.Context, runID string) ([]waittime.Visit, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT track_id, class, first_seen, last_seen, wait_seconds, live
		FROM wait_visits
		WHERE run_id = ?
		ORDER BY track_id, first_seen`, runID)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	visits := []waittime.Visit{}
	for rows.Next() {
		var v waittime.Visit
		if err := rows.Scan(&v.TrackID, &v.Class, &v.FirstSeen, &v.LastSeen, &v.WaitSeconds, &v.Live); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}
