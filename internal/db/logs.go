package db

import (
	"context"
	"fmt"
)

// AppendLog writes one audit entry for a run.
func (db *DB) AppendLog(ctx context.Context, runID int64, step, level, message string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO logs (run_id, step, level, message, created_at) VALUES ($1, $2, $3, $4, NOW())`,
		runID, step, level, message,
	)
	if err != nil {
		return fmt.Errorf("failed to append log: %w", err)
	}
	return nil
}

// ListLogs returns a run's log entries in insertion order.
func (db *DB) ListLogs(ctx context.Context, runID int64) ([]LogEvent, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, step, level, message, created_at FROM logs WHERE run_id = $1 ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	defer rows.Close()

	var events []LogEvent
	for rows.Next() {
		var e LogEvent
		if err := rows.Scan(&e.ID, &e.RunID, &e.Step, &e.Level, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
