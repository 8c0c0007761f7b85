package db

import (
	"context"
	"fmt"
	"time"
)

// CreateRun inserts a running run and returns its ID.
func (db *DB) CreateRun(ctx context.Context, scheduledTime *time.Time) (int64, error) {
	var id int64
	err := db.pool.QueryRow(ctx,
		`INSERT INTO runs (scheduled_time, started_at, status, retry_count)
		 VALUES ($1, NOW(), $2, 0)
		 RETURNING id`,
		scheduledTime, RunStatusRunning,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// FinishRun sets the terminal status and finished_at. Already finished runs
// are left untouched.
func (db *DB) FinishRun(ctx context.Context, runID int64, status string, errorSummary *string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error_summary = $2, finished_at = NOW()
		 WHERE id = $3 AND finished_at IS NULL`,
		status, errorSummary, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID, or nil when it does not exist.
func (db *DB) GetRun(ctx context.Context, runID int64) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, scheduled_time, started_at, finished_at, status, error_summary, retry_count
		 FROM runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.ScheduledTime, &run.StartedAt, &run.FinishedAt, &run.Status, &run.ErrorSummary, &run.RetryCount)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns retrieves recent runs, newest first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, scheduled_time, started_at, finished_at, status, error_summary, retry_count
		 FROM runs ORDER BY id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.ScheduledTime, &run.StartedAt, &run.FinishedAt, &run.Status, &run.ErrorSummary, &run.RetryCount); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
