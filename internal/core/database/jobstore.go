package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tenderbharat/docvector/internal/core"
	"github.com/tenderbharat/docvector/internal/models"
)

// JobStore implements core.JobStore on Postgres via the pgx stdlib driver.
type JobStore struct {
	db *sql.DB
}

func NewJobStore(ctx context.Context, databaseURL string) (*JobStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("jobs database URL is empty")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open jobs db: %w", err)
	}

	// Modest pool: one message processed at a time, all writes single-row.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping jobs db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap jobs db: %w", err)
	}

	return &JobStore{db: db}, nil
}

func (s *JobStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ClaimJob is the atomic pending->running transition. The WHERE clause means
// at most one concurrent caller ever gets a row back for the same id.
func (s *JobStore) ClaimJob(ctx context.Context, id string) (*models.ClaimedJob, error) {
	const q = `
		UPDATE jobs
		SET status = 'running', attempts = attempts + 1, updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING payload, attempts
	`
	var claimed models.ClaimedJob
	err := s.db.QueryRowContext(ctx, q, id).Scan(&claimed.Payload, &claimed.Attempts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim job %s: %w", id, err)
	}
	return &claimed, nil
}

func (s *JobStore) CompleteJob(ctx context.Context, id string, result json.RawMessage) error {
	const q = `
		UPDATE jobs
		SET result = $2::jsonb, status = 'completed', updated_at = now()
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, q, id, string(result))
	if err != nil {
		return fmt.Errorf("complete job %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("job not found: %s", id)
	}
	return nil
}

func (s *JobStore) FailJob(ctx context.Context, id string, errMsg string) error {
	const q = `
		UPDATE jobs
		SET status = 'failed', last_error = $2, updated_at = now()
		WHERE id = $1
	`
	if _, err := s.db.ExecContext(ctx, q, id, errMsg); err != nil {
		return fmt.Errorf("fail job %s: %w", id, err)
	}
	return nil
}

func (s *JobStore) ResetJob(ctx context.Context, id string) error {
	const q = `
		UPDATE jobs
		SET status = 'pending', updated_at = now()
		WHERE id = $1
	`
	if _, err := s.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("reset job %s: %w", id, err)
	}
	return nil
}

var _ core.JobStore = (*JobStore)(nil)
