package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Chungws/lmarena-clone/internal/models"
	"github.com/Chungws/lmarena-clone/pkg/database"
)

type WorkerStatusRepository struct {
	db *database.DB
}

func NewWorkerStatusRepository(db *database.DB) *WorkerStatusRepository {
	return &WorkerStatusRepository{db: db}
}

// Upsert writes the run record for the named worker, replacing the
// previous run's values.
func (r *WorkerStatusRepository) Upsert(ctx context.Context, ws *models.WorkerStatus) error {
	query := `
		INSERT INTO worker_status (worker_name, last_run_at, status, votes_processed, error_message)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (worker_name) DO UPDATE
		SET last_run_at = EXCLUDED.last_run_at,
		    status = EXCLUDED.status,
		    votes_processed = EXCLUDED.votes_processed,
		    error_message = EXCLUDED.error_message
	`

	_, err := r.db.ExecContext(ctx, query,
		ws.WorkerName,
		ws.LastRunAt,
		ws.Status,
		ws.VotesProcessed,
		ws.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert worker status: %w", err)
	}

	return nil
}

// FindByName returns the worker's last run record or (nil, nil) when the
// worker has never run.
func (r *WorkerStatusRepository) FindByName(ctx context.Context, workerName string) (*models.WorkerStatus, error) {
	query := `
		SELECT id, worker_name, last_run_at, status, votes_processed, error_message
		FROM worker_status
		WHERE worker_name = $1
	`

	ws := &models.WorkerStatus{}
	err := r.db.QueryRowContext(ctx, query, workerName).Scan(
		&ws.ID,
		&ws.WorkerName,
		&ws.LastRunAt,
		&ws.Status,
		&ws.VotesProcessed,
		&ws.ErrorMessage,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find worker status: %w", err)
	}

	return ws, nil
}
