package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Chungws/lmarena-clone/internal/models"
	"github.com/Chungws/lmarena-clone/pkg/database"
)

type ModelStatsRepository struct {
	db *database.DB
}

func NewModelStatsRepository(db *database.DB) *ModelStatsRepository {
	return &ModelStatsRepository{db: db}
}

const modelStatsColumns = `
	id, model_id, elo_score, elo_ci, vote_count, win_count, loss_count,
	tie_count, win_rate, organization, license, updated_at
`

func scanModelStats(scan func(dest ...any) error) (*models.ModelStats, error) {
	s := &models.ModelStats{}
	err := scan(
		&s.ID,
		&s.ModelID,
		&s.ELOScore,
		&s.ELOCI,
		&s.VoteCount,
		&s.WinCount,
		&s.LossCount,
		&s.TieCount,
		&s.WinRate,
		&s.Organization,
		&s.License,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// FindByModelID returns the stats row or (nil, nil) when absent.
func (r *ModelStatsRepository) FindByModelID(ctx context.Context, modelID string) (*models.ModelStats, error) {
	query := `SELECT ` + modelStatsColumns + ` FROM model_stats WHERE model_id = $1`

	s, err := scanModelStats(r.db.QueryRowContext(ctx, query, modelID).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find model stats: %w", err)
	}

	return s, nil
}

// GetOrCreate returns the stats row for the model, creating a fresh one
// with the initial rating when the model is seen for the first time. The
// insert ignores conflicts so concurrent creators converge on one row.
func (r *ModelStatsRepository) GetOrCreate(ctx context.Context, modelID, organization, license string, initialELO int, initialCI float64) (*models.ModelStats, error) {
	insert := `
		INSERT INTO model_stats (model_id, elo_score, elo_ci, vote_count, win_count,
		                         loss_count, tie_count, win_rate, organization, license, updated_at)
		VALUES ($1, $2, $3, 0, 0, 0, 0, 0.0, $4, $5, $6)
		ON CONFLICT (model_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, insert, modelID, initialELO, initialCI, organization, license, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to create model stats: %w", err)
	}

	stats, err := r.FindByModelID(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return nil, fmt.Errorf("model stats missing after insert: %s", modelID)
	}

	return stats, nil
}

func updateModelStats(ctx context.Context, q queryer, s *models.ModelStats) error {
	query := `
		UPDATE model_stats
		SET elo_score = $1, elo_ci = $2, vote_count = $3, win_count = $4,
		    loss_count = $5, tie_count = $6, win_rate = $7, updated_at = $8
		WHERE model_id = $9
	`

	_, err := q.ExecContext(ctx, query,
		s.ELOScore,
		s.ELOCI,
		s.VoteCount,
		s.WinCount,
		s.LossCount,
		s.TieCount,
		s.WinRate,
		s.UpdatedAt,
		s.ModelID,
	)
	if err != nil {
		return fmt.Errorf("failed to update model stats: %w", err)
	}

	return nil
}

// CommitVoteResult persists both updated stats rows and marks the vote
// processed in one transaction. A vote's rating effects and its processed
// flag are therefore durable together or not at all, which is what makes
// re-running the aggregator safe.
func (r *ModelStatsRepository) CommitVoteResult(ctx context.Context, left, right *models.ModelStats, voteID string, processedAt time.Time) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := updateModelStats(ctx, tx, left); err != nil {
			return err
		}
		if err := updateModelStats(ctx, tx, right); err != nil {
			return err
		}

		update := `
			UPDATE votes SET processing_status = $1, processed_at = $2
			WHERE vote_id = $3 AND processing_status = $4
		`

		result, err := tx.ExecContext(ctx, update, models.VoteProcessed, processedAt, voteID, models.VotePending)
		if err != nil {
			return fmt.Errorf("failed to mark vote processed: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check vote update: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("vote %s is not pending", voteID)
		}

		return nil
	})
}

// Leaderboard returns qualifying stats rows ordered by rating descending.
func (r *ModelStatsRepository) Leaderboard(ctx context.Context, minVoteCount int) ([]*models.ModelStats, error) {
	query := `
		SELECT ` + modelStatsColumns + `
		FROM model_stats
		WHERE vote_count >= $1
		ORDER BY elo_score DESC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, minVoteCount)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var stats []*models.ModelStats
	for rows.Next() {
		s, err := scanModelStats(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan model stats: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// TotalVotes sums vote_count across qualifying models only.
func (r *ModelStatsRepository) TotalVotes(ctx context.Context, minVoteCount int) (int, error) {
	var total int
	query := `SELECT COALESCE(SUM(vote_count), 0) FROM model_stats WHERE vote_count >= $1`

	if err := r.db.QueryRowContext(ctx, query, minVoteCount).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum vote counts: %w", err)
	}

	return total, nil
}
