package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Chungws/lmarena-clone/internal/models"
	"github.com/Chungws/lmarena-clone/pkg/database"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

type VoteRepository struct {
	db *database.DB
}

func NewVoteRepository(db *database.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// CreateAndMarkVoted records the vote, flips the battle to voted and bumps
// the owning session's last-activity timestamp in one transaction. The
// unique constraint on votes.battle_id enforces at most one vote per battle
// even under concurrent attempts.
func (r *VoteRepository) CreateAndMarkVoted(ctx context.Context, vote *models.Vote) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		insert := `
			INSERT INTO votes (vote_id, battle_id, session_id, vote,
			                   left_model_id, right_model_id, processing_status, voted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`

		err := tx.QueryRowContext(ctx, insert,
			vote.VoteID,
			vote.BattleID,
			vote.SessionID,
			vote.Vote,
			vote.LeftModelID,
			vote.RightModelID,
			vote.ProcessingStatus,
			vote.VotedAt,
		).Scan(&vote.ID)
		if err != nil {
			// A concurrent vote on the same battle hits the unique
			// constraint on votes.battle_id.
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return fmt.Errorf("vote for battle %s: %w", vote.BattleID, ErrBattleAlreadyDecided)
			}
			return fmt.Errorf("failed to create vote: %w", err)
		}

		update := `
			UPDATE battles SET status = $1, updated_at = $2
			WHERE battle_id = $3 AND status = $4
		`

		result, err := tx.ExecContext(ctx, update,
			models.BattleStatusVoted,
			vote.VotedAt,
			vote.BattleID,
			models.BattleStatusOngoing,
		)
		if err != nil {
			return fmt.Errorf("failed to update battle status: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check battle update: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("battle %s is no longer ongoing: %w", vote.BattleID, ErrBattleAlreadyDecided)
		}

		return touchSessionLastActive(ctx, tx, vote.SessionID, vote.VotedAt)
	})
}

func scanVote(scan func(dest ...any) error) (*models.Vote, error) {
	v := &models.Vote{}
	err := scan(
		&v.ID,
		&v.VoteID,
		&v.BattleID,
		&v.SessionID,
		&v.Vote,
		&v.LeftModelID,
		&v.RightModelID,
		&v.ProcessingStatus,
		&v.ProcessedAt,
		&v.ErrorMessage,
		&v.VotedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// FindByBattleID returns the battle's vote or (nil, nil) when absent.
func (r *VoteRepository) FindByBattleID(ctx context.Context, battleID string) (*models.Vote, error) {
	query := `
		SELECT id, vote_id, battle_id, session_id, vote,
		       left_model_id, right_model_id, processing_status,
		       processed_at, error_message, voted_at
		FROM votes
		WHERE battle_id = $1
	`

	v, err := scanVote(r.db.QueryRowContext(ctx, query, battleID).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find vote: %w", err)
	}

	return v, nil
}

// FindPending returns unprocessed votes ordered by vote time so aggregation
// runs are deterministic.
func (r *VoteRepository) FindPending(ctx context.Context) ([]*models.Vote, error) {
	query := `
		SELECT id, vote_id, battle_id, session_id, vote,
		       left_model_id, right_model_id, processing_status,
		       processed_at, error_message, voted_at
		FROM votes
		WHERE processing_status = $1
		ORDER BY voted_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, models.VotePending)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending votes: %w", err)
	}
	defer rows.Close()

	var votes []*models.Vote
	for rows.Next() {
		v, err := scanVote(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}

	return votes, rows.Err()
}

// MarkFailed records a processing failure on the vote with truncated error
// text. The vote stays out of future pending selections.
func (r *VoteRepository) MarkFailed(ctx context.Context, voteID, errorMessage string) error {
	const maxErrorLen = 1000
	if len(errorMessage) > maxErrorLen {
		errorMessage = errorMessage[:maxErrorLen]
	}

	query := `
		UPDATE votes SET processing_status = $1, error_message = $2
		WHERE vote_id = $3
	`

	if _, err := r.db.ExecContext(ctx, query, models.VoteFailed, errorMessage, voteID); err != nil {
		return fmt.Errorf("failed to mark vote failed: %w", err)
	}

	return nil
}
