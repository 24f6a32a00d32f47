package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Chungws/lmarena-clone/internal/models"
	"github.com/Chungws/lmarena-clone/pkg/database"
)

type SessionRepository struct {
	db *database.DB
}

func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func insertSession(ctx context.Context, q queryer, s *models.Session) error {
	query := `
		INSERT INTO sessions (session_id, title, user_id, created_at, last_active_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := q.QueryRowContext(ctx, query,
		s.SessionID,
		s.Title,
		s.UserID,
		s.CreatedAt,
		s.LastActiveAt,
	).Scan(&s.ID)

	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

func touchSessionLastActive(ctx context.Context, q queryer, sessionID string, at time.Time) error {
	query := `UPDATE sessions SET last_active_at = $1 WHERE session_id = $2`

	if _, err := q.ExecContext(ctx, query, at, sessionID); err != nil {
		return fmt.Errorf("failed to update session last_active_at: %w", err)
	}

	return nil
}

// FindBySessionID returns the session or (nil, nil) when absent.
func (r *SessionRepository) FindBySessionID(ctx context.Context, sessionID string) (*models.Session, error) {
	query := `
		SELECT id, session_id, title, user_id, created_at, last_active_at
		FROM sessions
		WHERE session_id = $1
	`

	s := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&s.ID,
		&s.SessionID,
		&s.Title,
		&s.UserID,
		&s.CreatedAt,
		&s.LastActiveAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return s, nil
}

// ListByUserID returns the user's sessions ordered by last activity,
// newest first.
func (r *SessionRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.Session, error) {
	query := `
		SELECT id, session_id, title, user_id, created_at, last_active_at
		FROM sessions
		WHERE user_id = $1
		ORDER BY last_active_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		s := &models.Session{}
		err := rows.Scan(
			&s.ID,
			&s.SessionID,
			&s.Title,
			&s.UserID,
			&s.CreatedAt,
			&s.LastActiveAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

func (r *SessionRepository) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM sessions WHERE user_id = $1`

	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	return count, nil
}
