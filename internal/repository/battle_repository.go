package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Chungws/lmarena-clone/internal/models"
	"github.com/Chungws/lmarena-clone/pkg/database"
)

type BattleRepository struct {
	db *database.DB
}

func NewBattleRepository(db *database.DB) *BattleRepository {
	return &BattleRepository{db: db}
}

func insertBattle(ctx context.Context, q queryer, b *models.Battle) error {
	conversation, err := json.Marshal(b.Conversation)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	query := `
		INSERT INTO battles (battle_id, session_id, left_model_id, right_model_id,
		                     conversation, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err = q.QueryRowContext(ctx, query,
		b.BattleID,
		b.SessionID,
		b.LeftModelID,
		b.RightModelID,
		conversation,
		b.Status,
		b.CreatedAt,
		b.UpdatedAt,
	).Scan(&b.ID)

	if err != nil {
		return fmt.Errorf("failed to create battle: %w", err)
	}

	return nil
}

// CreateWithSession inserts a session and its first battle in one
// transaction, so a failure leaves no half-created session behind.
func (r *BattleRepository) CreateWithSession(ctx context.Context, session *models.Session, battle *models.Battle) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := insertSession(ctx, tx, session); err != nil {
			return err
		}
		return insertBattle(ctx, tx, battle)
	})
}

// CreateInSession inserts a battle into an existing session and bumps the
// session's last-activity timestamp in the same transaction.
func (r *BattleRepository) CreateInSession(ctx context.Context, battle *models.Battle) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := insertBattle(ctx, tx, battle); err != nil {
			return err
		}
		return touchSessionLastActive(ctx, tx, battle.SessionID, battle.CreatedAt)
	})
}

func scanBattle(scan func(dest ...any) error) (*models.Battle, error) {
	b := &models.Battle{}
	var conversation []byte

	err := scan(
		&b.ID,
		&b.BattleID,
		&b.SessionID,
		&b.LeftModelID,
		&b.RightModelID,
		&conversation,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(conversation, &b.Conversation); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}

	return b, nil
}

// FindByBattleID returns the battle or (nil, nil) when absent.
func (r *BattleRepository) FindByBattleID(ctx context.Context, battleID string) (*models.Battle, error) {
	query := `
		SELECT id, battle_id, session_id, left_model_id, right_model_id,
		       conversation, status, created_at, updated_at
		FROM battles
		WHERE battle_id = $1
	`

	b, err := scanBattle(r.db.QueryRowContext(ctx, query, battleID).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find battle: %w", err)
	}

	return b, nil
}

// AppendEntries appends new conversation entries to an ongoing battle with
// a read-modify-write of the whole JSONB value. The row is locked for the
// duration of the transaction so concurrent appends cannot interleave.
func (r *BattleRepository) AppendEntries(ctx context.Context, battleID string, entries []models.ConversationEntry, updatedAt time.Time) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			SELECT id, battle_id, session_id, left_model_id, right_model_id,
			       conversation, status, created_at, updated_at
			FROM battles
			WHERE battle_id = $1
			FOR UPDATE
		`

		b, err := scanBattle(tx.QueryRowContext(ctx, query, battleID).Scan)
		if err == sql.ErrNoRows {
			return fmt.Errorf("battle not found: %s", battleID)
		}
		if err != nil {
			return fmt.Errorf("failed to lock battle: %w", err)
		}

		if b.Status != models.BattleStatusOngoing {
			return fmt.Errorf("cannot append to battle with status %s", b.Status)
		}

		conversation, err := json.Marshal(append(b.Conversation, entries...))
		if err != nil {
			return fmt.Errorf("failed to marshal conversation: %w", err)
		}

		update := `UPDATE battles SET conversation = $1, updated_at = $2 WHERE battle_id = $3`
		if _, err := tx.ExecContext(ctx, update, conversation, updatedAt, battleID); err != nil {
			return fmt.Errorf("failed to append conversation entries: %w", err)
		}

		return nil
	})
}

// ListBySessionID returns the session's battles oldest first.
func (r *BattleRepository) ListBySessionID(ctx context.Context, sessionID string) ([]*models.Battle, error) {
	query := `
		SELECT id, battle_id, session_id, left_model_id, right_model_id,
		       conversation, status, created_at, updated_at
		FROM battles
		WHERE session_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query battles: %w", err)
	}
	defer rows.Close()

	var battles []*models.Battle
	for rows.Next() {
		b, err := scanBattle(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan battle: %w", err)
		}
		battles = append(battles, b)
	}

	return battles, rows.Err()
}
