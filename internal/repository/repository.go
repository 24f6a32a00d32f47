// Package repository implements PostgreSQL persistence for sessions,
// battles, votes, model stats and worker status. Each multi-row mutation is
// exposed as one method running in a single transaction.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

// ErrBattleAlreadyDecided reports a vote attempt that lost a race: by the
// time the insert ran, another vote had already moved the battle out of
// ongoing. Callers translate it into their invalid-state error.
var ErrBattleAlreadyDecided = errors.New("battle already decided")

// queryer is satisfied by both *sql.DB (via database.DB) and *sql.Tx so the
// row helpers can run inside or outside a transaction.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
