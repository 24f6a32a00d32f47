package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session groups multiple battles started by one user. Sessions are never
// deleted; only last_active_at moves as battles are created or voted on.
type Session struct {
	ID           int64     `json:"-" db:"id"`
	SessionID    string    `json:"sessionId" db:"session_id"`
	Title        string    `json:"title" db:"title"`
	UserID       *string   `json:"userId,omitempty" db:"user_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	LastActiveAt time.Time `json:"lastActiveAt" db:"last_active_at"`
}

// NewSessionID returns a prefixed short id, e.g. "session_1a2b3c4d5e6f".
func NewSessionID() string {
	return "session_" + shortID()
}

func NewBattleID() string {
	return "battle_" + shortID()
}

func NewVoteID() string {
	return "vote_" + shortID()
}

func shortID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

// SessionTitle derives a display title from the first prompt.
func SessionTitle(prompt string) string {
	const maxLen = 200
	if len(prompt) > maxLen {
		return prompt[:maxLen]
	}
	return prompt
}

type CreateSessionRequest struct {
	Prompt string `json:"prompt" binding:"required,min=1,max=10000"`
	UserID string `json:"userId"`
}

type SessionListItem struct {
	SessionID    string    `json:"session_id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}
