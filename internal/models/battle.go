package models

import "time"

type BattleStatus string

const (
	BattleStatusOngoing   BattleStatus = "ongoing"
	BattleStatusVoted     BattleStatus = "voted"
	BattleStatusAbandoned BattleStatus = "abandoned"
)

// Terminal reports whether the battle accepts no further messages or votes.
func (s BattleStatus) Terminal() bool {
	return s == BattleStatusVoted || s == BattleStatusAbandoned
}

// Slot is the anonymous position a model occupies within a battle. The
// assignment is fixed at battle creation and never swapped.
type Slot string

const (
	SlotLeft  Slot = "left"
	SlotRight Slot = "right"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationEntry is one turn in a battle's conversation log. Entries are
// append only. Assistant entries carry the slot tag and originating model.
type ConversationEntry struct {
	Role      string    `json:"role"`
	ModelID   string    `json:"model_id,omitempty"`
	Position  Slot      `json:"position,omitempty"`
	Content   string    `json:"content"`
	LatencyMS int64     `json:"latency_ms,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Battle is one model-vs-model conversation thread inside a session.
// The conversation alternates one user turn followed by one assistant turn
// per slot, persisted as a JSONB array.
type Battle struct {
	ID           int64               `json:"-" db:"id"`
	BattleID     string              `json:"battleId" db:"battle_id"`
	SessionID    string              `json:"sessionId" db:"session_id"`
	LeftModelID  string              `json:"leftModelId" db:"left_model_id"`
	RightModelID string              `json:"rightModelId" db:"right_model_id"`
	Conversation []ConversationEntry `json:"conversation" db:"conversation"`
	Status       BattleStatus        `json:"status" db:"status"`
	CreatedAt    time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time           `json:"updatedAt" db:"updated_at"`
}

// UserTurnCount counts user entries in the conversation log.
func (b *Battle) UserTurnCount() int {
	count := 0
	for _, entry := range b.Conversation {
		if entry.Role == RoleUser {
			count++
		}
	}
	return count
}

// SlotHistory rebuilds the private chat history one slot's model has seen:
// every user turn plus only the assistant turns tagged with that slot.
func (b *Battle) SlotHistory(slot Slot) []ConversationEntry {
	history := make([]ConversationEntry, 0, len(b.Conversation))
	for _, entry := range b.Conversation {
		if entry.Role == RoleUser || entry.Position == slot {
			history = append(history, entry)
		}
	}
	return history
}

type CreateBattleRequest struct {
	Prompt string `json:"prompt" binding:"required,min=1,max=10000"`
}

type FollowUpRequest struct {
	Prompt string `json:"prompt" binding:"required,min=1,max=10000"`
}

// SlotResponse is one anonymous model answer returned to the client.
type SlotResponse struct {
	Position  Slot   `json:"position"`
	Text      string `json:"text"`
	LatencyMS int64  `json:"latency_ms"`
}

type BattleResponse struct {
	SessionID string         `json:"session_id,omitempty"`
	BattleID  string         `json:"battle_id"`
	MessageID string         `json:"message_id"`
	Responses []SlotResponse `json:"responses"`
}

// BattleListItem is one battle in a session's history listing, with the
// vote attached once the battle has been decided.
type BattleListItem struct {
	BattleID     string              `json:"battle_id"`
	LeftModelID  string              `json:"left_model_id"`
	RightModelID string              `json:"right_model_id"`
	Conversation []ConversationEntry `json:"conversation"`
	Status       BattleStatus        `json:"status"`
	Vote         *VoteChoice         `json:"vote"`
	CreatedAt    time.Time           `json:"created_at"`
}

type FollowUpResponse struct {
	BattleID     string         `json:"battle_id"`
	MessageID    string         `json:"message_id"`
	Responses    []SlotResponse `json:"responses"`
	MessageCount int            `json:"message_count"`
	MaxMessages  int            `json:"max_messages"`
}
