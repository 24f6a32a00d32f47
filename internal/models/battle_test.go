package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBattle() *Battle {
	now := time.Now().UTC()
	return &Battle{
		BattleID:     "battle_abc123def456",
		SessionID:    "session_abc123def456",
		LeftModelID:  "model-a",
		RightModelID: "model-b",
		Status:       BattleStatusOngoing,
		Conversation: []ConversationEntry{
			{Role: RoleUser, Content: "first question", Timestamp: now},
			{Role: RoleAssistant, ModelID: "model-a", Position: SlotLeft, Content: "left answer 1", Timestamp: now},
			{Role: RoleAssistant, ModelID: "model-b", Position: SlotRight, Content: "right answer 1", Timestamp: now},
			{Role: RoleUser, Content: "second question", Timestamp: now},
			{Role: RoleAssistant, ModelID: "model-a", Position: SlotLeft, Content: "left answer 2", Timestamp: now},
			{Role: RoleAssistant, ModelID: "model-b", Position: SlotRight, Content: "right answer 2", Timestamp: now},
		},
	}
}

func TestBattle_UserTurnCount(t *testing.T) {
	b := sampleBattle()
	assert.Equal(t, 2, b.UserTurnCount())

	empty := &Battle{}
	assert.Equal(t, 0, empty.UserTurnCount())
}

func TestBattle_SlotHistory(t *testing.T) {
	b := sampleBattle()

	left := b.SlotHistory(SlotLeft)
	require.Len(t, left, 4)
	assert.Equal(t, "first question", left[0].Content)
	assert.Equal(t, "left answer 1", left[1].Content)
	assert.Equal(t, "second question", left[2].Content)
	assert.Equal(t, "left answer 2", left[3].Content)

	// The right slot's answers never appear in the left history.
	for _, e := range left {
		assert.NotEqual(t, SlotRight, e.Position)
	}

	right := b.SlotHistory(SlotRight)
	require.Len(t, right, 4)
	assert.Equal(t, "right answer 1", right[1].Content)
}

func TestBattleStatus_Terminal(t *testing.T) {
	assert.False(t, BattleStatusOngoing.Terminal())
	assert.True(t, BattleStatusVoted.Terminal())
	assert.True(t, BattleStatusAbandoned.Terminal())
}

func TestIDGenerators(t *testing.T) {
	sessionID := NewSessionID()
	battleID := NewBattleID()
	voteID := NewVoteID()

	assert.True(t, strings.HasPrefix(sessionID, "session_"))
	assert.True(t, strings.HasPrefix(battleID, "battle_"))
	assert.True(t, strings.HasPrefix(voteID, "vote_"))

	assert.Len(t, strings.TrimPrefix(sessionID, "session_"), 12)

	// Collisions over a handful of draws would indicate a broken source.
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewBattleID()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestSessionTitle(t *testing.T) {
	assert.Equal(t, "short prompt", SessionTitle("short prompt"))

	long := strings.Repeat("a", 300)
	title := SessionTitle(long)
	assert.Len(t, title, 200)
}

func TestVoteChoice_Valid(t *testing.T) {
	for _, c := range []VoteChoice{VoteLeftBetter, VoteRightBetter, VoteTie, VoteBothBad} {
		assert.True(t, c.Valid(), "%s should be valid", c)
	}
	assert.False(t, VoteChoice("").Valid())
	assert.False(t, VoteChoice("left").Valid())
}
