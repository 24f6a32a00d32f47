package service

import (
	"errors"
	"fmt"

	"github.com/Chungws/lmarena-clone/internal/models"
)

// Common service errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrBattleNotFound  = errors.New("battle not found")
	ErrInvalidVote     = errors.New("invalid vote choice")
)

// InvalidStateError reports an operation attempted on a battle that is no
// longer ongoing. It names the battle's current status so callers can tell
// "already voted" from "abandoned".
type InvalidStateError struct {
	BattleID string
	Status   models.BattleStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("battle %s is %s, expected ongoing", e.BattleID, e.Status)
}
