package models

import "time"

type VoteChoice string

const (
	VoteLeftBetter  VoteChoice = "left_better"
	VoteRightBetter VoteChoice = "right_better"
	VoteTie         VoteChoice = "tie"
	VoteBothBad     VoteChoice = "both_bad"
)

// Valid reports whether the choice is one of the four accepted values.
func (c VoteChoice) Valid() bool {
	switch c {
	case VoteLeftBetter, VoteRightBetter, VoteTie, VoteBothBad:
		return true
	}
	return false
}

type VoteProcessingStatus string

const (
	VotePending   VoteProcessingStatus = "pending"
	VoteProcessed VoteProcessingStatus = "processed"
	VoteFailed    VoteProcessingStatus = "failed"
)

// Vote is the blind preference recorded for a battle, at most one per
// battle. Model ids are denormalized at vote time so later battle changes
// cannot desynchronize rating history. Only the processing fields mutate
// after creation.
type Vote struct {
	ID               int64                `json:"-" db:"id"`
	VoteID           string               `json:"voteId" db:"vote_id"`
	BattleID         string               `json:"battleId" db:"battle_id"`
	SessionID        string               `json:"sessionId" db:"session_id"`
	Vote             VoteChoice           `json:"vote" db:"vote"`
	LeftModelID      string               `json:"leftModelId" db:"left_model_id"`
	RightModelID     string               `json:"rightModelId" db:"right_model_id"`
	ProcessingStatus VoteProcessingStatus `json:"processingStatus" db:"processing_status"`
	ProcessedAt      *time.Time           `json:"processedAt,omitempty" db:"processed_at"`
	ErrorMessage     *string              `json:"errorMessage,omitempty" db:"error_message"`
	VotedAt          time.Time            `json:"votedAt" db:"voted_at"`
}

type VoteRequest struct {
	Vote VoteChoice `json:"vote" binding:"required,oneof=left_better right_better tie both_bad"`
}

type RevealedModels struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

type VoteResponse struct {
	BattleID       string         `json:"battle_id"`
	Vote           VoteChoice     `json:"vote"`
	RevealedModels RevealedModels `json:"revealed_models"`
}
