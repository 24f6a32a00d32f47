package models

import "time"

// ModelStats is the per-model rating row maintained by the aggregation
// worker and read by the leaderboard. tie_count covers both "tie" and
// "both_bad" votes.
type ModelStats struct {
	ID           int64     `json:"-" db:"id"`
	ModelID      string    `json:"modelId" db:"model_id"`
	ELOScore     int       `json:"eloScore" db:"elo_score"`
	ELOCI        float64   `json:"eloCi" db:"elo_ci"`
	VoteCount    int       `json:"voteCount" db:"vote_count"`
	WinCount     int       `json:"winCount" db:"win_count"`
	LossCount    int       `json:"lossCount" db:"loss_count"`
	TieCount     int       `json:"tieCount" db:"tie_count"`
	WinRate      float64   `json:"winRate" db:"win_rate"`
	Organization string    `json:"organization" db:"organization"`
	License      string    `json:"license" db:"license"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// LeaderboardEntry is one ranked row of the leaderboard projection.
type LeaderboardEntry struct {
	Rank         int     `json:"rank"`
	ModelID      string  `json:"model_id"`
	ModelName    string  `json:"model_name"`
	ELOScore     int     `json:"elo_score"`
	ELOCI        float64 `json:"elo_ci"`
	VoteCount    int     `json:"vote_count"`
	WinRate      float64 `json:"win_rate"`
	Organization string  `json:"organization"`
	License      string  `json:"license"`
}

type LeaderboardMetadata struct {
	TotalModels int       `json:"total_models"`
	TotalVotes  int       `json:"total_votes"`
	LastUpdated time.Time `json:"last_updated"`
}

type LeaderboardResponse struct {
	Leaderboard []LeaderboardEntry  `json:"leaderboard"`
	Metadata    LeaderboardMetadata `json:"metadata"`
}
