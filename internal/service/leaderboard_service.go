package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Chungws/lmarena-clone/internal/models"
)

type LeaderboardStore interface {
	Leaderboard(ctx context.Context, minVotes int) ([]*models.ModelStats, error)
	TotalVotes(ctx context.Context, minVotes int) (int, error)
}

// LeaderboardService builds the ranked leaderboard projection from the
// aggregated per-model stats. Rankings reflect the last completed
// aggregation run, not live votes.
type LeaderboardService struct {
	stats      LeaderboardStore
	modelNames map[string]string
	minVotes   int
}

func NewLeaderboardService(stats LeaderboardStore, modelNames map[string]string, minVotes int) *LeaderboardService {
	if minVotes < 0 {
		minVotes = 0
	}
	return &LeaderboardService{
		stats:      stats,
		modelNames: modelNames,
		minVotes:   minVotes,
	}
}

// GetLeaderboard returns models with at least the minimum vote count,
// ranked densely 1..N by rating descending.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context) (*models.LeaderboardResponse, error) {
	rows, err := s.stats.Leaderboard(ctx, s.minVotes)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	totalVotes, err := s.stats.TotalVotes(ctx, s.minVotes)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(rows))
	var lastUpdated time.Time

	for i, row := range rows {
		name := s.modelNames[row.ModelID]
		if name == "" {
			name = row.ModelID
		}

		entries = append(entries, models.LeaderboardEntry{
			Rank:         i + 1,
			ModelID:      row.ModelID,
			ModelName:    name,
			ELOScore:     row.ELOScore,
			ELOCI:        row.ELOCI,
			VoteCount:    row.VoteCount,
			WinRate:      row.WinRate,
			Organization: row.Organization,
			License:      row.License,
		})

		if row.UpdatedAt.After(lastUpdated) {
			lastUpdated = row.UpdatedAt
		}
	}

	if lastUpdated.IsZero() {
		lastUpdated = time.Now().UTC()
	}

	return &models.LeaderboardResponse{
		Leaderboard: entries,
		Metadata: models.LeaderboardMetadata{
			TotalModels: len(entries),
			TotalVotes:  totalVotes,
			LastUpdated: lastUpdated,
		},
	}, nil
}
