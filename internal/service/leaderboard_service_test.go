package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chungws/lmarena-clone/internal/models"
)

type fakeLeaderboardStore struct {
	rows []*models.ModelStats
}

func (s *fakeLeaderboardStore) Leaderboard(_ context.Context, minVotes int) ([]*models.ModelStats, error) {
	var out []*models.ModelStats
	for _, r := range s.rows {
		if r.VoteCount >= minVotes {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeLeaderboardStore) TotalVotes(_ context.Context, minVotes int) (int, error) {
	total := 0
	for _, r := range s.rows {
		if r.VoteCount >= minVotes {
			total += r.VoteCount
		}
	}
	return total, nil
}

func TestLeaderboardService_GetLeaderboard(t *testing.T) {
	now := time.Now().UTC()
	store := &fakeLeaderboardStore{
		rows: []*models.ModelStats{
			{ModelID: "model-b", ELOScore: 1580, ELOCI: 124.0, VoteCount: 40, WinRate: 0.6, Organization: "Bmce", UpdatedAt: now},
			{ModelID: "model-a", ELOScore: 1540, ELOCI: 98.0, VoteCount: 64, WinRate: 0.55, Organization: "Acme", UpdatedAt: now.Add(-time.Hour)},
			{ModelID: "model-c", ELOScore: 1480, ELOCI: 200.0, VoteCount: 3, WinRate: 0.33, Organization: "Corp", UpdatedAt: now},
		},
	}

	svc := NewLeaderboardService(store, map[string]string{
		"model-a": "Model A",
		"model-b": "Model B",
	}, 5)

	resp, err := svc.GetLeaderboard(context.Background())
	require.NoError(t, err)

	// model-c falls below the minimum vote threshold.
	require.Len(t, resp.Leaderboard, 2)
	assert.Equal(t, 1, resp.Leaderboard[0].Rank)
	assert.Equal(t, "model-b", resp.Leaderboard[0].ModelID)
	assert.Equal(t, "Model B", resp.Leaderboard[0].ModelName)
	assert.Equal(t, 2, resp.Leaderboard[1].Rank)
	assert.Equal(t, "model-a", resp.Leaderboard[1].ModelID)

	assert.Equal(t, 2, resp.Metadata.TotalModels)
	assert.Equal(t, 104, resp.Metadata.TotalVotes)
	assert.Equal(t, now, resp.Metadata.LastUpdated)
}

func TestLeaderboardService_UnknownModelNameFallsBack(t *testing.T) {
	store := &fakeLeaderboardStore{
		rows: []*models.ModelStats{
			{ModelID: "model-gone", ELOScore: 1500, VoteCount: 10, UpdatedAt: time.Now().UTC()},
		},
	}

	svc := NewLeaderboardService(store, map[string]string{}, 5)

	resp, err := svc.GetLeaderboard(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Leaderboard, 1)

	// A model dropped from the registry still ranks under its id.
	assert.Equal(t, "model-gone", resp.Leaderboard[0].ModelName)
}

func TestLeaderboardService_Empty(t *testing.T) {
	svc := NewLeaderboardService(&fakeLeaderboardStore{}, nil, 5)

	resp, err := svc.GetLeaderboard(context.Background())
	require.NoError(t, err)

	assert.Empty(t, resp.Leaderboard)
	assert.Equal(t, 0, resp.Metadata.TotalModels)
	assert.Equal(t, 0, resp.Metadata.TotalVotes)
	assert.False(t, resp.Metadata.LastUpdated.IsZero())
}
