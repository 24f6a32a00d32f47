package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Chungws/lmarena-clone/internal/service"
)

type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
	}
}

// GetLeaderboard returns the ranked leaderboard as of the last aggregation
// run.
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	resp, err := h.leaderboardService.GetLeaderboard(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get leaderboard",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}
