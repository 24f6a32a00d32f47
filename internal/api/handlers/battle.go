package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Chungws/lmarena-clone/internal/models"
	"github.com/Chungws/lmarena-clone/internal/service"
)

type BattleHandler struct {
	battleService *service.BattleService
}

func NewBattleHandler(battleService *service.BattleService) *BattleHandler {
	return &BattleHandler{
		battleService: battleService,
	}
}

// AddMessage appends a follow-up turn to an ongoing battle. Both models
// answer against their own private history.
func (h *BattleHandler) AddMessage(c *gin.Context) {
	battleID := c.Param("battleId")

	var req models.FollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.battleService.AddFollowUp(c.Request.Context(), battleID, req.Prompt)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Vote records the blind preference for a battle and reveals the model
// identities. One vote per battle; a second attempt gets a 400.
func (h *BattleHandler) Vote(c *gin.Context) {
	battleID := c.Param("battleId")

	var req models.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.battleService.RecordVote(c.Request.Context(), battleID, req.Vote)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
