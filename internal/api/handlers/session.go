package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Chungws/lmarena-clone/internal/models"
	"github.com/Chungws/lmarena-clone/internal/service"
)

type SessionHandler struct {
	battleService *service.BattleService
}

func NewSessionHandler(battleService *service.BattleService) *SessionHandler {
	return &SessionHandler{
		battleService: battleService,
	}
}

// CreateSession starts a new session with its first battle. Both model
// responses come back anonymously, tagged by slot only.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var userID *string
	if req.UserID != "" {
		userID = &req.UserID
	}

	resp, err := h.battleService.CreateSession(c.Request.Context(), req.Prompt, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListSessions returns a user's sessions, most recently active first.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	sessions, total, err := h.battleService.ListSessions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"total":    total,
	})
}

// ListBattles returns every battle in a session with its full conversation.
// Voted battles carry the vote; model identities are included since a listed
// battle is either decided or being resumed by its owner.
func (h *SessionHandler) ListBattles(c *gin.Context) {
	sessionID := c.Param("sessionId")

	battles, err := h.battleService.ListBattles(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"battles":    battles,
		"total":      len(battles),
	})
}

// CreateBattle starts an additional battle within an existing session.
func (h *SessionHandler) CreateBattle(c *gin.Context) {
	sessionID := c.Param("sessionId")

	var req models.CreateBattleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.battleService.CreateBattle(c.Request.Context(), sessionID, req.Prompt)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
