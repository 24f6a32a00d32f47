package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Chungws/lmarena-clone/internal/llm"
	"github.com/Chungws/lmarena-clone/internal/service"
)

// respondError maps service errors onto HTTP statuses: missing resources to
// 404, state and input violations to 400, upstream model failures to 502,
// everything else to 500.
func respondError(c *gin.Context, err error) {
	var stateErr *service.InvalidStateError
	var dispatchErr *llm.DispatchError

	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrBattleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.As(err, &stateErr),
		errors.Is(err, service.ErrInvalidVote):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.As(err, &dispatchErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Model backend unavailable", "detail": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
