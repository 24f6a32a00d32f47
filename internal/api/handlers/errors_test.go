package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Chungws/lmarena-clone/internal/llm"
	"github.com/Chungws/lmarena-clone/internal/models"
	"github.com/Chungws/lmarena-clone/internal/service"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{
			name:           "session not found",
			err:            service.ErrSessionNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "battle not found",
			err:            service.ErrBattleNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "wrapped not found",
			err:            fmt.Errorf("lookup: %w", service.ErrBattleNotFound),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid state",
			err:            &service.InvalidStateError{BattleID: "battle_1", Status: models.BattleStatusVoted},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid vote",
			err:            fmt.Errorf("%w: nope", service.ErrInvalidVote),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "dispatch failure",
			err:            &llm.DispatchError{ModelID: "model-a", Attempts: 3, Err: errors.New("timeout")},
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "unknown error",
			err:            errors.New("disk exploded"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)

			respondError(c, tt.err)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestRespondErrorHidesInternalDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	respondError(c, errors.New("pq: connection refused at 10.0.0.5"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}
