package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Chungws/lmarena-clone/internal/models"
	"github.com/Chungws/lmarena-clone/internal/service"
)

type fakeWorkerStatusReader struct {
	status *models.WorkerStatus
	err    error

	requestedName string
}

func (f *fakeWorkerStatusReader) FindByName(_ context.Context, workerName string) (*models.WorkerStatus, error) {
	f.requestedName = workerName
	return f.status, f.err
}

func TestWorkerStatusHandler_GetAggregatorStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	errMsg := "2 of 2 votes failed"
	status := &models.WorkerStatus{
		WorkerName:     service.AggregatorWorkerName,
		LastRunAt:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Status:         models.WorkerOutcomeFailed,
		VotesProcessed: 0,
		ErrorMessage:   &errMsg,
	}

	reader := &fakeWorkerStatusReader{status: status}
	handler := NewWorkerStatusHandler(reader)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/worker-status", nil)

	handler.GetAggregatorStatus(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.AggregatorWorkerName, reader.requestedName)
	assert.Contains(t, rec.Body.String(), "elo_aggregator")
	assert.Contains(t, rec.Body.String(), "2 of 2 votes failed")
}

func TestWorkerStatusHandler_GetAggregatorStatusNoRuns(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewWorkerStatusHandler(&fakeWorkerStatusReader{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/worker-status", nil)

	handler.GetAggregatorStatus(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWorkerStatusHandler_GetAggregatorStatusStoreError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewWorkerStatusHandler(&fakeWorkerStatusReader{err: errors.New("pq: connection refused")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/worker-status", nil)

	handler.GetAggregatorStatus(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}
