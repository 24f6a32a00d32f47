package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Chungws/lmarena-clone/internal/models"
	"github.com/Chungws/lmarena-clone/internal/service"
)

type WorkerStatusReader interface {
	FindByName(ctx context.Context, workerName string) (*models.WorkerStatus, error)
}

type WorkerStatusHandler struct {
	statuses WorkerStatusReader
}

func NewWorkerStatusHandler(statuses WorkerStatusReader) *WorkerStatusHandler {
	return &WorkerStatusHandler{
		statuses: statuses,
	}
}

// GetAggregatorStatus reports the last aggregation run so operators can see
// when ratings last moved and why a run failed.
func (h *WorkerStatusHandler) GetAggregatorStatus(c *gin.Context) {
	status, err := h.statuses.FindByName(c.Request.Context(), service.AggregatorWorkerName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get worker status",
		})
		return
	}

	if status == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "no aggregation run recorded yet",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"worker_name":     status.WorkerName,
		"last_run_at":     status.LastRunAt,
		"status":          status.Status,
		"votes_processed": status.VotesProcessed,
		"error_message":   status.ErrorMessage,
	})
}
