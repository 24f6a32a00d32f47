package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Chungws/lmarena-clone/internal/registry"
)

type ModelHandler struct {
	registry *registry.Registry
}

func NewModelHandler(reg *registry.Registry) *ModelHandler {
	return &ModelHandler{
		registry: reg,
	}
}

// ListModels returns the active models available for battles. Endpoint
// details and credentials are never exposed.
func (h *ModelHandler) ListModels(c *gin.Context) {
	models := h.registry.List()

	c.JSON(http.StatusOK, gin.H{
		"models": models,
		"total":  len(models),
	})
}
