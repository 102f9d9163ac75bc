package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/vakeelhq/vakeel/internal/pkg/response"
)

type EmbeddingCounter interface {
	Count(ctx context.Context) (int64, error)
}

type HealthHandler struct {
	embeddings EmbeddingCounter
}

func NewHealthHandler(embeddings EmbeddingCounter) *HealthHandler {
	return &HealthHandler{embeddings: embeddings}
}

func (h *HealthHandler) Health(c *gin.Context) {
	count, err := h.embeddings.Count(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "ok", "embeddings": count})
}
