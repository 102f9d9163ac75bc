package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vakeelhq/vakeel/internal/pkg/errs"
	"github.com/vakeelhq/vakeel/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get("request_id")
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errs.IsValidation(err):
		response.Error(c, http.StatusBadRequest, "invalid request", err.Error())
	case errs.IsEmbedding(err):
		response.Error(c, http.StatusInternalServerError, "embedding failed", err.Error())
	case errs.IsDimensionMismatch(err):
		response.Error(c, http.StatusInternalServerError, "embedding dimension mismatch", err.Error())
	case errs.IsStorage(err):
		response.Error(c, http.StatusInternalServerError, "storage failure", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "internal error", err.Error())
	}
}
