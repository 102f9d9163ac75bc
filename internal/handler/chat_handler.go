package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vakeelhq/vakeel/internal/model"
	"github.com/vakeelhq/vakeel/internal/pkg/errs"
	"github.com/vakeelhq/vakeel/internal/pkg/response"
	"github.com/vakeelhq/vakeel/internal/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatRequest struct {
	Messages []model.ChatMessage `json:"messages"`
}

// Chat streams the composed answer as plain text. Failures before the first
// fragment fall back to a generated apology, then to a raw JSON error if the
// apology itself cannot be generated.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", "")
		return
	}

	streamed := false
	sink := func(chunk string) error {
		if !streamed {
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.Writer.WriteHeader(http.StatusOK)
			streamed = true
		}
		if _, err := c.Writer.WriteString(chunk); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	}

	err := h.chat.Answer(c.Request.Context(), req.Messages, sink)
	if err == nil {
		return
	}
	logger := logutil.GetLogger(c.Request.Context())
	if streamed {
		// Headers are gone; nothing left to do but stop the stream.
		logger.Error("chat stream aborted", zap.Error(err))
		return
	}
	if errs.IsValidation(err) {
		response.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	logger.Error("chat failed, attempting apology fallback", zap.Error(err))
	if fallbackErr := h.chat.Apologize(c.Request.Context(), err.Error(), sink); fallbackErr != nil {
		logger.Error("apology fallback failed", zap.Error(fallbackErr))
		if !streamed {
			response.Error(c, http.StatusInternalServerError, "an unexpected error occurred", err.Error())
		}
	}
}
