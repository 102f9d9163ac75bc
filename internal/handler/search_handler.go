package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vakeelhq/vakeel/internal/model"
	"github.com/vakeelhq/vakeel/internal/pkg/response"
	"github.com/vakeelhq/vakeel/internal/service"
)

type SearchHandler struct {
	retriever service.RelevantFinder
}

func NewSearchHandler(retriever service.RelevantFinder) *SearchHandler {
	return &SearchHandler{retriever: retriever}
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	Results []model.SearchResult `json:"results"`
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "query is required and must be a string", "")
		return
	}
	if req.Query == "" {
		response.Error(c, http.StatusBadRequest, "query is required and must be a string", "")
		return
	}
	results, err := h.retriever.FindRelevantContent(c.Request.Context(), req.Query)
	if err != nil {
		handleError(c, err)
		return
	}
	logutil.GetLogger(c.Request.Context()).Info("search completed",
		zap.String("query", req.Query),
		zap.Int("results", len(results)),
	)
	if results == nil {
		results = []model.SearchResult{}
	}
	response.Success(c, searchResponse{Results: results})
}
