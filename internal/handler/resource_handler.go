package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vakeelhq/vakeel/internal/model"
	"github.com/vakeelhq/vakeel/internal/pkg/response"
)

type ResourceReader interface {
	Get(ctx context.Context, id string) (*model.Resource, error)
	List(ctx context.Context, limit, offset uint) ([]model.Resource, error)
}

type ResourceDeleter interface {
	DeleteResource(ctx context.Context, id string) error
}

// ResourceHandler is the admin surface over stored profiles: inspect what was
// ingested and remove records, with their embedding rows cascading away.
type ResourceHandler struct {
	resources ResourceReader
	ingest    ResourceDeleter
}

func NewResourceHandler(resources ResourceReader, ingest ResourceDeleter) *ResourceHandler {
	return &ResourceHandler{resources: resources, ingest: ingest}
}

type listResourcesResponse struct {
	Resources []model.Resource `json:"resources"`
}

func (h *ResourceHandler) List(c *gin.Context) {
	limit, err := strconv.ParseUint(c.DefaultQuery("limit", "50"), 10, 32)
	if err != nil || limit == 0 || limit > 200 {
		response.Error(c, http.StatusBadRequest, "limit must be between 1 and 200", "")
		return
	}
	offset, err := strconv.ParseUint(c.DefaultQuery("offset", "0"), 10, 32)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "offset must be a non-negative integer", "")
		return
	}
	resources, err := h.resources.List(c.Request.Context(), uint(limit), uint(offset))
	if err != nil {
		handleError(c, err)
		return
	}
	if resources == nil {
		resources = []model.Resource{}
	}
	response.Success(c, listResourcesResponse{Resources: resources})
}

func (h *ResourceHandler) Get(c *gin.Context) {
	id := c.Param("id")
	resource, err := h.resources.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(c, http.StatusNotFound, "resource not found", "")
			return
		}
		handleError(c, err)
		return
	}
	response.Success(c, resource)
}

func (h *ResourceHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.ingest.DeleteResource(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	logutil.GetLogger(c.Request.Context()).Info("resource deleted", zap.String("resource_id", id))
	response.Success(c, gin.H{"status": "deleted", "id": id})
}
