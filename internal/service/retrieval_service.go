package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vakeelhq/vakeel/internal/ai"
	"github.com/vakeelhq/vakeel/internal/model"
	"github.com/vakeelhq/vakeel/internal/pkg/errs"
)

type QueryEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
}

type VectorSearcher interface {
	Search(ctx context.Context, queryVec []float32, floor float64, limit int) ([]model.SearchResult, error)
}

// RetrievalService turns a free-text query into a bounded, similarity-ranked
// result set: validate, embed, search, shape.
type RetrievalService struct {
	embedder QueryEmbedder
	store    VectorSearcher
	floor    float64
	limit    int
}

func NewRetrievalService(embedder QueryEmbedder, store VectorSearcher, floor float64, limit int) *RetrievalService {
	return &RetrievalService{
		embedder: embedder,
		store:    store,
		floor:    floor,
		limit:    limit,
	}
}

// FindRelevantContent returns the shaped results for a query, best match
// first. An empty or whitespace-only query is a deliberate no-results
// outcome, not an error. Embedding and storage failures propagate; swallowing
// them here would read downstream as a confident "no lawyers found".
func (s *RetrievalService) FindRelevantContent(ctx context.Context, query string) ([]model.SearchResult, error) {
	logger := logutil.GetLogger(ctx)
	if strings.TrimSpace(query) == "" {
		logger.Warn("empty query, returning no results")
		return []model.SearchResult{}, nil
	}

	queryVec, err := s.embedder.Embed(ctx, query, ai.TaskTypeRetrievalQuery)
	if err != nil {
		logger.Error("failed to embed query", zap.Error(err))
		return nil, fmt.Errorf("embed query: %w", err)
	}

	raw, err := s.store.Search(ctx, queryVec, s.floor, s.limit)
	if err != nil {
		logger.Error("vector search failed", zap.Error(err))
		if errs.IsDimensionMismatch(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: vector search: %w", errs.ErrStorage, err)
	}

	results := make([]model.SearchResult, 0, len(raw))
	for _, item := range raw {
		results = append(results, shapeResult(item))
	}
	logger.Debug("retrieval completed",
		zap.Int("results", len(results)),
		zap.Float64("floor", s.floor),
	)
	return results, nil
}

// shapeResult parses JSON-encoded profile content into a readable content
// field plus structured metadata. Parse failure degrades to the raw string
// with empty metadata; it never propagates.
func shapeResult(item model.SearchResult) model.SearchResult {
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(item.Content), &parsed); err != nil || parsed == nil {
		item.Metadata = map[string]interface{}{}
		return item
	}
	item.Metadata = parsed
	if content, ok := parsed["content"].(string); ok && content != "" {
		item.Content = content
	} else if name, ok := parsed["name"].(string); ok && name != "" {
		item.Content = name
	} else if name, ok := parsed["Name"].(string); ok && name != "" {
		item.Content = name
	}
	return item
}
