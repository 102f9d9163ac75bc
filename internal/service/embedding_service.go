package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vakeelhq/vakeel/internal/ai"
	"github.com/vakeelhq/vakeel/internal/pkg/errs"
)

// EmbeddingService fronts the model provider with input normalization, a
// strict dimensionality check, and a finite per-call timeout.
type EmbeddingService struct {
	embedder ai.IEmbedder
	timeout  time.Duration
}

func NewEmbeddingService(embedder ai.IEmbedder, timeout time.Duration) *EmbeddingService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &EmbeddingService{embedder: embedder, timeout: timeout}
}

// EmbeddedChunk pairs a source text with its vector, preserving the pairing
// across batch calls.
type EmbeddedChunk struct {
	Content   string
	Embedding []float32
}

func (s *EmbeddingService) Dimensions() int {
	return s.embedder.Dimensions()
}

func (s *EmbeddingService) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	input := strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if input == "" {
		return nil, fmt.Errorf("%w: empty input for embedding", errs.ErrEmbedding)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	vec, err := s.embedder.Embed(ctx, input, taskType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrEmbedding, err)
	}
	// A zero-length vector would silently match nothing downstream; treat it
	// as a model failure, not as "no embedding".
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: model returned empty vector", errs.ErrEmbedding)
	}
	if want := s.embedder.Dimensions(); want > 0 && len(vec) != want {
		return nil, fmt.Errorf("%w: model returned %d values, expected %d", errs.ErrDimensionMismatch, len(vec), want)
	}
	return vec, nil
}

// EmbedBatch embeds every text concurrently and returns vectors in input
// order. All-or-nothing: any member failure fails the batch, and in-flight
// siblings are cancelled rather than left to finish wastefully.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string, taskType string) ([]EmbeddedChunk, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts to embed", errs.ErrEmbedding)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]EmbeddedChunk, len(texts))
	errCh := make(chan error, len(texts))
	for i, text := range texts {
		go func(idx int, content string) {
			vec, err := s.Embed(ctx, content, taskType)
			if err != nil {
				errCh <- fmt.Errorf("embed chunk %d: %w", idx, err)
				return
			}
			results[idx] = EmbeddedChunk{Content: content, Embedding: vec}
			errCh <- nil
		}(i, text)
	}
	var firstErr error
	for range texts {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
			cancel()
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
