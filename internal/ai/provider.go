package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Task types passed through to the embedding model so document and query
// vectors land in compatible spaces.
const (
	TaskTypeRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskTypeRetrievalQuery    = "RETRIEVAL_QUERY"
)

type IProvider interface {
	Name() string
	Generate(ctx context.Context, model string, prompt string) (string, error)
	// GenerateStream calls fn once per streamed text fragment; returning an
	// error from fn aborts the stream.
	GenerateStream(ctx context.Context, model string, prompt string, fn func(chunk string) error) error
	// Embed returns a vector of exactly dimensions values when the backend
	// supports pinning the output dimensionality.
	Embed(ctx context.Context, model string, text string, taskType string, dimensions int) ([]float32, error)
}

type IGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateStream(ctx context.Context, prompt string, fn func(chunk string) error) error
}

type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
	Dimensions() int
}

type generator struct {
	provider IProvider
	model    string
}

func NewGenerator(p IProvider, model string) IGenerator {
	return &generator{provider: p, model: model}
}

func (g *generator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.provider.Generate(ctx, g.model, prompt)
}

func (g *generator) GenerateStream(ctx context.Context, prompt string, fn func(chunk string) error) error {
	return g.provider.GenerateStream(ctx, g.model, prompt, fn)
}

type embedder struct {
	provider   IProvider
	model      string
	dimensions int
}

func NewEmbedder(p IProvider, model string, dimensions int) IEmbedder {
	return &embedder{provider: p, model: model, dimensions: dimensions}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return e.provider.Embed(ctx, e.model, text, taskType, e.dimensions)
}

func (e *embedder) ModelName() string {
	return e.model
}

func (e *embedder) Dimensions() int {
	return e.dimensions
}

type ProviderFactory func(args interface{}) (IProvider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
