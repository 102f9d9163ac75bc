package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

type geminiConfig struct {
	APIKey string `json:"api_key"`
}

// geminiProvider holds one process-wide client, constructed at startup and
// shared across requests.
type geminiProvider struct {
	client *genai.Client
}

func (p *geminiProvider) Name() string {
	return "gemini"
}

func (p *geminiProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	if p.client == nil {
		return "", ErrUnavailable
	}
	resp, err := p.client.Models.GenerateContent(
		ctx,
		model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

func (p *geminiProvider) GenerateStream(ctx context.Context, model string, prompt string, fn func(chunk string) error) error {
	if p.client == nil {
		return ErrUnavailable
	}
	stream := p.client.Models.GenerateContentStream(
		ctx,
		model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	for resp, err := range stream {
		if err != nil {
			return err
		}
		text := resp.Text()
		if text == "" {
			continue
		}
		if err := fn(text); err != nil {
			return err
		}
	}
	return nil
}

func (p *geminiProvider) Embed(ctx context.Context, model string, text string, taskType string, dimensions int) ([]float32, error) {
	if p.client == nil {
		return nil, ErrUnavailable
	}
	config := &genai.EmbedContentConfig{}
	if taskType != "" {
		config.TaskType = taskType
	}
	if dimensions > 0 {
		dim := int32(dimensions)
		config.OutputDimensionality = &dim
	}
	resp, err := p.client.Models.EmbedContent(
		ctx,
		model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: text}}}},
		config,
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding values returned")
	}
	return resp.Embeddings[0].Values, nil
}

func createGeminiFactory(args interface{}) (IProvider, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return &geminiProvider{}, nil
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	return &geminiProvider{client: client}, nil
}

func init() {
	Register("gemini", createGeminiFactory)
}
