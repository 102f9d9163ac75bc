package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vakeelhq/vakeel/internal/ai"
	"github.com/vakeelhq/vakeel/internal/model"
	"github.com/vakeelhq/vakeel/internal/pkg/errs"
)

type RelevantFinder interface {
	FindRelevantContent(ctx context.Context, query string) ([]model.SearchResult, error)
}

// ChatService is the answer composer: it renders retrieved records into a
// grounded prompt and streams the generated answer.
type ChatService struct {
	generator ai.IGenerator
	retriever RelevantFinder
	timeout   time.Duration
}

func NewChatService(generator ai.IGenerator, retriever RelevantFinder, timeout time.Duration) *ChatService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChatService{generator: generator, retriever: retriever, timeout: timeout}
}

// NoResultsMessage is sent verbatim when retrieval comes back empty. Routing
// an empty result set through the generator invites invented matches; a fixed
// message cannot hallucinate.
const NoResultsMessage = "No lawyers found matching your criteria. Please try a different search query."

// Answer retrieves records for the last message and streams a grounded answer
// through sink. Empty retrieval produces the deterministic no-results message.
func (s *ChatService) Answer(ctx context.Context, messages []model.ChatMessage, sink func(chunk string) error) error {
	if len(messages) == 0 {
		return fmt.Errorf("%w: no messages provided", errs.ErrValidation)
	}
	last := messages[len(messages)-1]
	if strings.TrimSpace(last.Content) == "" {
		return fmt.Errorf("%w: no message content provided", errs.ErrValidation)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("query", truncate(last.Content, 100)))

	results, err := s.retriever.FindRelevantContent(ctx, last.Content)
	if err != nil {
		return fmt.Errorf("search lawyers: %w", err)
	}
	logger.Info("chat retrieval done", zap.Int("results", len(results)))

	if len(results) == 0 {
		return sink(NoResultsMessage)
	}

	prompt := buildAnswerPrompt(last.Content, results)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.generator.GenerateStream(ctx, prompt, sink)
}

// Apologize streams a best-effort generated apology. Second tier of the chat
// error fallback; if this also fails the caller degrades to a raw JSON error.
func (s *ChatService) Apologize(ctx context.Context, reason string, sink func(chunk string) error) error {
	prompt := fmt.Sprintf(
		"Apologize briefly to the user: you encountered an error (%s) while searching for lawyers. Ask them to try again or rephrase their question. Keep it to two sentences.",
		reason,
	)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.generator.GenerateStream(ctx, prompt, sink)
}

func buildAnswerPrompt(query string, results []model.SearchResult) string {
	blocks := make([]string, 0, len(results))
	for _, item := range results {
		blocks = append(blocks, formatRecordBlock(item))
	}
	return fmt.Sprintf(`Based on the following lawyer information, provide a helpful response to: %q

Use ONLY the lawyer records supplied below. Do not invent lawyers or details that are not listed.

Lawyer Information:
%s

Format the response in a clear, structured way with all relevant details about the lawyers that match the query.`,
		query, strings.Join(blocks, "\n\n"))
}

func formatRecordBlock(item model.SearchResult) string {
	meta := item.Metadata
	if len(meta) == 0 {
		return item.Content + "\n-------------------"
	}
	return fmt.Sprintf(`Name: %s
Location: %s
Experience: %s years
Languages: %s
Practice Areas: %s
About: %s
Court: %s
Profile: %s
-------------------`,
		metaField(meta, "Name", "name"),
		metaField(meta, "Location", "location"),
		metaField(meta, "Experience", "experience"),
		metaField(meta, "Languages", "languages"),
		metaField(meta, "Practice Areas", "practiceAreas"),
		metaField(meta, "About", "about"),
		metaField(meta, "Court", "court"),
		metaField(meta, "Profile Link", "profileLink"),
	)
}

func metaField(meta map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if value, ok := meta[key].(string); ok && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return "N/A"
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
