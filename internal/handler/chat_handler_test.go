package handler_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/vakeelhq/vakeel/internal/handler"
	"github.com/vakeelhq/vakeel/internal/model"
	"github.com/vakeelhq/vakeel/internal/service"
)

func TestChatStreamsAnswer(t *testing.T) {
	engine, fakes := setupRouter(t)
	fakes.finder.results = []model.SearchResult{
		{ID: "e1", Content: "Asha Rao, Family Law, Mumbai", Metadata: map[string]interface{}{}},
	}
	fakes.generator.chunks = []string{"Asha Rao practices ", "family law in Mumbai."}

	resp := postJSON(t, engine, "/api/v1/chat", `{"messages":[{"role":"user","content":"family lawyer in Mumbai"}]}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Header().Get("Content-Type"), "text/plain")
	require.Equal(t, "Asha Rao practices family law in Mumbai.", resp.Body.String())

	require.Len(t, fakes.generator.prompts, 1)
	require.Contains(t, fakes.generator.prompts[0], "Asha Rao, Family Law, Mumbai")
	require.Contains(t, fakes.generator.prompts[0], "Use ONLY the lawyer records supplied below")
}

func TestChatNoResultsSendsFixedMessage(t *testing.T) {
	engine, fakes := setupRouter(t)
	fakes.finder.results = nil

	resp := postJSON(t, engine, "/api/v1/chat", `{"messages":[{"role":"user","content":"maritime lawyer in Leh"}]}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, service.NoResultsMessage, resp.Body.String())
	require.Empty(t, fakes.generator.prompts, "no-results answer must not reach the generator")
}

func TestChatRejectsInvalidBody(t *testing.T) {
	engine, _ := setupRouter(t)

	resp := postJSON(t, engine, "/api/v1/chat", `not json`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "invalid request body")
}

func TestChatRejectsEmptyMessages(t *testing.T) {
	engine, fakes := setupRouter(t)

	for _, body := range []string{`{"messages":[]}`, `{"messages":[{"role":"user","content":"  "}]}`} {
		resp := postJSON(t, engine, "/api/v1/chat", body)
		require.Equal(t, http.StatusBadRequest, resp.Code, "body: %s", body)
		require.Contains(t, resp.Body.String(), "invalid request")
	}
	require.Empty(t, fakes.finder.queries)
}

// seqGenerator fails the first n stream calls and then streams chunks.
type seqGenerator struct {
	failFirst int
	chunks    []string
	prompts   []string
}

func (s *seqGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return strings.Join(s.chunks, ""), nil
}

func (s *seqGenerator) GenerateStream(ctx context.Context, prompt string, fn func(chunk string) error) error {
	s.prompts = append(s.prompts, prompt)
	if s.failFirst > 0 {
		s.failFirst--
		return errBoom
	}
	for _, chunk := range s.chunks {
		if err := fn(chunk); err != nil {
			return err
		}
	}
	return nil
}

func setupChatRouter(t *testing.T, generator *seqGenerator, finder *fakeFinder) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	api := engine.Group("/api/v1")
	api.POST("/chat", handler.NewChatHandler(service.NewChatService(generator, finder, 0)).Chat)
	return engine
}

func TestChatApologyFallback(t *testing.T) {
	finder := &fakeFinder{results: []model.SearchResult{{ID: "e1", Content: "x"}}}
	generator := &seqGenerator{failFirst: 1, chunks: []string{"Sorry, something went wrong. Please try again."}}
	engine := setupChatRouter(t, generator, finder)

	resp := postJSON(t, engine, "/api/v1/chat", `{"messages":[{"role":"user","content":"lawyer"}]}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "Sorry, something went wrong. Please try again.", resp.Body.String())

	require.Len(t, generator.prompts, 2)
	require.Contains(t, generator.prompts[1], "Apologize briefly")
}

func TestChatApologyFailureReturnsJSONError(t *testing.T) {
	finder := &fakeFinder{results: []model.SearchResult{{ID: "e1", Content: "x"}}}
	generator := &seqGenerator{failFirst: 2}
	engine := setupChatRouter(t, generator, finder)

	resp := postJSON(t, engine, "/api/v1/chat", `{"messages":[{"role":"user","content":"lawyer"}]}`)
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	require.Contains(t, resp.Body.String(), "an unexpected error occurred")
}
