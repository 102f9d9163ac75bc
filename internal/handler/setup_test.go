package handler_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/vakeelhq/vakeel/internal/ai"
	"github.com/vakeelhq/vakeel/internal/handler"
	"github.com/vakeelhq/vakeel/internal/model"
	"github.com/vakeelhq/vakeel/internal/service"
)

type fakeFinder struct {
	results []model.SearchResult
	err     error
	queries []string
}

func (f *fakeFinder) FindRelevantContent(ctx context.Context, query string) ([]model.SearchResult, error) {
	f.queries = append(f.queries, query)
	return f.results, f.err
}

type stubGenerator struct {
	chunks    []string
	streamErr error
	prompts   []string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.streamErr != nil {
		return "", s.streamErr
	}
	var out string
	for _, chunk := range s.chunks {
		out += chunk
	}
	return out, nil
}

func (s *stubGenerator) GenerateStream(ctx context.Context, prompt string, fn func(chunk string) error) error {
	s.prompts = append(s.prompts, prompt)
	if s.streamErr != nil {
		return s.streamErr
	}
	for _, chunk := range s.chunks {
		if err := fn(chunk); err != nil {
			return err
		}
	}
	return nil
}

var _ ai.IGenerator = (*stubGenerator)(nil)

type fakeCounter struct {
	count int64
	err   error
}

func (f *fakeCounter) Count(ctx context.Context) (int64, error) {
	return f.count, f.err
}

type fakeResources struct {
	byID    map[string]*model.Resource
	listed  []model.Resource
	listErr error
	deleted []string
	delErr  error
}

func (f *fakeResources) Get(ctx context.Context, id string) (*model.Resource, error) {
	if res, ok := f.byID[id]; ok {
		return res, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeResources) List(ctx context.Context, limit, offset uint) ([]model.Resource, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listed, nil
}

func (f *fakeResources) DeleteResource(ctx context.Context, id string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type routerFakes struct {
	finder    *fakeFinder
	generator *stubGenerator
	counter   *fakeCounter
	resources *fakeResources
}

func setupRouter(t *testing.T) (*gin.Engine, *routerFakes) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fakes := &routerFakes{
		finder:    &fakeFinder{},
		generator: &stubGenerator{},
		counter:   &fakeCounter{},
		resources: &fakeResources{byID: make(map[string]*model.Resource)},
	}
	engine := gin.New()
	api := engine.Group("/api/v1")
	handler.RegisterRoutes(api, handler.RouterDeps{
		Search:    handler.NewSearchHandler(fakes.finder),
		Chat:      handler.NewChatHandler(service.NewChatService(fakes.generator, fakes.finder, 0)),
		Health:    handler.NewHealthHandler(fakes.counter),
		Resources: handler.NewResourceHandler(fakes.resources, fakes.resources),
	})
	return engine, fakes
}

var errBoom = errors.New("boom")
