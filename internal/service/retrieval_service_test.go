package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vakeelhq/vakeel/internal/model"
	"github.com/vakeelhq/vakeel/internal/pkg/errs"
)

type fakeQueryEmbedder struct {
	vec []float32
	err error
}

func (f *fakeQueryEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return f.vec, f.err
}

type fakeSearcher struct {
	results   []model.SearchResult
	err       error
	gotVec    []float32
	gotFloor  float64
	gotLimit  int
	callCount int
}

func (f *fakeSearcher) Search(ctx context.Context, queryVec []float32, floor float64, limit int) ([]model.SearchResult, error) {
	f.callCount++
	f.gotVec = queryVec
	f.gotFloor = floor
	f.gotLimit = limit
	return f.results, f.err
}

func TestFindRelevantContentEmptyQuery(t *testing.T) {
	searcher := &fakeSearcher{}
	svc := NewRetrievalService(&fakeQueryEmbedder{vec: []float32{1}}, searcher, 0.25, 6)

	for _, query := range []string{"", "   ", "\t\n"} {
		results, err := svc.FindRelevantContent(context.Background(), query)
		require.NoError(t, err)
		require.Empty(t, results)
	}
	require.Zero(t, searcher.callCount)
}

func TestFindRelevantContentPropagatesEmbedFailure(t *testing.T) {
	svc := NewRetrievalService(
		&fakeQueryEmbedder{err: errs.ErrEmbedding},
		&fakeSearcher{},
		0.25, 6,
	)

	_, err := svc.FindRelevantContent(context.Background(), "divorce lawyer")
	require.ErrorIs(t, err, errs.ErrEmbedding)
}

func TestFindRelevantContentWrapsStorageFailure(t *testing.T) {
	svc := NewRetrievalService(
		&fakeQueryEmbedder{vec: []float32{1, 2}},
		&fakeSearcher{err: errors.New("connection refused")},
		0.25, 6,
	)

	_, err := svc.FindRelevantContent(context.Background(), "divorce lawyer")
	require.ErrorIs(t, err, errs.ErrStorage)
	require.Contains(t, err.Error(), "connection refused")
}

func TestFindRelevantContentKeepsDimensionMismatchKind(t *testing.T) {
	svc := NewRetrievalService(
		&fakeQueryEmbedder{vec: []float32{1, 2}},
		&fakeSearcher{err: errs.ErrDimensionMismatch},
		0.25, 6,
	)

	_, err := svc.FindRelevantContent(context.Background(), "divorce lawyer")
	require.ErrorIs(t, err, errs.ErrDimensionMismatch)
	require.NotErrorIs(t, err, errs.ErrStorage)
}

func TestFindRelevantContentAppliesPolicy(t *testing.T) {
	searcher := &fakeSearcher{}
	svc := NewRetrievalService(&fakeQueryEmbedder{vec: []float32{0.5, 0.5}}, searcher, 0.25, 6)

	_, err := svc.FindRelevantContent(context.Background(), "divorce lawyer in Mumbai")
	require.NoError(t, err)
	require.Equal(t, []float32{0.5, 0.5}, searcher.gotVec)
	require.Equal(t, 0.25, searcher.gotFloor)
	require.Equal(t, 6, searcher.gotLimit)
}

func TestFindRelevantContentShapesJSONContent(t *testing.T) {
	searcher := &fakeSearcher{results: []model.SearchResult{
		{
			ID:         "1",
			Content:    `{"Name":"Asha Rao","Location":"Mumbai","Practice Areas":"Family Law"}`,
			Similarity: 0.91,
		},
		{
			ID:         "2",
			Content:    `{"content":"Profile summary","Location":"Delhi"}`,
			Similarity: 0.74,
		},
	}}
	svc := NewRetrievalService(&fakeQueryEmbedder{vec: []float32{1}}, searcher, 0.25, 6)

	results, err := svc.FindRelevantContent(context.Background(), "divorce lawyer in Mumbai")
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Equal(t, "Asha Rao", results[0].Content)
	require.Equal(t, "Mumbai", results[0].Metadata["Location"])
	require.Equal(t, 0.91, results[0].Similarity)

	require.Equal(t, "Profile summary", results[1].Content)
	require.Equal(t, "Delhi", results[1].Metadata["Location"])
}

func TestFindRelevantContentParseFailureDegradesGracefully(t *testing.T) {
	searcher := &fakeSearcher{results: []model.SearchResult{
		{ID: "1", Content: "not json at all", Similarity: 0.5},
	}}
	svc := NewRetrievalService(&fakeQueryEmbedder{vec: []float32{1}}, searcher, 0.25, 6)

	results, err := svc.FindRelevantContent(context.Background(), "anything")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "not json at all", results[0].Content)
	require.NotNil(t, results[0].Metadata)
	require.Empty(t, results[0].Metadata)
}

func TestFindRelevantContentPreservesOrdering(t *testing.T) {
	searcher := &fakeSearcher{results: []model.SearchResult{
		{ID: "mumbai", Content: `{"Name":"Mumbai Lawyer"}`, Similarity: 0.88},
		{ID: "pune", Content: `{"Name":"Pune Lawyer"}`, Similarity: 0.61},
		{ID: "delhi", Content: `{"Name":"Delhi Lawyer"}`, Similarity: 0.40},
	}}
	svc := NewRetrievalService(&fakeQueryEmbedder{vec: []float32{1}}, searcher, 0.25, 6)

	results, err := svc.FindRelevantContent(context.Background(), "divorce lawyer in Mumbai")
	require.NoError(t, err)
	require.Equal(t, "mumbai", results[0].ID)
	for i := 1; i < len(results); i++ {
		require.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
	}
	require.Greater(t, results[0].Similarity, 0.25)
}
