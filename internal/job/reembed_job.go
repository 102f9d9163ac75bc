package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vakeelhq/vakeel/internal/model"
)

type StaleLister interface {
	ListStale(ctx context.Context, limit int) ([]model.Resource, error)
}

type Reembedder interface {
	ReembedResource(ctx context.Context, resource *model.Resource) error
}

// ReembedJob regenerates embeddings for resources whose vectors are missing
// or older than the resource row. Keeps the vector store converging after a
// dimension or model change without a manual backfill.
type ReembedJob struct {
	ingest    Reembedder
	resources StaleLister
	batch     int
}

func NewReembedJob(ingest Reembedder, resources StaleLister, batch int) *ReembedJob {
	if batch <= 0 {
		batch = 20
	}
	return &ReembedJob{ingest: ingest, resources: resources, batch: batch}
}

func (j *ReembedJob) Name() string {
	return "reembed"
}

func (j *ReembedJob) Run(ctx context.Context) error {
	stale, err := j.resources.ListStale(ctx, j.batch)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}
	logger := logutil.GetLogger(ctx)
	logger.Info("reembedding stale resources", zap.Int("count", len(stale)))
	for i := range stale {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := &stale[i]
		if err := j.ingest.ReembedResource(ctx, res); err != nil {
			logger.Error("reembed resource failed", zap.String("resource_id", res.ID), zap.Error(err))
			continue
		}
		logger.Debug("resource reembedded", zap.String("resource_id", res.ID))
	}
	return nil
}
