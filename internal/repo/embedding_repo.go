package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/vakeelhq/vakeel/internal/model"
	"github.com/vakeelhq/vakeel/internal/pkg/errs"
)

// EmbeddingRepo is the vector store. Every vector that crosses into it must
// match the configured dimensionality; similarity search runs in SQL against
// the HNSW cosine index.
type EmbeddingRepo struct {
	db         *sql.DB
	dimensions int
}

func NewEmbeddingRepo(db *sql.DB, dimensions int) *EmbeddingRepo {
	return &EmbeddingRepo{db: db, dimensions: dimensions}
}

func (r *EmbeddingRepo) checkDimensions(vec []float32) error {
	if len(vec) != r.dimensions {
		return fmt.Errorf("%w: got %d values, store expects %d", errs.ErrDimensionMismatch, len(vec), r.dimensions)
	}
	return nil
}

func (r *EmbeddingRepo) Upsert(ctx context.Context, emb *model.Embedding) error {
	if err := r.checkDimensions(emb.Embedding); err != nil {
		return err
	}
	const query = `
		INSERT INTO embeddings (id, resource_id, content, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			resource_id = EXCLUDED.resource_id,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			ctime = EXCLUDED.ctime
	`
	_, err := r.db.ExecContext(ctx, query,
		emb.ID,
		emb.ResourceID,
		emb.Content,
		pgvector.NewVector(emb.Embedding),
		emb.Ctime,
	)
	return err
}

func (r *EmbeddingRepo) DeleteByResource(ctx context.Context, resourceID string) error {
	const query = `DELETE FROM embeddings WHERE resource_id = $1`
	_, err := r.db.ExecContext(ctx, query, resourceID)
	return err
}

// ReplaceForResource swaps out all embedding rows for one resource inside a
// single transaction, so a search never observes old and new rows together.
func (r *EmbeddingRepo) ReplaceForResource(ctx context.Context, resourceID string, embs []*model.Embedding) error {
	for _, emb := range embs {
		if err := r.checkDimensions(emb.Embedding); err != nil {
			return err
		}
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings WHERE resource_id = $1`, resourceID); err != nil {
		return err
	}
	const insert = `
		INSERT INTO embeddings (id, resource_id, content, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, emb := range embs {
		if _, err := tx.ExecContext(ctx, insert,
			emb.ID,
			emb.ResourceID,
			emb.Content,
			pgvector.NewVector(emb.Embedding),
			emb.Ctime,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Search returns rows whose cosine similarity to the query vector exceeds
// floor, best first, at most limit of them. pgvector's <=> operator is cosine
// distance, so similarity is 1 - distance.
func (r *EmbeddingRepo) Search(ctx context.Context, queryVec []float32, floor float64, limit int) ([]model.SearchResult, error) {
	if err := r.checkDimensions(queryVec); err != nil {
		return nil, err
	}
	const query = `
		SELECT id, content, 1 - (embedding <=> $1) AS similarity
		FROM embeddings
		WHERE 1 - (embedding <=> $1) > $2
		ORDER BY similarity DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(queryVec), floor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.SearchResult
	for rows.Next() {
		var item model.SearchResult
		if err := rows.Scan(&item.ID, &item.Content, &item.Similarity); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

func (r *EmbeddingRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
