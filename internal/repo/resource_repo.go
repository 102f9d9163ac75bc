package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/vakeelhq/vakeel/internal/model"
	"github.com/vakeelhq/vakeel/internal/pkg/dbutil"
)

type ResourceRepo struct {
	db *sql.DB
}

func NewResourceRepo(db *sql.DB) *ResourceRepo {
	return &ResourceRepo{db: db}
}

func (r *ResourceRepo) Create(ctx context.Context, res *model.Resource) error {
	data := map[string]interface{}{
		"id":           res.ID,
		"content":      res.Content,
		"payload_kind": string(res.PayloadKind),
		"ctime":        res.Ctime,
		"mtime":        res.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("resources", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ResourceRepo) Get(ctx context.Context, id string) (*model.Resource, error) {
	where := map[string]interface{}{
		"id": id,
	}
	sqlStr, args, err := builder.BuildSelect("resources", where, []string{"id", "content", "payload_kind", "ctime", "mtime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var res model.Resource
	var kind string
	if err := row.Scan(&res.ID, &res.Content, &kind, &res.Ctime, &res.Mtime); err != nil {
		return nil, err
	}
	res.PayloadKind = model.PayloadKind(kind)
	return &res, nil
}

func (r *ResourceRepo) List(ctx context.Context, limit, offset uint) ([]model.Resource, error) {
	where := map[string]interface{}{
		"_orderby": "ctime desc",
		"_limit":   []uint{offset, limit},
	}
	sqlStr, args, err := builder.BuildSelect("resources", where, []string{"id", "content", "payload_kind", "ctime", "mtime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.Resource
	for rows.Next() {
		var res model.Resource
		var kind string
		if err := rows.Scan(&res.ID, &res.Content, &kind, &res.Ctime, &res.Mtime); err != nil {
			return nil, err
		}
		res.PayloadKind = model.PayloadKind(kind)
		results = append(results, res)
	}
	return results, rows.Err()
}

// Delete removes the resource; its embedding rows go with it through the
// ON DELETE CASCADE constraint.
func (r *ResourceRepo) Delete(ctx context.Context, id string) error {
	where := map[string]interface{}{
		"id": id,
	}
	sqlStr, args, err := builder.BuildDelete("resources", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// ListStale returns resources whose embeddings are missing or older than the
// resource row, candidates for the re-embedding job.
func (r *ResourceRepo) ListStale(ctx context.Context, limit int) ([]model.Resource, error) {
	const query = `
		SELECT r.id, r.content, r.payload_kind, r.ctime, r.mtime
		FROM resources r
		LEFT JOIN (
			SELECT resource_id, MIN(ctime) AS ctime
			FROM embeddings
			GROUP BY resource_id
		) e ON r.id = e.resource_id
		WHERE e.resource_id IS NULL OR r.mtime > e.ctime
		ORDER BY r.mtime ASC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.Resource
	for rows.Next() {
		var res model.Resource
		var kind string
		if err := rows.Scan(&res.ID, &res.Content, &kind, &res.Ctime, &res.Mtime); err != nil {
			return nil, err
		}
		res.PayloadKind = model.PayloadKind(kind)
		results = append(results, res)
	}
	return results, rows.Err()
}
