package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vakeelhq/vakeel/internal/ai"
	"github.com/vakeelhq/vakeel/internal/model"
	"github.com/vakeelhq/vakeel/internal/pkg/errs"
)

// profileFields is the canonical field order for the synthesized profile
// summary that gets chunked and embedded.
var profileFields = []string{
	"Name",
	"Location",
	"Experience",
	"Languages",
	"Practice Areas",
	"About",
	"Court",
	"Profile Link",
}

type ResourceStore interface {
	Create(ctx context.Context, res *model.Resource) error
	Delete(ctx context.Context, id string) error
}

type EmbeddingReplacer interface {
	ReplaceForResource(ctx context.Context, resourceID string, embs []*model.Embedding) error
}

type IngestService struct {
	resources  ResourceStore
	embeddings EmbeddingReplacer
	embedder   *EmbeddingService
	chunker    *ai.Chunker
	batchSize  int
}

func NewIngestService(
	resources ResourceStore,
	embeddings EmbeddingReplacer,
	embedder *EmbeddingService,
	chunker *ai.Chunker,
	batchSize int,
) *IngestService {
	if batchSize <= 0 {
		batchSize = 5
	}
	return &IngestService{
		resources:  resources,
		embeddings: embeddings,
		embedder:   embedder,
		chunker:    chunker,
		batchSize:  batchSize,
	}
}

type ImportStats struct {
	Total    int
	Imported int
	Failed   int
}

// ImportCSV ingests every row of a header-keyed CSV file. Rows run in batches
// of batchSize concurrent records; a failed row is logged and skipped so one
// bad profile does not abort the import.
func (s *IngestService) ImportCSV(ctx context.Context, path string) (ImportStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return ImportStats{}, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	records, err := readCSVRecords(file)
	if err != nil {
		return ImportStats{}, fmt.Errorf("parse csv: %w", err)
	}
	logger := logutil.GetLogger(ctx)
	logger.Info("csv loaded", zap.String("path", path), zap.Int("records", len(records)))

	stats := ImportStats{Total: len(records)}
	var mu sync.Mutex
	for start := 0; start < len(records); start += s.batchSize {
		end := start + s.batchSize
		if end > len(records) {
			end = len(records)
		}
		var wg sync.WaitGroup
		for _, record := range records[start:end] {
			wg.Add(1)
			go func(rec map[string]string) {
				defer wg.Done()
				if err := s.IngestRecord(ctx, rec); err != nil {
					logger.Error("record ingest failed",
						zap.String("name", rec["Name"]),
						zap.Error(err),
					)
					mu.Lock()
					stats.Failed++
					mu.Unlock()
					return
				}
				mu.Lock()
				stats.Imported++
				mu.Unlock()
			}(record)
		}
		wg.Wait()
		if err := ctx.Err(); err != nil {
			return stats, err
		}
	}
	logger.Info("import finished",
		zap.Int("total", stats.Total),
		zap.Int("imported", stats.Imported),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

// IngestRecord stores one structured record as a resource plus its embedding
// rows. The embedding rows are written in a single transaction after every
// chunk embedded successfully, so a partial failure leaves no vectors behind.
func (s *IngestService) IngestRecord(ctx context.Context, record map[string]string) error {
	if len(record) == 0 {
		return fmt.Errorf("%w: empty record", errs.ErrValidation)
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: encode record: %w", errs.ErrValidation, err)
	}
	summary := synthesizeProfileText(record)
	embedded, err := s.embedChunks(ctx, summary)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	resource := &model.Resource{
		ID:          newID(),
		Content:     string(payload),
		PayloadKind: model.PayloadKindJSON,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.resources.Create(ctx, resource); err != nil {
		return fmt.Errorf("%w: store resource: %w", errs.ErrStorage, err)
	}
	if err := s.storeEmbeddings(ctx, resource.ID, string(payload), embedded, now); err != nil {
		return err
	}
	return nil
}

// ReembedResource regenerates all embedding rows for an existing resource.
// Delete and insert run in one transaction; a search never sees the old and
// new vectors side by side.
func (s *IngestService) ReembedResource(ctx context.Context, resource *model.Resource) error {
	summary := resource.Content
	if resource.PayloadKind == model.PayloadKindJSON {
		var record map[string]string
		if err := json.Unmarshal([]byte(resource.Content), &record); err == nil {
			summary = synthesizeProfileText(record)
		}
	}
	embedded, err := s.embedChunks(ctx, summary)
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	return s.storeEmbeddings(ctx, resource.ID, resource.Content, embedded, now)
}

// DeleteResource removes a resource; its embedding rows cascade with it.
func (s *IngestService) DeleteResource(ctx context.Context, id string) error {
	if err := s.resources.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: delete resource: %w", errs.ErrStorage, err)
	}
	return nil
}

func (s *IngestService) embedChunks(ctx context.Context, text string) ([]EmbeddedChunk, error) {
	chunks := s.chunker.Chunk(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no valid chunks generated from input", errs.ErrValidation)
	}
	return s.embedder.EmbedBatch(ctx, chunks, ai.TaskTypeRetrievalDocument)
}

// storeEmbeddings writes one row per embedded chunk. Every row's content
// column holds the full resource payload, not the chunk text; the chunk only
// exists to position the vector, while search reads its payload per row.
func (s *IngestService) storeEmbeddings(ctx context.Context, resourceID, content string, embedded []EmbeddedChunk, now int64) error {
	rows := make([]*model.Embedding, 0, len(embedded))
	for _, chunk := range embedded {
		rows = append(rows, &model.Embedding{
			ID:         newID(),
			ResourceID: resourceID,
			Content:    content,
			Embedding:  chunk.Embedding,
			Ctime:      now,
		})
	}
	if err := s.embeddings.ReplaceForResource(ctx, resourceID, rows); err != nil {
		if errs.IsDimensionMismatch(err) {
			return err
		}
		return fmt.Errorf("%w: store embeddings: %w", errs.ErrStorage, err)
	}
	return nil
}

func synthesizeProfileText(record map[string]string) string {
	lines := make([]string, 0, len(record))
	seen := make(map[string]bool, len(record))
	for _, field := range profileFields {
		value := strings.TrimSpace(record[field])
		if value == "" {
			value = "N/A"
		}
		lines = append(lines, fmt.Sprintf("%s: %s.", field, value))
		seen[field] = true
	}
	for key, value := range record {
		if seen[key] || strings.TrimSpace(value) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s.", key, strings.TrimSpace(value)))
	}
	return strings.Join(lines, "\n")
}

func readCSVRecords(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	var records []map[string]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		record := make(map[string]string, len(header))
		empty := true
		for i, key := range header {
			if i >= len(row) {
				break
			}
			record[strings.TrimSpace(key)] = strings.TrimSpace(row[i])
			if strings.TrimSpace(row[i]) != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}
