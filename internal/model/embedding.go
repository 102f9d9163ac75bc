package model

// Embedding is one stored vector row. Content carries the parent resource's
// full serialized payload, duplicated per row, so search can shape a result
// without joining back to resources; the chunk text that produced the vector
// is not persisted. ResourceID is a non-owning back reference.
type Embedding struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"embedding"`
	Ctime      int64     `json:"ctime"`
}

// SearchResult is derived per query from an embedding row plus its cosine
// similarity to the query vector. Never persisted.
type SearchResult struct {
	ID         string                 `json:"id"`
	Content    string                 `json:"content"`
	Similarity float64                `json:"similarity"`
	Metadata   map[string]interface{} `json:"metadata"`
}
