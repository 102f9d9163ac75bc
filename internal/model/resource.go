package model

// PayloadKind tags what the resource content column holds, so readers do not
// have to guess by attempting a parse.
type PayloadKind string

const (
	PayloadKindJSON PayloadKind = "json"
	PayloadKindText PayloadKind = "text"
)

// Resource is the canonical stored entity (a lawyer profile). Immutable after
// ingestion; re-embedding replaces its embedding rows, not the resource itself.
type Resource struct {
	ID          string      `json:"id"`
	Content     string      `json:"content"`
	PayloadKind PayloadKind `json:"payload_kind"`
	Ctime       int64       `json:"ctime"`
	Mtime       int64       `json:"mtime"`
}
