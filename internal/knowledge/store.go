// Package knowledge retrieves reference text for a disease from the vector
// store and prepares knowledge sheets for indexing.
package knowledge

import (
	"context"

	"github.com/vitiscan/treatment-plan/internal/entity"
)

// VectorStore opens sessions on a semantic knowledge store.
type VectorStore interface {
	Connect(ctx context.Context) (Session, error)
}

// Session is scoped to one logical operation and must be closed.
type Session interface {
	Collection(ctx context.Context, name string) (Collection, error)
	Close() error
}

type Collection interface {
	Search(ctx context.Context, req SearchRequest) ([]SearchHit, error)
}

type SearchRequest struct {
	Filter       *entity.Filter
	Vector       []float32
	Limit        int
	WithDistance bool
}

// SearchHit is one stored object with its properties. Distance is nil when
// it was not requested or not reported.
type SearchHit struct {
	Properties map[string]any
	Distance   *float64
}

// Object is a knowledge chunk with its vector, ready for insertion.
type Object struct {
	Properties map[string]any
	Vector     []float32
}

// Indexer is the write side of the store used by ingestion.
type Indexer interface {
	EnsureCollection(ctx context.Context, name string) error
	BatchInsert(ctx context.Context, collection string, objects []Object) error
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Recorder receives retrieval outcomes; *metrics.Metrics satisfies it.
type Recorder interface {
	RetrievalAttempt(tier string)
	RetrievalResult(outcome string)
}
