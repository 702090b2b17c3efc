package domain

import (
	"context"
	"errors"
)

// ErrUnknownBackend is returned for a backend name with no implementation.
var ErrUnknownBackend = errors.New("unknown search backend")

// VectorStore defines the interface for interacting with a vector database.
type VectorStore interface {
	// Name identifies the backend in result files and reports.
	Name() string
	// Upsert adds or updates documents. Documents are expected to carry a
	// validated embedding.
	Upsert(ctx context.Context, docs []*Document) error
	// Query returns the k documents nearest to embedding, closest first.
	Query(ctx context.Context, embedding Embedding, k int) ([]SearchHit, error)
	// Close releases the backend's connections.
	Close() error
}

// IndexEnsurer is implemented by backends whose vector index is created
// separately from loading documents.
type IndexEnsurer interface {
	EnsureIndex(ctx context.Context) error
}
