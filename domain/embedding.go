package domain

import (
	"context"
	"errors"
	"fmt"
)

// DefaultDimensions is the vector length produced by the ada-002 embedding model.
const DefaultDimensions = 1536

// ErrDimensionMismatch is returned when a vector has the wrong length.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Embedding represents a numerical vector representation of text.
type Embedding []float32

// EmbeddingClient defines the interface for generating embeddings from text.
type EmbeddingClient interface {
	// GenerateEmbeddings generates embeddings for the given texts, one per text, in order.
	GenerateEmbeddings(ctx context.Context, texts []string) ([]Embedding, error)
}

// Validate checks that e has exactly dims elements.
func (e Embedding) Validate(dims int) error {
	if len(e) != dims {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(e), dims)
	}
	return nil
}
