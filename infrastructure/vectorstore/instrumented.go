package vectorstore

import (
	"context"
	"time"

	"baseball-vector-search/domain"
	"baseball-vector-search/infrastructure/metrics"
)

// Instrumented records call counts and latency for a wrapped store.
type Instrumented struct {
	domain.VectorStore
	metrics *metrics.Metrics
}

// Instrument wraps s so every Upsert, Query and EnsureIndex is observed on m.
func Instrument(s domain.VectorStore, m *metrics.Metrics) *Instrumented {
	return &Instrumented{VectorStore: s, metrics: m}
}

func (s *Instrumented) Upsert(ctx context.Context, docs []*domain.Document) error {
	start := time.Now()
	err := s.VectorStore.Upsert(ctx, docs)
	s.metrics.ObserveBackend(s.Name(), "upsert", start, err)
	return err
}

func (s *Instrumented) Query(ctx context.Context, embedding domain.Embedding, k int) ([]domain.SearchHit, error) {
	start := time.Now()
	hits, err := s.VectorStore.Query(ctx, embedding, k)
	s.metrics.ObserveBackend(s.Name(), "query", start, err)
	return hits, err
}

// EnsureIndex forwards to the wrapped store when it builds indexes separately.
func (s *Instrumented) EnsureIndex(ctx context.Context) error {
	ie, ok := s.VectorStore.(domain.IndexEnsurer)
	if !ok {
		return nil
	}
	start := time.Now()
	err := ie.EnsureIndex(ctx)
	s.metrics.ObserveBackend(s.Name(), "ensure_index", start, err)
	return err
}
