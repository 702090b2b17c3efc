package application

import (
	"context"
	"fmt"
	"log/slog"

	"baseball-vector-search/domain"
	"baseball-vector-search/infrastructure/files"
	"baseball-vector-search/infrastructure/metrics"
)

// LoadingService upserts embedded documents into one backend.
type LoadingService struct {
	store   domain.VectorStore
	dims    int
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewLoadingService creates a new LoadingService.
func NewLoadingService(store domain.VectorStore, dims int, logger *slog.Logger, m *metrics.Metrics) *LoadingService {
	return &LoadingService{store: store, dims: dims, logger: logger, metrics: m}
}

// LoadResult summarises a load.
type LoadResult struct {
	Loaded  int
	Skipped int
}

// LoadFile reads a documents map from path and loads it.
func (s *LoadingService) LoadFile(ctx context.Context, path string) (LoadResult, error) {
	var docs map[string]*domain.Document
	if err := files.ReadJSON(path, &docs); err != nil {
		return LoadResult{}, err
	}
	return s.Load(ctx, docs)
}

// Load upserts every document whose vector has the configured length, in id
// order, then builds the backend's vector index when it has one.
func (s *LoadingService) Load(ctx context.Context, docs map[string]*domain.Document) (LoadResult, error) {
	var res LoadResult
	batch := make([]*domain.Document, 0, len(docs))
	for _, id := range domain.SortedIDs(docs) {
		doc := docs[id]
		if err := doc.Embeddings.Validate(s.dims); err != nil {
			s.logger.Debug("not loading document", "id", id, "error", err)
			res.Skipped++
			continue
		}
		batch = append(batch, doc)
	}
	s.metrics.Records("load", metrics.OutcomeSkipped, res.Skipped)
	if len(batch) == 0 {
		s.logger.Warn("no documents with embeddings to load", "backend", s.store.Name(), "skipped", res.Skipped)
		return res, nil
	}

	s.logger.Info("upserting documents", "backend", s.store.Name(), "documents", len(batch))
	if err := s.store.Upsert(ctx, batch); err != nil {
		return res, fmt.Errorf("upserting into %s: %w", s.store.Name(), err)
	}
	res.Loaded = len(batch)
	s.metrics.Records("load", metrics.OutcomeOK, res.Loaded)

	if ie, ok := s.store.(domain.IndexEnsurer); ok {
		s.logger.Info("ensuring vector index", "backend", s.store.Name())
		if err := ie.EnsureIndex(ctx); err != nil {
			return res, fmt.Errorf("creating index on %s: %w", s.store.Name(), err)
		}
	}
	s.logger.Info("loaded documents", "backend", s.store.Name(), "loaded", res.Loaded, "skipped", res.Skipped)
	return res, nil
}
