package application

import (
	"context"
	"fmt"
	"log/slog"

	"baseball-vector-search/domain"
	"baseball-vector-search/infrastructure/config"
	"baseball-vector-search/infrastructure/files"
)

// SearchService runs "players like X" queries against one backend. The
// query vector is the subject's own stored embedding.
type SearchService struct {
	store  domain.VectorStore
	data   config.DataConfig
	dims   int
	k      int
	logger *slog.Logger
}

// NewSearchService creates a new SearchService.
func NewSearchService(store domain.VectorStore, data config.DataConfig, dims, k int, logger *slog.Logger) *SearchService {
	return &SearchService{store: store, data: data, dims: dims, k: k, logger: logger}
}

// SearchFile reads the embedded documents and searches for each query id.
func (s *SearchService) SearchFile(ctx context.Context, queryIDs []string) ([]domain.SearchResult, error) {
	var docs map[string]*domain.Document
	if err := files.ReadJSON(s.data.EmbeddedDocumentsFile(), &docs); err != nil {
		return nil, err
	}
	return s.Search(ctx, docs, queryIDs)
}

// Search queries the backend once per id and writes one result file each.
// An id with no usable vector is logged and skipped; a backend error stops
// the run.
func (s *SearchService) Search(ctx context.Context, docs map[string]*domain.Document, queryIDs []string) ([]domain.SearchResult, error) {
	var results []domain.SearchResult
	for _, qid := range queryIDs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		doc, ok := docs[qid]
		if !ok {
			s.logger.Warn("query player not found", "id", qid)
			continue
		}
		if err := doc.Embeddings.Validate(s.dims); err != nil {
			s.logger.Warn("query player has no usable embedding", "id", qid, "error", err)
			continue
		}

		hits, err := s.store.Query(ctx, doc.Embeddings, s.k)
		if err != nil {
			return results, fmt.Errorf("searching %s for players like %s: %w", s.store.Name(), qid, err)
		}
		res := domain.SearchResult{Backend: s.store.Name(), QueryID: qid, K: s.k, Hits: hits}
		if res.Hits == nil {
			res.Hits = []domain.SearchHit{}
		}
		path := s.data.ResultFile(s.store.Name(), qid)
		if err := files.WriteJSON(path, res); err != nil {
			return results, err
		}
		s.logger.Info("search complete", "backend", s.store.Name(), "id", qid, "hits", len(hits), "file", path)
		results = append(results, res)
	}
	return results, nil
}
