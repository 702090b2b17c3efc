package application

import (
	"context"
	"fmt"
	"log/slog"

	"baseball-vector-search/domain"
	"baseball-vector-search/infrastructure/config"
	"baseball-vector-search/infrastructure/files"
	"baseball-vector-search/infrastructure/metrics"
)

// EmbeddingService attaches provider vectors to the assembled documents.
type EmbeddingService struct {
	embedder  domain.EmbeddingClient
	data      config.DataConfig
	dims      int
	batchSize int
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewEmbeddingService creates a new EmbeddingService.
func NewEmbeddingService(embedder domain.EmbeddingClient, data config.DataConfig, cfg config.EmbeddingConfig, logger *slog.Logger, m *metrics.Metrics) *EmbeddingService {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 1
	}
	return &EmbeddingService{
		embedder:  embedder,
		data:      data,
		dims:      cfg.Dimensions,
		batchSize: batch,
		logger:    logger,
		metrics:   m,
	}
}

// EmbedResult summarises an embedding run.
type EmbedResult struct {
	Documents int
	Selected  int
	Embedded  int
	Skipped   int
}

// EmbedFile reads the documents file, embeds every document that debuted in
// or after minDebutYear and writes the embedded documents file. Every
// document is written; only selected ones carry a vector.
func (s *EmbeddingService) EmbedFile(ctx context.Context, minDebutYear int) (EmbedResult, error) {
	var docs map[string]*domain.Document
	if err := files.ReadJSON(s.data.DocumentsFile(), &docs); err != nil {
		return EmbedResult{}, err
	}
	res, err := s.Embed(ctx, docs, minDebutYear)
	if err != nil {
		return res, err
	}
	if err := files.WriteJSON(s.data.EmbeddedDocumentsFile(), docs); err != nil {
		return res, err
	}
	s.logger.Info("embedded documents",
		"documents", res.Documents, "selected", res.Selected,
		"embedded", res.Embedded, "skipped", res.Skipped,
		"file", s.data.EmbeddedDocumentsFile())
	return res, nil
}

// Embed sets Embeddings on the selected documents in place. A batch the
// provider rejects and vectors of the wrong length are skipped, leaving those
// documents without one. Only cancellation stops the run.
func (s *EmbeddingService) Embed(ctx context.Context, docs map[string]*domain.Document, minDebutYear int) (EmbedResult, error) {
	res := EmbedResult{Documents: len(docs)}
	var selected []*domain.Document
	for _, id := range domain.SortedIDs(docs) {
		doc := docs[id]
		doc.Embeddings = nil
		if doc.DebutYear >= minDebutYear && doc.EmbeddingsStr != "" {
			selected = append(selected, doc)
		}
	}
	res.Selected = len(selected)
	if len(selected) == 0 {
		s.logger.Info("no documents selected for embedding", "min_debut_year", minDebutYear)
		return res, nil
	}

	batches := (len(selected) + s.batchSize - 1) / s.batchSize
	for i := 0; i < len(selected); i += s.batchSize {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		end := min(i+s.batchSize, len(selected))
		batch := selected[i:end]
		s.logger.Debug("generating embeddings", "batch", i/s.batchSize+1, "batches", batches, "from", i+1, "to", end)

		texts := make([]string, len(batch))
		for j, doc := range batch {
			texts[j] = doc.EmbeddingsStr
		}
		vectors, err := s.embedder.GenerateEmbeddings(ctx, texts)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			s.logger.Warn("skipping batch after provider error", "from", i+1, "to", end, "error", err)
			res.Skipped += len(batch)
			continue
		}
		if len(vectors) != len(batch) {
			return res, fmt.Errorf("mismatch between number of batch texts (%d) and embeddings (%d)", len(batch), len(vectors))
		}

		for j, doc := range batch {
			if err := vectors[j].Validate(s.dims); err != nil {
				s.logger.Warn("dropping embedding", "id", doc.PlayerID, "error", err)
				res.Skipped++
				continue
			}
			doc.Embeddings = vectors[j]
			res.Embedded++
		}
	}
	s.metrics.Embeddings(metrics.OutcomeOK, res.Embedded)
	s.metrics.Embeddings(metrics.OutcomeSkipped, res.Skipped)
	return res, nil
}
