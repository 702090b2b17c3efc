package application

import (
	"fmt"
	"io"
	"log/slog"

	"baseball-vector-search/domain"
	"baseball-vector-search/infrastructure/config"
	"baseball-vector-search/infrastructure/files"
)

// DocumentService inspects and reshapes document files.
type DocumentService struct {
	data   config.DataConfig
	logger *slog.Logger
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(data config.DataConfig, logger *slog.Logger) *DocumentService {
	return &DocumentService{data: data, logger: logger}
}

func (s *DocumentService) readDocuments(path string) (map[string]*domain.Document, error) {
	var docs map[string]*domain.Document
	if err := files.ReadJSON(path, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Scan summarises the documents file and writes the summary to the tmp directory.
func (s *DocumentService) Scan() (domain.ScanSummary, error) {
	docs, err := s.readDocuments(s.data.DocumentsFile())
	if err != nil {
		return domain.ScanSummary{}, err
	}
	summary := domain.ScanDocuments(docs)
	if err := files.WriteJSON(s.data.TmpFile(ScanDocumentsFile), summary); err != nil {
		return summary, err
	}
	s.logger.Info("scanned documents",
		"documents", summary.DocumentsCount,
		"pitchers", summary.Counts[string(domain.CategoryPitcher)],
		"fielders", summary.Counts[string(domain.CategoryFielder)],
		"earliest_debut", summary.EarliestDebut)
	return summary, nil
}

// Filter writes the documents matching c as a list.
func (s *DocumentService) Filter(c domain.FilterCriteria) ([]*domain.Document, error) {
	docs, err := s.readDocuments(s.data.DocumentsFile())
	if err != nil {
		return nil, err
	}
	out := domain.FilterDocuments(docs, c)
	if out == nil {
		out = []*domain.Document{}
	}
	if err := files.WriteJSON(s.data.MiniDocumentsFile(), out); err != nil {
		return nil, err
	}
	s.logger.Info("filtered documents", "documents", len(docs), "kept", len(out), "file", s.data.MiniDocumentsFile())
	return out, nil
}

// Flatten writes the embedded documents one per line in id order, to w when
// it is non-nil and otherwise to the flat documents file.
func (s *DocumentService) Flatten(w io.Writer) (int, error) {
	docs, err := s.readDocuments(s.data.EmbeddedDocumentsFile())
	if err != nil {
		return 0, err
	}
	list := make([]*domain.Document, 0, len(docs))
	for _, id := range domain.SortedIDs(docs) {
		list = append(list, docs[id])
	}
	if w != nil {
		if err := files.EncodeJSONLines(w, list); err != nil {
			return 0, fmt.Errorf("flattening documents: %w", err)
		}
		return len(list), nil
	}
	if err := files.WriteJSONLines(s.data.FlatDocumentsFile(), list); err != nil {
		return 0, err
	}
	s.logger.Info("flattened documents", "documents", len(list), "file", s.data.FlatDocumentsFile())
	return len(list), nil
}
