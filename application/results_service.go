package application

import (
	"errors"
	"io/fs"
	"log/slog"

	"baseball-vector-search/domain"
	"baseball-vector-search/infrastructure/config"
	"baseball-vector-search/infrastructure/files"
)

// ResultEntry is one returned id: backend, query id, 1-based rank, id.
type ResultEntry struct {
	Backend string `json:"backend"`
	QueryID string `json:"query_id"`
	Rank    int    `json:"rank"`
	ID      string `json:"id"`
}

// CollectedResults is everything results compare needs, gathered from the
// per-backend result files and the documents file.
type CollectedResults struct {
	Backends []string           `json:"backends"`
	QueryIDs []string           `json:"query_ids"`
	Lists    domain.ResultLists `json:"lists"`
	Entries  []ResultEntry      `json:"entries"`
	// Features maps every id seen, query ids included, to its feature string.
	Features map[string]string `json:"features"`
}

// ResultsService collects search results and compares backends.
type ResultsService struct {
	data     config.DataConfig
	backends []string
	logger   *slog.Logger
}

// NewResultsService creates a new ResultsService for the given backend order.
func NewResultsService(data config.DataConfig, backends []string, logger *slog.Logger) *ResultsService {
	return &ResultsService{data: data, backends: backends, logger: logger}
}

// Collect reads every backend's result file for each query id and writes
// the collected results file. A missing result file is logged; its list
// stays empty.
func (s *ResultsService) Collect(queryIDs []string) (*CollectedResults, error) {
	c := &CollectedResults{
		Backends: s.backends,
		QueryIDs: queryIDs,
		Lists:    make(domain.ResultLists),
		Entries:  []ResultEntry{},
		Features: make(map[string]string),
	}
	for _, qid := range queryIDs {
		c.Features[qid] = ""
	}
	for _, b := range s.backends {
		for _, qid := range queryIDs {
			path := s.data.ResultFile(b, qid)
			var res domain.SearchResult
			if err := files.ReadJSON(path, &res); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					s.logger.Warn("missing search result", "backend", b, "id", qid, "file", path)
					continue
				}
				return nil, err
			}
			for i, id := range res.IDs() {
				c.Lists.Add(b, qid, id)
				c.Entries = append(c.Entries, ResultEntry{Backend: b, QueryID: qid, Rank: i + 1, ID: id})
				c.Features[id] = ""
			}
		}
	}

	var docs map[string]*domain.Document
	if err := files.ReadJSON(s.data.DocumentsFile(), &docs); err != nil {
		return nil, err
	}
	for id := range c.Features {
		if doc, ok := docs[id]; ok {
			c.Features[id] = doc.EmbeddingsStr
		} else {
			s.logger.Warn("no document for result id", "id", id)
		}
	}

	if err := files.WriteJSON(s.data.CollectedResultsFile(), c); err != nil {
		return nil, err
	}
	s.logger.Info("collected results", "backends", len(s.backends), "queries", len(queryIDs), "entries", len(c.Entries), "file", s.data.CollectedResultsFile())
	return c, nil
}

// Compare reads the collected results file and writes the side-by-side CSV.
// Backend order comes from the collected file.
func (s *ResultsService) Compare() ([]domain.ComparisonRow, error) {
	var c CollectedResults
	if err := files.ReadJSON(s.data.CollectedResultsFile(), &c); err != nil {
		return nil, err
	}
	return s.CompareCollected(&c)
}

// CompareCollected compares c and writes the CSV report.
func (s *ResultsService) CompareCollected(c *CollectedResults) ([]domain.ComparisonRow, error) {
	cmp := domain.Comparator{Backends: c.Backends, Features: c.Features}
	rows, skipped := cmp.Compare(c.QueryIDs, c.Lists)
	for _, sk := range skipped {
		s.logger.Warn("search result id lists are not the same length", "id", sk.QueryID, "error", sk)
	}

	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = r.Record()
	}
	if err := files.WriteCSV(s.data.ComparisonFile(), domain.ReportHeader(c.Backends), records); err != nil {
		return nil, err
	}
	s.logger.Info("compared results", "rows", len(rows), "skipped_queries", len(skipped), "file", s.data.ComparisonFile())
	return rows, nil
}
