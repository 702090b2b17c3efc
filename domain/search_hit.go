package domain

// SearchHit is one ranked match returned by a backend.
type SearchHit struct {
	Rank            int     `json:"rank"`
	PlayerID        string  `json:"playerID"`
	Score           float64 `json:"score"`
	NameFirst       string  `json:"nameFirst,omitempty"`
	NameLast        string  `json:"nameLast,omitempty"`
	PrimaryPosition string  `json:"primary_position,omitempty"`
	Category        string  `json:"category,omitempty"`
}

// SearchResult is the materialized answer of one backend to one "players like" query.
type SearchResult struct {
	Backend string      `json:"backend"`
	QueryID string      `json:"query_id"`
	K       int         `json:"k"`
	Hits    []SearchHit `json:"hits"`
}

// IDs returns the hit player ids in rank order.
func (r SearchResult) IDs() []string {
	ids := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		ids[i] = h.PlayerID
	}
	return ids
}

// HitFromDocument fills display fields of a hit from a stored document.
func HitFromDocument(rank int, doc *Document, score float64) SearchHit {
	return SearchHit{
		Rank:            rank,
		PlayerID:        doc.PlayerID,
		Score:           score,
		NameFirst:       doc.NameFirst,
		NameLast:        doc.NameLast,
		PrimaryPosition: doc.PrimaryPosition,
		Category:        string(doc.Category),
	}
}
