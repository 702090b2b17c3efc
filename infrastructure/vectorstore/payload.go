package vectorstore

import (
	"baseball-vector-search/domain"

	"github.com/google/uuid"
)

// payloadFields are the document attributes stored next to each vector by
// backends that do not keep the full document.
func payloadFields(doc *domain.Document) map[string]interface{} {
	return map[string]interface{}{
		"playerID":         doc.PlayerID,
		"nameFirst":        doc.NameFirst,
		"nameLast":         doc.NameLast,
		"primary_position": doc.PrimaryPosition,
		"category":         string(doc.Category),
		"primary_team":     doc.PrimaryTeam(),
		"total_games":      doc.TotalGames(),
		"debut_year":       doc.DebutYear,
		"embeddings_str":   doc.EmbeddingsStr,
	}
}

// pointID derives a stable UUID from a player id so repeated loads overwrite
// the same point.
func pointID(playerID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(playerID)).String()
}

// documentID is the key used by backends that accept arbitrary string ids.
func documentID(doc *domain.Document) string {
	if doc.ID != "" {
		return doc.ID
	}
	return doc.PlayerID
}

// chunks splits docs into slices of at most size.
func chunks(docs []*domain.Document, size int) [][]*domain.Document {
	if size <= 0 {
		size = len(docs)
	}
	var out [][]*domain.Document
	for start := 0; start < len(docs); start += size {
		end := min(start+size, len(docs))
		out = append(out, docs[start:end])
	}
	return out
}

// withVectors drops documents that carry no embedding.
func withVectors(docs []*domain.Document) []*domain.Document {
	out := make([]*domain.Document, 0, len(docs))
	for _, d := range docs {
		if d != nil && len(d.Embeddings) > 0 {
			out = append(out, d)
		}
	}
	return out
}
