package vectorstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"baseball-vector-search/domain"
	"baseball-vector-search/infrastructure/config"

	_ "modernc.org/sqlite" // SQLite driver
)

// errInvalidVector is returned for a stored blob that does not decode.
var errInvalidVector = errors.New("invalid vector blob")

// SQLiteStore is a local, brute-force cosine backend in a single file.
type SQLiteStore struct {
	db *sql.DB
}

var _ domain.VectorStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at cfg.Path.
func NewSQLiteStore(ctx context.Context, cfg config.SQLiteConfig) (*SQLiteStore, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", cfg.Path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", cfg.Path, err)
	}
	db.SetMaxOpenConns(1)

	const ddl = `CREATE TABLE IF NOT EXISTS players (
		player_id TEXT PRIMARY KEY,
		document  TEXT NOT NULL,
		vector    BLOB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating players table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Name implements domain.VectorStore.
func (s *SQLiteStore) Name() string { return config.BackendSQLite }

// Upsert writes all documents in one transaction.
func (s *SQLiteStore) Upsert(ctx context.Context, docs []*domain.Document) error {
	docs = withVectors(docs)
	if len(docs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO players (player_id, document, vector) VALUES (?, ?, ?)
		ON CONFLICT(player_id) DO UPDATE SET document = excluded.document, vector = excluded.vector`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		stored := *d
		stored.Embeddings = nil
		body, err := json.Marshal(&stored)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", d.PlayerID, err)
		}
		blob, err := encodeVector(d.Embeddings)
		if err != nil {
			return fmt.Errorf("encoding vector of %s: %w", d.PlayerID, err)
		}
		if _, err := stmt.ExecContext(ctx, d.PlayerID, string(body), blob); err != nil {
			return fmt.Errorf("upserting %s: %w", d.PlayerID, err)
		}
	}
	return tx.Commit()
}

type scored struct {
	doc   *domain.Document
	score float64
}

// Query scans every stored vector and returns the k most cosine-similar.
// Equal scores are ordered by player id.
func (s *SQLiteStore) Query(ctx context.Context, embedding domain.Embedding, k int) ([]domain.SearchHit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT document, vector FROM players`)
	if err != nil {
		return nil, fmt.Errorf("querying players: %w", err)
	}
	defer rows.Close()

	var candidates []scored
	for rows.Next() {
		var body string
		var blob []byte
		if err := rows.Scan(&body, &blob); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, err
		}
		var doc domain.Document
		if err := json.Unmarshal([]byte(body), &doc); err != nil {
			return nil, fmt.Errorf("decoding stored document: %w", err)
		}
		candidates = append(candidates, scored{doc: &doc, score: cosineSimilarity(embedding, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].doc.PlayerID < candidates[j].doc.PlayerID
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	hits := make([]domain.SearchHit, len(candidates))
	for i, c := range candidates {
		hits[i] = domain.HitFromDocument(i+1, c.doc, c.score)
	}
	return hits, nil
}

// Close implements domain.VectorStore.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// encodeVector writes a length prefix then each float32, little-endian.
func encodeVector(vector []float32) ([]byte, error) {
	if vector == nil {
		return nil, errInvalidVector
	}
	buf := new(bytes.Buffer)
	buf.Grow(4 + 4*len(vector))
	if err := binary.Write(buf, binary.LittleEndian, int32(len(vector))); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, vector); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data) < 4 {
		return nil, errInvalidVector
	}
	n := int32(binary.LittleEndian.Uint32(data))
	if n < 0 || len(data)-4 != int(n)*4 {
		return nil, errInvalidVector
	}
	vector := make([]float32, n)
	if err := binary.Read(bytes.NewReader(data[4:]), binary.LittleEndian, vector); err != nil {
		return nil, fmt.Errorf("decoding vector: %w", err)
	}
	return vector, nil
}

// cosineSimilarity returns 0 for vectors of different length or zero norm.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
