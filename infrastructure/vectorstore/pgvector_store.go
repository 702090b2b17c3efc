package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	"baseball-vector-search/domain"
	"baseball-vector-search/infrastructure/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUpsertBatch = 200

// PgVectorStore keeps players in a PostgreSQL table with a pgvector column
// and searches by L2 distance.
type PgVectorStore struct {
	pool  *pgxpool.Pool
	table string
	dims  int
}

var _ domain.VectorStore = (*PgVectorStore)(nil)

// NewPgVectorStore connects using cfg.ConnString and creates the extension,
// table and index when missing.
func NewPgVectorStore(ctx context.Context, cfg config.PostgresConfig, dims int) (*PgVectorStore, error) {
	dsn, err := cfg.ConnString()
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &PgVectorStore{pool: pool, table: cfg.Table, dims: dims}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Name implements domain.VectorStore.
func (s *PgVectorStore) Name() string { return config.BackendPgVector }

func (s *PgVectorStore) ident() string { return pgx.Identifier{s.table}.Sanitize() }

func (s *PgVectorStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id               BIGSERIAL PRIMARY KEY,
			player_id        VARCHAR(32) NOT NULL UNIQUE,
			birth_year       INTEGER,
			birth_country    TEXT,
			first_name       TEXT,
			last_name        TEXT,
			bats             VARCHAR(2),
			throws           VARCHAR(2),
			category         VARCHAR(16),
			primary_position VARCHAR(4),
			primary_team     VARCHAR(8),
			debut_year       INTEGER,
			final_year       INTEGER,
			total_games      INTEGER,
			teams_data       JSONB,
			pitching_data    JSONB,
			batting_data     JSONB,
			embeddings_str   TEXT,
			embeddings       vector(%d)
		)`, s.ident(), s.dims),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// EnsureIndex builds the IVFFlat index once the table holds data.
func (s *PgVectorStore) EnsureIndex(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING ivfflat (embeddings vector_l2_ops) WITH (lists = 100)`,
		pgx.Identifier{s.table + "_embeddings_idx"}.Sanitize(), s.ident())
	if _, err := s.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("creating vector index: %w", err)
	}
	return nil
}

// Upsert inserts or replaces players keyed by player_id, in batches.
func (s *PgVectorStore) Upsert(ctx context.Context, docs []*domain.Document) error {
	sql := fmt.Sprintf(`INSERT INTO %s (
			player_id, birth_year, birth_country, first_name, last_name, bats, throws,
			category, primary_position, primary_team, debut_year, final_year, total_games,
			teams_data, pitching_data, batting_data, embeddings_str, embeddings
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18::real[]::vector)
		ON CONFLICT (player_id) DO UPDATE SET
			birth_year = EXCLUDED.birth_year, birth_country = EXCLUDED.birth_country,
			first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
			bats = EXCLUDED.bats, throws = EXCLUDED.throws, category = EXCLUDED.category,
			primary_position = EXCLUDED.primary_position, primary_team = EXCLUDED.primary_team,
			debut_year = EXCLUDED.debut_year, final_year = EXCLUDED.final_year,
			total_games = EXCLUDED.total_games, teams_data = EXCLUDED.teams_data,
			pitching_data = EXCLUDED.pitching_data, batting_data = EXCLUDED.batting_data,
			embeddings_str = EXCLUDED.embeddings_str, embeddings = EXCLUDED.embeddings`, s.ident())

	for _, group := range chunks(withVectors(docs), pgUpsertBatch) {
		batch := &pgx.Batch{}
		for _, d := range group {
			teams, err := nullJSON(d.Teams)
			if err != nil {
				return fmt.Errorf("marshaling teams of %s: %w", d.PlayerID, err)
			}
			pitching, err := nullJSON(d.Pitching)
			if err != nil {
				return fmt.Errorf("marshaling pitching of %s: %w", d.PlayerID, err)
			}
			batting, err := nullJSON(d.Batting)
			if err != nil {
				return fmt.Errorf("marshaling batting of %s: %w", d.PlayerID, err)
			}
			batch.Queue(sql,
				d.PlayerID, d.BirthYear, d.BirthCountry, d.NameFirst, d.NameLast, d.Bats, d.Throws,
				string(d.Category), d.PrimaryPosition, d.PrimaryTeam(), d.DebutYear, d.FinalYear, d.TotalGames(),
				teams, pitching, batting, d.EmbeddingsStr, []float32(d.Embeddings),
			)
		}
		if err := s.sendBatch(ctx, batch, group); err != nil {
			return err
		}
	}
	return nil
}

func (s *PgVectorStore) sendBatch(ctx context.Context, batch *pgx.Batch, group []*domain.Document) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for _, d := range group {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upserting %s: %w", d.PlayerID, err)
		}
	}
	return br.Close()
}

// Query orders players by L2 distance to embedding. Score is the distance,
// so lower is closer. Vectors travel as float4[] and are cast server side.
func (s *PgVectorStore) Query(ctx context.Context, embedding domain.Embedding, k int) ([]domain.SearchHit, error) {
	sql := fmt.Sprintf(`SELECT player_id, first_name, last_name, primary_position, category,
			embeddings <-> $1::real[]::vector AS distance
		FROM %s
		ORDER BY embeddings <-> $1::real[]::vector
		LIMIT $2`, s.ident())

	rows, err := s.pool.Query(ctx, sql, []float32(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("querying players: %w", err)
	}
	defer rows.Close()

	var hits []domain.SearchHit
	for rows.Next() {
		var (
			h                     domain.SearchHit
			first, last, pos, cat *string
		)
		if err := rows.Scan(&h.PlayerID, &first, &last, &pos, &cat, &h.Score); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		h.Rank = len(hits) + 1
		h.NameFirst, h.NameLast, h.PrimaryPosition, h.Category = deref(first), deref(last), deref(pos), deref(cat)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return hits, nil
}

// Close implements domain.VectorStore.
func (s *PgVectorStore) Close() error {
	s.pool.Close()
	return nil
}

// nullJSON marshals v, returning nil (SQL NULL) for a nil pointer.
func nullJSON[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
