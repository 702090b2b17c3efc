package vectorstore

import (
	"context"
	"os"
	"testing"
	"time"

	"baseball-vector-search/domain"
	"baseball-vector-search/infrastructure/config"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPgVector starts a pgvector-enabled PostgreSQL container. Tests are
// skipped when no container runtime is available.
func setupPgVector(t *testing.T, dims int) *PgVectorStore {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping pgvector integration tests")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := pgmodule.Run(ctx,
		"pgvector/pgvector:pg16",
		pgmodule.WithDatabase("dev"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	store, err := NewPgVectorStore(ctx, config.PostgresConfig{
		DSN:      connStr,
		Table:    "players",
		MaxConns: 4,
	}, dims)
	if err != nil {
		t.Fatalf("NewPgVectorStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPgVectorStoreUpsertAndQuery(t *testing.T) {
	s := setupPgVector(t, 3)
	ctx := context.Background()

	teams := domain.NewTeamSummary()
	teams.Add("NYA", 100)
	teams.ResolvePrimaryTeam()
	docs := []*domain.Document{
		{PlayerID: "near01", NameFirst: "Near", Teams: teams, Category: domain.CategoryFielder, Embeddings: domain.Embedding{1, 0, 0}},
		{PlayerID: "far01", NameFirst: "Far", Teams: teams, Category: domain.CategoryPitcher, Embeddings: domain.Embedding{0, 0, 1},
			Pitching: &domain.StatBlock{Counts: map[string]float64{"W": 10}}},
	}
	if err := s.Upsert(ctx, docs); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	docs[0].NameFirst = "Nearer"
	if err := s.Upsert(ctx, docs[:1]); err != nil {
		t.Fatalf("re-Upsert: %v", err)
	}

	hits, err := s.Query(ctx, domain.Embedding{0.9, 0.1, 0}, 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].PlayerID != "near01" || hits[0].NameFirst != "Nearer" {
		t.Errorf("first hit = %+v", hits[0])
	}
	if hits[0].Score >= hits[1].Score {
		t.Errorf("distances should increase: %v then %v", hits[0].Score, hits[1].Score)
	}
}
