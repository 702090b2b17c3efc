package vectorstore

import (
	"context"
	"fmt"
	"log/slog"

	"baseball-vector-search/domain"
	"baseball-vector-search/infrastructure/config"
)

// New opens the backend called name.
func New(ctx context.Context, name string, cfg *config.Config, logger *slog.Logger) (domain.VectorStore, error) {
	dims := cfg.Embedding.Dimensions
	switch name {
	case config.BackendCogSearch:
		return NewCogSearchClient(cfg.CogSearch, dims)
	case config.BackendVCore:
		return NewVCoreStore(ctx, cfg.VCore, dims)
	case config.BackendPgVector:
		return NewPgVectorStore(ctx, cfg.Postgres, dims)
	case config.BackendQdrant:
		return NewQdrantClient(ctx, cfg.Qdrant, dims, logger)
	case config.BackendSQLite:
		return NewSQLiteStore(ctx, cfg.SQLite)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownBackend, name)
	}
}
