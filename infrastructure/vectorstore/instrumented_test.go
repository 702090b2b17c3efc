package vectorstore

import (
	"context"
	"errors"
	"testing"

	"baseball-vector-search/domain"
	"baseball-vector-search/infrastructure/config"
	"baseball-vector-search/infrastructure/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type failingStore struct{ domain.VectorStore }

func (failingStore) Name() string { return "failing" }
func (failingStore) Query(context.Context, domain.Embedding, int) ([]domain.SearchHit, error) {
	return nil, errors.New("unavailable")
}

func TestInstrumentedCountsOutcomes(t *testing.T) {
	m := metrics.New()
	s := Instrument(failingStore{}, m)
	if _, err := s.Query(context.Background(), domain.Embedding{1}, 1); err == nil {
		t.Fatal("expected the wrapped error")
	}
	if got := testutil.ToFloat64(m.BackendOpsTotal.WithLabelValues("failing", "query", metrics.OutcomeError)); got != 1 {
		t.Errorf("query errors = %v, want 1", got)
	}
	if err := s.EnsureIndex(context.Background()); err != nil {
		t.Errorf("EnsureIndex on a store without indexes = %v", err)
	}
}

func TestNewUnknownBackend(t *testing.T) {
	cfg := config.Defaults()
	_, err := New(context.Background(), "elastic", &cfg, nil)
	if !errors.Is(err, domain.ErrUnknownBackend) {
		t.Errorf("err = %v, want ErrUnknownBackend", err)
	}
}
