package config

import (
	"errors"
	"fmt"
	"slices"
)

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errs []error

	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, fmt.Errorf("embedding.dimensions must be > 0, got %d", c.Embedding.Dimensions))
	}
	if c.Embedding.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("embedding.batch_size must be > 0, got %d", c.Embedding.BatchSize))
	}
	switch c.Embedding.Provider {
	case "azure", "openai":
	default:
		errs = append(errs, fmt.Errorf("embedding.provider must be \"azure\" or \"openai\", got %q", c.Embedding.Provider))
	}
	switch c.Embedding.Algorithm {
	case "binned-text", "raw-numbers":
	default:
		errs = append(errs, fmt.Errorf("embedding.algorithm must be \"binned-text\" or \"raw-numbers\", got %q", c.Embedding.Algorithm))
	}

	if c.Search.K <= 0 {
		errs = append(errs, fmt.Errorf("search.k must be > 0, got %d", c.Search.K))
	}
	if len(c.Search.Backends) == 0 {
		errs = append(errs, errors.New("search.backends must name at least one backend"))
	}
	for _, b := range c.Search.Backends {
		if !slices.Contains(KnownBackends, b) {
			errs = append(errs, fmt.Errorf("search.backends: unknown backend %q", b))
		}
	}

	switch c.Postgres.Env {
	case "local", "flex", "cosmos":
	default:
		errs = append(errs, fmt.Errorf("pgvector.env must be \"local\", \"flex\", or \"cosmos\", got %q", c.Postgres.Env))
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
