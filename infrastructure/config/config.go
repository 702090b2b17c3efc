// Package config loads the toolkit configuration from defaults, an optional
// YAML file, a .env.local file and environment variables.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Backend names.
const (
	BackendCogSearch = "cogsearch"
	BackendVCore     = "vcore"
	BackendPgVector  = "pgvector"
	BackendQdrant    = "qdrant"
	BackendSQLite    = "sqlite"
)

// KnownBackends lists every backend a config may name.
var KnownBackends = []string{BackendCogSearch, BackendVCore, BackendPgVector, BackendQdrant, BackendSQLite}

// Config is the top-level configuration.
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	CogSearch CogSearchConfig `yaml:"cogsearch"`
	VCore     VCoreConfig     `yaml:"vcore"`
	Postgres  PostgresConfig  `yaml:"pgvector"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// DataConfig locates the input CSVs and the generated files.
type DataConfig struct {
	RawDir      string `yaml:"raw_dir"`
	WrangledDir string `yaml:"wrangled_dir"`
	TmpDir      string `yaml:"tmp_dir"`
	ResultsDir  string `yaml:"results_dir"`
}

// RawFile returns the path of a Lahman CSV such as "People.csv".
func (d DataConfig) RawFile(name string) string { return filepath.Join(d.RawDir, name) }

// TmpFile returns a path under the intermediate directory.
func (d DataConfig) TmpFile(name string) string { return filepath.Join(d.TmpDir, name) }

// DocumentsFile is the assembled documents map.
func (d DataConfig) DocumentsFile() string { return filepath.Join(d.WrangledDir, "documents.json") }

// EmbeddedDocumentsFile is the documents map with vectors attached.
func (d DataConfig) EmbeddedDocumentsFile() string {
	return filepath.Join(d.WrangledDir, "documents_with_embeddings.json")
}

// FlatDocumentsFile is the JSON-lines rendition of the embedded documents.
func (d DataConfig) FlatDocumentsFile() string {
	return filepath.Join(d.WrangledDir, "documents_with_embeddings_flat.json")
}

// MiniDocumentsFile is the filtered subset of documents.
func (d DataConfig) MiniDocumentsFile() string {
	return filepath.Join(d.WrangledDir, "documents_mini.json")
}

// ResultFile is one backend's answer for one query player.
func (d DataConfig) ResultFile(backend, playerID string) string {
	return filepath.Join(d.ResultsDir, backend, fmt.Sprintf("%s_search_player_like_%s.json", backend, playerID))
}

// CollectedResultsFile is the output of results collect.
func (d DataConfig) CollectedResultsFile() string {
	return filepath.Join(d.ResultsDir, "collected_results.json")
}

// ComparisonFile is the CSV written by results compare.
func (d DataConfig) ComparisonFile() string {
	return filepath.Join(d.ResultsDir, "vector_search_results.csv")
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Provider     string `yaml:"provider"` // "azure" or "openai"
	URL          string `yaml:"url"`
	APIKey       string `yaml:"api_key"`
	APIVersion   string `yaml:"api_version"`
	Model        string `yaml:"model"`
	Deployment   string `yaml:"deployment"`
	Dimensions   int    `yaml:"dimensions"`
	BatchSize    int    `yaml:"batch_size"`
	MinDebutYear int    `yaml:"min_debut_year"`
	Algorithm    string `yaml:"algorithm"`
}

// SearchConfig controls which backends are searched and compared.
type SearchConfig struct {
	Backends []string `yaml:"backends"`
	K        int      `yaml:"k"`
	QueryIDs []string `yaml:"query_ids"`
}

// CogSearchConfig configures the search-index REST backend.
type CogSearchConfig struct {
	URL        string        `yaml:"url"`
	AdminKey   string        `yaml:"admin_key"`
	QueryKey   string        `yaml:"query_key"`
	Index      string        `yaml:"index"`
	APIVersion string        `yaml:"api_version"`
	Timeout    time.Duration `yaml:"timeout"`
}

// VCoreConfig configures the document-database backend.
type VCoreConfig struct {
	ConnString string        `yaml:"conn_string"`
	Database   string        `yaml:"database"`
	Collection string        `yaml:"collection"`
	NumLists   int           `yaml:"num_lists"`
	Timeout    time.Duration `yaml:"timeout"`
}

// PostgresConfig configures the pgvector backend.
type PostgresConfig struct {
	// Env selects a credential set: local, flex or cosmos.
	Env             string                         `yaml:"env"`
	DSN             string                         `yaml:"dsn"`
	Database        string                         `yaml:"database"`
	Table           string                         `yaml:"table"`
	MaxConns        int32                          `yaml:"max_conns"`
	MinConns        int32                          `yaml:"min_conns"`
	MaxConnLifetime time.Duration                  `yaml:"max_conn_lifetime"`
	Credentials     map[string]PostgresCredentials `yaml:"credentials"`
}

// PostgresCredentials is one server's connection parameters.
type PostgresCredentials struct {
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// ConnString returns the DSN, or builds a key/value connection string
// from the credentials of the selected environment.
func (p PostgresConfig) ConnString() (string, error) {
	if p.DSN != "" {
		return p.DSN, nil
	}
	c, ok := p.Credentials[p.Env]
	if !ok {
		return "", fmt.Errorf("no postgres credentials for env %q", p.Env)
	}
	parts := []string{
		"host=" + c.Host,
		"user=" + c.User,
		"dbname=" + p.Database,
		"password=" + c.Password,
	}
	if c.SSLMode != "" {
		parts = append(parts, "sslmode="+c.SSLMode)
	}
	return strings.Join(parts, " "), nil
}

// QdrantConfig configures the Qdrant backend.
type QdrantConfig struct {
	Addr       string `yaml:"addr"`
	Collection string `yaml:"collection"`
}

// SQLiteConfig configures the local file backend.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// MetricsConfig configures the textfile metrics output.
type MetricsConfig struct {
	File string `yaml:"file"`
}

// DefaultQueryIDs are the players searched when no ids are given.
var DefaultQueryIDs = []string{"aaronha01", "blombro01", "guidrro01", "henderi01", "jeterde01", "rosepe01"}

// Defaults returns a Config with every default applied.
func Defaults() Config {
	return Config{
		Data: DataConfig{
			RawDir:      "data/seanhahman-baseballdatabank-2023.1/core",
			WrangledDir: "data/wrangled",
			TmpDir:      "tmp",
			ResultsDir:  "results",
		},
		Embedding: EmbeddingConfig{
			Provider:   "azure",
			APIVersion: "2023-05-15",
			Model:      "text-embedding-ada-002",
			Dimensions: 1536,
			BatchSize:  16,
			Algorithm:  "binned-text",
		},
		Search: SearchConfig{
			Backends: []string{BackendCogSearch, BackendVCore, BackendPgVector},
			K:        10,
			QueryIDs: append([]string(nil), DefaultQueryIDs...),
		},
		CogSearch: CogSearchConfig{
			Index:      "baseballplayers",
			APIVersion: "2023-07-01-Preview",
			Timeout:    30 * time.Second,
		},
		VCore: VCoreConfig{
			Database:   "dev",
			Collection: "baseball_players",
			NumLists:   1,
			Timeout:    30 * time.Second,
		},
		Postgres: PostgresConfig{
			Env:             "local",
			Database:        "dev",
			Table:           "players",
			MaxConns:        20,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			Credentials: map[string]PostgresCredentials{
				"local":  {Host: "localhost"},
				"flex":   {SSLMode: "require"},
				"cosmos": {SSLMode: "require"},
			},
		},
		Qdrant: QdrantConfig{
			Addr:       "localhost:6334",
			Collection: "baseball_players",
		},
		SQLite: SQLiteConfig{
			Path: "tmp/players.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
