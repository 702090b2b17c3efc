package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvFile is loaded, when present, before environment overrides are applied.
// Variables already set in the process environment win.
const EnvFile = ".env.local"

// Load builds a Config in layers:
//  1. Built-in defaults
//  2. YAML config file (explicit path, BBVEC_CONFIG env, ./config.yaml)
//  3. .env.local
//  4. Environment variable overrides
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	if path := discoverConfigFile(configPath); path != "" {
		if err := loadYAMLFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	_ = godotenv.Load(EnvFile)
	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if envPath := os.Getenv("BBVEC_CONFIG"); envPath != "" {
		return envPath
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

// loadYAMLFile parses path into cfg. Fields absent from the file keep their
// current values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// EnvVars lists the variables applyEnvOverrides reads, for the env command.
var EnvVars = []string{
	"AZURE_OPENAI_URL",
	"AZURE_OPENAI_KEY1",
	"OPENAI_API_KEY",
	"AZURE_SEARCH_URL",
	"AZURE_SEARCH_NAME",
	"AZURE_SEARCH_ADMIN_KEY",
	"AZURE_SEARCH_QUERY_KEY",
	"AZURE_COSMOSDB_MONGO_VCORE_CONN_STR",
	"USERNAME",
	"LOCAL_PG_PASS",
	"AZURE_PG_SERVER_FULL_NAME",
	"AZURE_PG_USER",
	"AZURE_PG_PASS",
	"AZURE_COSMOSDB_PG_SERVER_FULL_NAME",
	"AZURE_COSMOSDB_PG_ADMIN_ID",
	"AZURE_COSMOSDB_PG_ADMIN_PW",
	"BBVEC_PG_ENV",
	"BBVEC_PG_DSN",
	"QDRANT_ADDR",
	"QDRANT_COLLECTION_NAME",
	"BBVEC_EMBED_BATCH_SIZE",
	"BBVEC_LOG_LEVEL",
}

func applyEnvOverrides(cfg *Config) {
	set := func(dst *string, name string) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}

	e := &cfg.Embedding
	set(&e.URL, "AZURE_OPENAI_URL")
	set(&e.APIKey, "AZURE_OPENAI_KEY1")
	if e.Provider == "openai" {
		set(&e.APIKey, "OPENAI_API_KEY")
	}
	if v := os.Getenv("BBVEC_EMBED_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			e.BatchSize = n
		}
	}

	cs := &cfg.CogSearch
	set(&cs.URL, "AZURE_SEARCH_URL")
	if cs.URL == "" {
		if name := os.Getenv("AZURE_SEARCH_NAME"); name != "" {
			cs.URL = "https://" + name + ".search.windows.net"
		}
	}
	set(&cs.AdminKey, "AZURE_SEARCH_ADMIN_KEY")
	set(&cs.QueryKey, "AZURE_SEARCH_QUERY_KEY")

	set(&cfg.VCore.ConnString, "AZURE_COSMOSDB_MONGO_VCORE_CONN_STR")

	pg := &cfg.Postgres
	set(&pg.Env, "BBVEC_PG_ENV")
	set(&pg.DSN, "BBVEC_PG_DSN")
	if pg.Credentials == nil {
		pg.Credentials = make(map[string]PostgresCredentials)
	}
	envCreds := map[string][3]string{
		"local":  {"", "USERNAME", "LOCAL_PG_PASS"},
		"flex":   {"AZURE_PG_SERVER_FULL_NAME", "AZURE_PG_USER", "AZURE_PG_PASS"},
		"cosmos": {"AZURE_COSMOSDB_PG_SERVER_FULL_NAME", "AZURE_COSMOSDB_PG_ADMIN_ID", "AZURE_COSMOSDB_PG_ADMIN_PW"},
	}
	for env, names := range envCreds {
		c := pg.Credentials[env]
		if names[0] != "" {
			set(&c.Host, names[0])
		}
		set(&c.User, names[1])
		set(&c.Password, names[2])
		pg.Credentials[env] = c
	}

	set(&cfg.Qdrant.Addr, "QDRANT_ADDR")
	set(&cfg.Qdrant.Collection, "QDRANT_COLLECTION_NAME")
	set(&cfg.Logging.Level, "BBVEC_LOG_LEVEL")
}
