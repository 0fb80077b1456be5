package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Ontology.XrefSource != XrefSourceFile {
		t.Errorf("default xref source = %q", cfg.Ontology.XrefSource)
	}
	if cfg.Search.MaxFanOut != 10000 {
		t.Errorf("default max fan-out = %d", cfg.Search.MaxFanOut)
	}
	if cfg.Redis.CacheTTL != 10*time.Minute {
		t.Errorf("default cache TTL = %v", cfg.Redis.CacheTTL)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `ontology:
  dir: /srv/hpo
  xrefSource: postgres
search:
  defaultLimit: 5
  maxResults: 50
  maxFanOut: 500
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Ontology.Dir != "/srv/hpo" || cfg.Ontology.XrefSource != XrefSourcePostgres {
		t.Errorf("ontology config = %+v", cfg.Ontology)
	}
	if cfg.Search.MaxFanOut != 500 {
		t.Errorf("search config = %+v", cfg.Search)
	}
	// Untouched sections keep their defaults.
	if cfg.Metrics.Port != 9090 {
		t.Errorf("metrics config = %+v", cfg.Metrics)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PS_ONTOLOGY_DIR", "/env/hpo")
	t.Setenv("PS_REDIS_ADDR", "redis.internal:6379")
	t.Setenv("PS_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Ontology.Dir != "/env/hpo" {
		t.Errorf("ontology dir = %q", cfg.Ontology.Dir)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Addr != "redis.internal:6379" {
		t.Errorf("redis config = %+v", cfg.Redis)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %q", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	bad := *cfg
	bad.Ontology.XrefSource = "ldap"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown xref source")
	}

	bad = *cfg
	bad.Search.MaxFanOut = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero fan-out")
	}

	bad = *cfg
	bad.Search.DefaultLimit = 100
	bad.Search.MaxResults = 10
	if err := bad.Validate(); err == nil {
		t.Error("expected error for defaultLimit above maxResults")
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{
		Host: "db", Port: 5432, User: "u", Password: "p",
		Database: "pheno", SSLMode: "require",
	}
	want := "host=db port=5432 user=u password=p dbname=pheno sslmode=require"
	if got := p.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
