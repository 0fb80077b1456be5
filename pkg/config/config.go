// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem (Ontology, Postgres, Kafka, Redis, Search, Similarity,
// Logging, Metrics).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Ontology   OntologyConfig   `yaml:"ontology"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	Search     SearchConfig     `yaml:"search"`
	Similarity SimilarityConfig `yaml:"similarity"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// XrefSource selects where the gene cross-reference table is loaded from.
const (
	XrefSourceFile     = "file"
	XrefSourcePostgres = "postgres"
)

// OntologyConfig names the data files loaded at startup.
type OntologyConfig struct {
	// Dir is the directory holding the HPO release files.
	Dir string `yaml:"dir"`
	// OBOFile is the ontology document, relative to Dir.
	OBOFile string `yaml:"oboFile"`
	// XlinkFile is the NCBI-to-HGNC TSV, relative to Dir.
	XlinkFile string `yaml:"xlinkFile"`
	// XrefSource is "file" or "postgres".
	XrefSource string `yaml:"xrefSource"`
	// XrefTable is the postgres table name when XrefSource is "postgres".
	XrefTable string `yaml:"xrefTable"`
}

// OBOPath returns the absolute path of the ontology document.
func (o OntologyConfig) OBOPath() string {
	return filepath.Join(o.Dir, o.OBOFile)
}

// XlinkPath returns the absolute path of the cross-reference TSV.
func (o OntologyConfig) XlinkPath() string {
	return filepath.Join(o.Dir, o.XlinkFile)
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled bool        `yaml:"enabled"`
	Brokers []string    `yaml:"brokers"`
	Topics  KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	QueryEvents string `yaml:"queryEvents"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// SearchConfig controls full-text lookup limits.
type SearchConfig struct {
	// DefaultLimit is applied when a request carries no result limit.
	DefaultLimit int `yaml:"defaultLimit"`
	// MaxResults is the hard cap on results returned per lookup.
	MaxResults int `yaml:"maxResults"`
	// MaxFanOut caps the number of index matches considered per query.
	MaxFanOut int `yaml:"maxFanOut"`
}

// SimilarityConfig controls the similarity ranking pipeline.
type SimilarityConfig struct {
	// MaxConcurrency bounds parallel candidate scoring per request.
	MaxConcurrency int `yaml:"maxConcurrency"`
	// DefaultLimit is the default ranked-result count.
	DefaultLimit int `yaml:"defaultLimit"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads the YAML file at path (if non-empty), applies PS_* environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks fields that have no safe fallback.
func (c *Config) Validate() error {
	if c.Ontology.Dir == "" {
		return fmt.Errorf("ontology.dir must be set")
	}
	switch c.Ontology.XrefSource {
	case XrefSourceFile, XrefSourcePostgres:
	default:
		return fmt.Errorf("ontology.xrefSource must be %q or %q, got %q",
			XrefSourceFile, XrefSourcePostgres, c.Ontology.XrefSource)
	}
	if c.Search.MaxFanOut <= 0 {
		return fmt.Errorf("search.maxFanOut must be positive")
	}
	if c.Search.MaxResults < c.Search.DefaultLimit {
		return fmt.Errorf("search.maxResults (%d) must be >= search.defaultLimit (%d)",
			c.Search.MaxResults, c.Search.DefaultLimit)
	}
	return nil
}

// defaultConfig returns a Config with defaults suited to local development.
func defaultConfig() *Config {
	return &Config{
		Ontology: OntologyConfig{
			Dir:        "data/hpo",
			OBOFile:    "hp.obo",
			XlinkFile:  "hgnc_xlink.tsv",
			XrefSource: XrefSourceFile,
			XrefTable:  "hgnc_xlink",
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "phenoserve",
			User:            "phenoserve",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Enabled: false,
			Brokers: []string{"localhost:9092"},
			Topics: KafkaTopics{
				QueryEvents: "pheno-query-events",
			},
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 10 * time.Minute,
		},
		Search: SearchConfig{
			DefaultLimit: 100,
			MaxResults:   1000,
			MaxFanOut:    10000,
		},
		Similarity: SimilarityConfig{
			MaxConcurrency: 8,
			DefaultLimit:   100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads PS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PS_ONTOLOGY_DIR"); v != "" {
		cfg.Ontology.Dir = v
	}
	if v := os.Getenv("PS_ONTOLOGY_XREF_SOURCE"); v != "" {
		cfg.Ontology.XrefSource = v
	}
	if v := os.Getenv("PS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("PS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("PS_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("PS_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("PS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("PS_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("PS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
		cfg.Kafka.Enabled = true
	}
	if v := os.Getenv("PS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("PS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("PS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("PS_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
