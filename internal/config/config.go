// Package config loads the varq server configuration.
//
// The file is YAML, decoded strictly so that misspelled keys fail loudly:
//
//	listen: ":8080"
//	store:
//	  driver: sqlite          # or postgres
//	  path: variants.db       # sqlite
//	  url: postgres://...     # postgres
//	evaluation:
//	  timeout: 30s
//	  parallelism: 4
//	  default_query_type: BFS
//	  allow_unknown_nodes: false
//	metrics: true
//
// Missing keys keep their Default values.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/varq/internal/queryir"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the complete server configuration.
type Config struct {
	Listen     string     `yaml:"listen"`
	Store      Store      `yaml:"store"`
	Evaluation Evaluation `yaml:"evaluation"`
	Metrics    bool       `yaml:"metrics"`
}

// Store selects where variants are loaded from.
type Store struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path,omitempty"`
	URL    string `yaml:"url,omitempty"`
}

// Evaluation tunes the query engine.
type Evaluation struct {
	// Timeout bounds a single evaluation. Zero disables the bound.
	Timeout time.Duration `yaml:"timeout"`

	// Parallelism bounds concurrent children per logical node. Zero means
	// GOMAXPROCS.
	Parallelism int `yaml:"parallelism"`

	// DefaultQueryType applies to logical leaves without their own type.
	DefaultQueryType string `yaml:"default_query_type"`

	// AllowUnknownNodes evaluates unrecognized logical node tags to the
	// empty set instead of rejecting the expression.
	AllowUnknownNodes bool `yaml:"allow_unknown_nodes"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen: ":8080",
		Store: Store{
			Driver: DriverSQLite,
			Path:   "varq.db",
		},
		Evaluation: Evaluation{
			Timeout:          30 * time.Second,
			DefaultQueryType: queryir.QueryTypeBFS.String(),
		},
		Metrics: true,
	}
}

// Load reads a YAML config file over the defaults and validates it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data over the defaults and validates it.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Store.URL == "" {
			return fmt.Errorf("store.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Store.Driver)
	}

	if c.Evaluation.Timeout < 0 {
		return fmt.Errorf("evaluation.timeout must not be negative")
	}
	if c.Evaluation.Parallelism < 0 {
		return fmt.Errorf("evaluation.parallelism must not be negative")
	}
	if _, err := queryir.ParseQueryType(c.Evaluation.DefaultQueryType); err != nil {
		return fmt.Errorf("evaluation.default_query_type: %w", err)
	}
	return nil
}
