// Package config loads application configuration from layered sources.
//
// The loading order, lowest to highest priority:
//  1. Default values (in code)
//  2. An optional YAML file
//  3. Environment variables
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LookupFunc resolves an environment variable
type LookupFunc func(key string) (string, bool)

// Loader layers configuration sources
type Loader struct {
	// path is the YAML file; empty means look for the default file
	path string

	// explicit makes a missing file an error
	explicit bool

	lookup  LookupFunc
	sources []string
}

// DefaultPath is tried when no file is named
const DefaultPath = "mindboard.yaml"

// NewLoader creates a loader. A non-empty path must exist.
func NewLoader(path string) *Loader {
	l := &Loader{path: path, explicit: path != "", lookup: os.LookupEnv}
	if l.path == "" {
		l.path = DefaultPath
	}
	return l
}

// WithLookup replaces the environment lookup
func (l *Loader) WithLookup(lookup LookupFunc) *Loader {
	l.lookup = lookup
	return l
}

// Path returns the file the loader reads
func (l *Loader) Path() string {
	return l.path
}

// Load builds and validates the configuration
func (l *Loader) Load() (*Config, error) {
	l.sources = l.sources[:0]

	cfg := Default()
	l.sources = append(l.sources, "defaults")

	if err := l.loadFile(cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) || l.explicit {
			return nil, fmt.Errorf("failed to load config file %s: %w", l.path, err)
		}
	}

	if err := l.loadEnvironmentVariables(cfg); err != nil {
		return nil, err
	}

	cfg.LoadedFrom = append([]string(nil), l.sources...)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (l *Loader) loadFile(cfg *Config) error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse: %w", err)
	}

	l.sources = append(l.sources, l.path)
	return nil
}

// loadEnvironmentVariables overlays BOARD_* variables and AWS_REGION
func (l *Loader) loadEnvironmentVariables(cfg *Config) error {
	applied := false
	set := func(key string, apply func(string) error) error {
		val, ok := l.lookup(key)
		if !ok || strings.TrimSpace(val) == "" {
			return nil
		}
		if err := apply(strings.TrimSpace(val)); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		applied = true
		return nil
	}

	str := func(target *string) func(string) error {
		return func(v string) error {
			*target = v
			return nil
		}
	}

	vars := []struct {
		key   string
		apply func(string) error
	}{
		{"BOARD_ENV", func(v string) error {
			cfg.Environment = Environment(strings.ToLower(v))
			return nil
		}},
		{"BOARD_LOG_LEVEL", func(v string) error {
			cfg.LogLevel = strings.ToLower(v)
			return nil
		}},
		{"BOARD_STORE", func(v string) error {
			cfg.Store.Driver = StoreDriver(strings.ToLower(v))
			return nil
		}},
		{"BOARD_SQLITE_PATH", str(&cfg.Store.SQLitePath)},
		{"BOARD_DYNAMODB_TABLE", str(&cfg.Store.DynamoDB.Table)},
		{"AWS_REGION", str(&cfg.Store.DynamoDB.Region)},
		{"BOARD_DYNAMODB_ENDPOINT", str(&cfg.Store.DynamoDB.Endpoint)},
		{"BOARD_HISTORY_LIMIT", func(v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			cfg.Board.HistoryLimit = n
			return nil
		}},
		{"BOARD_ZOOM_ANCHOR", func(v string) error {
			cfg.Board.ZoomAnchor = strings.ToLower(v)
			return nil
		}},
	}

	for _, v := range vars {
		if err := set(v.key, v.apply); err != nil {
			return err
		}
	}

	if applied {
		l.sources = append(l.sources, "environment")
	}
	return nil
}

// Load reads configuration from path and the process environment
func Load(path string) (*Config, error) {
	return NewLoader(path).Load()
}
