// Package config loads the application configuration from yaml.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CorpusConfig locates the source report files.
type CorpusConfig struct {
	Root string `yaml:"root"`
}

// SQLiteStoreConfig configures the local persisted index.
type SQLiteStoreConfig struct {
	Location string `yaml:"location"`
}

// QdrantStoreConfig contains connection details for a Qdrant-backed
// index.
type QdrantStoreConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
}

// StoreConfig selects and configures the index store backend.
type StoreConfig struct {
	Type   string             `yaml:"type"`
	SQLite *SQLiteStoreConfig `yaml:"sqlite,omitempty"`
	Qdrant *QdrantStoreConfig `yaml:"qdrant,omitempty"`
}

// EmbeddingConfig configures the embedding service client.
type EmbeddingConfig struct {
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
}

// CompletionConfig configures the chat-completion client.
type CompletionConfig struct {
	Model string `yaml:"model"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Corpus     CorpusConfig     `yaml:"corpus"`
	Store      StoreConfig      `yaml:"store"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Completion CompletionConfig `yaml:"completion"`
}

// Load reads a config from path. A missing file yields the defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Corpus.Root == "" {
		cfg.Corpus.Root = "data"
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "sqlite"
	}
	if cfg.Store.Type == "sqlite" {
		if cfg.Store.SQLite == nil {
			cfg.Store.SQLite = &SQLiteStoreConfig{}
		}
		if cfg.Store.SQLite.Location == "" {
			cfg.Store.SQLite.Location = "vector_index"
		}
	}
	if cfg.Store.Type == "qdrant" {
		if cfg.Store.Qdrant == nil {
			cfg.Store.Qdrant = &QdrantStoreConfig{}
		}
		if cfg.Store.Qdrant.Host == "" {
			cfg.Store.Qdrant.Host = "localhost"
		}
		if cfg.Store.Qdrant.Port == 0 {
			cfg.Store.Qdrant.Port = 6334
		}
		if cfg.Store.Qdrant.Collection == "" {
			cfg.Store.Qdrant.Collection = "report_units"
		}
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 500
	}
	if cfg.Completion.Model == "" {
		cfg.Completion.Model = "gpt-4o"
	}
}
