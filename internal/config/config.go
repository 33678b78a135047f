package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds all memcore configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Memory    MemoryConfig    `toml:"memory"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type EmbeddingConfig struct {
	Provider   string `toml:"provider"` // "ollama" or "hash"
	OllamaURL  string `toml:"ollama_url"`
	Model      string `toml:"model"` // e.g. "nomic-embed-text"
	Dimensions int    `toml:"dimensions"`
}

type MemoryConfig struct {
	LearningEnabled  bool  `toml:"learning_enabled"`
	SweepIntervalSec int   `toml:"sweep_interval_sec"`
	TokenBudget      int   `toml:"token_budget"`
	MaxWriteAttempts int   `toml:"max_write_attempts"`
	ReadTimeoutMs    int64 `toml:"read_timeout_ms"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 38600,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Embedding: EmbeddingConfig{
			Provider:   "ollama",
			OllamaURL:  "http://localhost:11434",
			Model:      "nomic-embed-text",
			Dimensions: 768,
		},
		Memory: MemoryConfig{
			LearningEnabled:  true,
			SweepIntervalSec: 3600,
			TokenBudget:      2000,
			MaxWriteAttempts: 3,
			ReadTimeoutMs:    2000,
		},
	}
}

// Load reads a TOML config file and overlays it on the defaults. A missing
// file is not an error; the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
