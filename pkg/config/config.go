// Package config loads settings from an optional JSON file with environment
// variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DataDir   string          `json:"data_dir" env:"SECONDBRAIN_DATA_DIR"`
	UserID    string          `json:"user_id" env:"SECONDBRAIN_USER_ID"`
	Providers ProvidersConfig `json:"providers"`
	Memory    MemoryConfig    `json:"memory"`
	Index     IndexConfig     `json:"index"`
	Export    ExportConfig    `json:"export"`
	Chat      ChatConfig      `json:"chat"`
}

type ProvidersConfig struct {
	OpenAI    OpenAIConfig    `json:"openai"`
	Anthropic AnthropicConfig `json:"anthropic"`
}

type OpenAIConfig struct {
	APIKey         string `json:"api_key" env:"SECONDBRAIN_PROVIDERS_OPENAI_API_KEY"`
	Model          string `json:"model" env:"SECONDBRAIN_PROVIDERS_OPENAI_MODEL"`
	EmbeddingModel string `json:"embedding_model" env:"SECONDBRAIN_PROVIDERS_OPENAI_EMBEDDING_MODEL"`
}

type AnthropicConfig struct {
	APIKey string `json:"api_key" env:"SECONDBRAIN_PROVIDERS_ANTHROPIC_API_KEY"`
	Model  string `json:"model" env:"SECONDBRAIN_PROVIDERS_ANTHROPIC_MODEL"`
}

type MemoryConfig struct {
	DBFile string `json:"db_file" env:"SECONDBRAIN_MEMORY_DB_FILE"`
}

type IndexConfig struct {
	Dir            string `json:"dir" env:"SECONDBRAIN_INDEX_DIR"`
	EmbeddingCache int64  `json:"embedding_cache" env:"SECONDBRAIN_INDEX_EMBEDDING_CACHE"`
}

type ExportConfig struct {
	// AutoCron schedules background memory re-exports; empty disables them.
	AutoCron string `json:"auto_cron" env:"SECONDBRAIN_EXPORT_AUTO_CRON"`
}

type ChatConfig struct {
	UseHistory     bool `json:"use_history" env:"SECONDBRAIN_CHAT_USE_HISTORY"`
	TimeoutSeconds int  `json:"timeout_seconds" env:"SECONDBRAIN_CHAT_TIMEOUT_SECONDS"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir: "~/.secondbrain",
		UserID:  "default",
		Providers: ProvidersConfig{
			OpenAI: OpenAIConfig{
				Model:          "gpt-4o-mini",
				EmbeddingModel: "text-embedding-3-small",
			},
			Anthropic: AnthropicConfig{
				Model: "claude-sonnet-4-20250514",
			},
		},
		Memory: MemoryConfig{
			DBFile: "memories.db",
		},
		Index: IndexConfig{
			Dir:            "chroma",
			EmbeddingCache: 4096,
		},
		Export: ExportConfig{
			AutoCron: "",
		},
		Chat: ChatConfig{
			UseHistory:     true,
			TimeoutSeconds: 30,
		},
	}
}

// LoadConfig reads the JSON file at path (missing file is fine) and applies
// environment overrides on top.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// DataPath resolves a file name inside the (home-expanded) data directory.
func (c *Config) DataPath(name string) string {
	return filepath.Join(expandHome(c.DataDir), name)
}

// MemoryDBPath is the SQLite file holding memory snapshots.
func (c *Config) MemoryDBPath() string {
	return c.DataPath(c.Memory.DBFile)
}

// IndexDirPath is the persistent vector database directory.
func (c *Config) IndexDirPath() string {
	return c.DataPath(c.Index.Dir)
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
