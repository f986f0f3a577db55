// Package config provides configuration loading and structs for the semmap server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Watch     WatchConfig     `yaml:"watch"`
	Render    RenderConfig    `yaml:"render"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects the embedding store and the snapshot sources.
// SnapshotPath and LayoutPath may be file paths or http(s) URLs.
type StorageConfig struct {
	Type         string `yaml:"type"`
	DatabasePath string `yaml:"database_path"`
	BoltPath     string `yaml:"bolt_path"`
	SnapshotPath string `yaml:"snapshot_path"`
	LayoutPath   string `yaml:"layout_path"`
}

// EmbeddingConfig holds query embedder settings.
type EmbeddingConfig struct {
	// Provider is one of "onnx", "http", or "mock".
	Provider       string `yaml:"provider"`
	ModelPath      string `yaml:"model_path"`
	VocabPath      string `yaml:"vocab_path"`
	Dimensions     int    `yaml:"dimensions"`
	MaxTokens      int    `yaml:"max_tokens"`
	CacheSize      int    `yaml:"cache_size"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// SearchConfig holds ranking and intensity mapping settings.
type SearchConfig struct {
	// DefaultLimit bounds the ranked list; 0 ranks the whole corpus.
	DefaultLimit int     `yaml:"default_limit"`
	Strategy     string  `yaml:"strategy"`
	DebounceMs   int     `yaml:"debounce_ms"`
	MinIntensity float64 `yaml:"min_intensity"`
	MaxIntensity float64 `yaml:"max_intensity"`
	LoadRetries  int     `yaml:"load_retries"`
}

// WatchConfig controls reloading the snapshot when the file changes.
type WatchConfig struct {
	Enabled bool `yaml:"enabled"`
}

// RenderConfig holds scatterplot geometry.
type RenderConfig struct {
	Width   int     `yaml:"width"`
	Height  int     `yaml:"height"`
	MarginX int     `yaml:"margin_x"`
	MarginY int     `yaml:"margin_y"`
	Radius  float64 `yaml:"radius"`
	Ticks   int     `yaml:"ticks"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read, parsed, or fails Validate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BoltPath = expandPath(cfg.Storage.BoltPath, configDir)
	cfg.Storage.SnapshotPath = expandPath(cfg.Storage.SnapshotPath, configDir)
	cfg.Storage.LayoutPath = expandPath(cfg.Storage.LayoutPath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Embedding.VocabPath = expandPath(cfg.Embedding.VocabPath, configDir)

	return &cfg, nil
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	s := c.Search
	if s.MinIntensity < 0 || s.MaxIntensity > 1 || s.MinIntensity > s.MaxIntensity {
		return fmt.Errorf("search intensity range [%g, %g] must satisfy 0 <= min_intensity <= max_intensity <= 1",
			s.MinIntensity, s.MaxIntensity)
	}
	if s.DefaultLimit < 0 {
		return fmt.Errorf("search.default_limit cannot be negative: %d", s.DefaultLimit)
	}
	if s.LoadRetries < 0 {
		return fmt.Errorf("search.load_retries cannot be negative: %d", s.LoadRetries)
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. URLs and ":memory:" are returned as-is.
func expandPath(path string, configDir string) string {
	if path == "" || path == ":memory:" || IsURL(path) || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

// IsURL reports whether s is an http or https URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
