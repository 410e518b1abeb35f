// Package config provides configuration loading and structs for the research server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool          `yaml:"debug"`
	LogLevel string        `yaml:"log_level"`
	Server   ServerConfig  `yaml:"server"`
	Models   ModelsConfig  `yaml:"models"`
	Search   SearchConfig  `yaml:"search"`
	Reports  ReportsConfig `yaml:"reports"`
	Storage  StorageConfig `yaml:"storage"`
	Agent    AgentConfig   `yaml:"agent"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ModelsConfig holds the model backend address and the two model identifiers.
type ModelsConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Orchestrator      string        `yaml:"orchestrator"`
	Specialist        string        `yaml:"specialist"`
	SpecialistTimeout time.Duration `yaml:"specialist_timeout"`
	HealthTimeout     time.Duration `yaml:"health_timeout"`
}

// SearchConfig holds web search provider settings.
type SearchConfig struct {
	APIKey         string   `yaml:"api_key"`
	MaxResults     int      `yaml:"max_results"`
	Depth          string   `yaml:"depth"`
	IncludeDomains []string `yaml:"include_domains"`
}

// ReportsConfig holds report persistence and indexing settings.
type ReportsConfig struct {
	OutputDir string `yaml:"output_dir"`
	// IndexPath is where the keyword index lives; empty keeps it in memory.
	IndexPath string `yaml:"index_path"`
	Watch     *bool  `yaml:"watch"`
}

// WatchOrDefault returns whether to watch the output directory; defaults to true when unset.
func (r *ReportsConfig) WatchOrDefault() bool {
	if r.Watch != nil {
		return *r.Watch
	}
	return true
}

// StorageConfig holds the run journal database path. Empty disables the journal.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// AgentConfig holds research agent settings.
type AgentConfig struct {
	Name          string `yaml:"name"`
	MaxIterations int    `yaml:"max_iterations"`
	StepEvents    bool   `yaml:"step_events"`
}

// ErrMissingAPIKey is returned by Validate when no search API key is configured.
var ErrMissingAPIKey = errors.New("search API key is not set; set TAVILY_API_KEY or search.api_key in the config file")

// Load reads and parses the config file at path, applies defaults and environment
// overrides, and expands paths. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyEnv(&cfg, os.LookupEnv)
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Reports.OutputDir = expandPath(cfg.Reports.OutputDir, configDir)
	if cfg.Reports.IndexPath != "" {
		cfg.Reports.IndexPath = expandPath(cfg.Reports.IndexPath, configDir)
	}
	if cfg.Storage.DatabasePath != "" {
		cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	}

	return &cfg, nil
}

// FromEnv builds a config from defaults and environment variables only.
// Relative paths are kept relative to the working directory.
func FromEnv() *Config {
	var cfg Config
	ApplyEnv(&cfg, os.LookupEnv)
	ApplyDefaults(&cfg)
	return &cfg
}

// Validate reports configuration that would prevent the research agent from running.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Search.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if c.Models.BaseURL == "" {
		return errors.New("models.base_url must not be empty")
	}
	return nil
}

// expandPath converts a relative path to absolute. Paths starting with "./" are relative
// to configDir; other relative paths are left as given (relative to the working directory).
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// LoadOrDefault loads the config at path when it exists. When path does not exist it
// returns defaults plus environment overrides, so the service can run from env vars alone.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return FromEnv(), nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return FromEnv(), nil
		}
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}
	return Load(path)
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
