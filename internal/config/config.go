package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the searchd API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Search   SearchConfig   `yaml:"search"`
	Suggest  SuggestConfig  `yaml:"suggest"`
	Rerank   RerankConfig   `yaml:"rerank"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis (default)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SearchConfig holds listings index settings.
type SearchConfig struct {
	IndexName string `yaml:"index_name"`
	KeyPrefix string `yaml:"key_prefix"`
}

// SuggestConfig holds autocomplete settings.
type SuggestConfig struct {
	CacheTTLSec     int `yaml:"cache_ttl_sec"`
	TitleFetchLimit int `yaml:"title_fetch_limit"`
}

// RerankConfig holds advanced re-ranking pipeline settings.
type RerankConfig struct {
	PoolSize            int     `yaml:"pool_size"`
	DeadlineMs          int     `yaml:"deadline_ms"`
	TrendingViewsPerDay float64 `yaml:"trending_views_per_day"`
}

// ScoringConfig holds content scoring settings.
type ScoringConfig struct {
	Provider string       `yaml:"provider"` // heuristic (default), openai
	OpenAI   OpenAIConfig `yaml:"openai"`
}

// OpenAIConfig holds OpenAI-compatible scoring provider settings.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Search.IndexName == "" {
		c.Search.IndexName = "listings:idx"
	}
	if c.Search.KeyPrefix == "" {
		c.Search.KeyPrefix = "listing:"
	}
	if c.Suggest.CacheTTLSec <= 0 {
		c.Suggest.CacheTTLSec = 120
	}
	if c.Suggest.TitleFetchLimit <= 0 {
		c.Suggest.TitleFetchLimit = 200
	}
	if c.Rerank.PoolSize <= 0 {
		c.Rerank.PoolSize = 100
	}
	if c.Rerank.DeadlineMs <= 0 {
		c.Rerank.DeadlineMs = 3000
	}
	if c.Rerank.TrendingViewsPerDay <= 0 {
		c.Rerank.TrendingViewsPerDay = 20
	}
	if c.Scoring.Provider == "" {
		c.Scoring.Provider = "heuristic"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Scoring.Provider {
	case "", "heuristic":
		// ok
	case "openai":
		if c.Scoring.OpenAI.APIKey == "" {
			return fmt.Errorf("scoring.openai.api_key is required when scoring.provider is \"openai\"")
		}
	default:
		return fmt.Errorf(
			"scoring.provider must be \"heuristic\" or \"openai\", got %q", c.Scoring.Provider,
		)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
