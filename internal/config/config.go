// Package config loads the artsearch API configuration from YAML.
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

// Config holds the artsearch API configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Search      SearchConfig      `yaml:"search"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Cache       CacheConfig       `yaml:"cache"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding model and provider settings.
type EmbeddingConfig struct {
	Models    []ModelConfig             `yaml:"models"`
	Modal     ModalConfig               `yaml:"modal"`
	Providers map[string]ProviderConfig `yaml:"providers"`
}

// ModelConfig describes one embedding model known to the search index.
// Provider is either "modal" or a key under embedding.providers.
type ModelConfig struct {
	Key      string `yaml:"key"`
	Dim      int    `yaml:"dim"`
	Modality string `yaml:"modality"` // text, image
	Provider string `yaml:"provider"`
}

// ModalConfig holds the unified self-hosted embedding service settings.
type ModalConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// ProviderConfig holds an OpenAI-compatible embedding provider's settings.
type ProviderConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// SearchConfig holds orchestrator tuning.
type SearchConfig struct {
	BranchTimeoutSec    int     `yaml:"branch_timeout_sec"`
	CandidateMultiplier int     `yaml:"candidate_multiplier"`
	MetadataWeight      float64 `yaml:"metadata_weight"`
}

// CalibrationConfig holds score thresholds and RRF constant bounds.
type CalibrationConfig struct {
	Thresholds  map[string]float64 `yaml:"thresholds"` // source key -> min score
	RRFKMin     float64            `yaml:"rrf_k_min"`
	RRFKSpread  float64            `yaml:"rrf_k_spread"`
	HybridRelax float64            `yaml:"hybrid_relax"`
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Backend string `yaml:"backend"` // memory, redis
	TTLSec  int    `yaml:"ttl_sec"`
	Size    int    `yaml:"size"` // memory backend only
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
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
		c.HTTP.WriteTimeoutSec = 15
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if len(c.Embedding.Models) == 0 {
		c.Embedding.Models = []ModelConfig{
			{Key: "jina_v3", Dim: 768, Modality: "text", Provider: "modal"},
			{Key: "siglip2", Dim: 768, Modality: "image", Provider: "modal"},
		}
	}
	if c.Embedding.Modal.TimeoutSec <= 0 {
		c.Embedding.Modal.TimeoutSec = 10
	}
	if c.Search.BranchTimeoutSec <= 0 {
		c.Search.BranchTimeoutSec = 5
	}
	if c.Search.CandidateMultiplier <= 0 {
		c.Search.CandidateMultiplier = 4
	}
	if c.Search.MetadataWeight <= 0 {
		c.Search.MetadataWeight = 0.3
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 3600
	}
	if c.Cache.Size <= 0 {
		c.Cache.Size = 10000
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
	for i, m := range c.Embedding.Models {
		if m.Key == "" {
			return fmt.Errorf("embedding.models[%d].key is required", i)
		}
		if m.Dim <= 0 {
			return fmt.Errorf("embedding.models[%d].dim must be positive", i)
		}
		if m.Modality != "text" && m.Modality != "image" {
			return fmt.Errorf("embedding.models[%d].modality must be \"text\" or \"image\", got %q", i, m.Modality)
		}
		if m.Provider == "modal" {
			continue
		}
		if _, ok := c.Embedding.Providers[m.Provider]; !ok {
			return fmt.Errorf("embedding.models[%d].provider %q is not configured", i, m.Provider)
		}
	}
	switch c.Cache.Backend {
	case "memory", "redis":
		// ok
	default:
		return fmt.Errorf("cache.backend must be \"memory\" or \"redis\", got %q", c.Cache.Backend)
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
