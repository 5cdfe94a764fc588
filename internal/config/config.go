// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (BOGOSEO_* runtime override)
//  2. Config file (~/.bogoseo/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider, model, embedder for outline/section generation
//   - Storage: PostgreSQL connection for the document and emissions stores (storage.go)
//   - Generation: retrieval depth, rate limiting, response language
//   - Observability: OTLP trace export (observability block)
//
// Error handling uses sentinel errors so callers can check with errors.Is().
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidTopK indicates the retrieval depth is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval top_k")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderGoogleAI = "googleai"
)

const (
	// DefaultGeminiEmbedderModel is the default Gemini embedder model.
	// gemini-embedding-001 supports truncation to 768 dimensions, which
	// is what the documents table schema uses; see knowledge.VectorDimension.
	DefaultGeminiEmbedderModel = "gemini-embedding-001"

	// DefaultModelName is the default generation model.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultTopK is the default number of snippets retrieved per section question.
	DefaultTopK = 5

	// MaxTopK bounds retrieval depth to keep grounding prompts within budget.
	MaxTopK = 20
)

// Observability holds OTLP trace export settings.
type Observability struct {
	// Enabled turns on trace export to a local OTLP agent.
	Enabled bool `mapstructure:"enabled" json:"enabled"`

	// AgentHost is the OTLP HTTP endpoint (host:port, no scheme).
	AgentHost string `mapstructure:"agent_host" json:"agent_host"`

	// Environment tags exported spans (dev, staging, prod).
	Environment string `mapstructure:"environment" json:"environment"`

	// ServiceName is the reported service name.
	ServiceName string `mapstructure:"service_name" json:"service_name"`
}

// Config stores application configuration.
type Config struct {
	// AI provider and model configuration
	Provider      string  `mapstructure:"provider" json:"provider"`
	ModelName     string  `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string  `mapstructure:"embedder_model" json:"embedder_model"`
	Temperature   float32 `mapstructure:"temperature" json:"temperature"`
	Language      string  `mapstructure:"language" json:"language"`

	// Generation tuning
	TopK      int     `mapstructure:"top_k" json:"top_k"`
	RateLimit float64 `mapstructure:"rate_limit" json:"rate_limit"` // LLM requests per second
	RateBurst int     `mapstructure:"rate_burst" json:"rate_burst"`

	// HTTP server
	Addr string `mapstructure:"addr" json:"addr"`

	// PostgreSQL connection (document store + emissions table)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"-"`
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Ingestion
	DocsDir string `mapstructure:"docs_dir" json:"docs_dir"`

	// Observability
	Observability Observability `mapstructure:"observability" json:"observability"`
}

// Load reads configuration from file, environment, and defaults.
func Load() (*Config, error) {
	configDir, err := Dir()
	if err != nil {
		return nil, fmt.Errorf("resolving config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // also support current directory

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file is fine: defaults + env cover everything.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Dir returns the bogoseo configuration directory (~/.bogoseo),
// creating it with restricted permissions if missing.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	dir := filepath.Join(home, ".bogoseo")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	return dir, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("embedder_model", DefaultGeminiEmbedderModel)
	v.SetDefault("temperature", 0.4)
	v.SetDefault("language", "ko")

	v.SetDefault("top_k", DefaultTopK)
	v.SetDefault("rate_limit", 10.0)
	v.SetDefault("rate_burst", 30)

	v.SetDefault("addr", "127.0.0.1:3400")

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "bogoseo")
	v.SetDefault("postgres_password", "bogoseo_dev_password")
	v.SetDefault("postgres_db_name", "bogoseo")
	v.SetDefault("postgres_ssl_mode", "disable")

	v.SetDefault("docs_dir", "docs")

	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.agent_host", "localhost:4318")
	v.SetDefault("observability.environment", "dev")
	v.SetDefault("observability.service_name", "bogoseo")
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("BOGOSEO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// FullModelName returns the provider-qualified model name used by Genkit
// (e.g. "googleai/gemini-2.5-flash"). An already-qualified name is kept as is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	switch c.Provider {
	case ProviderGoogleAI, ProviderGemini, "":
		return "googleai/" + c.ModelName
	default:
		return c.Provider + "/" + c.ModelName
	}
}
