package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the askdocs service.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	DocStore  DocStoreConfig  `mapstructure:"docstore"`
	WebSearch WebSearchConfig `mapstructure:"web_search"`
	Files     FilesConfig     `mapstructure:"files"`
	Sandbox   SandboxConfig   `mapstructure:"sandbox"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address      string   `mapstructure:"address"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// LLMConfig contains LLM provider configurations
type LLMConfig struct {
	Providers map[string]LLMProvider `mapstructure:"providers"`
	Routing   LLMRoutingConfig       `mapstructure:"routing"`
}

// LLMProvider represents a single LLM provider configuration
type LLMProvider struct {
	Type       string              `mapstructure:"type"` // openai, gemini
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Models     map[string]LLMModel `mapstructure:"models"`
	MaxRetries int                 `mapstructure:"max_retries"`
	Timeout    time.Duration       `mapstructure:"timeout"`
}

// LLMModel represents a specific model configuration
type LLMModel struct {
	Name            string   `mapstructure:"name"`
	APIName         string   `mapstructure:"api_name"`
	MaxTokens       int      `mapstructure:"max_tokens"`
	Temperature     float64  `mapstructure:"temperature"`
	CostPer1K       float64  `mapstructure:"cost_per_1k_input"`
	CostPer1KOutput float64  `mapstructure:"cost_per_1k_output"`
	Capabilities    []string `mapstructure:"capabilities"` // planning, generation, embedding
}

// LLMRoutingConfig defines which model to use for different stages
type LLMRoutingConfig struct {
	Planning   string `mapstructure:"planning"`   // plan decomposition
	Generation string `mapstructure:"generation"` // answer generation
	Embedding  string `mapstructure:"embedding"`  // vector embeddings for the chroma backend
	Fallback   string `mapstructure:"fallback"`
}

// RetrievalConfig tunes the context selection pipeline.
type RetrievalConfig struct {
	MaxChunks      int `mapstructure:"max_chunks"`       // cap on document chunks per query
	MaxWebResults  int `mapstructure:"max_web_results"`  // cap on internet snippets per query
	MaxChunkLength int `mapstructure:"max_chunk_length"` // runes per chunk in the prompt
}

// DocStoreConfig selects and configures the document index backend.
type DocStoreConfig struct {
	Backend string       `mapstructure:"backend"` // chroma, bleve
	Chroma  ChromaConfig `mapstructure:"chroma"`
	Bleve   BleveConfig  `mapstructure:"bleve"`
}

// ChromaConfig points at an external Chroma server.
type ChromaConfig struct {
	URL        string        `mapstructure:"url"`
	Collection string        `mapstructure:"collection"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// BleveConfig configures the in-process full-text index.
type BleveConfig struct {
	DocumentsDir string `mapstructure:"documents_dir"` // corpus loaded at startup
}

// WebSearchConfig contains web search fallback settings
type WebSearchConfig struct {
	Provider     string `mapstructure:"provider"` // duckduckgo, serper, brave
	SerperAPIKey string `mapstructure:"serper_api_key"`
	BraveAPIKey  string `mapstructure:"brave_api_key"`
	MaxResults   int    `mapstructure:"max_results"`
	FetchPages   bool   `mapstructure:"fetch_pages"` // readability enrichment for explicit fetch tasks
}

// FilesConfig configures the file manager workspace.
type FilesConfig struct {
	Workspace string `mapstructure:"workspace"`
}

// SandboxConfig declares code interpreter limits.
type SandboxConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Interpreter string        `mapstructure:"interpreter"` // e.g. python3
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxOutput   int           `mapstructure:"max_output_bytes"`
	WorkDir     string        `mapstructure:"work_dir"`
}

// StorageConfig contains persistence settings
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains PostgreSQL settings
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig contains Redis settings
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	CostTracking bool `mapstructure:"cost_tracking"`
}

// DSN builds a postgres connection string from the configured fields.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	host := p.Host
	port := p.Port
	ssl := p.SSLMode
	if host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres not configured (storage.postgres.host/dbname or url)")
	}
	if port == "" {
		port = "5432"
	}
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, host, port, p.DBName, ssl), nil
}

// LoadConfig reads configuration from a JSON file plus ASKDOCS_* env overrides.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.default_timeout", "30s")
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("retrieval.max_chunks", 5)
	viper.SetDefault("retrieval.max_web_results", 3)
	viper.SetDefault("retrieval.max_chunk_length", 3500)
	viper.SetDefault("docstore.backend", "bleve")
	viper.SetDefault("docstore.chroma.collection", "documents_collection")
	viper.SetDefault("docstore.chroma.timeout", "15s")
	viper.SetDefault("web_search.provider", "duckduckgo")
	viper.SetDefault("web_search.max_results", 3)
	viper.SetDefault("files.workspace", "workspace")
	viper.SetDefault("sandbox.enabled", true)
	viper.SetDefault("sandbox.interpreter", "python3")
	viper.SetDefault("sandbox.timeout", "10s")
	viper.SetDefault("sandbox.max_output_bytes", 65536)
	viper.SetDefault("storage.redis.ttl", "24h")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("ASKDOCS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		panic(fmt.Errorf("fatal error unmarshalling config: %w", err))
	}
	return &cfg
}
