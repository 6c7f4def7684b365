package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/linksaudi/market-intelligence/pkg/types"
)

// Config is the root configuration for the market intelligence service.
// Values load from an optional YAML file, then environment variables
// overlay the credential and endpoint fields.
type Config struct {
	Weaviate   WeaviateConfig   `yaml:"weaviate"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Generation GenerationConfig `yaml:"generation"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Sessions   SessionsConfig   `yaml:"sessions"`
	WebSearch  WebSearchConfig  `yaml:"web_search"`
	HTTP       HTTPConfig       `yaml:"http"`
}

// WeaviateConfig holds vector store connection settings.
type WeaviateConfig struct {
	URL            string            `yaml:"url"`
	APIKey         string            `yaml:"api_key"`
	Headers        map[string]string `yaml:"headers"`
	Timeout        time.Duration     `yaml:"timeout"`
	ConnectRetries int               `yaml:"connect_retries"`
	RetryBaseDelay time.Duration     `yaml:"retry_base_delay"`
	// UseMock selects the synthetic document store explicitly instead of
	// detecting it at runtime.
	UseMock bool `yaml:"use_mock"`
}

// EmbeddingsConfig holds embedding provider settings.
type EmbeddingsConfig struct {
	OpenAIAPIKey   string        `yaml:"openai_api_key"`
	APIEndpoint    string        `yaml:"api_endpoint"`
	Model          string        `yaml:"model"`
	Dimensions     int           `yaml:"dimensions"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RateLimit      int           `yaml:"rate_limit"` // requests per minute
	CacheSize      int           `yaml:"cache_size"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	EnableLocal    bool          `yaml:"enable_local_fallback"`

	RedisEnabled  bool   `yaml:"redis_enabled"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// GenerationConfig holds chat completion settings shared by both domain
// profiles; per-profile temperature and token ceilings live in the
// pipeline profiles.
type GenerationConfig struct {
	OpenAIAPIKey   string        `yaml:"openai_api_key"`
	APIEndpoint    string        `yaml:"api_endpoint"`
	Model          string        `yaml:"model"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// PipelineConfig holds orchestrator settings.
type PipelineConfig struct {
	MarketContextLimit int `yaml:"market_context_limit"`
	LegalContextLimit  int `yaml:"legal_context_limit"`
	TruncateChars      int `yaml:"truncate_chars"`
	HistorySize        int `yaml:"history_size"`
}

// SessionsConfig holds legal consultation session settings.
type SessionsConfig struct {
	Directory string `yaml:"directory"`
}

// WebSearchConfig holds the optional web enrichment settings.
type WebSearchConfig struct {
	Enabled        bool          `yaml:"enabled"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxResults     int           `yaml:"max_results"`
}

// HTTPConfig holds the service listener settings.
type HTTPConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the configuration defaults matching the documented
// interface surface: text-embedding-3-small at 1536 dimensions, gpt-4
// generation, 2000-character truncation, 3 connection retries with a 2
// second base delay.
func Default() *Config {
	return &Config{
		Weaviate: WeaviateConfig{
			// Mock data until a real endpoint is configured.
			UseMock:        true,
			Timeout:        30 * time.Second,
			ConnectRetries: 3,
			RetryBaseDelay: 2 * time.Second,
			Headers: map[string]string{
				"X-LinkSaudi-Client": "Market-Intelligence-Platform/1.0",
			},
		},
		Embeddings: EmbeddingsConfig{
			APIEndpoint:    "https://api.openai.com/v1/embeddings",
			Model:          "text-embedding-3-small",
			Dimensions:     1536,
			RequestTimeout: 15 * time.Second,
			RateLimit:      300,
			CacheSize:      4096,
			CacheTTL:       12 * time.Hour,
			EnableLocal:    true,
		},
		Generation: GenerationConfig{
			APIEndpoint:    "https://api.openai.com/v1/chat/completions",
			Model:          "gpt-4",
			RequestTimeout: 120 * time.Second,
		},
		Pipeline: PipelineConfig{
			MarketContextLimit: 5,
			LegalContextLimit:  10,
			TruncateChars:      2000,
			HistorySize:        1024,
		},
		Sessions: SessionsConfig{
			Directory: "legal_sessions",
		},
		WebSearch: WebSearchConfig{
			RequestTimeout: 15 * time.Second,
			MaxResults:     5,
		},
		HTTP: HTTPConfig{
			ListenAddr:      ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    180 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
	}
}

// Load reads configuration from path (optional, "" skips the file) and
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, types.NewPipelineError(types.ErrKindConfiguration, "config.Load",
				fmt.Errorf("reading config file %s: %w", path, err))
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, types.NewPipelineError(types.ErrKindConfiguration, "config.Load",
				fmt.Errorf("parsing config file %s: %w", path, err))
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("WEAVIATE_URL"); v != "" {
		c.Weaviate.URL = v
		c.Weaviate.UseMock = false
	}
	if v := os.Getenv("WEAVIATE_API_KEY"); v != "" {
		c.Weaviate.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Embeddings.OpenAIAPIKey = v
		c.Generation.OpenAIAPIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Embeddings.RedisAddr = v
		c.Embeddings.RedisEnabled = true
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.HTTP.ListenAddr = v
	}
	if v := os.Getenv("USE_MOCK_STORE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Weaviate.UseMock = b
		}
	}
}

// Validate reports configuration problems once, at startup. A missing
// Weaviate endpoint is not an error when the mock store is selected.
func (c *Config) Validate() error {
	if !c.Weaviate.UseMock && c.Weaviate.URL == "" {
		return types.NewPipelineError(types.ErrKindConfiguration, "config.Validate",
			fmt.Errorf("weaviate.url is required unless weaviate.use_mock is set"))
	}
	if c.Pipeline.TruncateChars <= 0 {
		return types.NewPipelineError(types.ErrKindConfiguration, "config.Validate",
			fmt.Errorf("pipeline.truncate_chars must be positive, got %d", c.Pipeline.TruncateChars))
	}
	if c.Pipeline.MarketContextLimit <= 0 || c.Pipeline.LegalContextLimit <= 0 {
		return types.NewPipelineError(types.ErrKindConfiguration, "config.Validate",
			fmt.Errorf("pipeline context limits must be positive"))
	}
	if c.Embeddings.Dimensions <= 0 {
		return types.NewPipelineError(types.ErrKindConfiguration, "config.Validate",
			fmt.Errorf("embeddings.dimensions must be positive, got %d", c.Embeddings.Dimensions))
	}
	return nil
}
