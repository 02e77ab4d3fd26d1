// Package config loads and validates the application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"pdf-chat-go/internal/apperr"
)

// Config mirrors configs/config.yaml.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Chunking    ChunkingConfig    `mapstructure:"chunking"`
	Extractor   ExtractorConfig   `mapstructure:"extractor"`
	Tika        TikaConfig        `mapstructure:"tika"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding"`
	VectorIndex VectorIndexConfig `mapstructure:"vector_index"`
	Registry    RegistryConfig    `mapstructure:"registry"`
	Cache       CacheConfig       `mapstructure:"cache"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Database    DatabaseConfig    `mapstructure:"database"`
	MinIO       MinIOConfig       `mapstructure:"minio"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port        string `mapstructure:"port"`
	Mode        string `mapstructure:"mode"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb"`
}

// LogConfig holds the zap logger settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// RateLimitConfig sets per-client request budgets, in requests per minute.
type RateLimitConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Backend string `mapstructure:"backend"` // memory | redis
	Default int    `mapstructure:"default"`
	PDF     int    `mapstructure:"pdf"`
	Chat    int    `mapstructure:"chat"`
}

// ChunkingConfig sets the word windows used at upload time.
type ChunkingConfig struct {
	ChunkSize int `mapstructure:"chunk_size"`
	Overlap   int `mapstructure:"overlap"`
	TopK      int `mapstructure:"top_k"`
}

// ExtractorConfig selects the PDF text extractor.
type ExtractorConfig struct {
	Backend string `mapstructure:"backend"` // native | tika
}

// TikaConfig holds the Apache Tika server address.
type TikaConfig struct {
	ServerURL string        `mapstructure:"server_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"` // gemini | openai | hashing
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

// VectorIndexConfig selects the vector index backend.
type VectorIndexConfig struct {
	Backend       string              `mapstructure:"backend"` // memory | sql | elasticsearch
	Directory     string              `mapstructure:"directory"`
	Driver        string              `mapstructure:"driver"` // sqlite | mysql
	DSN           string              `mapstructure:"dsn"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

// ElasticsearchConfig holds the Elasticsearch connection settings.
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
	// InsecureSkipVerify disables TLS certificate checks, for self-signed dev clusters only.
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify"`
}

// RegistryConfig selects where document metadata lives.
type RegistryConfig struct {
	Backend string `mapstructure:"backend"` // memory | redis
}

// CacheConfig bounds the response cache.
type CacheConfig struct {
	Capacity int `mapstructure:"capacity"`
}

// LLMConfig configures the answering model.
type LLMConfig struct {
	Provider   string              `mapstructure:"provider"` // gemini | openai
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Model      string              `mapstructure:"model"`
	Timeout    time.Duration       `mapstructure:"timeout"`
	Generation LLMGenerationConfig `mapstructure:"generation"`
}

// LLMGenerationConfig holds optional sampling parameters; zero means provider default.
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// DatabaseConfig holds the Redis connection used by the redis registry and rate limiter.
type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MinIOConfig configures the optional archive of uploaded PDFs.
type MinIOConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// KafkaConfig configures the optional document event stream.
type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.max_upload_mb", 32)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.backend", "memory")
	v.SetDefault("rate_limit.default", 10)
	v.SetDefault("rate_limit.pdf", 3)
	v.SetDefault("rate_limit.chat", 3)

	v.SetDefault("chunking.chunk_size", 500)
	v.SetDefault("chunking.overlap", 50)
	v.SetDefault("chunking.top_k", 3)

	v.SetDefault("extractor.backend", "native")
	v.SetDefault("tika.timeout", 60*time.Second)

	v.SetDefault("embedding.provider", "gemini")
	v.SetDefault("embedding.model", "text-embedding-004")
	v.SetDefault("embedding.dimensions", 768)

	v.SetDefault("vector_index.backend", "sql")
	v.SetDefault("vector_index.directory", "vectorstore")
	v.SetDefault("vector_index.driver", "sqlite")
	v.SetDefault("vector_index.elasticsearch.index_name", "pdf_chunks")
	v.SetDefault("vector_index.elasticsearch.insecure_skip_verify", false)

	v.SetDefault("registry.backend", "memory")
	v.SetDefault("cache.capacity", 100)

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "gemini-1.5-flash")
	v.SetDefault("llm.timeout", 20*time.Second)

	v.SetDefault("database.redis.addr", "localhost:6379")
	v.SetDefault("minio.bucket_name", "pdf-uploads")
	v.SetDefault("kafka.topic", "pdf-documents")
}

// Load reads the YAML file at path (optional when it does not exist), .env,
// and PDFCHAT_* environment overrides, then validates the result.
func Load(path string) (*Config, error) {
	// .env is a convenience for local runs; a missing file is not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("PDFCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Provider keys are usually exported under their own names.
	_ = v.BindEnv("llm.api_key", "PDFCHAT_LLM_API_KEY", "GEMINI_API_KEY", "LLM_API_KEY")
	_ = v.BindEnv("embedding.api_key", "PDFCHAT_EMBEDDING_API_KEY", "GEMINI_API_KEY", "EMBEDDING_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var problems []string

	switch c.LLM.Provider {
	case "gemini", "openai":
		if c.LLM.APIKey == "" {
			problems = append(problems, "llm.api_key is required (set GEMINI_API_KEY or LLM_API_KEY)")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown llm.provider %q", c.LLM.Provider))
	}
	if c.LLM.Provider == "openai" && c.LLM.BaseURL == "" {
		problems = append(problems, "llm.base_url is required for the openai provider")
	}
	if c.LLM.Timeout <= 0 {
		problems = append(problems, "llm.timeout must be positive")
	}

	switch c.Embedding.Provider {
	case "gemini":
		if c.Embedding.APIKey == "" {
			problems = append(problems, "embedding.api_key is required for the gemini provider")
		}
	case "openai":
		if c.Embedding.BaseURL == "" {
			problems = append(problems, "embedding.base_url is required for the openai provider")
		}
	case "hashing":
	default:
		problems = append(problems, fmt.Sprintf("unknown embedding.provider %q", c.Embedding.Provider))
	}
	if c.Embedding.Dimensions <= 0 {
		problems = append(problems, "embedding.dimensions must be positive")
	}

	if c.Chunking.ChunkSize <= 0 || c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.ChunkSize {
		problems = append(problems, fmt.Sprintf("chunking requires 0 <= overlap < chunk_size, got overlap=%d chunk_size=%d", c.Chunking.Overlap, c.Chunking.ChunkSize))
	}
	if c.Chunking.TopK <= 0 {
		problems = append(problems, "chunking.top_k must be positive")
	}
	if c.Cache.Capacity <= 0 {
		problems = append(problems, "cache.capacity must be positive")
	}

	switch c.VectorIndex.Backend {
	case "memory":
	case "sql":
		if c.VectorIndex.Driver == "mysql" && c.VectorIndex.DSN == "" {
			problems = append(problems, "vector_index.dsn is required for the mysql driver")
		}
	case "elasticsearch":
		if c.VectorIndex.Elasticsearch.Addresses == "" {
			problems = append(problems, "vector_index.elasticsearch.addresses is required")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown vector_index.backend %q", c.VectorIndex.Backend))
	}

	switch c.Extractor.Backend {
	case "native":
	case "tika":
		if c.Tika.ServerURL == "" {
			problems = append(problems, "tika.server_url is required for the tika extractor")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown extractor.backend %q", c.Extractor.Backend))
	}

	if c.Registry.Backend != "memory" && c.Registry.Backend != "redis" {
		problems = append(problems, fmt.Sprintf("unknown registry.backend %q", c.Registry.Backend))
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.Backend != "memory" && c.RateLimit.Backend != "redis" {
			problems = append(problems, fmt.Sprintf("unknown rate_limit.backend %q", c.RateLimit.Backend))
		}
		if c.RateLimit.Default <= 0 || c.RateLimit.PDF <= 0 || c.RateLimit.Chat <= 0 {
			problems = append(problems, "rate_limit budgets must be positive")
		}
	}
	if c.MinIO.Enabled && c.MinIO.Endpoint == "" {
		problems = append(problems, "minio.endpoint is required when minio is enabled")
	}
	if c.Kafka.Enabled && c.Kafka.Brokers == "" {
		problems = append(problems, "kafka.brokers is required when kafka is enabled")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", apperr.ErrConfig, strings.Join(problems, "; "))
	}
	return nil
}

// UsesRedis reports whether any component needs the Redis connection.
func (c *Config) UsesRedis() bool {
	return c.Registry.Backend == "redis" || (c.RateLimit.Enabled && c.RateLimit.Backend == "redis")
}
