package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int      `json:"port"`
	PublicURL     string   `json:"public_url"`
	CORSAllowlist []string `json:"cors_allowlist"`
	// ChatRateWindow is the per-client cooldown on the chat endpoint, in
	// seconds. Zero disables the limiter.
	ChatRateWindow int              `json:"chat_rate_window"`
	LogConfig      logger.LogConfig `json:"log_config"`
	Database       DatabaseConfig   `json:"database"`
	AI             AIConfig         `json:"ai"`
	Retrieval      RetrievalConfig  `json:"retrieval"`
	Ingest         IngestConfig     `json:"ingest"`
	Jobs           JobsConfig       `json:"jobs"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type ProviderConfig struct {
	Provider string      `json:"provider"`
	Data     interface{} `json:"data"`
}

type AIConfig struct {
	ProviderConfig
	// Fallbacks are tried in order when the primary provider fails.
	Fallbacks          []ProviderConfig `json:"fallbacks"`
	GenerateModel      string           `json:"generate_model"`
	EmbedModel         string           `json:"embed_model"`
	Timeout            int              `json:"timeout"`
	EmbedCacheSize     int              `json:"embed_cache_size"`
	EmbedCacheTTLHours int              `json:"embed_cache_ttl_hours"`
}

// RetrievalConfig carries the retrieval policy. The floor and limit are
// tunables, not load-bearing constants; the defaults match the values the
// system shipped with.
type RetrievalConfig struct {
	Dimensions      int     `json:"dimensions"`
	SimilarityFloor float64 `json:"similarity_floor"`
	ResultLimit     int     `json:"result_limit"`
	ChunkMaxChars   int     `json:"chunk_max_chars"`
	ChunkMaxCount   int     `json:"chunk_max_count"`
}

type IngestConfig struct {
	BatchSize int `json:"batch_size"`
}

type JobsConfig struct {
	ReembedSpec  string `json:"reembed_spec"`
	ReembedBatch int    `json:"reembed_batch"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.AI.Provider == "" {
		return fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.GenerateModel == "" {
		return fmt.Errorf("ai.generate_model is required")
	}
	if cfg.AI.EmbedModel == "" {
		return fmt.Errorf("ai.embed_model is required")
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 30
	}
	if cfg.AI.EmbedCacheSize == 0 {
		cfg.AI.EmbedCacheSize = 4096
	}
	if cfg.AI.EmbedCacheTTLHours == 0 {
		cfg.AI.EmbedCacheTTLHours = 2
	}
	if cfg.Retrieval.Dimensions == 0 {
		cfg.Retrieval.Dimensions = 768
	}
	if cfg.Retrieval.SimilarityFloor == 0 {
		cfg.Retrieval.SimilarityFloor = 0.25
	}
	if cfg.Retrieval.ResultLimit == 0 {
		cfg.Retrieval.ResultLimit = 6
	}
	if cfg.Retrieval.ChunkMaxChars == 0 {
		cfg.Retrieval.ChunkMaxChars = 1000
	}
	if cfg.Retrieval.ChunkMaxCount == 0 {
		cfg.Retrieval.ChunkMaxCount = 20
	}
	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = 5
	}
	if cfg.Jobs.ReembedSpec == "" {
		cfg.Jobs.ReembedSpec = "*/30 * * * *"
	}
	if cfg.Jobs.ReembedBatch == 0 {
		cfg.Jobs.ReembedBatch = 20
	}
	return nil
}
