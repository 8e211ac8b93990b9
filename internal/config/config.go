// Package config provides configuration loading for the knowledge query service.
//
// Configuration is assembled from hardcoded defaults, an optional YAML file,
// and environment variable overrides, in that order of precedence (lowest to
// highest). See loader.go for the environment variable mapping.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete service configuration.
type Config struct {
	Service   ServiceConfig   `koanf:"service"`
	Log       LogConfig       `koanf:"log"`
	HTTP      HTTPConfig      `koanf:"http"`
	GRPC      GRPCConfig      `koanf:"grpc"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Qdrant    QdrantConfig    `koanf:"qdrant"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Query     QueryConfig     `koanf:"query"`
	Engine    EngineConfig    `koanf:"engine"`
}

// ServiceConfig holds service identity metadata.
type ServiceConfig struct {
	Name    string `koanf:"name"`
	Version string `koanf:"version"`
	Env     string `koanf:"env"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// HTTPConfig holds the HTTP front-end configuration.
type HTTPConfig struct {
	Host      string `koanf:"host"`
	Port      int    `koanf:"port"`
	APIPrefix string `koanf:"api_prefix"`
}

// GRPCConfig holds the gRPC front-end configuration.
//
// When CertFile and KeyFile are both set the server uses TLS; CAFile
// additionally enables client certificate verification. When security
// material is absent the server falls back to plaintext and logs a warning.
type GRPCConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`
	CAFile   string `koanf:"ca_file"`
}

// MetricsConfig holds the Prometheus exporter configuration.
// The exporter listens on its own port, separate from the protocol ports.
type MetricsConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// QdrantConfig holds vector index connection settings.
type QdrantConfig struct {
	Host             string  `koanf:"host"`
	Port             int     `koanf:"port"`
	APIKey           string  `koanf:"api_key"`
	UseTLS           bool    `koanf:"use_tls"`
	CollectionPrefix string  `koanf:"collection_prefix"`
	ScoreThreshold   float32 `koanf:"score_threshold"`
}

// EmbeddingConfig holds embedding model settings.
type EmbeddingConfig struct {
	Model     string `koanf:"model"`
	CacheDir  string `koanf:"cache_dir"`
	MaxLength int    `koanf:"max_length"`
	Workers   int    `koanf:"workers"`
}

// QueryConfig holds query parameter bounds.
type QueryConfig struct {
	DefaultTopK int `koanf:"default_top_k"`
	MaxTopK     int `koanf:"max_top_k"`
}

// EngineConfig holds engine lifecycle settings.
type EngineConfig struct {
	HealthInterval time.Duration `koanf:"health_interval"`
	ShutdownGrace  time.Duration `koanf:"shutdown_grace"`
}

// Default returns the configuration defaults.
//
// Ports follow the service's deployment convention: HTTP 17020, gRPC 17021,
// metrics 17022.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:    "knowledge-query-service",
			Version: "0.1.0",
			Env:     "development",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		HTTP: HTTPConfig{
			Host:      "0.0.0.0",
			Port:      17020,
			APIPrefix: "/api/v1",
		},
		GRPC: GRPCConfig{
			Host: "0.0.0.0",
			Port: 17021,
		},
		Metrics: MetricsConfig{
			Host: "0.0.0.0",
			Port: 17022,
		},
		Qdrant: QdrantConfig{
			Host:             "localhost",
			Port:             6334,
			CollectionPrefix: "sentiric_kb_",
			ScoreThreshold:   0,
		},
		Embedding: EmbeddingConfig{
			Model:     "BAAI/bge-small-en-v1.5",
			CacheDir:  "",
			MaxLength: 512,
			Workers:   4,
		},
		Query: QueryConfig{
			DefaultTopK: 3,
			MaxTopK:     20,
		},
		Engine: EngineConfig{
			HealthInterval: 15 * time.Second,
			ShutdownGrace:  5 * time.Second,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Service.Name == "" {
		return errors.New("service name required")
	}
	for _, p := range []struct {
		name string
		port int
	}{
		{"http", c.HTTP.Port},
		{"grpc", c.GRPC.Port},
		{"metrics", c.Metrics.Port},
		{"qdrant", c.Qdrant.Port},
	} {
		if p.port < 1 || p.port > 65535 {
			return fmt.Errorf("invalid %s port: %d (must be 1-65535)", p.name, p.port)
		}
	}
	if c.HTTP.APIPrefix == "" || c.HTTP.APIPrefix[0] != '/' {
		return fmt.Errorf("api prefix must start with '/', got %q", c.HTTP.APIPrefix)
	}
	if c.Qdrant.Host == "" {
		return errors.New("qdrant host required")
	}
	if c.Qdrant.CollectionPrefix == "" {
		return errors.New("qdrant collection prefix required")
	}
	if c.Embedding.Model == "" {
		return errors.New("embedding model required")
	}
	if c.Embedding.Workers < 1 {
		return fmt.Errorf("embedding workers must be >= 1, got %d", c.Embedding.Workers)
	}
	if c.Query.MaxTopK < 1 {
		return fmt.Errorf("max top_k must be >= 1, got %d", c.Query.MaxTopK)
	}
	if c.Query.DefaultTopK < 1 || c.Query.DefaultTopK > c.Query.MaxTopK {
		return fmt.Errorf("default top_k must be within [1, %d], got %d", c.Query.MaxTopK, c.Query.DefaultTopK)
	}
	if (c.GRPC.CertFile == "") != (c.GRPC.KeyFile == "") {
		return errors.New("grpc cert_file and key_file must be set together")
	}
	if c.Engine.HealthInterval <= 0 {
		return errors.New("engine health interval must be positive")
	}
	if c.Engine.ShutdownGrace <= 0 {
		return errors.New("engine shutdown grace must be positive")
	}
	return nil
}
