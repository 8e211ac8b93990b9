package config

import (
	"fmt"
	"io"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// envKeys maps environment variables to config paths. An explicit table
// avoids guessing where underscores split: QDRANT_API_KEY is qdrant.api_key,
// not qdrant.api.key.
var envKeys = map[string]string{
	"SERVICE_NAME":             "service.name",
	"SERVICE_VERSION":          "service.version",
	"SERVICE_ENV":              "service.env",
	"LOG_LEVEL":                "log.level",
	"LOG_FORMAT":               "log.format",
	"HTTP_HOST":                "http.host",
	"HTTP_PORT":                "http.port",
	"HTTP_API_PREFIX":          "http.api_prefix",
	"GRPC_HOST":                "grpc.host",
	"GRPC_PORT":                "grpc.port",
	"GRPC_CERT_FILE":           "grpc.cert_file",
	"GRPC_KEY_FILE":            "grpc.key_file",
	"GRPC_CA_FILE":             "grpc.ca_file",
	"METRICS_HOST":             "metrics.host",
	"METRICS_PORT":             "metrics.port",
	"QDRANT_HOST":              "qdrant.host",
	"QDRANT_PORT":              "qdrant.port",
	"QDRANT_API_KEY":           "qdrant.api_key",
	"QDRANT_USE_TLS":           "qdrant.use_tls",
	"QDRANT_COLLECTION_PREFIX": "qdrant.collection_prefix",
	"QDRANT_SCORE_THRESHOLD":   "qdrant.score_threshold",
	"EMBEDDING_MODEL":          "embedding.model",
	"EMBEDDING_CACHE_DIR":      "embedding.cache_dir",
	"EMBEDDING_MAX_LENGTH":     "embedding.max_length",
	"EMBEDDING_WORKERS":        "embedding.workers",
	"QUERY_DEFAULT_TOP_K":      "query.default_top_k",
	"QUERY_MAX_TOP_K":          "query.max_top_k",
	"ENGINE_HEALTH_INTERVAL":   "engine.health_interval",
	"ENGINE_SHUTDOWN_GRACE":    "engine.shutdown_grace",
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (see envKeys)
//  2. YAML config file (configPath, skipped when empty or absent)
//  3. Defaults from Default()
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			content, err := readConfigFile(configPath)
			if err != nil {
				return nil, err
			}
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		if path, ok := envKeys[s]; ok {
			return path
		}
		return "" // unknown variables are ignored
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// readConfigFile reads the config file with a size cap. The file is opened
// once and validated via its descriptor to avoid a stat/open race.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return content, nil
}
