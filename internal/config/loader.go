package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "overseer.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "OVERSEER_PORT")
	setString(&cfg.Server.CORSOrigin, "OVERSEER_CORS_ORIGIN")
	setString(&cfg.Store.Backend, "OVERSEER_STORE_BACKEND")
	setString(&cfg.Store.Path, "OVERSEER_STORE_PATH")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "OVERSEER_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "OVERSEER_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "OVERSEER_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "OVERSEER_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "OVERSEER_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Logging.Level, "OVERSEER_LOG_LEVEL")
	setString(&cfg.Logging.Service, "OVERSEER_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "OVERSEER_LOG_ASYNC")
	setInt(&cfg.Breaker.MaxFailures, "OVERSEER_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "OVERSEER_BREAKER_TIMEOUT")
	setBool(&cfg.Telemetry.Enabled, "OVERSEER_OTEL_ENABLED")
	setString(&cfg.Telemetry.Endpoint, "OVERSEER_OTEL_ENDPOINT")
	setString(&cfg.Telemetry.ServiceName, "OVERSEER_OTEL_SERVICE")
	setFloat64(&cfg.Telemetry.SampleRate, "OVERSEER_OTEL_SAMPLE_RATE")
	setInt(&cfg.Retrieval.SnippetLimit, "OVERSEER_RETRIEVAL_LIMIT")
	setInt64(&cfg.Retrieval.CacheSizeMB, "OVERSEER_RETRIEVAL_CACHE_MB")
	setDuration(&cfg.Retrieval.CacheTTL, "OVERSEER_RETRIEVAL_CACHE_TTL")
	setString(&cfg.Runtime.AnthropicBaseURL, "OVERSEER_ANTHROPIC_BASE_URL")
	setString(&cfg.Runtime.AnthropicVersion, "OVERSEER_ANTHROPIC_VERSION")
	setString(&cfg.Runtime.OpenAIBaseURL, "OVERSEER_OPENAI_BASE_URL")
	setDuration(&cfg.Runtime.Timeout, "OVERSEER_RUNTIME_TIMEOUT")
	setBool(&cfg.Runtime.DisableFallback, "OVERSEER_DISABLE_FALLBACK")

	// Secrets are env-only.
	setString(&cfg.Runtime.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setString(&cfg.Runtime.OpenAIAPIKey, "OPENAI_API_KEY")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	switch cfg.Store.Backend {
	case "file":
		if cfg.Store.Path == "" {
			return errors.New("store.path is required for the file backend")
		}
	case "postgres":
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("store.backend must be file or postgres, got %q", cfg.Store.Backend)
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Retrieval.SnippetLimit < 1 {
		return errors.New("retrieval.snippet_limit must be >= 1")
	}
	for i, m := range cfg.MCP {
		if m.ID == "" {
			return fmt.Errorf("mcp[%d].id is required", i)
		}
		switch m.Transport {
		case "stdio":
			if m.Command == "" {
				return fmt.Errorf("mcp[%d].command is required for stdio transport", i)
			}
		case "sse", "streamable_http":
			if m.URL == "" {
				return fmt.Errorf("mcp[%d].url is required for %s transport", i, m.Transport)
			}
		default:
			return fmt.Errorf("mcp[%d].transport must be stdio, sse or streamable_http, got %q", i, m.Transport)
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
