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
const DefaultConfigFile = "linearbridge.yaml"

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
	setString(&cfg.Server.Port, "LINEARBRIDGE_PORT")
	setDuration(&cfg.Server.RequestTimeout, "LINEARBRIDGE_REQUEST_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "LINEARBRIDGE_SHUTDOWN_TIMEOUT")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "LINEARBRIDGE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "LINEARBRIDGE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "LINEARBRIDGE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "LINEARBRIDGE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "LINEARBRIDGE_PG_HEALTH_CHECK")

	setInt64(&cfg.Cache.MaxSizeMB, "LINEARBRIDGE_CACHE_SIZE_MB")

	setString(&cfg.Linear.ClientID, "LINEAR_CLIENT_ID")
	setString(&cfg.Linear.ClientSecret, "LINEAR_CLIENT_SECRET")
	setString(&cfg.Linear.RedirectURI, "LINEAR_REDIRECT_URI")
	setString(&cfg.Linear.WebhookSecret, "LINEAR_WEBHOOK_SECRET")
	setString(&cfg.Linear.APIURL, "LINEAR_API_URL")

	setString(&cfg.Backend.Provider, "LINEARBRIDGE_BACKEND_PROVIDER")
	setString(&cfg.Backend.Variant, "LINEARBRIDGE_BACKEND_VARIANT")
	setString(&cfg.Backend.BaseURL, "LINEARBRIDGE_BACKEND_BASE_URL")
	setString(&cfg.Backend.APIKey, "LINEARBRIDGE_BACKEND_API_KEY")
	setString(&cfg.Backend.Model, "LINEARBRIDGE_BACKEND_MODEL")
	setString(&cfg.Backend.Persona, "LINEARBRIDGE_BACKEND_PERSONA")
	setInt(&cfg.Backend.MaxTurns, "LINEARBRIDGE_BACKEND_MAX_TURNS")
	setDuration(&cfg.Backend.CallTimeout, "LINEARBRIDGE_BACKEND_CALL_TIMEOUT")

	setInt64(&cfg.Dispatch.MaxConcurrent, "LINEARBRIDGE_DISPATCH_MAX_CONCURRENT")

	setString(&cfg.Tokens.EncryptionSecret, "LINEARBRIDGE_TOKEN_SECRET")
	setDuration(&cfg.Tokens.RefreshMargin, "LINEARBRIDGE_TOKEN_REFRESH_MARGIN")
	setDuration(&cfg.Tokens.CacheTTL, "LINEARBRIDGE_TOKEN_CACHE_TTL")

	setString(&cfg.Admin.KeyHash, "LINEARBRIDGE_ADMIN_KEY_HASH")

	setString(&cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&cfg.Telegram.ChatID, "TELEGRAM_CHAT_ID")

	setString(&cfg.Logging.Level, "LINEARBRIDGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "LINEARBRIDGE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "LINEARBRIDGE_LOG_ASYNC")
	setInt(&cfg.Logging.AsyncBuffer, "LINEARBRIDGE_LOG_ASYNC_BUFFER")

	setInt(&cfg.Breaker.MaxFailures, "LINEARBRIDGE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "LINEARBRIDGE_BREAKER_TIMEOUT")

	setString(&cfg.Otel.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Tokens.EncryptionSecret == "" {
		return errors.New("tokens.encryption_secret is required")
	}
	switch cfg.Backend.Variant {
	case "keyword", "tools":
	default:
		return fmt.Errorf("backend.variant must be keyword or tools, got %q", cfg.Backend.Variant)
	}
	if cfg.Backend.MaxTurns < 1 {
		return errors.New("backend.max_turns must be >= 1")
	}
	if cfg.Dispatch.MaxConcurrent < 1 {
		return errors.New("dispatch.max_concurrent must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
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
