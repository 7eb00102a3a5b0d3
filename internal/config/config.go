package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

var ErrUnknownEnv = errors.New("unknown env")

type Config struct {
	Host string
	Port int

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`

	// postgres
	PostgresHost      string `toml:"postgres_host"`
	PostgresPort      string `toml:"postgres_port"`
	PostgresDBName    string `toml:"postgres_db_name"`
	PostgresUser      string `toml:"postgres_user"`
	MigrationsEnabled bool   `toml:"migrations_enabled"`

	// http
	CorsAllowedOrigins []string `toml:"cors_allowed_origins"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// telemetry
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	SentryEnabled         bool   `toml:"sentry_enabled"`
	Environment           string `toml:"environment"`

	// auth
	LoginRateLimitAllowedPerMin int `toml:"login_rate_limit_allowed_per_min"`
	SessionTTLHours             int `toml:"session_ttl_hours"`

	// recommendations
	RecommendationsCacheSizeMB int    `toml:"recommendations_cache_size_mb"`
	AdvisorURL                 string `toml:"advisor_url"`
}

type Toml struct {
	Development *Config
	Production  *Config
	DockerDev   *Config `toml:"dockerdev"`
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	case "dockerdev":
		cfg = t.DockerDev
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEnv, env)
	}

	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] not found", env)
	}
	return cfg, nil
}

// Load decodes the TOML file at path and returns the config for the given env.
func Load(env, path string) (*Config, error) {
	var cfgToml Toml
	if _, err := toml.DecodeFile(path, &cfgToml); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}
	return cfgToml.Get(env)
}
