package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/charlesng35/noticeboard/internal/notices"
	"github.com/charlesng35/noticeboard/pkg/validator"
)

// Config represents the runtime configuration of the noticeboard server.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Notices    NoticesConfig    `mapstructure:"notices"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int             `mapstructure:"port" validate:"gt=0,lte=65535"`
	LogLevel        string          `mapstructure:"log_level"`
	LogFormat       string          `mapstructure:"log_format" validate:"omitempty,oneof=json console"`
	HSTS            bool            `mapstructure:"hsts"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	CSRF            CSRFConfig      `mapstructure:"csrf"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

// CSRFConfig controls CSRF protection middleware.
type CSRFConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// RateLimitConfig bounds requests per client and route.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests" validate:"gte=0"`
	Window   time.Duration `mapstructure:"window"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver             string            `mapstructure:"driver" validate:"oneof=sqlite postgres postgresql mysql"`
	Path               string            `mapstructure:"path"`
	DSN                string            `mapstructure:"dsn"`
	Postgres           DBAuthConfig      `mapstructure:"postgres"`
	MySQL              DBAuthConfig      `mapstructure:"mysql"`
	Options            map[string]string `mapstructure:"options"`
	SlowQueryThreshold time.Duration     `mapstructure:"slow_query_threshold"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CacheConfig describes the shared store backing transient flags and rate limits.
type CacheConfig struct {
	Redis         RedisCacheConfig `mapstructure:"redis"`
	PurgeSchedule string           `mapstructure:"purge_schedule"`
}

// RedisCacheConfig holds Redis connection options.
type RedisCacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TLS      bool          `mapstructure:"tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// AuthConfig captures token settings.
type AuthConfig struct {
	JWT           JWTSettings   `mapstructure:"jwt"`
	ActionTTL     time.Duration `mapstructure:"action_token_ttl"`
	SessionCookie string        `mapstructure:"session_cookie"`
}

// JWTSettings configures JWT access tokens. Secret is the master secret from
// which all signing keys are derived.
type JWTSettings struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"access_token_ttl"`
}

// NoticesConfig holds notice defaults and notices declared in configuration.
type NoticesConfig struct {
	Defaults notices.Defaults `mapstructure:"defaults"`
	Catalog  []notices.Notice `mapstructure:"catalog"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig initialises application configuration using Viper with sensible
// defaults. Each path is either a directory searched for config.yaml or a
// YAML file used directly.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			v.SetConfigFile(path)
		default:
			v.AddConfigPath(path)
		}
	}

	setDefaults(v)

	v.SetEnvPrefix("NOTICEBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

// Validate checks the loaded configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config: nil")
	}
	if err := validator.ValidateStruct(c.Server); err != nil {
		return fmt.Errorf("config: server: %w", err)
	}
	if err := validator.ValidateStruct(c.Database); err != nil {
		return fmt.Errorf("config: database: %w", err)
	}
	if err := c.Notices.Defaults.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for i, n := range c.Notices.Catalog {
		if err := n.Validate(); err != nil {
			return fmt.Errorf("config: notices.catalog[%d]: %w", i, err)
		}
	}
	if length, err := KeyByteLength(c.Auth.JWT.Secret); err != nil || length < minSecretBytes {
		return fmt.Errorf("config: auth.jwt.secret must decode to at least %d bytes", minSecretBytes)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")
	v.SetDefault("server.hsts", false)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.csrf.enabled", false)
	v.SetDefault("server.rate_limit.requests", 100)
	v.SetDefault("server.rate_limit.window", "1m")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/noticeboard.sqlite")
	v.SetDefault("database.slow_query_threshold", "200ms")

	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.address", "127.0.0.1:6379")
	v.SetDefault("cache.redis.username", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.tls", false)
	v.SetDefault("cache.redis.timeout", "5s")
	v.SetDefault("cache.purge_schedule", "@every 1h")

	v.SetDefault("auth.jwt.issuer", "noticeboard")
	v.SetDefault("auth.jwt.access_token_ttl", "12h")
	v.SetDefault("auth.action_token_ttl", "12h")
	v.SetDefault("auth.session_cookie", "noticeboard_session")

	defaults := notices.DefaultDefaults()
	v.SetDefault("notices.defaults.type", string(defaults.Type))
	v.SetDefault("notices.defaults.format", string(defaults.Format))
	v.SetDefault("notices.defaults.class", defaults.Class)
	v.SetDefault("notices.defaults.scope", string(defaults.Scope))
	v.SetDefault("notices.defaults.ttl", defaults.TTL.String())
	v.SetDefault("notices.defaults.max_ttl", defaults.MaxTTL.String())

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
