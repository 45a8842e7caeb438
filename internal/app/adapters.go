package app

import (
	"strings"

	"github.com/charlesng35/noticeboard/internal/auth"
	"github.com/charlesng35/noticeboard/internal/cache"
	"github.com/charlesng35/noticeboard/internal/database"
)

// Connection converts the database section into database.Config, picking the
// host parameters that match the driver.
func (c DatabaseConfig) Connection() database.Config {
	cfg := database.Config{
		Driver:             strings.ToLower(strings.TrimSpace(c.Driver)),
		Path:               c.Path,
		DSN:                c.DSN,
		Options:            c.Options,
		SlowQueryThreshold: c.SlowQueryThreshold,
	}

	var host DBAuthConfig
	switch cfg.Driver {
	case "postgres", "postgresql":
		host = c.Postgres
	case "mysql":
		host = c.MySQL
	default:
		return cfg
	}

	cfg.Host = host.Host
	cfg.Port = host.Port
	cfg.Name = host.Database
	cfg.User = host.Username
	cfg.Password = host.Password
	return cfg
}

// RedisClientConfig converts the cache section for cache.NewRedisClient.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Address:  strings.TrimSpace(c.Redis.Address),
		Username: strings.TrimSpace(c.Redis.Username),
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		TLS:      c.Redis.TLS,
		Timeout:  c.Redis.Timeout,
	}
}

// JWTServiceConfig converts the auth section for auth.NewJWTService. The
// master secret is decoded from hex or base64 when possible.
func (c AuthConfig) JWTServiceConfig() (auth.JWTConfig, error) {
	secret, err := DecodeKey(c.JWT.Secret)
	if err != nil {
		return auth.JWTConfig{}, err
	}

	return auth.JWTConfig{
		Secret:         string(secret),
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: c.JWT.TTL,
		ActionTokenTTL: c.ActionTTL,
	}, nil
}
