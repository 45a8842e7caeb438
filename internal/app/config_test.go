package app

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/noticeboard/internal/auth"
	"github.com/charlesng35/noticeboard/internal/notices"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "console", cfg.Server.LogFormat)
	require.True(t, cfg.Server.HSTS)
	require.Equal(t, 20*time.Second, cfg.Server.ShutdownTimeout)
	require.True(t, cfg.Server.CSRF.Enabled)
	require.Equal(t, 30, cfg.Server.RateLimit.Requests)
	require.Equal(t, 30*time.Second, cfg.Server.RateLimit.Window)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 500*time.Millisecond, cfg.Database.SlowQueryThreshold)

	require.True(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, "redis.example.com:6380", cfg.Cache.Redis.Address)
	require.Equal(t, 2, cfg.Cache.Redis.DB)
	require.Equal(t, 3*time.Second, cfg.Cache.Redis.Timeout)
	require.Equal(t, "@every 30m", cfg.Cache.PurgeSchedule)

	require.Equal(t, "noticeboard-test", cfg.Auth.JWT.Issuer)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)
	require.Equal(t, 6*time.Hour, cfg.Auth.ActionTTL)
	require.Equal(t, "board_session", cfg.Auth.SessionCookie)

	defaults := cfg.Notices.Defaults
	require.Equal(t, notices.TypeWarning, defaults.Type)
	require.Equal(t, notices.FormatHTML, defaults.Format)
	require.Equal(t, "admin-banner", defaults.Class)
	require.Equal(t, notices.ScopeUser, defaults.Scope)
	require.Equal(t, 48*time.Hour, defaults.TTL)
	require.Equal(t, 720*time.Hour, defaults.MaxTTL)

	require.Len(t, cfg.Notices.Catalog, 2)
	update := cfg.Notices.Catalog[0]
	require.Equal(t, "update-v2", update.ID)
	require.Equal(t, notices.FormatMarkdown, update.Format)
	require.True(t, update.Dismissible)
	require.Equal(t, notices.ScopeTransient, update.Scope)
	require.Equal(t, 168*time.Hour, update.TTL)
	require.Equal(t, []notices.Button{{URL: "https://example.com/changelog", Label: "Changelog"}}, update.Buttons)
	require.Nil(t, update.ShowIf)

	billing := cfg.Notices.Catalog[1]
	require.True(t, billing.Required)
	require.NotNil(t, billing.ShowIf)
	require.False(t, *billing.ShowIf)

	require.False(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
	require.True(t, cfg.Monitoring.Health.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestLoadConfigExplicitFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "json", cfg.Server.LogFormat)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.False(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, 12*time.Hour, cfg.Auth.ActionTTL)
	require.Equal(t, "noticeboard_session", cfg.Auth.SessionCookie)
	require.Equal(t, notices.DefaultDefaults(), cfg.Notices.Defaults)
	require.Empty(t, cfg.Notices.Catalog)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("NOTICEBOARD_SERVER_PORT", "7070")
	t.Setenv("NOTICEBOARD_NOTICES_DEFAULTS_TTL", "24h")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, 24*time.Hour, cfg.Notices.Defaults.TTL)
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)
		cfg.Auth.JWT.Secret = strings.Repeat("ab", 32)
		return cfg
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Auth.JWT.Secret = "short"
	require.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Database.Driver = "oracle"
	require.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Notices.Defaults.MaxTTL = time.Minute
	require.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Notices.Catalog = []notices.Notice{{ID: "!!"}}
	require.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Notices.Catalog = []notices.Notice{{ID: "many", Buttons: make([]notices.Button, 3)}}
	require.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Notices.Catalog = []notices.Notice{{ID: "welcome", Scope: "everyone"}}
	require.ErrorContains(t, cfg.Validate(), "notices.catalog[0]: unknown scope")

	cfg = valid()
	cfg.Notices.Catalog = []notices.Notice{{ID: "welcome", Type: "urgent"}}
	require.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Notices.Catalog = []notices.Notice{{ID: "welcome", Scope: "per-user"}}
	require.NoError(t, cfg.Validate())

	var nilCfg *Config
	require.Error(t, nilCfg.Validate())
}

func TestAuthConfigAdapter(t *testing.T) {
	cfg := AuthConfig{
		JWT: JWTSettings{
			Secret: "6e6f7469636573",
			Issuer: "issuer",
			TTL:    30 * time.Minute,
		},
		ActionTTL: 2 * time.Hour,
	}

	jwtCfg, err := cfg.JWTServiceConfig()
	require.NoError(t, err)
	require.Equal(t, auth.JWTConfig{
		Secret:         "notices",
		Issuer:         "issuer",
		AccessTokenTTL: 30 * time.Minute,
		ActionTokenTTL: 2 * time.Hour,
	}, jwtCfg)

	_, err = AuthConfig{}.JWTServiceConfig()
	require.Error(t, err)
}

func TestDatabaseConnectionAdapter(t *testing.T) {
	cfg := DatabaseConfig{
		Driver:   "MySQL",
		Path:     "ignored.sqlite",
		MySQL:    DBAuthConfig{Host: "mysql.local", Port: 3307, Database: "board", Username: "u", Password: "p"},
		Postgres: DBAuthConfig{Host: "pg.local"},
		Options:  map[string]string{"timeout": "5s"},
	}

	conn := cfg.Connection()
	require.Equal(t, "mysql", conn.Driver)
	require.Equal(t, "mysql.local", conn.Host)
	require.Equal(t, 3307, conn.Port)
	require.Equal(t, "board", conn.Name)
	require.Equal(t, "u", conn.User)
	require.Equal(t, "p", conn.Password)
	require.Equal(t, "5s", conn.Options["timeout"])

	sqlite := DatabaseConfig{Driver: "sqlite", Path: "./data/x.sqlite", Postgres: DBAuthConfig{Host: "pg.local"}}.Connection()
	require.Equal(t, "./data/x.sqlite", sqlite.Path)
	require.Empty(t, sqlite.Host)
}

func TestCacheRedisClientConfig(t *testing.T) {
	cfg := CacheConfig{Redis: RedisCacheConfig{Address: " redis:6379 ", Username: " user ", DB: 4, TLS: true, Timeout: time.Second}}
	redis := cfg.RedisClientConfig()
	require.Equal(t, "redis:6379", redis.Address)
	require.Equal(t, "user", redis.Username)
	require.Equal(t, 4, redis.DB)
	require.True(t, redis.TLS)
	require.Equal(t, time.Second, redis.Timeout)
}
