package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openPostgres(cfg Config) (*gorm.DB, error) {
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(postgres.Open(dsn), gormConfig(cfg))
}

// buildPostgresDSN renders a libpq keyword/value connection string.
func buildPostgresDSN(cfg Config) (string, error) {
	if dsn := strings.TrimSpace(cfg.DSN); dsn != "" {
		return dsn, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("postgres configuration requires user and database name")
	}

	host := firstNonEmpty(cfg.Host, "localhost")
	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	params := []string{
		"host=" + pgQuote(host),
		fmt.Sprintf("port=%d", port),
		"user=" + pgQuote(cfg.User),
		"dbname=" + pgQuote(cfg.Name),
	}
	if cfg.Password != "" {
		params = append(params, "password="+pgQuote(cfg.Password))
	}

	options := mergeOptions(map[string]string{"sslmode": "disable"}, cfg.Options)
	for _, key := range sortedKeys(options) {
		params = append(params, key+"="+pgQuote(options[key]))
	}

	return strings.Join(params, " "), nil
}

// pgQuote single-quotes values libpq would otherwise split or misread.
func pgQuote(value string) string {
	if value != "" && !strings.ContainsAny(value, " '\\") {
		return value
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
	return "'" + escaped + "'"
}
