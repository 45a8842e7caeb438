package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSNDefaults(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{User: "noticeboard", Name: "noticeboard"})
	require.NoError(t, err)
	require.Equal(t, "host=localhost port=5432 user=noticeboard dbname=noticeboard sslmode=disable", dsn)
}

func TestBuildPostgresDSNWithOptions(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "user",
		Name:     "db",
		Host:     "db.example.com",
		Port:     6543,
		Password: "it's secret",
		Options: map[string]string{
			"sslmode":     "require",
			"search_path": "public",
		},
	})
	require.NoError(t, err)

	require.Contains(t, dsn, "host=db.example.com")
	require.Contains(t, dsn, "port=6543")
	require.Contains(t, dsn, `password='it\'s secret'`)
	require.Contains(t, dsn, "search_path=public sslmode=require")
}

func TestBuildPostgresDSNOverride(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{DSN: " postgres://u@h/db "})
	require.NoError(t, err)
	require.Equal(t, "postgres://u@h/db", dsn)
}

func TestBuildPostgresDSNRequiresUserAndName(t *testing.T) {
	_, err := buildPostgresDSN(Config{})
	require.Error(t, err)
}

func TestBuildMySQLDSNDefaults(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{User: "noticeboard", Name: "noticeboard"})
	require.NoError(t, err)

	require.Contains(t, dsn, "noticeboard@tcp(127.0.0.1:3306)/noticeboard?")
	require.Contains(t, dsn, "parseTime=true")
	require.Contains(t, dsn, "loc=Local")
	require.Contains(t, dsn, "charset=utf8mb4")
}

func TestBuildMySQLDSNWithOptions(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User:     "user",
		Password: "secret",
		Name:     "db",
		Host:     "db.example.com",
		Port:     3307,
		Options:  map[string]string{"tls": "skip-verify"},
	})
	require.NoError(t, err)

	require.Contains(t, dsn, "user:secret@tcp(db.example.com:3307)/db?")
	require.Contains(t, dsn, "tls=skip-verify")
}

func TestBuildMySQLDSNRequiresUserAndName(t *testing.T) {
	_, err := buildMySQLDSN(Config{Host: "localhost"})
	require.Error(t, err)
}
