package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/noticeboard/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite", DSN: "file:open_memory?mode=memory&cache=shared"})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	require.NoError(t, Ping(context.Background(), db))
	require.NoError(t, db.Exec("SELECT 1").Error)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.ErrorContains(t, err, "unsupported database driver")
}

func TestAutoMigrateCreatesTables(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite", DSN: "file:migrate_memory?mode=memory&cache=shared"})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	require.NoError(t, AutoMigrate(db))

	migrator := db.Migrator()
	require.True(t, migrator.HasTable(&models.CacheEntry{}))
	require.True(t, migrator.HasTable(&models.UserMeta{}))
	require.True(t, migrator.HasTable(&models.Notice{}))

	// Re-running is a no-op.
	require.NoError(t, AutoMigrate(db))
}

func TestSQLiteDSN(t *testing.T) {
	require.Equal(t, "custom", sqliteDSN(Config{DSN: "custom"}))
	require.Contains(t, sqliteDSN(Config{}), "memory")
	require.Contains(t, sqliteDSN(Config{Path: ":memory:"}), "memory")
	require.Empty(t, sqliteDSN(Config{Path: "data/noticeboard.db"}))
}
