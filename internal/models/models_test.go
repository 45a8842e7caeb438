package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNoticeBeforeCreateAssignsID(t *testing.T) {
	n := &Notice{Slug: "update-v2"}
	require.NoError(t, n.BeforeCreate(nil))
	require.NotEmpty(t, n.ID)

	kept := &Notice{ID: "fixed"}
	require.NoError(t, kept.BeforeCreate(nil))
	require.Equal(t, "fixed", kept.ID)
}

func TestCacheEntryExpired(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	require.False(t, CacheEntry{}.Expired(now), "zero expiry never expires")
	require.False(t, CacheEntry{ExpiresAt: now.Add(time.Second)}.Expired(now))
	require.True(t, CacheEntry{ExpiresAt: now}.Expired(now))
	require.True(t, CacheEntry{ExpiresAt: now.Add(-time.Minute)}.Expired(now))
}

func TestUserMetaTableName(t *testing.T) {
	require.Equal(t, "user_meta", UserMeta{}.TableName())
}
