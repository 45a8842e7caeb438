package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/noticeboard/internal/database/testutil"
)

func TestUserMetaServiceUpsertAndGet(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewUserMetaService(db)
	require.NoError(t, err)
	ctx := context.Background()

	_, found, err := svc.GetUserMeta(ctx, "user-a", "notice-welcome")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, svc.SetUserMeta(ctx, "user-a", "notice-welcome", []byte("true")))
	require.NoError(t, svc.SetUserMeta(ctx, "user-a", "notice-welcome", []byte("false")))

	value, found, err := svc.GetUserMeta(ctx, "user-a", "notice-welcome")
	require.NoError(t, err)
	require.True(t, found)
	require.JSONEq(t, "false", string(value))

	require.NoError(t, svc.SetUserMeta(ctx, "user-a", "nickname", []byte("not json")))
	value, _, err = svc.GetUserMeta(ctx, "user-a", "nickname")
	require.NoError(t, err)
	require.JSONEq(t, `"not json"`, string(value))
}

func TestUserMetaServiceDelete(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewUserMetaService(db)
	require.NoError(t, err)
	ctx := context.Background()

	for _, user := range []string{"user-a", "user-b"} {
		require.NoError(t, svc.SetUserMeta(ctx, user, "notice-tour", []byte("true")))
	}
	require.NoError(t, svc.SetUserMeta(ctx, "user-a", "notice-other", []byte("true")))

	removed, err := svc.DeleteMetaKey(ctx, "notice-tour")
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	_, found, err := svc.GetUserMeta(ctx, "user-a", "notice-other")
	require.NoError(t, err)
	require.True(t, found)
}

func TestUserMetaServiceRequiresKeys(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewUserMetaService(db)
	require.NoError(t, err)

	_, _, err = svc.GetUserMeta(context.Background(), "", "k")
	require.Error(t, err)
	require.Error(t, svc.SetUserMeta(context.Background(), "u", " ", []byte("true")))

	_, err = NewUserMetaService(nil)
	require.Error(t, err)
}
