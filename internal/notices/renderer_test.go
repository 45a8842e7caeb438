package notices

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/charlesng35/noticeboard/pkg/logger"
)

func TestRenderShowsNoticeWithoutFlag(t *testing.T) {
	f := newFixture(t)

	html, ok, err := f.renderer.Render(context.Background(), Viewer{UserID: "user-a", Token: "tok-123"}, Notice{
		ID:          "update-v2",
		Type:        TypeWarning,
		Message:     "Version 2 is <em>available</em>",
		Dismissible: true,
		Scope:       ScopeTransient,
		Required:    true,
		Buttons: []Button{
			{URL: "https://example.com/upgrade?a=1&b=2", Label: "Upgrade <now>"},
			{URL: "javascript:alert(1)", Label: "Later"},
		},
	})
	require.NoError(t, err)
	require.True(t, ok)

	out := string(html)
	require.Contains(t, out, `id="notice-update-v2"`)
	require.Contains(t, out, `class="noticeboard-notice notice noticeboard-active-notice notice-warning is-dismissible"`)
	require.Contains(t, out, `data-dismissible-meta="transient"`)
	require.Contains(t, out, `data-dismissible-time="604800"`)
	require.Contains(t, out, `data-is-required="1"`)
	require.Contains(t, out, `data-token="tok-123"`)
	require.Contains(t, out, "<p>Version 2 is <em>available</em></p>")
	require.Contains(t, out, `href="https://example.com/upgrade?a=1&amp;b=2"`)
	require.Contains(t, out, "Upgrade &lt;now&gt;")
	require.NotContains(t, out, "javascript:")
	require.Contains(t, out, `<span class="notice-or">or</span>`)
	require.Contains(t, out, `class="notice-dismiss"`)
}

func TestRenderNonDismissibleOmitsControls(t *testing.T) {
	f := newFixture(t)

	html, ok, err := f.renderer.Render(context.Background(), Viewer{UserID: "user-a", Token: "tok"}, Notice{ID: "plain", Message: "hi"})
	require.NoError(t, err)
	require.True(t, ok)

	out := string(html)
	require.Contains(t, out, `data-dismissible-meta="user"`)
	require.NotContains(t, out, "is-dismissible")
	require.NotContains(t, out, "data-dismissible-time")
	require.NotContains(t, out, "data-token")
	require.NotContains(t, out, "notice-dismiss")
	require.NotContains(t, out, "data-is-required")
}

func TestRenderSuppressedByFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.flags.MarkDismissed(ctx, ScopeUser, "user-a", StorageKey("welcome"), 0))

	html, ok, err := f.renderer.Render(ctx, Viewer{UserID: "user-a"}, Notice{ID: "welcome", Message: "hi"})
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, html)
}

func TestRenderRecordScopeKeepsUsersIsolated(t *testing.T) {
	for _, scope := range []Scope{"per-user", "everyone"} {
		t.Run(string(scope), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			record := Notice{ID: "welcome", Message: "hi", Dismissible: true, Scope: scope}

			merged := DefaultDefaults().Merge(record)
			require.Equal(t, ScopeUser, merged.Scope)
			require.NoError(t, f.flags.MarkDismissed(ctx, merged.Scope, "alice", merged.Key(), merged.TTL))

			_, shown, err := f.renderer.Render(ctx, Viewer{UserID: "alice"}, record)
			require.NoError(t, err)
			require.False(t, shown)

			_, shown, err = f.renderer.Render(ctx, Viewer{UserID: "bob"}, record)
			require.NoError(t, err)
			require.True(t, shown)
		})
	}
}

func TestRenderFalsyFlagDoesNotSuppress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.meta.SetUserMeta(ctx, "user-a", StorageKey("welcome"), []byte("false")))

	_, ok, err := f.renderer.Render(ctx, Viewer{UserID: "user-a"}, Notice{ID: "welcome", Message: "hi"})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRenderShowIfFalse(t *testing.T) {
	f := newFixture(t)

	html, ok, err := f.renderer.Render(context.Background(), Viewer{UserID: "user-a"}, Notice{ID: "hidden", ShowIf: boolPtr(false)})
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, html)
}

func TestRenderFlagReadFailureShowsNotice(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger.Replace(zap.New(core))
	t.Cleanup(func() { logger.Replace(nil) })

	f := newFixture(t)
	f.meta.err = errors.New("database is locked")

	_, ok, err := f.renderer.Render(context.Background(), Viewer{UserID: "user-a"}, Notice{ID: "welcome", Message: "hi"})
	require.NoError(t, err)
	require.True(t, ok)

	entries := logs.FilterMessage("flag lookup failed, showing notice").All()
	require.Len(t, entries, 1)
	require.Equal(t, "notice-welcome", entries[0].ContextMap()["key"])
}

func TestRenderAllKeepsOrderAndSkipsSuppressed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.flags.MarkDismissed(ctx, ScopeTransient, "", StorageKey("second"), time.Hour))

	html, err := f.renderer.RenderAll(ctx, Viewer{UserID: "user-a"}, []Notice{
		{ID: "first", Message: "one"},
		{ID: "second", Message: "two", Scope: ScopeTransient},
		{ID: "third", Message: "three"},
	})
	require.NoError(t, err)

	out := string(html)
	require.Contains(t, out, "notice-first")
	require.NotContains(t, out, "notice-second")
	require.Contains(t, out, "notice-third")
	require.Less(t, strings.Index(out, "notice-first"), strings.Index(out, "notice-third"))
}

func TestNewRendererRejectsInvalidDefaults(t *testing.T) {
	f := newFixture(t)
	bad := DefaultDefaults()
	bad.Scope = "global"

	_, err := NewRenderer(bad, f.flags)
	require.Error(t, err)

	_, err = NewRenderer(DefaultDefaults(), nil)
	require.Error(t, err)
}
