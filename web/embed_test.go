package web

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDismissScriptEmbedded(t *testing.T) {
	script, err := DismissScript()
	require.NoError(t, err)
	require.Contains(t, string(script), "dismiss-notice")
	require.Contains(t, string(script), "data-dismissible-meta")
	require.Contains(t, string(script), "is_required")
}
