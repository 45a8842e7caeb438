package notices

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charlesng35/noticeboard/internal/cache"
	"github.com/charlesng35/noticeboard/pkg/metrics"
)

// SharedKeyPrefix namespaces transient flags inside the shared store.
const SharedKeyPrefix = "notices:flags:"

// MetaStore persists per-user key/value pairs.
type MetaStore interface {
	GetUserMeta(ctx context.Context, userID, key string) ([]byte, bool, error)
	SetUserMeta(ctx context.Context, userID, key string, value []byte) error
}

var flagValue = []byte("true")

// FlagStore reads and writes dismissed flags in either scope.
type FlagStore struct {
	meta   MetaStore
	shared cache.Store
}

// NewFlagStore constructs a flag store over the per-user meta store and the
// shared cache.
func NewFlagStore(meta MetaStore, shared cache.Store) *FlagStore {
	return &FlagStore{meta: meta, shared: shared}
}

// Dismissed reports whether a truthy flag exists for key in scope.
func (f *FlagStore) Dismissed(ctx context.Context, scope Scope, userID, key string) (bool, error) {
	if f == nil {
		return false, cache.ErrNotInitialised
	}

	var (
		raw   []byte
		found bool
		err   error
	)
	switch scope {
	case ScopeUser:
		if userID == "" {
			return false, nil
		}
		raw, found, err = f.meta.GetUserMeta(ctx, userID, key)
	default:
		raw, found, err = f.shared.Get(ctx, SharedKey(key))
	}
	if err != nil {
		metrics.FlagStoreErrors.WithLabelValues(string(scope), "read").Inc()
		return false, fmt.Errorf("read %s flag %q: %w", scope, key, err)
	}
	return found && truthy(raw), nil
}

// MarkDismissed writes the flag. ttl is ignored for user scope.
func (f *FlagStore) MarkDismissed(ctx context.Context, scope Scope, userID, key string, ttl time.Duration) error {
	if f == nil {
		return cache.ErrNotInitialised
	}

	var err error
	switch scope {
	case ScopeUser:
		if userID == "" {
			return fmt.Errorf("write user flag %q: missing user", key)
		}
		err = f.meta.SetUserMeta(ctx, userID, key, flagValue)
	default:
		err = f.shared.Set(ctx, SharedKey(key), flagValue, ttl)
	}
	if err != nil {
		metrics.FlagStoreErrors.WithLabelValues(string(scope), "write").Inc()
		return fmt.Errorf("write %s flag %q: %w", scope, key, err)
	}
	return nil
}

// ClearShared removes the transient flag of key.
func (f *FlagStore) ClearShared(ctx context.Context, key string) error {
	if f == nil {
		return cache.ErrNotInitialised
	}
	return f.shared.Delete(ctx, SharedKey(key))
}

// SharedKey returns the shared store key for a notice storage key.
func SharedKey(key string) string {
	return SharedKeyPrefix + key
}

// truthy treats false, 0, "", "0", null and empty containers as unset.
func truthy(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}

	var value interface{}
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return string(trimmed) != "0"
	}

	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != "" && v != "0"
	case []interface{}:
		return len(v) > 0
	case map[string]interface{}:
		return len(v) > 0
	default:
		return true
	}
}
