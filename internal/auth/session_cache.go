package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charlesng35/noticeboard/internal/cache"
)

const revokedSessionKeyPrefix = "auth:sessions:revoked:"

// RevocationList records sessions whose access tokens must no longer be
// accepted. Entries live in the shared store until the tokens would have
// expired anyway.
type RevocationList struct {
	store cache.Store
}

// NewRevocationList wraps the shared store. A nil store yields a nil list,
// which treats every session as valid.
func NewRevocationList(store cache.Store) *RevocationList {
	if store == nil {
		return nil
	}
	return &RevocationList{store: store}
}

// Revoke marks sessionID as revoked for ttl.
func (l *RevocationList) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if l == nil {
		return cache.ErrNotInitialised
	}
	key := revokedKey(sessionID)
	if key == "" {
		return errors.New("revocation list: session id is required")
	}
	return l.store.Set(ctx, key, []byte("1"), ttl)
}

// IsRevoked reports whether sessionID was revoked.
func (l *RevocationList) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	if l == nil {
		return false, nil
	}
	key := revokedKey(sessionID)
	if key == "" {
		return false, nil
	}
	_, found, err := l.store.Get(ctx, key)
	return found, err
}

func revokedKey(sessionID string) string {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ""
	}
	return revokedSessionKeyPrefix + sessionID
}
