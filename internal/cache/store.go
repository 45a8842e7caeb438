package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotInitialised is returned by nil store receivers.
var ErrNotInitialised = errors.New("cache: store not initialised")

// Store is the shared, process-wide key-value store. A ttl <= 0 on Set means
// the value does not expire.
type Store interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// Purger is implemented by stores that keep expired rows around until swept.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}
