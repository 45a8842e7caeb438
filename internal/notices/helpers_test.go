package notices

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/noticeboard/internal/cache"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memoryMeta struct {
	mu     sync.Mutex
	values map[string][]byte
	err    error
	writes int
}

func newMemoryMeta() *memoryMeta {
	return &memoryMeta{values: make(map[string][]byte)}
}

func (m *memoryMeta) GetUserMeta(_ context.Context, userID, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	value, ok := m.values[userID+"/"+key]
	return value, ok, nil
}

func (m *memoryMeta) SetUserMeta(_ context.Context, userID, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.writes++
	m.values[userID+"/"+key] = append([]byte(nil), value...)
	return nil
}

type stubVerifier struct {
	valid string
}

func (v stubVerifier) VerifyActionToken(token, action, userID, _ string) error {
	if token == "" || token != v.valid || action != ActionDismiss || userID == "" {
		return errors.New("token rejected")
	}
	return nil
}

type fixture struct {
	clock     *fakeClock
	meta      *memoryMeta
	shared    *cache.MemoryStore
	flags     *FlagStore
	renderer  *Renderer
	dismisser *Dismisser
}

func newFixture(t *testing.T, opts ...DismisserOption) *fixture {
	t.Helper()

	clock := newFakeClock()
	meta := newMemoryMeta()
	shared := cache.NewMemoryStore(clock.Now)
	flags := NewFlagStore(meta, shared)

	renderer, err := NewRenderer(DefaultDefaults(), flags)
	require.NoError(t, err)

	dismisser, err := NewDismisser(stubVerifier{valid: "good-token"}, flags, DefaultDefaults(), opts...)
	require.NoError(t, err)

	return &fixture{
		clock:     clock,
		meta:      meta,
		shared:    shared,
		flags:     flags,
		renderer:  renderer,
		dismisser: dismisser,
	}
}

func boolPtr(v bool) *bool {
	return &v
}
