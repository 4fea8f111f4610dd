package goSession

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/jwt"
)

var (
	testKeyOnce    sync.Once
	testPrivateKey []byte
	testPublicKey  []byte
	testKeyErr     error
)

func testKeys(t testing.TB) ([]byte, []byte) {
	t.Helper()
	testKeyOnce.Do(func() {
		testPrivateKey, testPublicKey, testKeyErr = jwt.GenerateKeyPair(jwt.MethodRS256, 2048)
	})
	if testKeyErr != nil {
		t.Fatalf("generate keys: %v", testKeyErr)
	}
	return testPrivateKey, testPublicKey
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t testing.TB) Config {
	t.Helper()
	priv, pub := testKeys(t)
	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = priv
	cfg.JWT.PublicKey = pub
	cfg.JWT.GenerateKeys = false
	cfg.Session.ReapInterval = time.Hour
	return cfg
}

type engineOption func(*Builder)

func withSink(sink EventSink) engineOption {
	return func(b *Builder) { b.WithEventSink(sink) }
}

func withConfig(mutate func(*Config)) engineOption {
	return func(b *Builder) {
		mutate(&b.config)
	}
}

func newTestEngine(t *testing.T, opts ...engineOption) (*Engine, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	b := New().
		WithConfig(testConfig(t)).
		WithClock(clock.Now).
		WithLogger(discardLogger())
	for _, opt := range opts {
		opt(b)
	}
	e, err := b.Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(e.Close)
	return e, clock
}
