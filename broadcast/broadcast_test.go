package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/verifier"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func startSubscriber(t *testing.T, rdb *redis.Client, deny *verifier.Denylist) *Subscriber {
	t.Helper()
	sub := NewSubscriber(rdb, deny, SubscriberConfig{Logger: quietLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("subscriber run: %v", err)
		}
	})

	select {
	case <-sub.Ready():
	case err := <-done:
		t.Fatalf("subscriber exited early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscription")
	}
	return sub
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestPublisherWritesJSON(t *testing.T) {
	_, rdb := newRedis(t)
	ctx := context.Background()

	pubsub := rdb.Subscribe(ctx, "custom")
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	pub := NewPublisher(rdb, PublisherConfig{Channel: "custom", Logger: quietLogger()})
	ts := time.Unix(1_700_000_000, 0).UTC()
	pub.Emit(ctx, goSession.Event{
		Timestamp:  ts,
		Type:       goSession.EventSessionInvalidated,
		TenantCode: "acme",
		AccountID:  "u1",
		SessionID:  "s1",
		Reason:     "logout",
	})

	select {
	case msg := <-pubsub.Channel():
		var ev goSession.Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if ev.Type != goSession.EventSessionInvalidated || ev.SessionID != "s1" || !ev.Timestamp.Equal(ts) {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	if pub.Published() != 1 || pub.Failed() != 0 {
		t.Fatalf("unexpected counters: published=%d failed=%d", pub.Published(), pub.Failed())
	}
}

func TestPublisherCountsFailures(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()

	pub := NewPublisher(rdb, PublisherConfig{Timeout: 200 * time.Millisecond, Logger: quietLogger()})
	pub.Emit(context.Background(), goSession.Event{Type: goSession.EventSessionCreated})
	if pub.Failed() != 1 || pub.Published() != 0 {
		t.Fatalf("expected one failure, got published=%d failed=%d", pub.Published(), pub.Failed())
	}
}

func TestApply(t *testing.T) {
	ts := time.Unix(1_700_000_000, 0)
	tests := []struct {
		name    string
		event   goSession.Event
		applied bool
	}{
		{name: "invalidated", event: goSession.Event{Type: goSession.EventSessionInvalidated, TenantCode: "acme", AccountID: "u1", SessionID: "s1"}, applied: true},
		{name: "cascaded", event: goSession.Event{Type: goSession.EventSessionCascaded, TenantCode: "acme", AccountID: "u1", SessionID: "s2"}, applied: true},
		{name: "evicted", event: goSession.Event{Type: goSession.EventSessionEvicted, TenantCode: "acme", AccountID: "u1", SessionID: "s3"}, applied: true},
		{name: "expired", event: goSession.Event{Type: goSession.EventSessionExpired, TenantCode: "acme", AccountID: "u1", SessionID: "s4"}, applied: true},
		{name: "cleared", event: goSession.Event{Type: goSession.EventSessionCleared, TenantCode: "acme", AccountID: "u2"}, applied: true},
		{name: "created", event: goSession.Event{Type: goSession.EventSessionCreated, TenantCode: "acme", AccountID: "u1", SessionID: "s5"}},
		{name: "missing session id", event: goSession.Event{Type: goSession.EventSessionInvalidated, TenantCode: "acme", AccountID: "u1"}},
		{name: "missing account", event: goSession.Event{Type: goSession.EventSessionCleared, TenantCode: "acme"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			deny := verifier.NewDenylist(time.Hour)
			sub := NewSubscriber(nil, deny, SubscriberConfig{Logger: quietLogger()})
			tc.event.Timestamp = ts
			if got := sub.Apply(tc.event); got != tc.applied {
				t.Fatalf("expected applied=%v, got %v", tc.applied, got)
			}
			want := 0
			if tc.applied {
				want = 1
			}
			if deny.Len() != want {
				t.Fatalf("expected %d denylist entries, got %d", want, deny.Len())
			}
		})
	}
}

func TestSubscriberSkipsMalformedPayload(t *testing.T) {
	_, rdb := newRedis(t)
	sub := startSubscriber(t, rdb, verifier.NewDenylist(time.Hour))

	if err := rdb.Publish(context.Background(), DefaultChannel, "{not json").Err(); err != nil {
		t.Fatalf("publish: %v", err)
	}
	eventually(t, "malformed payload to be skipped", func() bool { return sub.Skipped() == 1 })
	if sub.Applied() != 0 {
		t.Fatalf("expected nothing applied, got %d", sub.Applied())
	}
}

func TestRevocationReachesOfflineVerifier(t *testing.T) {
	_, rdb := newRedis(t)

	deny := verifier.NewDenylist(time.Hour)
	sub := startSubscriber(t, rdb, deny)

	cfg := goSession.DefaultConfig()
	cfg.JWT.SigningMethod = string(jwt.MethodEd25519)
	cfg.Session.ReapInterval = time.Hour
	e, err := goSession.New().
		WithConfig(cfg).
		WithLogger(quietLogger()).
		WithEventSink(NewPublisher(rdb, PublisherConfig{Logger: quietLogger()})).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	defer e.Close()

	v, err := verifier.New(verifier.Config{SigningMethod: e.SigningMethod(), PublicKey: e.PublicKey()}, verifier.WithDenylist(deny))
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	ctx := context.Background()
	parent, err := e.Save(ctx, goSession.Claims{TenantCode: "acme", AccountID: "u1"}, 0)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	child, err := e.LoginByToken(ctx, parent, "app", nil, 0)
	if err != nil {
		t.Fatalf("login by token: %v", err)
	}
	other, err := e.Save(ctx, goSession.Claims{TenantCode: "acme", AccountID: "u2"}, 0)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	for _, tok := range []string{parent, child, other} {
		if _, err := v.Verify(tok); err != nil {
			t.Fatalf("expected token accepted before revocation: %v", err)
		}
	}

	if err := e.Invalidate(ctx, parent); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	eventually(t, "cascade to reach the denylist", func() bool {
		_, errParent := v.Verify(parent)
		_, errChild := v.Verify(child)
		return errors.Is(errParent, verifier.ErrRevoked) && errors.Is(errChild, verifier.ErrRevoked)
	})
	if _, err := v.Verify(other); err != nil {
		t.Fatalf("expected unrelated account accepted: %v", err)
	}

	if err := e.Clear(ctx, "acme", "u2"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	eventually(t, "account cutoff to reach the denylist", func() bool {
		_, err := v.Verify(other)
		return errors.Is(err, verifier.ErrRevoked)
	})
	if sub.Applied() < 3 {
		t.Fatalf("expected at least 3 applied events, got %d", sub.Applied())
	}
}
