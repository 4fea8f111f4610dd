package flows

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestDeps(t *testing.T) (Deps, *session.MemoryStore, *testClock) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	signer, err := jwt.NewManager(jwt.Config{
		SigningMethod: jwt.MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Now:           clock.Now,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	seq := 0
	newID := func() string {
		seq++
		return fmt.Sprintf("sess-%d", seq)
	}
	store := session.NewMemoryStore()
	return NewDeps(store, signer, clock.Now, newID), store, clock
}

func baseInput() SaveInput {
	return SaveInput{
		TenantCode: "acme",
		AccountID:  "u1",
		Endpoint:   "web",
		Timeout:    3 * time.Minute,
	}
}

func TestRunSaveThenVerify(t *testing.T) {
	deps, store, _ := newTestDeps(t)

	saved := RunSave(context.Background(), baseInput(), deps.Save)
	if saved.Err != nil {
		t.Fatalf("save: %v", saved.Err)
	}
	if saved.Record.ID != "sess-1" {
		t.Fatalf("expected generated id, got %q", saved.Record.ID)
	}
	if store.Len() != 1 {
		t.Fatalf("expected record stored, got %d", store.Len())
	}

	res := RunVerify(context.Background(), saved.Token, deps.Verify)
	if res.Failure != VerifyFailureNone {
		t.Fatalf("expected verify success, got kind=%d err=%v", res.Failure, res.Err)
	}
	if res.Claims.Timeout != 180000 {
		t.Fatalf("expected timeout claim in ms, got %d", res.Claims.Timeout)
	}
}

func TestRunVerifyClassifiesFailures(t *testing.T) {
	deps, store, clock := newTestDeps(t)
	saved := RunSave(context.Background(), baseInput(), deps.Save)

	if res := RunVerify(context.Background(), "garbage", deps.Verify); res.Failure != VerifyFailureInvalidToken {
		t.Fatalf("expected invalid token, got %d", res.Failure)
	}

	clock.now = clock.now.Add(4 * time.Minute)
	if res := RunVerify(context.Background(), saved.Token, deps.Verify); res.Failure != VerifyFailureExpired {
		t.Fatalf("expected expired, got %d", res.Failure)
	}
	if res := RunVerify(context.Background(), saved.Token, deps.Verify); res.Failure != VerifyFailureNotFound {
		t.Fatalf("expected not found after expiry cleanup, got %d", res.Failure)
	}
	if store.Len() != 0 {
		t.Fatalf("expected expired record to be removed, got %d", store.Len())
	}
}

func TestRunSaveSignFailureStoresNothing(t *testing.T) {
	deps, store, _ := newTestDeps(t)
	deps.Save.Sign = func(jwt.SessionClaims) (string, error) { return "", errors.New("hsm down") }

	if res := RunSave(context.Background(), baseInput(), deps.Save); res.Err == nil {
		t.Fatal("expected sign failure to surface")
	}
	if store.Len() != 0 {
		t.Fatal("expected no record when signing fails")
	}
}

func TestRunLoginByTokenInheritsParent(t *testing.T) {
	deps, _, _ := newTestDeps(t)
	in := baseInput()
	in.Admin = true
	in.Extra = map[string]any{"role": "ops", "region": "eu"}
	parent := RunSave(context.Background(), in, deps.Save)

	child := RunLoginByToken(context.Background(), parent.Token, LoginByTokenInput{
		Endpoint: "mobile",
		Extra:    map[string]any{"region": "us"},
	}, LoginByTokenDeps{Verify: deps.Verify, Save: deps.Save})
	if child.Err != nil {
		t.Fatalf("login by token: %v", child.Err)
	}

	rec := child.Record
	if rec.SourceID != parent.Record.ID || rec.Endpoint != "mobile" || !rec.Admin {
		t.Fatalf("unexpected child record: %+v", rec)
	}
	if rec.Extra["role"] != "ops" || rec.Extra["region"] != "us" {
		t.Fatalf("expected merged extra claims, got %v", rec.Extra)
	}
	if parent.Record.Extra["region"] != "eu" {
		t.Fatal("expected parent extra claims untouched")
	}
}

func TestRunLoginByTokenRejectsInvalidParent(t *testing.T) {
	deps, store, _ := newTestDeps(t)
	res := RunLoginByToken(context.Background(), "not-a-token", LoginByTokenInput{Endpoint: "app"}, LoginByTokenDeps{Verify: deps.Verify, Save: deps.Save})
	if !res.ParentInvalid || res.Err == nil {
		t.Fatalf("expected parent rejection, got %+v", res)
	}
	if store.Len() != 0 {
		t.Fatal("expected no child stored")
	}
}

func TestRunInvalidateCascades(t *testing.T) {
	deps, store, _ := newTestDeps(t)
	root := RunSave(context.Background(), baseInput(), deps.Save)
	ldeps := LoginByTokenDeps{Verify: deps.Verify, Save: deps.Save}
	child := RunLoginByToken(context.Background(), root.Token, LoginByTokenInput{Endpoint: "app"}, ldeps)
	RunLoginByToken(context.Background(), child.Token, LoginByTokenInput{Endpoint: "cli"}, ldeps)
	RunSave(context.Background(), baseInput(), deps.Save)

	res := RunInvalidateByToken(context.Background(), root.Token, deps.Invalidate)
	if !res.Found || res.Root.ID != root.Record.ID || len(res.Cascaded) != 2 {
		t.Fatalf("unexpected invalidate result: %+v", res)
	}
	if store.Len() != 1 {
		t.Fatalf("expected only the unrelated session left, got %d", store.Len())
	}

	again := RunInvalidateByToken(context.Background(), root.Token, deps.Invalidate)
	if again.Found || again.Err != nil {
		t.Fatalf("expected idempotent no-op, got %+v", again)
	}
}

func TestRunListLiveSkipsExpired(t *testing.T) {
	deps, _, clock := newTestDeps(t)
	RunSave(context.Background(), baseInput(), deps.Save)
	clock.now = clock.now.Add(2 * time.Minute)
	RunSave(context.Background(), baseInput(), deps.Save)
	clock.now = clock.now.Add(2 * time.Minute)

	live := RunListLive("acme", "u1", deps.Introspection)
	if len(live) != 1 || live[0].ID != "sess-2" {
		t.Fatalf("expected only sess-2 live, got %+v", live)
	}
}

func TestRunGetLiveClassifies(t *testing.T) {
	deps, _, clock := newTestDeps(t)
	RunSave(context.Background(), baseInput(), deps.Save)

	rec, err := RunGetLive("acme", "u1", "sess-1", deps.Introspection)
	if err != nil || rec.ID != "sess-1" {
		t.Fatalf("expected live sess-1, got %+v %v", rec, err)
	}
	if _, err := RunGetLive("acme", "u1", "missing", deps.Introspection); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	clock.now = clock.now.Add(2 * time.Minute)
	if _, err := RunGetLive("acme", "u1", "sess-1", deps.Introspection); !errors.Is(err, session.ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}
