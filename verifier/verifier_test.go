package verifier

import (
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/jwt"
	gjwt "github.com/golang-jwt/jwt/v5"
)

var baseTime = time.Unix(1_700_000_000, 0)

type issuer struct {
	signer *jwt.Manager
	public []byte
}

func newIssuer(t *testing.T, now func() time.Time) issuer {
	t.Helper()
	priv, pub, err := jwt.GenerateKeyPair(jwt.MethodEd25519, 0)
	if err != nil {
		t.Fatalf("generate keys: %v", err)
	}
	signer, err := jwt.NewManager(jwt.Config{
		SigningMethod: jwt.MethodEd25519,
		PrivateKey:    priv,
		KeyID:         "k1",
		Issuer:        "gosession",
		Now:           now,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return issuer{signer: signer, public: pub}
}

func (i issuer) token(t *testing.T, account, id string) string {
	t.Helper()
	tok, err := i.signer.Sign(jwt.SessionClaims{
		Tenant:           "acme",
		Endpoint:         "web",
		Timeout:          60000,
		RegisteredClaims: gjwt.RegisteredClaims{Subject: account, ID: id},
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestVerifyAcceptsAuthenticToken(t *testing.T) {
	iss := newIssuer(t, fixedClock(baseTime))
	v, err := New(Config{
		SigningMethod: jwt.MethodEd25519,
		PublicKey:     iss.public,
		KeyID:         "k1",
		Issuer:        "gosession",
		Now:           fixedClock(baseTime),
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	claims, err := v.Verify(iss.token(t, "u1", "s1"))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "u1" || claims.ID != "s1" || claims.Tenant != "acme" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if v.Denylist() != nil {
		t.Fatal("expected no denylist by default")
	}
}

func TestVerifyRejects(t *testing.T) {
	iss := newIssuer(t, fixedClock(baseTime))
	stranger := newIssuer(t, fixedClock(baseTime))

	tests := []struct {
		name  string
		cfg   Config
		token string
	}{
		{name: "foreign key", cfg: Config{SigningMethod: jwt.MethodEd25519, PublicKey: iss.public}, token: stranger.token(t, "u1", "s1")},
		{name: "wrong issuer", cfg: Config{SigningMethod: jwt.MethodEd25519, PublicKey: iss.public, Issuer: "other"}, token: iss.token(t, "u1", "s1")},
		{name: "wrong kid", cfg: Config{SigningMethod: jwt.MethodEd25519, PublicKey: iss.public, KeyID: "k2"}, token: iss.token(t, "u1", "s1")},
		{name: "garbage", cfg: Config{SigningMethod: jwt.MethodEd25519, PublicKey: iss.public}, token: "a.b.c"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Now = fixedClock(baseTime)
			v, err := New(tc.cfg)
			if err != nil {
				t.Fatalf("new verifier: %v", err)
			}
			if _, err := v.Verify(tc.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestNewRequiresPublicKey(t *testing.T) {
	if _, err := New(Config{SigningMethod: jwt.MethodEd25519}); err == nil {
		t.Fatal("expected error without public key")
	}
	if _, err := New(Config{SigningMethod: jwt.MethodRS256, PublicKey: []byte("junk")}); err == nil {
		t.Fatal("expected error for unparseable key")
	}
}

func TestVerifyWithDenylist(t *testing.T) {
	iss := newIssuer(t, fixedClock(baseTime))
	deny := NewDenylist(time.Hour)
	v, err := New(Config{SigningMethod: jwt.MethodEd25519, PublicKey: iss.public, Now: fixedClock(baseTime)}, WithDenylist(deny))
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	revoked := iss.token(t, "u1", "s1")
	kept := iss.token(t, "u1", "s2")
	deny.Revoke("acme", "u1", "s1", baseTime)

	if _, err := v.Verify(revoked); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected ErrRevoked, got %v", err)
	}
	if _, err := v.Verify(kept); err != nil {
		t.Fatalf("expected other session accepted, got %v", err)
	}
}

func TestDenylistAccountCutoff(t *testing.T) {
	now := baseTime
	iss := newIssuer(t, func() time.Time { return now })
	deny := NewDenylist(time.Hour)
	v, err := New(Config{SigningMethod: jwt.MethodEd25519, PublicKey: iss.public, Now: func() time.Time { return now }}, WithDenylist(deny))
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	before := iss.token(t, "u1", "s1")
	other := iss.token(t, "u2", "s2")
	deny.RevokeAccount("acme", "u1", baseTime.Add(500*time.Millisecond))

	now = baseTime.Add(2 * time.Second)
	after := iss.token(t, "u1", "s3")

	if _, err := v.Verify(before); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected token issued before cutoff revoked, got %v", err)
	}
	if _, err := v.Verify(after); err != nil {
		t.Fatalf("expected token issued after cutoff accepted, got %v", err)
	}
	if _, err := v.Verify(other); err != nil {
		t.Fatalf("expected other account unaffected, got %v", err)
	}
}

func TestDenylistPrune(t *testing.T) {
	deny := NewDenylist(time.Minute)
	deny.Revoke("acme", "u1", "s1", baseTime)
	deny.Revoke("acme", "u1", "s2", baseTime.Add(time.Minute))
	deny.RevokeAccount("acme", "u2", baseTime)
	deny.Revoke("acme", "u1", "", baseTime)

	if deny.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", deny.Len())
	}
	if n := deny.Prune(baseTime.Add(time.Minute)); n != 2 {
		t.Fatalf("expected 2 pruned, got %d", n)
	}
	if deny.Len() != 1 {
		t.Fatalf("expected 1 entry left, got %d", deny.Len())
	}

	claims := &jwt.SessionClaims{Tenant: "acme", RegisteredClaims: gjwt.RegisteredClaims{Subject: "u1", ID: "s2"}}
	if !deny.Revoked(claims) {
		t.Fatal("expected surviving entry to still revoke")
	}
}

func TestDenylistKeepsLatestCutoff(t *testing.T) {
	deny := NewDenylist(time.Hour)
	deny.RevokeAccount("acme", "u1", baseTime.Add(10*time.Second))
	deny.RevokeAccount("acme", "u1", baseTime)

	claims := &jwt.SessionClaims{
		Tenant: "acme",
		RegisteredClaims: gjwt.RegisteredClaims{
			Subject:  "u1",
			ID:       "s1",
			IssuedAt: gjwt.NewNumericDate(baseTime.Add(5 * time.Second)),
		},
	}
	if !deny.Revoked(claims) {
		t.Fatal("expected earlier cutoff not to replace a later one")
	}
}
