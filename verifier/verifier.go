package verifier

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/jwt"
)

var (
	// ErrInvalidToken wraps signature, format and claim failures.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrRevoked is returned for an authentic token whose session is on the denylist.
	ErrRevoked = errors.New("session revoked")
)

// Config describes the issuing engine's public key and validation rules.
type Config struct {
	SigningMethod jwt.SigningMethod
	PublicKey     []byte
	KeyID         string
	Issuer        string
	Leeway        time.Duration
	Now           func() time.Time
}

// Verifier is safe for concurrent use.
type Verifier struct {
	parser   *jwt.Manager
	denylist *Denylist
}

// Option customizes a Verifier.
type Option func(*Verifier)

// WithDenylist rejects tokens revoked in d.
func WithDenylist(d *Denylist) Option {
	return func(v *Verifier) {
		v.denylist = d
	}
}

// New builds a verify-only Verifier. PublicKey is required.
func New(cfg Config, opts ...Option) (*Verifier, error) {
	if len(cfg.PublicKey) == 0 {
		return nil, errors.New("verifier requires a public key")
	}
	parser, err := jwt.NewManager(jwt.Config{
		SigningMethod: cfg.SigningMethod,
		PublicKey:     cfg.PublicKey,
		KeyID:         cfg.KeyID,
		Issuer:        cfg.Issuer,
		Leeway:        cfg.Leeway,
		Now:           cfg.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("verifier: %w", err)
	}

	v := &Verifier{parser: parser}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify returns the claims of an authentic token. It cannot tell whether the
// session is still live on the engine; only revocations recorded in the
// denylist are enforced.
func (v *Verifier) Verify(token string) (*jwt.SessionClaims, error) {
	claims, err := v.parser.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if v.denylist != nil && v.denylist.Revoked(claims) {
		return nil, ErrRevoked
	}
	return claims, nil
}

// Denylist returns the attached denylist, or nil.
func (v *Verifier) Denylist() *Denylist {
	return v.denylist
}
