package jwt

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the token signature algorithm.
type SigningMethod string

const (
	// MethodRS256 signs with RSASSA-PKCS1-v1_5 over SHA-256.
	MethodRS256 SigningMethod = "rs256"
	// MethodEd25519 signs with EdDSA over Curve25519.
	MethodEd25519 SigningMethod = "ed25519"
)

const minRSAKeyBits = 2048

var (
	// ErrVerifyOnly is returned by Sign on a manager that has no private key.
	ErrVerifyOnly = errors.New("manager has no signing key")
	// ErrMissingClaims is returned when a token lacks a required session claim.
	ErrMissingClaims = errors.New("token missing required session claims")
	// ErrReservedClaim is returned when an extra claim reuses a fixed claim name.
	ErrReservedClaim = errors.New("extra claim uses a reserved name")
	// ErrUnsupportedClaim is returned when an extra claim is not a scalar.
	ErrUnsupportedClaim = errors.New("extra claim value is not a scalar")
)

// Config describes the keypair and validation rules of a [Manager].
//
// PrivateKey and PublicKey accept PEM. Ed25519 keys may also be passed as raw
// key bytes. When only PrivateKey is set the public half is derived from it.
type Config struct {
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	KeyID         string
	Issuer        string
	Leeway        time.Duration
	// MaxLifetime, when positive, stamps an absolute exp on issued tokens.
	// Liveness is otherwise governed by the sliding session timeout alone.
	MaxLifetime  time.Duration
	MaxFutureIAT time.Duration
	Now          func() time.Time
}

// Manager issues and parses session tokens. It is immutable after NewManager and
// safe for concurrent use.
type Manager struct {
	config    Config
	method    jwt.SigningMethod
	signKey   crypto.Signer
	verifyKey crypto.PublicKey
	publicPEM []byte
}

// NewManager validates cfg, parses the keys once and returns a ready manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxLifetime < 0 {
		return nil, errors.New("invalid MaxLifetime configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	if cfg.SigningMethod == "" {
		cfg.SigningMethod = MethodRS256
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)

	m := &Manager{config: cfg}

	switch cfg.SigningMethod {
	case MethodRS256:
		m.method = jwt.SigningMethodRS256
		if len(cfg.PrivateKey) > 0 {
			key, err := parseRSAPrivateKey(cfg.PrivateKey)
			if err != nil {
				return nil, err
			}
			m.signKey = key
			m.verifyKey = &key.PublicKey
		}
		if len(cfg.PublicKey) > 0 {
			key, err := parseRSAPublicKey(cfg.PublicKey)
			if err != nil {
				return nil, err
			}
			if priv, ok := m.signKey.(*rsa.PrivateKey); ok && !priv.PublicKey.Equal(key) {
				return nil, errors.New("rsa public key does not match private key")
			}
			m.verifyKey = key
		}
	case MethodEd25519:
		m.method = jwt.SigningMethodEdDSA
		if len(cfg.PrivateKey) > 0 {
			key, err := parseEdPrivateKey(cfg.PrivateKey)
			if err != nil {
				return nil, err
			}
			m.signKey = key
			m.verifyKey = key.Public()
		}
		if len(cfg.PublicKey) > 0 {
			key, err := parseEdPublicKey(cfg.PublicKey)
			if err != nil {
				return nil, err
			}
			if priv, ok := m.signKey.(ed25519.PrivateKey); ok && !key.Equal(priv.Public()) {
				return nil, errors.New("ed25519 public key does not match private key")
			}
			m.verifyKey = key
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	if m.verifyKey == nil {
		return nil, fmt.Errorf("%s requires a private or public key", cfg.SigningMethod)
	}

	publicPEM, err := encodePublicKeyPEM(m.verifyKey)
	if err != nil {
		return nil, err
	}
	m.publicPEM = publicPEM

	return m, nil
}

// CanSign reports whether the manager holds a private key.
func (j *Manager) CanSign() bool {
	return j != nil && j.signKey != nil
}

// PublicKeyPEM returns a copy of the PEM-encoded (PKIX) public key.
func (j *Manager) PublicKeyPEM() []byte {
	out := make([]byte, len(j.publicPEM))
	copy(out, j.publicPEM)
	return out
}

// Method returns the configured signing method.
func (j *Manager) Method() SigningMethod {
	return j.config.SigningMethod
}

// Sign encodes and signs claims. The issuer is filled from config when empty and
// exp is derived from iat when MaxLifetime is configured.
func (j *Manager) Sign(claims SessionClaims) (string, error) {
	if j.signKey == nil {
		return "", ErrVerifyOnly
	}
	if err := claims.validate(); err != nil {
		return "", err
	}
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(j.config.Now())
	}
	if claims.Issuer == "" {
		claims.Issuer = j.config.Issuer
	}
	if j.config.MaxLifetime > 0 && claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(claims.IssuedAt.Add(j.config.MaxLifetime))
	}

	token := jwt.NewWithClaims(j.method, &claims)
	if j.config.KeyID != "" {
		token.Header["kid"] = j.config.KeyID
	}

	return token.SignedString(j.signKey)
}

// Parse verifies the signature and registered claims of tokenStr and returns the
// decoded session claims. It never touches session state.
func (j *Manager) Parse(tokenStr string) (*SessionClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithTimeFunc(j.config.Now),
	}
	if j.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(j.config.Leeway))
	}
	if j.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(j.config.Issuer))
	}

	claims, err := j.parse(tokenStr, options)
	if err != nil {
		return nil, err
	}
	if claims.IssuedAt != nil {
		maxAllowed := j.config.Now().Add(j.config.MaxFutureIAT)
		if claims.IssuedAt.Time.After(maxAllowed) {
			return nil, errors.New("token iat too far in the future")
		}
	}

	return claims, nil
}

// ParseForRevocation is Parse without the time-based checks (exp, nbf, iat).
// Algorithm, kid, signature, issuer and the session claim set are still enforced,
// so a token past its absolute lifetime can still name the session to revoke.
func (j *Manager) ParseForRevocation(tokenStr string) (*SessionClaims, error) {
	claims, err := j.parse(tokenStr, []jwt.ParserOption{jwt.WithoutClaimsValidation()})
	if err != nil {
		return nil, err
	}
	if j.config.Issuer != "" && claims.Issuer != j.config.Issuer {
		return nil, jwt.ErrTokenInvalidIssuer
	}
	return claims, nil
}

func (j *Manager) parse(tokenStr string, options []jwt.ParserOption) (*SessionClaims, error) {
	options = append(options, jwt.WithValidMethods([]string{j.method.Alg()}))

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != j.method.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		if j.config.KeyID != "" {
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("missing kid")
			}
			if kid != j.config.KeyID {
				return nil, errors.New("unknown kid")
			}
		}
		return j.verifyKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if err := claims.validate(); err != nil {
		return nil, err
	}
	return claims, nil
}
