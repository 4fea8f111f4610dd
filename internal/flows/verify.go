package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
)

// VerifyFailureKind classifies verification failures for root-level metrics. Callers
// outside the engine only ever see a boolean.
type VerifyFailureKind int

const (
	VerifyFailureNone VerifyFailureKind = iota
	VerifyFailureInvalidToken
	VerifyFailureNotFound
	VerifyFailureExpired
)

// VerifyResult returns either the verified claims and refreshed record or a
// classified failure.
type VerifyResult struct {
	Failure VerifyFailureKind
	Err     error
	Claims  *jwt.SessionClaims
	Record  session.Record
}

// VerifyDeps captures verification dependencies.
type VerifyDeps struct {
	Parse func(string) (*jwt.SessionClaims, error)
	Now   func() time.Time
	Store session.Store
}

// RunVerify checks the signature, then looks the session up in its partition and,
// if it is still live, slides its window forward.
func RunVerify(ctx context.Context, tokenStr string, deps VerifyDeps) VerifyResult {
	claims, err := deps.Parse(tokenStr)
	if err != nil {
		return VerifyResult{Failure: VerifyFailureInvalidToken, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return VerifyResult{Failure: VerifyFailureNotFound, Err: err}
	}

	rec, err := deps.Store.Touch(claims.Tenant, claims.Subject, claims.ID, deps.Now())
	switch {
	case err == nil:
	case errors.Is(err, session.ErrExpired):
		return VerifyResult{Failure: VerifyFailureExpired, Err: err, Claims: claims, Record: rec}
	default:
		return VerifyResult{Failure: VerifyFailureNotFound, Err: err, Claims: claims}
	}

	return VerifyResult{Claims: claims, Record: rec}
}
