package goSession

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/internal/events"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
)

// Save issues a session for an already authenticated account and returns its
// signed token. limit caps live sessions per (tenant, account, endpoint); when it
// is reached the least recently used one is evicted. limit <= 0 means unlimited.
func (e *Engine) Save(ctx context.Context, claims Claims, limit int) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	in, err := e.saveInput(claims, limit)
	if err != nil {
		return "", err
	}

	res := flows.RunSave(ctx, in, e.flows.Save)
	if res.Err != nil {
		return "", e.mapSaveError(res.Err)
	}

	e.afterSave(ctx, res, false)
	return res.Token, nil
}

// LoginByToken derives a session from parentToken, which must verify (and is
// refreshed by doing so). The child inherits tenant, account, flags, timeout and
// the parent's extra claims; extra overrides individual entries. An empty
// endpoint reuses the parent's. A rejected parent yields ErrUnauthorized wrapping
// ErrTokenInvalid, ErrSessionNotFound or ErrSessionExpired.
func (e *Engine) LoginByToken(ctx context.Context, parentToken, endpoint string, extra map[string]any, limit int) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	if limit < 0 {
		return "", fmt.Errorf("%w: limit must be >= 0", ErrInvalidClaims)
	}
	if err := jwt.ValidateExtra(extra); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidClaims, err)
	}

	res := flows.RunLoginByToken(ctx, parentToken, flows.LoginByTokenInput{
		Endpoint: strings.TrimSpace(endpoint),
		Extra:    extra,
		Limit:    limit,
	}, flows.LoginByTokenDeps{Verify: e.flows.Verify, Save: e.flows.Save})

	if res.ParentInvalid {
		e.metricInc(MetricLoginByTokenRejected)
		if res.Parent.Failure == flows.VerifyFailureExpired {
			e.publish(ctx, events.TypeExpired, res.Parent.Record, reasonTimeout)
			e.metricInc(MetricSessionExpired)
		}
		return "", fmt.Errorf("%w: %w", ErrUnauthorized, parentFailure(res.Parent.Failure))
	}
	if res.Err != nil {
		return "", e.mapSaveError(res.Err)
	}

	e.afterSave(ctx, res.SaveResult, true)
	return res.Token, nil
}

// Verify reports whether token is authentic and its session is live, and slides
// the session's inactivity window forward. Every failure (bad signature, unknown
// session, expired session) yields false.
func (e *Engine) Verify(ctx context.Context, token string) bool {
	_, ok := e.Inspect(ctx, token)
	return ok
}

// Inspect is Verify that also returns the verified claims.
func (e *Engine) Inspect(ctx context.Context, token string) (*SessionClaims, bool) {
	if !e.ready() {
		return nil, false
	}

	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
	}

	res := flows.RunVerify(ctx, token, e.flows.Verify)

	if !start.IsZero() {
		e.metrics.Observe(MetricVerifyLatency, time.Since(start))
	}

	switch res.Failure {
	case flows.VerifyFailureNone:
		e.metricInc(MetricVerifySuccess)
		return res.Claims, true
	case flows.VerifyFailureExpired:
		e.metricInc(MetricVerifyExpired)
		e.metricInc(MetricSessionExpired)
		e.publish(ctx, events.TypeExpired, res.Record, reasonTimeout)
	case flows.VerifyFailureNotFound:
		e.metricInc(MetricVerifyNotFound)
	default:
		e.metricInc(MetricVerifyInvalidToken)
	}
	return nil, false
}

func parentFailure(kind flows.VerifyFailureKind) error {
	switch kind {
	case flows.VerifyFailureExpired:
		return ErrSessionExpired
	case flows.VerifyFailureNotFound:
		return ErrSessionNotFound
	default:
		return ErrTokenInvalid
	}
}

func (e *Engine) saveInput(claims Claims, limit int) (flows.SaveInput, error) {
	tenant := strings.TrimSpace(claims.TenantCode)
	account := strings.TrimSpace(claims.AccountID)
	if tenant == "" || account == "" {
		return flows.SaveInput{}, fmt.Errorf("%w: tenant code and account id are required", ErrInvalidClaims)
	}
	if limit < 0 {
		return flows.SaveInput{}, fmt.Errorf("%w: limit must be >= 0", ErrInvalidClaims)
	}

	endpoint := strings.TrimSpace(claims.Endpoint)
	if endpoint == "" {
		endpoint = e.config.Session.DefaultEndpoint
	}

	timeout := claims.Timeout
	switch {
	case timeout < 0:
		return flows.SaveInput{}, fmt.Errorf("%w: timeout must be >= 0", ErrInvalidClaims)
	case timeout == 0:
		timeout = e.config.Session.DefaultTimeout
	case timeout < time.Millisecond:
		return flows.SaveInput{}, fmt.Errorf("%w: timeout below 1ms", ErrInvalidClaims)
	}
	// Tokens carry the timeout in milliseconds; the record must agree with them.
	timeout = timeout.Truncate(time.Millisecond)
	if maxTimeout := e.config.Session.MaxTimeout; maxTimeout > 0 && timeout > maxTimeout {
		return flows.SaveInput{}, fmt.Errorf("%w: timeout %s exceeds maximum %s", ErrInvalidClaims, timeout, maxTimeout)
	}

	if err := jwt.ValidateExtra(claims.Extra); err != nil {
		return flows.SaveInput{}, fmt.Errorf("%w: %v", ErrInvalidClaims, err)
	}

	return flows.SaveInput{
		TenantCode: tenant,
		AccountID:  account,
		Endpoint:   endpoint,
		Admin:      claims.Admin,
		Supervisor: claims.Supervisor,
		Timeout:    timeout,
		Extra:      claims.Extra,
		Limit:      limit,
	}, nil
}

func (e *Engine) mapSaveError(err error) error {
	switch {
	case errors.Is(err, session.ErrInvalidRecord),
		errors.Is(err, jwt.ErrMissingClaims),
		errors.Is(err, jwt.ErrReservedClaim),
		errors.Is(err, jwt.ErrUnsupportedClaim):
		return fmt.Errorf("%w: %v", ErrInvalidClaims, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		e.logger.Error("gosession: session issuance failed", "error", err)
		return fmt.Errorf("gosession: save: %w", err)
	}
}

func (e *Engine) afterSave(ctx context.Context, res flows.SaveResult, chained bool) {
	e.metricInc(MetricSessionCreated)
	if chained {
		e.metricInc(MetricSessionChained)
	}
	e.metricAdd(MetricSessionEvicted, len(res.Evicted))

	e.publishAll(ctx, events.TypeEvicted, res.Evicted, reasonLimit)
	e.publish(ctx, events.TypeCreated, res.Record, "")
}
