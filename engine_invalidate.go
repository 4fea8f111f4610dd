package goSession

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrEthical07/goSession/internal/events"
	"github.com/MrEthical07/goSession/internal/flows"
)

// Invalidate revokes the session named by token together with every session
// derived from it. Revoking an already absent session succeeds. A token that fails
// signature or claim checks returns ErrTokenInvalid.
func (e *Engine) Invalidate(ctx context.Context, token string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	res := flows.RunInvalidateByToken(ctx, token, e.flows.Invalidate)
	if res.Err != nil {
		return fmt.Errorf("%w: %v", ErrTokenInvalid, res.Err)
	}
	e.afterInvalidate(ctx, res, reasonLogout)
	return nil
}

// InvalidateSession is Invalidate by session coordinates, for administrative revocation.
func (e *Engine) InvalidateSession(ctx context.Context, tenantCode, accountID, sessionID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if strings.TrimSpace(tenantCode) == "" || strings.TrimSpace(accountID) == "" || strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: tenant code, account id and session id are required", ErrInvalidClaims)
	}
	res := flows.RunInvalidateSession(ctx, tenantCode, accountID, sessionID, e.flows.Invalidate)
	e.afterInvalidate(ctx, res, reasonAdmin)
	return nil
}

// Clear removes every session of an account, regardless of lineage.
func (e *Engine) Clear(ctx context.Context, tenantCode, accountID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if strings.TrimSpace(tenantCode) == "" || strings.TrimSpace(accountID) == "" {
		return fmt.Errorf("%w: tenant code and account id are required", ErrInvalidClaims)
	}
	removed := flows.RunClear(ctx, tenantCode, accountID, e.flows.Invalidate)
	e.metricAdd(MetricSessionCleared, len(removed))
	e.publishCleared(ctx, tenantCode, accountID)
	return nil
}

// ForceLogout is an alias for Clear.
func (e *Engine) ForceLogout(ctx context.Context, tenantCode, accountID string) error {
	return e.Clear(ctx, tenantCode, accountID)
}

func (e *Engine) afterInvalidate(ctx context.Context, res flows.InvalidateResult, reason string) {
	if !res.Found {
		return
	}
	e.metricInc(MetricSessionInvalidated)
	e.metricAdd(MetricSessionCascaded, len(res.Cascaded))

	e.publish(ctx, events.TypeInvalidated, res.Root, reason)
	e.publishAll(ctx, events.TypeCascaded, res.Cascaded, reasonCascade)
}
