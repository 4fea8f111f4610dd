package goSession

import (
	"context"

	"github.com/MrEthical07/goSession/internal/events"
	"github.com/MrEthical07/goSession/session"
)

const (
	reasonLimit       = "limit"
	reasonLogout      = "logout"
	reasonAdmin       = "admin"
	reasonCascade     = "cascade"
	reasonTimeout     = "timeout"
	reasonForceLogout = "force_logout"
)

func (e *Engine) publish(ctx context.Context, typ events.Type, rec session.Record, reason string) {
	if e == nil || e.events == nil {
		return
	}
	e.events.Emit(ctx, events.Event{
		Timestamp:  e.now(),
		Type:       typ,
		TenantCode: rec.TenantCode,
		AccountID:  rec.AccountID,
		SessionID:  rec.ID,
		SourceID:   rec.SourceID,
		Endpoint:   rec.Endpoint,
		IssuedAt:   rec.IssuedAt,
		Reason:     reason,
	})
}

func (e *Engine) publishAll(ctx context.Context, typ events.Type, recs []session.Record, reason string) {
	for _, rec := range recs {
		e.publish(ctx, typ, rec, reason)
	}
}

// publishCleared emits one account-level event; SessionID is empty and the
// timestamp is the revocation cutoff.
func (e *Engine) publishCleared(ctx context.Context, tenantCode, accountID string) {
	if e == nil || e.events == nil {
		return
	}
	e.events.Emit(ctx, events.Event{
		Timestamp:  e.now(),
		Type:       events.TypeCleared,
		TenantCode: tenantCode,
		AccountID:  accountID,
		Reason:     reasonForceLogout,
	})
}

func (e *Engine) onSweep(removed []session.Record) {
	e.metricAdd(MetricSessionExpired, len(removed))
	e.metricInc(MetricReaperSweep)
	e.publishAll(context.Background(), events.TypeExpired, removed, reasonTimeout)
}

func (e *Engine) onSweepError(error) {
	e.metricInc(MetricReaperError)
}
