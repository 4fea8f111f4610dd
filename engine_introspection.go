package goSession

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/session"
)

// SessionInfo is the read-only introspection view of a live session. It carries
// no token material.
type SessionInfo struct {
	SessionID  string
	Endpoint   string
	SourceID   string
	Admin      bool
	Supervisor bool
	IssuedAt   time.Time
	LastAccess time.Time
	ExpiresAt  time.Time
	Timeout    time.Duration
}

// ListSessions returns the live sessions of an account ordered by issuance,
// without refreshing any of them.
func (e *Engine) ListSessions(ctx context.Context, tenantCode, accountID string) ([]SessionInfo, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if strings.TrimSpace(tenantCode) == "" || strings.TrimSpace(accountID) == "" {
		return nil, ErrInvalidClaims
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	live := flows.RunListLive(tenantCode, accountID, e.flows.Introspection)
	out := make([]SessionInfo, 0, len(live))
	for _, rec := range live {
		out = append(out, toSessionInfo(rec))
	}
	return out, nil
}

// GetSessionInfo describes one session of an account without refreshing it. It
// returns ErrSessionNotFound for unknown ids and ErrSessionExpired for sessions
// that have gone idle but were not reaped yet.
func (e *Engine) GetSessionInfo(ctx context.Context, tenantCode, accountID, sessionID string) (*SessionInfo, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if strings.TrimSpace(tenantCode) == "" || strings.TrimSpace(accountID) == "" || strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidClaims
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, err := flows.RunGetLive(tenantCode, accountID, sessionID, e.flows.Introspection)
	switch {
	case errors.Is(err, session.ErrExpired):
		return nil, ErrSessionExpired
	case err != nil:
		return nil, ErrSessionNotFound
	}
	info := toSessionInfo(rec)
	return &info, nil
}

// ActiveSessionCount returns the number of live sessions of an account.
func (e *Engine) ActiveSessionCount(ctx context.Context, tenantCode, accountID string) (int, error) {
	sessions, err := e.ListSessions(ctx, tenantCode, accountID)
	if err != nil {
		return 0, err
	}
	return len(sessions), nil
}

func toSessionInfo(rec session.Record) SessionInfo {
	return SessionInfo{
		SessionID:  rec.ID,
		Endpoint:   rec.Endpoint,
		SourceID:   rec.SourceID,
		Admin:      rec.Admin,
		Supervisor: rec.Supervisor,
		IssuedAt:   rec.IssuedAt,
		LastAccess: rec.LastAccess,
		ExpiresAt:  rec.ExpiresAt(),
		Timeout:    rec.Timeout,
	}
}
