package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
	gjwt "github.com/golang-jwt/jwt/v5"
)

// SaveInput is a fully resolved session request. Defaults have already been
// applied by the caller.
type SaveInput struct {
	TenantCode string
	AccountID  string
	Endpoint   string
	SourceID   string
	Admin      bool
	Supervisor bool
	Timeout    time.Duration
	Extra      map[string]any
	Limit      int
}

// SaveDeps captures session issuance dependencies.
type SaveDeps struct {
	NewID func() string
	Now   func() time.Time
	Sign  func(jwt.SessionClaims) (string, error)
	Store session.Store
}

// SaveResult carries the issued token and the records evicted to make room for it.
type SaveResult struct {
	Token   string
	Record  session.Record
	Evicted []session.Record
	Err     error
}

// RunSave signs a token for a fresh session id and inserts the record. The token is
// only returned once the record is stored.
func RunSave(ctx context.Context, in SaveInput, deps SaveDeps) SaveResult {
	if err := ctx.Err(); err != nil {
		return SaveResult{Err: err}
	}

	now := deps.Now()
	rec := session.Record{
		ID:         deps.NewID(),
		TenantCode: in.TenantCode,
		AccountID:  in.AccountID,
		Endpoint:   in.Endpoint,
		SourceID:   in.SourceID,
		Admin:      in.Admin,
		Supervisor: in.Supervisor,
		Extra:      jwt.CloneExtra(in.Extra),
		IssuedAt:   now,
		Timeout:    in.Timeout,
		LastAccess: now,
	}

	token, err := deps.Sign(ClaimsFor(rec))
	if err != nil {
		return SaveResult{Err: err}
	}

	evicted, err := deps.Store.Insert(rec, in.Limit, now)
	if err != nil {
		return SaveResult{Err: err}
	}

	return SaveResult{Token: token, Record: rec, Evicted: evicted}
}

// ClaimsFor builds the token claim set describing rec.
func ClaimsFor(rec session.Record) jwt.SessionClaims {
	return jwt.SessionClaims{
		Tenant:     rec.TenantCode,
		Endpoint:   rec.Endpoint,
		Admin:      rec.Admin,
		Supervisor: rec.Supervisor,
		Timeout:    rec.Timeout.Milliseconds(),
		Source:     rec.SourceID,
		Extra:      rec.Extra,
		RegisteredClaims: gjwt.RegisteredClaims{
			Subject:  rec.AccountID,
			ID:       rec.ID,
			IssuedAt: gjwt.NewNumericDate(rec.IssuedAt),
		},
	}
}

// LoginByTokenInput describes a session derived from an existing one.
type LoginByTokenInput struct {
	Endpoint string
	Extra    map[string]any
	Limit    int
}

// LoginByTokenDeps reuses the verify and save dependency sets.
type LoginByTokenDeps struct {
	Verify VerifyDeps
	Save   SaveDeps
}

// LoginByTokenResult adds the parent verification outcome to SaveResult.
type LoginByTokenResult struct {
	SaveResult
	Parent        VerifyResult
	ParentInvalid bool
}

// RunLoginByToken verifies parentToken (refreshing it) and issues a child session
// that inherits the parent's tenant, account, flags, timeout and extra claims.
// Extra overlays the inherited claims.
func RunLoginByToken(ctx context.Context, parentToken string, in LoginByTokenInput, deps LoginByTokenDeps) LoginByTokenResult {
	parent := RunVerify(ctx, parentToken, deps.Verify)
	if parent.Failure != VerifyFailureNone {
		return LoginByTokenResult{Parent: parent, ParentInvalid: true, SaveResult: SaveResult{Err: parent.Err}}
	}

	extra := jwt.CloneExtra(parent.Record.Extra)
	for k, v := range in.Extra {
		if extra == nil {
			extra = make(map[string]any, len(in.Extra))
		}
		extra[k] = v
	}

	endpoint := in.Endpoint
	if endpoint == "" {
		endpoint = parent.Record.Endpoint
	}

	saved := RunSave(ctx, SaveInput{
		TenantCode: parent.Record.TenantCode,
		AccountID:  parent.Record.AccountID,
		Endpoint:   endpoint,
		SourceID:   parent.Record.ID,
		Admin:      parent.Record.Admin,
		Supervisor: parent.Record.Supervisor,
		Timeout:    parent.Record.Timeout,
		Extra:      extra,
		Limit:      in.Limit,
	}, deps.Save)

	// The parent was live at verify time but vanished before the insert.
	if errors.Is(saved.Err, session.ErrSourceNotFound) {
		return LoginByTokenResult{Parent: parent, ParentInvalid: true, SaveResult: saved}
	}
	return LoginByTokenResult{Parent: parent, SaveResult: saved}
}
