package goSession

import (
	"time"

	"github.com/MrEthical07/goSession/jwt"
)

// Claims is the input to [Engine.Save]: who the session is for and how it behaves.
//
// Endpoint and Timeout fall back to the configured defaults when empty. Extra
// holds caller scalars that are flattened into the token; reserved claim names
// are rejected.
type Claims struct {
	TenantCode string
	AccountID  string
	Endpoint   string
	Admin      bool
	Supervisor bool
	Timeout    time.Duration
	Extra      map[string]any
}

// SessionClaims is the verified claim set returned by [Engine.Inspect].
type SessionClaims = jwt.SessionClaims
