package goSession

import "errors"

var (
	// ErrUnauthorized is returned when a parent token does not verify.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTokenInvalid is returned when a token fails signature or claim checks.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrSessionNotFound reports a session absent from its partition. LoginByToken
	// wraps it in ErrUnauthorized when the parent was revoked or never existed.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired reports a session past its sliding timeout. LoginByToken
	// wraps it in ErrUnauthorized when the parent has gone idle.
	ErrSessionExpired = errors.New("session expired")
	// ErrInvalidClaims is returned for malformed session requests.
	ErrInvalidClaims = errors.New("invalid session claims")
	// ErrEngineMisconfigured wraps every deployment-time failure in Build.
	ErrEngineMisconfigured = errors.New("engine misconfigured")
	// ErrEngineNotReady is returned when methods are called on a nil or closed engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrConfig wraps configuration loading failures.
	ErrConfig = errors.New("invalid configuration")
)
