package goSession

import (
	"fmt"
	"time"
)

// LintSeverity grades a configuration warning.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
)

// LintWarning is a configuration choice that is valid but probably unintended.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintWarnings is the result of [Config.Lint].
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// Lint reports settings that pass Validate but are risky in production.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings

	if !c.hasPrivateKey() && c.JWT.GenerateKeys {
		ws = append(ws, LintWarning{
			Code:     "ephemeral_keys",
			Severity: LintWarn,
			Message:  "signing keys are generated at startup; every issued token becomes unverifiable after a restart",
		})
	}
	if c.JWT.MaxLifetime == 0 {
		ws = append(ws, LintWarning{
			Code:     "no_absolute_expiry",
			Severity: LintInfo,
			Message:  "tokens carry no exp claim; offline verifiers accept them until revoked",
		})
	}
	if c.JWT.Leeway > time.Minute {
		ws = append(ws, LintWarning{
			Code:     "leeway_large",
			Severity: LintWarn,
			Message:  fmt.Sprintf("JWT leeway %s exceeds 1m", c.JWT.Leeway),
		})
	}
	if c.Session.DefaultTimeout > 24*time.Hour {
		ws = append(ws, LintWarning{
			Code:     "timeout_long",
			Severity: LintWarn,
			Message:  fmt.Sprintf("default session timeout %s exceeds 24h", c.Session.DefaultTimeout),
		})
	}
	if c.Session.ReapInterval > c.Session.DefaultTimeout && c.Session.DefaultTimeout > 0 {
		ws = append(ws, LintWarning{
			Code:     "reap_slower_than_timeout",
			Severity: LintInfo,
			Message:  "reaper runs less often than sessions expire; expired records linger in memory",
		})
	}
	if c.Events.Enabled && !c.Events.DropIfFull {
		ws = append(ws, LintWarning{
			Code:     "events_blocking",
			Severity: LintInfo,
			Message:  "event delivery blocks engine calls when the buffer is full",
		})
	}

	return ws
}
