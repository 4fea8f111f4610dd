package jwt

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/golang-jwt/jwt/v5"
)

// Claim names owned by the session token format. Extra claims may not reuse them.
const (
	ClaimTenant     = "tenant"
	ClaimEndpoint   = "endpoint"
	ClaimAdmin      = "admin"
	ClaimSupervisor = "supervisor"
	ClaimTimeout    = "timeout"
	ClaimSource     = "source"
)

var reservedClaims = map[string]struct{}{
	"iss": {}, "sub": {}, "aud": {}, "exp": {}, "nbf": {}, "iat": {}, "jti": {},
	ClaimTenant: {}, ClaimEndpoint: {}, ClaimAdmin: {}, ClaimSupervisor: {},
	ClaimTimeout: {}, ClaimSource: {},
}

// IsReservedClaim reports whether name is part of the fixed claim set.
func IsReservedClaim(name string) bool {
	_, ok := reservedClaims[name]
	return ok
}

// SessionClaims is the claim set carried by every session token.
//
// Subject is the account id and ID (jti) is the session id. Timeout is the sliding
// inactivity window in milliseconds. Extra holds caller-supplied scalar claims and is
// flattened into the top-level JSON object on the wire.
type SessionClaims struct {
	Tenant     string
	Endpoint   string
	Admin      bool
	Supervisor bool
	Timeout    int64
	Source     string
	Extra      map[string]any
	jwt.RegisteredClaims
}

type wireClaims struct {
	Tenant     string `json:"tenant"`
	Endpoint   string `json:"endpoint"`
	Admin      bool   `json:"admin"`
	Supervisor bool   `json:"supervisor"`
	Timeout    int64  `json:"timeout"`
	Source     string `json:"source,omitempty"`
	jwt.RegisteredClaims
}

// MarshalJSON writes the fixed claims and the flattened extra claims as a single
// object with sorted keys.
func (c SessionClaims) MarshalJSON() ([]byte, error) {
	fixed, err := json.Marshal(wireClaims{
		Tenant:           c.Tenant,
		Endpoint:         c.Endpoint,
		Admin:            c.Admin,
		Supervisor:       c.Supervisor,
		Timeout:          c.Timeout,
		Source:           c.Source,
		RegisteredClaims: c.RegisteredClaims,
	})
	if err != nil {
		return nil, err
	}
	if len(c.Extra) == 0 {
		return fixed, nil
	}

	merged := make(map[string]json.RawMessage, len(c.Extra)+12)
	if err := json.Unmarshal(fixed, &merged); err != nil {
		return nil, err
	}
	for name, value := range c.Extra {
		if IsReservedClaim(name) {
			return nil, fmt.Errorf("%w: %q", ErrReservedClaim, name)
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		merged[name] = raw
	}
	return json.Marshal(merged)
}

// UnmarshalJSON decodes the fixed claims and collects every unknown member into Extra.
func (c *SessionClaims) UnmarshalJSON(data []byte) error {
	var fixed wireClaims
	if err := json.Unmarshal(data, &fixed); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	var extra map[string]any
	for name, raw := range all {
		if IsReservedClaim(name) {
			continue
		}
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return err
		}
		if extra == nil {
			extra = make(map[string]any, len(all))
		}
		extra[name] = value
	}

	*c = SessionClaims{
		Tenant:           fixed.Tenant,
		Endpoint:         fixed.Endpoint,
		Admin:            fixed.Admin,
		Supervisor:       fixed.Supervisor,
		Timeout:          fixed.Timeout,
		Source:           fixed.Source,
		Extra:            extra,
		RegisteredClaims: fixed.RegisteredClaims,
	}
	return nil
}

func (c *SessionClaims) validate() error {
	switch {
	case c.Subject == "", c.ID == "", c.Tenant == "", c.Endpoint == "":
		return ErrMissingClaims
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrMissingClaims)
	}
	return ValidateExtra(c.Extra)
}

// ValidateExtra checks that extra claims avoid reserved names and hold only
// scalar values (string, bool, numbers or nil).
func ValidateExtra(extra map[string]any) error {
	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if name == "" {
			return fmt.Errorf("%w: empty claim name", ErrUnsupportedClaim)
		}
		if IsReservedClaim(name) {
			return fmt.Errorf("%w: %q", ErrReservedClaim, name)
		}
		switch extra[name].(type) {
		case nil, string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64, json.Number:
		default:
			return fmt.Errorf("%w: %q has type %T", ErrUnsupportedClaim, name, extra[name])
		}
	}
	return nil
}

// CloneExtra returns a shallow copy of extra, or nil when it is empty.
func CloneExtra(extra map[string]any) map[string]any {
	if len(extra) == 0 {
		return nil
	}
	out := make(map[string]any, len(extra))
	for k, v := range extra {
		out[k] = v
	}
	return out
}
