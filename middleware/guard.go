package middleware

import (
	"context"
	"net/http"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/verifier"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the claims stored by a guard.
func ClaimsFromContext(ctx context.Context) (*goSession.SessionClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*goSession.SessionClaims)
	return claims, ok
}

// Guard admits requests whose token verifies against engine. Every admitted
// request counts as session activity.
func Guard(engine *goSession.Engine) func(http.Handler) http.Handler {
	return guard(func(r *http.Request, token string) (*goSession.SessionClaims, bool) {
		if engine == nil {
			return nil, false
		}
		return engine.Inspect(r.Context(), token)
	})
}

// RequireOffline admits requests whose token passes v. Sliding expiry is not
// enforced; revocations are, when v carries a denylist.
func RequireOffline(v *verifier.Verifier) func(http.Handler) http.Handler {
	return guard(func(_ *http.Request, token string) (*goSession.SessionClaims, bool) {
		if v == nil {
			return nil, false
		}
		claims, err := v.Verify(token)
		return claims, err == nil
	})
}

type checkFunc func(r *http.Request, token string) (*goSession.SessionClaims, bool)

func guard(check checkFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, ok := check(r, token)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
