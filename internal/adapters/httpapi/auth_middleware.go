package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/airportdex/favorite-sync/internal/domain"
	"github.com/airportdex/favorite-sync/internal/platform/auth/jwtverifier"
)

// TokenVerifier is satisfied by *jwtverifier.Verifier.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (domain.UserID, error)
}

// NewAuthMiddleware enforces Authorization: Bearer <JWT> on every route except /healthz
// and stores the token subject in the request context.
//
// An expired token is answered with SESSION_EXPIRED so clients can tell it
// apart from a bad credential.
func NewAuthMiddleware(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			authz := r.Header.Get("Authorization")
			if authz == "" {
				writeError(w, r, http.StatusUnauthorized, CodeUnauthorized, "missing Authorization header", nil)
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(authz, prefix) {
				writeError(w, r, http.StatusUnauthorized, CodeUnauthorized, "malformed Authorization header", nil)
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, prefix))
			if raw == "" {
				writeError(w, r, http.StatusUnauthorized, CodeUnauthorized, "missing bearer token", nil)
				return
			}

			user, err := v.Verify(r.Context(), raw)
			if err != nil {
				if errors.Is(err, jwtverifier.ErrTokenExpired) {
					writeError(w, r, http.StatusUnauthorized, CodeSessionExpired, "session expired", nil)
					return
				}
				writeError(w, r, http.StatusUnauthorized, CodeUnauthorized, "invalid token", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// NewDevAuthMiddleware is a local-only auth shim: the user comes from
// X-Debug-Subject, falling back to defaultSubject. Never use it in production.
func NewDevAuthMiddleware(defaultSubject string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			sub := strings.TrimSpace(r.Header.Get("X-Debug-Subject"))
			if sub == "" {
				sub = strings.TrimSpace(defaultSubject)
			}
			if sub == "" {
				writeError(w, r, http.StatusUnauthorized, CodeUnauthorized, "missing subject (set X-Debug-Subject)", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), domain.UserID(sub))))
		})
	}
}
