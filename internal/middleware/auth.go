package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ayush/feed-api/internal/apperr"
	"github.com/ayush/feed-api/internal/auth"
	"github.com/ayush/feed-api/internal/logger"
	"github.com/ayush/feed-api/internal/respond"
)

type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RequireAuth verifies the bearer token and injects its claims into the
// request context. revoked may be nil.
func RequireAuth(tokens TokenVerifier, revoked RevocationChecker, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				respond.Error(w, r, log, apperr.Unauthenticated("Not authenticated."))
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				respond.Error(w, r, log, apperr.Unauthenticated("Not authenticated."))
				return
			}

			claims, err := tokens.Verify(strings.TrimSpace(token))
			if err != nil {
				log.WithFields(r.Context(), logger.Fields{"path": r.URL.Path}).Warnf("token rejected: %v", err)
				respond.Error(w, r, log, apperr.Unauthenticated("Not authenticated."))
				return
			}

			if revoked != nil && claims.ID != "" {
				isRevoked, err := revoked.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					respond.Error(w, r, log, apperr.Internal(err))
					return
				}
				if isRevoked {
					respond.Error(w, r, log, apperr.Unauthenticated("Token has been revoked."))
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}
