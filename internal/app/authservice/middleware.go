package authservice

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/shortland/backend/internal/domain/users"
	"github.com/shortland/backend/internal/shared/web"
)

type claimsCtxKey struct{}

// ClaimsFrom returns the authenticated caller's claims, if any.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsCtxKey{}).(*Claims)
	return claims, ok
}

// WithClaims returns ctx carrying the given claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey{}, claims)
}

// Authenticate rejects requests without a valid Bearer token and stores the
// claims in the context for downstream handlers.
func (service *Service) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			web.HTTPError(ctx, service.logger, w, http.StatusUnauthorized, "authentication required", errors.New("missing bearer token"))
			return
		}

		claims, err := service.VerifyToken(token)
		if err != nil {
			web.HTTPError(ctx, service.logger, w, http.StatusUnauthorized, "invalid or expired token", err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
	})
}

// RequireAdmin gates a route on the admin role. Must run after Authenticate.
func (service *Service) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		claims, ok := ClaimsFrom(ctx)
		if !ok {
			web.HTTPError(ctx, service.logger, w, http.StatusUnauthorized, "authentication required", errors.New("no claims in context"))
			return
		}
		if claims.Role != string(users.RoleAdmin) {
			web.HTTPError(ctx, service.logger, w, http.StatusForbidden, "admin access required", errors.New("role: "+claims.Role))
			return
		}
		next.ServeHTTP(w, r)
	})
}
