// Package auth resolves the bearer token on each request to the calling user.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"expensetracker/internal/core"
)

// ErrMissingToken is passed to the error hook when no bearer token was sent.
var ErrMissingToken = errors.New("no token, authorization denied")

// Authenticator turns a token into the user it was issued to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (core.User, error)
}

type contextKey struct{}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user core.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the authenticated user stored by RequireUser.
func UserFromContext(ctx context.Context) (core.User, bool) {
	user, ok := ctx.Value(contextKey{}).(core.User)
	return user, ok
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireUser rejects requests without a valid token. onError writes the
// rejection; errors it receives wrap core.ErrUnauthorized.
func RequireUser(authn Authenticator, onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	if onError == nil {
		onError = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				onError(w, r, errors.Join(core.ErrUnauthorized, ErrMissingToken))
				return
			}
			user, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				if !errors.Is(err, core.ErrUnauthorized) {
					err = errors.Join(core.ErrUnauthorized, err)
				}
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
