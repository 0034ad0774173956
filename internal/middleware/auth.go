// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/meetdesk/meetdesk/internal/apiclient"
	"github.com/meetdesk/meetdesk/internal/model"
	"github.com/meetdesk/meetdesk/internal/session"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request-scoped data.
const (
	ContextKeyUser        ContextKey = "user"
	ContextKeyRequestPath ContextKey = "request_path"
)

// Auth creates middleware that requires an authenticated session.
// Requests without a stored token are redirected to the login view.
func Auth(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !session.IsAuthenticated(sm, r.Context()) {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoadUser creates middleware that puts the current user into the request
// context. The cached profile is used when present; otherwise the profile is
// silently restored from the upstream API using the stored token. A token the
// upstream no longer accepts destroys the session and redirects to login.
// Use after Auth.
func LoadUser(sm *scs.SessionManager, client *apiclient.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := session.Token(sm, r.Context())
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user := session.User(sm, r.Context())
			if user == nil {
				restored, err := client.Me(r.Context(), token)
				if err != nil {
					var apiErr *apiclient.Error
					if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
						slog.Info("stored token rejected by upstream, clearing session")
					} else {
						slog.Error("failed to restore user profile", "error", err)
					}
					_ = sm.Destroy(r.Context())
					http.Redirect(w, r, "/login", http.StatusSeeOther)
					return
				}
				if err := session.PutAuth(sm, r.Context(), token, restored); err != nil {
					slog.Error("failed to cache restored profile", "error", err)
				}
				user = &restored
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *model.User {
	user, ok := r.Context().Value(ContextKeyUser).(*model.User)
	if !ok {
		return nil
	}
	return user
}

// DeniedRenderer renders the access-denied page for a user lacking all of
// the allowed roles. Implemented by the handler package; injected here so
// the guard is not tied to a presentation mechanism.
type DeniedRenderer func(w http.ResponseWriter, r *http.Request, allowedRoles []string)

// RequireAnyRole creates middleware that restricts a route to users holding
// at least one of the allowed roles. Unauthenticated requests are redirected
// to login; authenticated users without a matching role get the
// access-denied page, not a silent redirect.
func RequireAnyRole(renderDenied DeniedRenderer, allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			if !user.HasAnyRole(allowedRoles...) {
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", user.ID,
					"user_roles", user.Roles,
					"required_roles", allowedRoles,
					"remote_addr", r.RemoteAddr,
				)
				w.WriteHeader(http.StatusForbidden)
				renderDenied(w, r, allowedRoles)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestPath creates middleware that stores the request path in the context.
// Error logs use it to include the URL that triggered them.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath retrieves the request path from the context.
func GetRequestPath(ctx context.Context) string {
	path, ok := ctx.Value(ContextKeyRequestPath).(string)
	if !ok {
		return ""
	}
	return path
}
