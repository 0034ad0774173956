// Package session configures the server-side session store and the typed
// accessors for the two values it holds: the upstream bearer token and the
// cached user profile. The session is the application's single shared mutable
// state; it is written only by login and logout.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/meetdesk/meetdesk/internal/model"
)

// Session keys. KeyToken is the fixed name the opaque upstream credential is
// persisted under.
const (
	KeyToken = "api_token"
	KeyUser  = "api_user"
)

// New creates a session manager backed by the SQLite sessions table.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()

	sm.Store = sqlite3store.New(db)

	sm.Lifetime = 24 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev // Secure cookies in production only

	return sm
}

// Token returns the stored upstream bearer token, or "" when the session is
// unauthenticated.
func Token(sm *scs.SessionManager, ctx context.Context) string {
	return sm.GetString(ctx, KeyToken)
}

// IsAuthenticated reports whether the session holds a token.
func IsAuthenticated(sm *scs.SessionManager, ctx context.Context) bool {
	return Token(sm, ctx) != ""
}

// PutAuth stores the token and user profile after a successful login.
func PutAuth(sm *scs.SessionManager, ctx context.Context, token string, user model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	sm.Put(ctx, KeyToken, token)
	sm.Put(ctx, KeyUser, string(data))
	return nil
}

// User returns the cached user profile, or nil when absent or undecodable.
// A nil return with a present token means the profile must be re-fetched.
func User(sm *scs.SessionManager, ctx context.Context) *model.User {
	data := sm.GetString(ctx, KeyUser)
	if data == "" {
		return nil
	}
	var user model.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil
	}
	return &user
}
