package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/meetdesk/meetdesk/internal/apiclient"
	"github.com/meetdesk/meetdesk/internal/render"
	"github.com/meetdesk/meetdesk/internal/session"
)

// AuthHandler handles the login and logout routes.
type AuthHandler struct {
	client         *apiclient.Client
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(client *apiclient.Client, renderer *render.Renderer, sm *scs.SessionManager) *AuthHandler {
	return &AuthHandler{
		client:         client,
		renderer:       renderer,
		sessionManager: sm,
	}
}

// loginFormData is the login page's view data. A failed attempt re-renders
// the form with the error and the entered username; the password never comes
// back.
type loginFormData struct {
	Username string
	Error    string
}

// LoginForm renders the login page.
// Already-authenticated users are redirected to the dashboard.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if session.IsAuthenticated(h.sessionManager, r.Context()) {
		http.Redirect(w, r, RouteDashboard, http.StatusSeeOther)
		return
	}

	renderOrLog(w, r, h.renderer, "auth/login", render.TemplateData{
		Title: "Sign in",
		Data:  loginFormData{},
	})
}

// Login handles the login form submission. Credentials go to the upstream
// API; on success the token and profile are stored in the session and the
// user lands on the dashboard.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if session.IsAuthenticated(h.sessionManager, r.Context()) {
		http.Redirect(w, r, RouteDashboard, http.StatusSeeOther)
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, RouteLogin) {
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	if username == "" || password == "" {
		h.renderLoginError(w, r, username, "Username and password are required")
		return
	}

	tok, err := h.client.Login(r.Context(), username, password)
	if err != nil {
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			h.renderLoginError(w, r, username, "Invalid username or password")
			return
		}
		slog.Error("login request failed", "error", err)
		h.renderLoginError(w, r, username, "Unable to reach the server. Please try again later.")
		return
	}

	user, err := h.client.Me(r.Context(), tok.AccessToken)
	if err != nil {
		slog.Error("failed to fetch profile after login", "error", err)
		h.renderLoginError(w, r, username, "Unable to load your profile. Please try again later.")
		return
	}

	// New session token on privilege change.
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		slog.Error("failed to renew session token", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if err := session.PutAuth(h.sessionManager, r.Context(), tok.AccessToken, user); err != nil {
		slog.Error("failed to store session", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	slog.Info("user logged in", "user_id", user.ID, "username", user.Username)
	http.Redirect(w, r, RouteDashboard, http.StatusSeeOther)
}

func (h *AuthHandler) renderLoginError(w http.ResponseWriter, r *http.Request, username, message string) {
	renderOrLog(w, r, h.renderer, "auth/login", render.TemplateData{
		Title: "Sign in",
		Data:  loginFormData{Username: username, Error: message},
	})
}

// Logout destroys the session and returns to the login page. The upstream
// token is stateless, so no upstream call is made; dropping the token is the
// logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("failed to destroy session", "error", err)
	}
	flashAndRedirect(w, r, h.renderer, RouteLogin, "You have been signed out", flashTypeInfo)
}
