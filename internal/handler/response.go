package handler

import (
	"log/slog"
	"net/http"

	"github.com/meetdesk/meetdesk/internal/middleware"
	"github.com/meetdesk/meetdesk/internal/render"
)

// flashAndRedirect sets a flash message and redirects to the given URL.
// Uses http.StatusSeeOther (303) for POST redirects.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message, messageType string) {
	renderer.SetFlash(r, message, messageType)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// flashError sets an error flash message and redirects to the given URL.
func flashError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, flashTypeError)
}

// flashSuccess sets a success flash message and redirects to the given URL.
func flashSuccess(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, flashTypeSuccess)
}

// parseFormOrRedirect parses the request form and redirects with an error
// message on failure. Returns true if parsing succeeded.
func parseFormOrRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, redirectURL string) bool {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, renderer, redirectURL, "Invalid form data")
		return false
	}
	return true
}

// renderOrLog renders a template and logs a failure. The response is likely
// half-written when rendering fails mid-stream, so nothing more is sent.
func renderOrLog(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, name string, data render.TemplateData) {
	if err := renderer.Render(w, r, name, data); err != nil {
		slog.Error("failed to render template",
			"template", name,
			"path", middleware.GetRequestPath(r.Context()),
			"error", err,
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
