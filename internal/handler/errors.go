package handler

import (
	"net/http"

	"github.com/meetdesk/meetdesk/internal/render"
)

// notFoundData is the not-found page's view data.
type notFoundData struct {
	Message string
}

// deniedData is the access-denied page's view data.
type deniedData struct {
	RequiredRoles []string
}

func renderDeniedPage(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, allowedRoles []string) {
	renderOrLog(w, r, renderer, "errors/denied", render.TemplateData{
		Title: "Access denied",
		Data:  deniedData{RequiredRoles: allowedRoles},
	})
}

// RenderDenied renders the access-denied page. Satisfies the role guard's
// renderer hook.
func (h *MeetingHandler) RenderDenied(w http.ResponseWriter, r *http.Request, allowedRoles []string) {
	renderDeniedPage(w, r, h.renderer, allowedRoles)
}

// ErrorHandler renders the fallback error pages.
type ErrorHandler struct {
	renderer *render.Renderer
}

// NewErrorHandler creates a new ErrorHandler.
func NewErrorHandler(renderer *render.Renderer) *ErrorHandler {
	return &ErrorHandler{renderer: renderer}
}

// NotFound renders the 404 page for unmatched routes.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	renderOrLog(w, r, h.renderer, "errors/notfound", render.TemplateData{
		Title: "Not found",
	})
}
