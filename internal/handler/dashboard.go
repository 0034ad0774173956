package handler

import (
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/meetdesk/meetdesk/internal/apiclient"
	"github.com/meetdesk/meetdesk/internal/model"
	"github.com/meetdesk/meetdesk/internal/render"
	"github.com/meetdesk/meetdesk/internal/session"
)

// DashboardHandler handles the landing page shown after login.
type DashboardHandler struct {
	client         *apiclient.Client
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(client *apiclient.Client, renderer *render.Renderer, sm *scs.SessionManager) *DashboardHandler {
	return &DashboardHandler{
		client:         client,
		renderer:       renderer,
		sessionManager: sm,
	}
}

// dashboardData is the dashboard view data. LoadError set means the counts
// and recent list are absent.
type dashboardData struct {
	ActiveCount int
	TotalCount  int
	Recent      []model.Meeting
	LoadError   string
}

// Dashboard renders meeting counts and the most recent meetings. An upstream
// failure renders the page with an error message and a retry link instead of
// the stats.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	token := session.Token(h.sessionManager, r.Context())

	data := dashboardData{}
	meetings, err := h.client.ListMeetings(r.Context(), token, apiclient.ListOptions{})
	if err != nil {
		slog.Error("failed to load meetings for dashboard", "error", err)
		data.LoadError = upstreamMessage(err, "Unable to load meetings. The server may be temporarily unavailable.")
	} else {
		data.TotalCount = len(meetings)
		for _, m := range meetings {
			if m.IsActive() {
				data.ActiveCount++
			}
		}
		data.Recent = meetings
		if len(data.Recent) > recentMeetingsLimit {
			data.Recent = data.Recent[:recentMeetingsLimit]
		}
	}

	renderOrLog(w, r, h.renderer, "app/dashboard", render.TemplateData{
		Title:     "Dashboard",
		ActiveNav: "dashboard",
		Data:      data,
	})
}

// Root redirects the bare domain to the dashboard. The auth middleware has
// already bounced unauthenticated visitors to the login page.
func (h *DashboardHandler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, RouteDashboard, http.StatusSeeOther)
}
