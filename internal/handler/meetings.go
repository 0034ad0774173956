package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/meetdesk/meetdesk/internal/apiclient"
	"github.com/meetdesk/meetdesk/internal/middleware"
	"github.com/meetdesk/meetdesk/internal/model"
	"github.com/meetdesk/meetdesk/internal/render"
	"github.com/meetdesk/meetdesk/internal/session"
)

// MeetingHandler handles the meeting list, detail, create, close, and delete
// routes.
type MeetingHandler struct {
	client         *apiclient.Client
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewMeetingHandler creates a new MeetingHandler.
func NewMeetingHandler(client *apiclient.Client, renderer *render.Renderer, sm *scs.SessionManager) *MeetingHandler {
	return &MeetingHandler{
		client:         client,
		renderer:       renderer,
		sessionManager: sm,
	}
}

// meetingListData is the list view data. Status echoes the active filter so
// the select keeps its choice; filtering is a projection over the fetched
// collection and triggers no refetch.
type meetingListData struct {
	Meetings  []model.Meeting
	Status    string
	LoadError string
}

// meetingDetailData is the detail, edit, and confirmation view data. LoadError
// set means the meeting could not be fetched; Meeting then carries only the ID
// so the view can offer a retry link.
type meetingDetailData struct {
	Meeting   model.Meeting
	LoadError string
}

// meetingFormData is the creation form view data. Errors and the draft come
// back together so a rejected submission loses nothing the user typed.
type meetingFormData struct {
	Draft  model.MeetingDraft
	Errors []string
}

// List renders the meeting collection with an optional ?status filter.
// Pagination parameters pass through to the upstream untouched.
func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	token := session.Token(h.sessionManager, r.Context())
	query := r.URL.Query()
	status := query.Get("status")
	opts := apiclient.ListOptions{
		Skip:  intParam(query.Get("skip")),
		Limit: intParam(query.Get("limit")),
	}

	data := meetingListData{Status: status}
	meetings, err := h.client.ListMeetings(r.Context(), token, opts)
	if err != nil {
		slog.Error("failed to load meetings", "error", err)
		data.LoadError = upstreamMessage(err, "Unable to load meetings. The server may be temporarily unavailable.")
	} else {
		data.Meetings = model.FilterByStatus(meetings, status)
	}

	renderOrLog(w, r, h.renderer, "meetings/list", render.TemplateData{
		Title:     "Meetings",
		ActiveNav: "meetings",
		Data:      data,
	})
}

// Detail renders a single meeting. Unknown IDs get the not-found page; other
// upstream failures render the page in an error state with a retry link.
func (h *MeetingHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}

	token := session.Token(h.sessionManager, r.Context())
	meeting, err := h.client.GetMeeting(r.Context(), token, id)
	if err != nil {
		if errors.Is(err, apiclient.ErrNotFound) {
			h.renderNotFound(w, r)
			return
		}
		slog.Error("failed to load meeting", "error", err, "meeting_id", id)
		renderOrLog(w, r, h.renderer, "meetings/detail", render.TemplateData{
			Title:     "Meeting",
			ActiveNav: "meetings",
			Data: meetingDetailData{
				Meeting:   model.Meeting{ID: id},
				LoadError: upstreamMessage(err, "Unable to load the meeting. Please try again."),
			},
		})
		return
	}

	renderOrLog(w, r, h.renderer, "meetings/detail", render.TemplateData{
		Title:     meeting.Title,
		ActiveNav: "meetings",
		Data:      meetingDetailData{Meeting: meeting},
	})
}

// NewForm renders the meeting creation form.
func (h *MeetingHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	renderOrLog(w, r, h.renderer, "meetings/new", render.TemplateData{
		Title:     "Create meeting",
		ActiveNav: "meetings",
		Data:      meetingFormData{},
	})
}

// Create handles the creation form submission. Local validation failures
// re-render the form with the draft intact and never reach the upstream.
func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteMeetingsNew) {
		return
	}

	draft := model.MeetingDraft{
		Title:       strings.TrimSpace(r.PostFormValue("meeting_title")),
		Date:        r.PostFormValue("meeting_date"),
		StartTime:   r.PostFormValue("start_time"),
		EndTime:     r.PostFormValue("end_time"),
		Location:    strings.TrimSpace(r.PostFormValue("location")),
		Description: r.PostFormValue("description"),
	}

	if formErrors := validateDraft(draft); len(formErrors) > 0 {
		h.renderForm(w, r, draft, formErrors)
		return
	}

	token := session.Token(h.sessionManager, r.Context())
	meeting, err := h.client.CreateMeeting(r.Context(), token, draft)
	if err != nil {
		slog.Error("failed to create meeting", "error", err, "title", draft.Title)
		h.renderForm(w, r, draft, []string{upstreamMessage(err, "Unable to create the meeting. Please try again.")})
		return
	}

	slog.Info("meeting created", "meeting_id", meeting.ID, "title", meeting.Title)
	flashSuccess(w, r, h.renderer, meetingPath(meeting.ID), "Meeting created successfully")
}

// validateDraft collects the form-level problems worth rejecting before any
// upstream call.
func validateDraft(draft model.MeetingDraft) []string {
	var formErrors []string
	if draft.Title == "" {
		formErrors = append(formErrors, "Title is required")
	}
	if draft.Date == "" {
		formErrors = append(formErrors, "Date is required")
	}
	if draft.StartTime == "" || draft.EndTime == "" {
		formErrors = append(formErrors, "Start and end times are required")
	}
	if draft.Location == "" {
		formErrors = append(formErrors, "Location is required")
	}
	if err := draft.Validate(); err != nil {
		formErrors = append(formErrors, "End time must be after start time")
	}
	return formErrors
}

func (h *MeetingHandler) renderForm(w http.ResponseWriter, r *http.Request, draft model.MeetingDraft, formErrors []string) {
	renderOrLog(w, r, h.renderer, "meetings/new", render.TemplateData{
		Title:     "Create meeting",
		ActiveNav: "meetings",
		Data:      meetingFormData{Draft: draft, Errors: formErrors},
	})
}

// ConfirmClose renders the close confirmation page.
func (h *MeetingHandler) ConfirmClose(w http.ResponseWriter, r *http.Request) {
	meeting, ok := h.fetchMeeting(w, r)
	if !ok {
		return
	}
	if !meeting.IsActive() {
		flashAndRedirect(w, r, h.renderer, meetingPath(meeting.ID), "This meeting is already closed", flashTypeInfo)
		return
	}

	renderOrLog(w, r, h.renderer, "meetings/confirm_close", render.TemplateData{
		Title:     "Close meeting",
		ActiveNav: "meetings",
		Data:      meetingDetailData{Meeting: meeting},
	})
}

// Close requests the active-to-closed transition upstream. Success returns to
// the detail page, which re-fetches and shows the new status; failure leaves
// the meeting as it was.
func (h *MeetingHandler) Close(w http.ResponseWriter, r *http.Request) {
	if !h.requireManager(w, r) {
		return
	}
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}

	token := session.Token(h.sessionManager, r.Context())
	if err := h.client.CloseMeeting(r.Context(), token, id); err != nil {
		if errors.Is(err, apiclient.ErrNotFound) {
			h.renderNotFound(w, r)
			return
		}
		slog.Error("failed to close meeting", "error", err, "meeting_id", id)
		flashError(w, r, h.renderer, meetingPath(id), upstreamMessage(err, "Unable to close the meeting. Please try again."))
		return
	}

	slog.Info("meeting closed", "meeting_id", id)
	flashSuccess(w, r, h.renderer, meetingPath(id), "Meeting closed")
}

// ConfirmDelete renders the delete confirmation page.
func (h *MeetingHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	meeting, ok := h.fetchMeeting(w, r)
	if !ok {
		return
	}

	renderOrLog(w, r, h.renderer, "meetings/confirm_delete", render.TemplateData{
		Title:     "Delete meeting",
		ActiveNav: "meetings",
		Data:      meetingDetailData{Meeting: meeting},
	})
}

// Delete removes the meeting upstream and returns to the list.
func (h *MeetingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.requireManager(w, r) {
		return
	}
	id, ok := h.meetingID(w, r)
	if !ok {
		return
	}

	token := session.Token(h.sessionManager, r.Context())
	if err := h.client.DeleteMeeting(r.Context(), token, id); err != nil {
		if errors.Is(err, apiclient.ErrNotFound) {
			h.renderNotFound(w, r)
			return
		}
		slog.Error("failed to delete meeting", "error", err, "meeting_id", id)
		flashError(w, r, h.renderer, meetingPath(id), upstreamMessage(err, "Unable to delete the meeting. Please try again."))
		return
	}

	slog.Info("meeting deleted", "meeting_id", id)
	flashSuccess(w, r, h.renderer, RouteMeetings, "Meeting deleted")
}

// EditForm renders the edit placeholder page. Meeting updates are not
// supported by the upstream API yet.
// TODO: replace with a real edit form once the upstream grows a PUT endpoint.
func (h *MeetingHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	meeting, ok := h.fetchMeeting(w, r)
	if !ok {
		return
	}

	renderOrLog(w, r, h.renderer, "meetings/edit", render.TemplateData{
		Title:     "Edit meeting",
		ActiveNav: "meetings",
		Data:      meetingDetailData{Meeting: meeting},
	})
}

// meetingID parses the {id} route parameter. A malformed ID renders the
// not-found page.
func (h *MeetingHandler) meetingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.renderNotFound(w, r)
		return 0, false
	}
	return id, true
}

// fetchMeeting loads the meeting named by the route. Handles the not-found
// and upstream-failure cases itself; callers only see success.
func (h *MeetingHandler) fetchMeeting(w http.ResponseWriter, r *http.Request) (model.Meeting, bool) {
	id, ok := h.meetingID(w, r)
	if !ok {
		return model.Meeting{}, false
	}

	token := session.Token(h.sessionManager, r.Context())
	meeting, err := h.client.GetMeeting(r.Context(), token, id)
	if err != nil {
		if errors.Is(err, apiclient.ErrNotFound) {
			h.renderNotFound(w, r)
			return model.Meeting{}, false
		}
		slog.Error("failed to load meeting", "error", err, "meeting_id", id)
		flashError(w, r, h.renderer, RouteMeetings, upstreamMessage(err, "Unable to load the meeting. Please try again."))
		return model.Meeting{}, false
	}
	return meeting, true
}

// requireManager re-checks the manage permission inside state-changing
// handlers. The route guard already enforces it; a second check here keeps a
// routing mistake from becoming a privilege hole.
func (h *MeetingHandler) requireManager(w http.ResponseWriter, r *http.Request) bool {
	user := middleware.GetUser(r)
	if user.CanManageMeetings() {
		return true
	}
	slog.Warn("manage action blocked", "path", r.URL.Path, "user_id", userID(r))
	w.WriteHeader(http.StatusForbidden)
	h.RenderDenied(w, r, []string{model.RoleAdminMain, model.RoleAdminGroup})
	return false
}

func userID(r *http.Request) int64 {
	if user := middleware.GetUser(r); user != nil {
		return user.ID
	}
	return 0
}

// renderNotFound renders the meeting-specific not-found page with a 404.
func (h *MeetingHandler) renderNotFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	renderOrLog(w, r, h.renderer, "errors/notfound", render.TemplateData{
		Title: "Not found",
		Data:  notFoundData{Message: "This meeting does not exist or has been deleted."},
	})
}

// upstreamMessage prefers the upstream's detail message when one came back,
// falling back to the given default.
func upstreamMessage(err error, fallback string) string {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// meetingPath returns the detail path for a meeting ID.
func meetingPath(id int64) string {
	return fmt.Sprintf("%s/%d", RouteMeetings, id)
}

// intParam parses a non-negative query parameter, treating anything else
// as absent.
func intParam(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
