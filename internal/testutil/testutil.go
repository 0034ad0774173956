// Package testutil provides shared test helpers: a fake upstream meeting
// API and a fully wired application instance for end-to-end handler tests.
package testutil

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/meetdesk/meetdesk/internal/model"
)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// FakeAccount is a credential set the fake API accepts.
type FakeAccount struct {
	Password string
	Token    string
	User     model.User
}

// FakeAPI is an in-memory stand-in for the upstream meeting-management API.
// It speaks the same JSON dialect, including {"detail": ...} error bodies.
type FakeAPI struct {
	mu       sync.Mutex
	accounts map[string]FakeAccount
	meetings map[int64]model.Meeting
	nextID   int64

	// ListCalls counts GET /meetings requests, letting tests assert that
	// filtering does not refetch.
	ListCalls int

	// FailNext makes the next API call return a 500 with the given detail,
	// then resets.
	FailNext string

	Server *httptest.Server
}

// NewFakeAPI starts a fake upstream with two stock accounts: "alice" (main
// admin) and "bob" (regular user), both with password "secret".
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		accounts: map[string]FakeAccount{
			"alice": {
				Password: "secret",
				Token:    "tok-alice",
				User: model.User{
					ID:         1,
					Username:   "alice",
					Email:      "alice@example.com",
					Fullname:   "Alice Admin",
					Department: "Engineering",
					Roles:      []string{model.RoleAdminMain},
				},
			},
			"bob": {
				Password: "secret",
				Token:    "tok-bob",
				User: model.User{
					ID:       2,
					Username: "bob",
					Email:    "bob@example.com",
					Fullname: "Bob Member",
					Roles:    []string{model.RoleUser},
				},
			},
		},
		meetings: make(map[int64]model.Meeting),
		nextID:   1,
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the fake upstream's base URL.
func (f *FakeAPI) URL() string {
	return f.Server.URL
}

// Seed adds meetings, assigning IDs to any meeting without one.
func (f *FakeAPI) Seed(meetings ...model.Meeting) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range meetings {
		if m.ID == 0 {
			m.ID = f.nextID
		}
		if m.ID >= f.nextID {
			f.nextID = m.ID + 1
		}
		f.meetings[m.ID] = m
	}
}

// Meeting returns the stored meeting and whether it exists.
func (f *FakeAPI) Meeting(id int64) (model.Meeting, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meetings[id]
	return m, ok
}

// ListCallCount returns how many times the list endpoint was hit.
func (f *FakeAPI) ListCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ListCalls
}

// FailNextWith makes the next API call fail with a 500 and the given detail.
func (f *FakeAPI) FailNextWith(detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailNext = detail
}

func (f *FakeAPI) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	if f.FailNext != "" {
		detail := f.FailNext
		f.FailNext = ""
		f.mu.Unlock()
		writeDetail(w, http.StatusInternalServerError, detail)
		return
	}
	f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	switch {
	case r.Method == http.MethodPost && path == "/auth/login":
		f.handleLogin(w, r)
	case r.Method == http.MethodGet && path == "/auth/me":
		f.handleMe(w, r)
	case r.Method == http.MethodGet && path == "/meetings":
		f.handleList(w, r)
	case r.Method == http.MethodPost && path == "/meetings":
		f.handleCreate(w, r)
	case strings.HasPrefix(path, "/meetings/"):
		f.handleItem(w, r, strings.TrimPrefix(path, "/meetings/"))
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

func (f *FakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	f.mu.Lock()
	account, ok := f.accounts[creds.Username]
	f.mu.Unlock()
	if !ok || account.Password != creds.Password {
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": account.Token,
		"token_type":   "bearer",
	})
}

// authenticate resolves the bearer token to an account.
func (f *FakeAPI) authenticate(r *http.Request) (FakeAccount, bool) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, account := range f.accounts {
		if account.Token == token {
			return account, true
		}
	}
	return FakeAccount{}, false
}

func (f *FakeAPI) handleMe(w http.ResponseWriter, r *http.Request) {
	account, ok := f.authenticate(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	writeJSON(w, http.StatusOK, account.User)
}

func (f *FakeAPI) handleList(w http.ResponseWriter, r *http.Request) {
	if _, ok := f.authenticate(r); !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	f.mu.Lock()
	f.ListCalls++
	meetings := make([]model.Meeting, 0, len(f.meetings))
	for id := range f.meetings {
		meetings = append(meetings, f.meetings[id])
	}
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, meetings)
}

func (f *FakeAPI) handleCreate(w http.ResponseWriter, r *http.Request) {
	if _, ok := f.authenticate(r); !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	var draft model.MeetingDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	if err := draft.Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	f.mu.Lock()
	meeting := model.Meeting{
		ID:          f.nextID,
		Title:       draft.Title,
		Date:        draft.Date,
		StartTime:   draft.StartTime,
		EndTime:     draft.EndTime,
		Location:    draft.Location,
		Description: draft.Description,
		Status:      model.StatusActive,
		CreatedAt:   "2024-01-15T10:00:00",
	}
	f.nextID++
	f.meetings[meeting.ID] = meeting
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, meeting)
}

func (f *FakeAPI) handleItem(w http.ResponseWriter, r *http.Request, rest string) {
	if _, ok := f.authenticate(r); !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	idStr, action, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid meeting ID")
		return
	}

	f.mu.Lock()
	meeting, exists := f.meetings[id]
	f.mu.Unlock()
	if !exists {
		writeDetail(w, http.StatusNotFound, "Meeting not found")
		return
	}

	switch {
	case r.Method == http.MethodGet && action == "":
		writeJSON(w, http.StatusOK, meeting)
	case r.Method == http.MethodPost && action == "close":
		if meeting.Status != model.StatusActive {
			writeDetail(w, http.StatusBadRequest, "Meeting is already closed")
			return
		}
		meeting.Status = model.StatusClosed
		meeting.ClosedAt = "2024-11-20T16:00:00"
		f.mu.Lock()
		f.meetings[id] = meeting
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, meeting)
	case r.Method == http.MethodDelete && action == "":
		f.mu.Lock()
		delete(f.meetings, id)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// ActiveMeeting returns a plausible active meeting for seeding.
func ActiveMeeting(id int64, title string) model.Meeting {
	return model.Meeting{
		ID:        id,
		Title:     title,
		Date:      "2024-12-01",
		StartTime: "09:00",
		EndTime:   "10:00",
		Location:  "Room A",
		Status:    model.StatusActive,
		CreatedAt: "2024-01-15T10:00:00",
		CreatedBy: "Alice Admin",
	}
}

// ClosedMeeting returns a plausible closed meeting for seeding.
func ClosedMeeting(id int64, title string) model.Meeting {
	return model.Meeting{
		ID:        id,
		Title:     title,
		Date:      "2024-11-20",
		StartTime: "14:00",
		EndTime:   "15:30",
		Location:  "Room B",
		Status:    model.StatusClosed,
		CreatedAt: "2024-01-10T09:00:00",
		ClosedAt:  "2024-11-20T16:00:00",
		CreatedBy: "Alice Admin",
	}
}
