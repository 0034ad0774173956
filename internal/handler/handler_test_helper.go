package handler

import (
	"io"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/meetdesk/meetdesk/internal/apiclient"
	"github.com/meetdesk/meetdesk/internal/middleware"
	"github.com/meetdesk/meetdesk/internal/model"
	"github.com/meetdesk/meetdesk/internal/render"
	"github.com/meetdesk/meetdesk/internal/session"
	"github.com/meetdesk/meetdesk/internal/store"
	"github.com/meetdesk/meetdesk/internal/testutil"
	"github.com/meetdesk/meetdesk/web"
)

// testApp is a fully wired application instance running against a fake
// upstream. The HTTP client carries a cookie jar, so a login call
// authenticates all subsequent requests.
type testApp struct {
	t      *testing.T
	api    *testutil.FakeAPI
	server *httptest.Server
	client *http.Client
}

// newTestApp builds the application with real templates, a real SQLite
// session store, and the fake upstream API.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	api := testutil.NewFakeAPI(t)

	db, err := store.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	sm := session.New(db, true)
	client := apiclient.New(api.URL())

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("templates sub FS: %v", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sm,
		IsDev:          true,
	})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	authHandler := NewAuthHandler(client, renderer, sm)
	dashboardHandler := NewDashboardHandler(client, renderer, sm)
	meetingHandler := NewMeetingHandler(client, renderer, sm)
	errorHandler := NewErrorHandler(renderer)

	r := chi.NewRouter()
	r.Use(middleware.RequestPath)
	r.Use(sm.LoadAndSave)

	r.Get(RouteLogin, authHandler.LoginForm)
	r.Post(RouteLogin, authHandler.Login)
	r.Post(RouteLogout, authHandler.Logout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(sm))
		r.Use(middleware.LoadUser(sm, client))

		r.Get(RouteRoot, dashboardHandler.Root)
		r.Get(RouteDashboard, dashboardHandler.Dashboard)

		r.Route(RouteMeetings, func(r chi.Router) {
			r.Get("/", meetingHandler.List)
			r.Get("/{id}", meetingHandler.Detail)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAnyRole(meetingHandler.RenderDenied,
					model.RoleAdminMain, model.RoleAdminGroup))
				r.Get(RouteSuffixNew, meetingHandler.NewForm)
				r.Post("/", meetingHandler.Create)
				r.Get("/{id}/close", meetingHandler.ConfirmClose)
				r.Post("/{id}/close", meetingHandler.Close)
				r.Get("/{id}/delete", meetingHandler.ConfirmDelete)
				r.Post("/{id}/delete", meetingHandler.Delete)
				r.Get("/{id}/edit", meetingHandler.EditForm)
			})
		})
	})

	r.NotFound(errorHandler.NotFound)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}

	return &testApp{
		t:      t,
		api:    api,
		server: server,
		client: &http.Client{Jar: jar},
	}
}

// login signs the client in as the given account.
func (a *testApp) login(username, password string) *http.Response {
	a.t.Helper()
	resp, err := a.client.PostForm(a.server.URL+RouteLogin, url.Values{
		"username": {username},
		"password": {password},
	})
	if err != nil {
		a.t.Fatalf("login request: %v", err)
	}
	return resp
}

// get fetches a path, following redirects.
func (a *testApp) get(path string) *http.Response {
	a.t.Helper()
	resp, err := a.client.Get(a.server.URL + path)
	if err != nil {
		a.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// getNoRedirect fetches a path without following redirects.
func (a *testApp) getNoRedirect(path string) *http.Response {
	a.t.Helper()
	client := &http.Client{
		Jar: a.client.Jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Get(a.server.URL + path)
	if err != nil {
		a.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// postForm submits a form, following redirects.
func (a *testApp) postForm(path string, form url.Values) *http.Response {
	a.t.Helper()
	resp, err := a.client.PostForm(a.server.URL+path, form)
	if err != nil {
		a.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// body reads and closes the response body.
func (a *testApp) body(resp *http.Response) string {
	a.t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		a.t.Fatalf("reading body: %v", err)
	}
	return string(b)
}

// assertContains fails unless every want string appears in the body.
func assertContains(t *testing.T, body string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

// assertNotContains fails if any of the given strings appears in the body.
func assertNotContains(t *testing.T, body string, unwanted ...string) {
	t.Helper()
	for _, s := range unwanted {
		if strings.Contains(body, s) {
			t.Errorf("body should not contain %q", s)
		}
	}
}
