package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"

	"github.com/meetdesk/meetdesk/internal/apiclient"
	"github.com/meetdesk/meetdesk/internal/model"
	"github.com/meetdesk/meetdesk/internal/session"
)

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestAuthRedirectsUnauthenticated(t *testing.T) {
	sm := scs.New()
	next, called := okHandler()
	handler := sm.LoadAndSave(Auth(sm)(next))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/meetings", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d; want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q; want /login", loc)
	}
	if *called {
		t.Error("guarded handler must not run for unauthenticated requests")
	}
}

func TestAuthPassesAuthenticated(t *testing.T) {
	sm := scs.New()
	next, called := okHandler()

	handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := session.PutAuth(sm, r.Context(), "tok", model.User{ID: 1}); err != nil {
			t.Fatalf("PutAuth: %v", err)
		}
		Auth(sm)(next).ServeHTTP(w, r)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/meetings", nil))

	if !*called {
		t.Error("guarded handler should run for authenticated requests")
	}
}

func TestLoadUserUsesCachedProfile(t *testing.T) {
	sm := scs.New()
	// Upstream that fails loudly if contacted: the cached profile must win.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream should not be called when the profile is cached")
	}))
	defer upstream.Close()
	client := apiclient.New(upstream.URL)

	var gotUser *model.User
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUser(r)
	})

	handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := session.PutAuth(sm, r.Context(), "tok", model.User{ID: 9, Username: "bob"}); err != nil {
			t.Fatalf("PutAuth: %v", err)
		}
		LoadUser(sm, client)(inner).ServeHTTP(w, r)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if gotUser == nil || gotUser.Username != "bob" {
		t.Errorf("GetUser = %+v; want cached bob", gotUser)
	}
}

func TestLoadUserRestoresFromUpstream(t *testing.T) {
	sm := scs.New()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/auth/me" {
			t.Errorf("unexpected upstream path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user_id":3,"username":"carol","roles":["admin_group"]}`))
	}))
	defer upstream.Close()
	client := apiclient.New(upstream.URL)

	var gotUser *model.User
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUser(r)
	})

	handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Token present but no cached profile: forces the silent restore.
		sm.Put(r.Context(), session.KeyToken, "tok")
		LoadUser(sm, client)(inner).ServeHTTP(w, r)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if gotUser == nil || gotUser.Username != "carol" || !gotUser.IsGroupAdmin() {
		t.Errorf("GetUser = %+v; want restored carol", gotUser)
	}
}

func TestLoadUserRejectedTokenClearsSession(t *testing.T) {
	sm := scs.New()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
	}))
	defer upstream.Close()
	client := apiclient.New(upstream.URL)

	next, called := okHandler()
	var authenticatedAfter bool

	handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sm.Put(r.Context(), session.KeyToken, "stale-tok")
		LoadUser(sm, client)(next).ServeHTTP(w, r)
		authenticatedAfter = session.IsAuthenticated(sm, r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if *called {
		t.Error("handler must not run with a rejected token")
	}
	if authenticatedAfter {
		t.Error("session should be destroyed after token rejection")
	}
}

func TestRequireAnyRole(t *testing.T) {
	denied := func(w http.ResponseWriter, r *http.Request, allowed []string) {
		_, _ = w.Write([]byte("Access Denied: " + strings.Join(allowed, ", ")))
	}

	tests := []struct {
		name       string
		user       *model.User
		wantStatus int
		wantCalled bool
	}{
		{"no user redirects", nil, http.StatusSeeOther, false},
		{"matching role passes", &model.User{Roles: []string{model.RoleAdminGroup}}, http.StatusOK, true},
		{"any-of: one match suffices", &model.User{Roles: []string{model.RoleAdminMain}}, http.StatusOK, true},
		{"no matching role denied", &model.User{Roles: []string{model.RoleUser}}, http.StatusForbidden, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, called := okHandler()
			mw := RequireAnyRole(denied, model.RoleAdminMain, model.RoleAdminGroup)(next)

			req := httptest.NewRequest(http.MethodGet, "/meetings/new", nil)
			if tt.user != nil {
				req = req.WithContext(context.WithValue(req.Context(), ContextKeyUser, tt.user))
			}
			rec := httptest.NewRecorder()
			mw.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d; want %d", rec.Code, tt.wantStatus)
			}
			if *called != tt.wantCalled {
				t.Errorf("handler called = %v; want %v", *called, tt.wantCalled)
			}
			if tt.wantStatus == http.StatusForbidden && !strings.Contains(rec.Body.String(), "Access Denied") {
				t.Error("denied response should come from the injected renderer")
			}
		})
	}
}

func TestGetUserAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if GetUser(req) != nil {
		t.Error("GetUser should return nil without a user in context")
	}
}
