package handler

import (
	"net/http"
	"testing"
)

func TestLoginFormRendered(t *testing.T) {
	app := newTestApp(t)

	resp := app.get(RouteLogin)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d; want 200", resp.StatusCode)
	}
	assertContains(t, app.body(resp), "Sign in", `name="username"`, `name="password"`)
}

func TestLoginSuccess(t *testing.T) {
	app := newTestApp(t)

	resp := app.login("alice", "secret")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status after redirect = %d; want 200", resp.StatusCode)
	}
	if resp.Request.URL.Path != RouteDashboard {
		t.Errorf("landed on %s; want %s", resp.Request.URL.Path, RouteDashboard)
	}
	assertContains(t, app.body(resp), "Dashboard", "Alice Admin")
}

func TestLoginBadCredentials(t *testing.T) {
	app := newTestApp(t)

	resp := app.login("alice", "wrong")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d; want 200", resp.StatusCode)
	}
	body := app.body(resp)
	assertContains(t, body, "Invalid username or password", `value="alice"`)

	// Still unauthenticated.
	guard := app.getNoRedirect(RouteDashboard)
	defer guard.Body.Close()
	if guard.StatusCode != http.StatusSeeOther {
		t.Errorf("dashboard status = %d; want 303", guard.StatusCode)
	}
}

func TestLoginMissingFields(t *testing.T) {
	app := newTestApp(t)

	resp := app.login("", "")
	assertContains(t, app.body(resp), "Username and password are required")
}

func TestLoginUpstreamUnavailable(t *testing.T) {
	app := newTestApp(t)
	app.api.FailNextWith("internal error")

	resp := app.login("alice", "secret")
	assertContains(t, app.body(resp), "Unable to reach the server")
}

func TestLoginFormRedirectsAuthenticated(t *testing.T) {
	app := newTestApp(t)
	app.body(app.login("alice", "secret"))

	resp := app.getNoRedirect(RouteLogin)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d; want 303", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != RouteDashboard {
		t.Errorf("Location = %q; want %s", loc, RouteDashboard)
	}
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	app.body(app.login("alice", "secret"))

	resp := app.postForm(RouteLogout, nil)
	if resp.Request.URL.Path != RouteLogin {
		t.Errorf("landed on %s; want %s", resp.Request.URL.Path, RouteLogin)
	}
	assertContains(t, app.body(resp), "You have been signed out")

	// Session is gone: protected pages bounce back to login.
	guard := app.getNoRedirect(RouteMeetings)
	defer guard.Body.Close()
	if guard.StatusCode != http.StatusSeeOther {
		t.Errorf("meetings status = %d; want 303", guard.StatusCode)
	}
}
