package render

import (
	"html/template"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"

	"github.com/meetdesk/meetdesk/web"
)

func testRenderer(t *testing.T, sm *scs.SessionManager) *Renderer {
	t.Helper()

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("sub FS: %v", err)
	}
	r, err := New(Config{TemplatesFS: templatesFS, SessionManager: sm, IsDev: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestAllPagesParse(t *testing.T) {
	r := testRenderer(t, nil)

	pages := []string{
		"auth/login",
		"app/dashboard",
		"meetings/list",
		"meetings/detail",
		"meetings/new",
		"meetings/edit",
		"meetings/confirm_close",
		"meetings/confirm_delete",
		"errors/denied",
		"errors/notfound",
	}
	for _, page := range pages {
		if _, ok := r.templates[page]; !ok {
			t.Errorf("template %s not parsed", page)
		}
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	r := testRenderer(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := r.Render(rec, req, "no/such", TemplateData{}); err == nil {
		t.Fatal("expected an error for an unknown template")
	}
}

func TestRenderSetsContentType(t *testing.T) {
	r := testRenderer(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	if err := r.Render(rec, req, "auth/login", TemplateData{Title: "Sign in"}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Sign in - MeetDesk") {
		t.Error("rendered page missing title")
	}
}

func TestFlashRoundTrip(t *testing.T) {
	sm := scs.New()
	r := testRenderer(t, sm)

	handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.SetFlash(req, "Meeting closed", "success")
		if err := r.Render(w, req, "auth/login", TemplateData{}); err != nil {
			t.Fatalf("Render: %v", err)
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "Meeting closed") || !strings.Contains(body, "alert-success") {
		t.Error("flash message not rendered")
	}
}

func TestTemplateFuncs(t *testing.T) {
	r := testRenderer(t, nil)
	funcs := r.templateFuncs()

	if got := funcs["statusLabel"].(func(string) string)("active"); got != "Active" {
		t.Errorf("statusLabel(active) = %q", got)
	}
	truncate := funcs["truncate"].(func(string, int) string)
	if got := truncate("abcdefgh", 5); got != "abcde..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 5); got != "abc" {
		t.Errorf("truncate short input = %q", got)
	}
	if got := truncate("héllo wörld", 5); got != "héllo..." {
		t.Errorf("truncate multi-byte = %q", got)
	}

	md := funcs["markdown"].(func(string) template.HTML)
	out := string(md("**bold** <script>alert(1)</script>"))
	if !strings.Contains(out, "<strong>bold</strong>") {
		t.Errorf("markdown output missing strong tag: %q", out)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("markdown output not sanitized: %q", out)
	}
}
