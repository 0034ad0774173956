package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIPRateLimiterAllowsWithinBurst(t *testing.T) {
	limiter := NewIPRateLimiter(1, 3)
	next, _ := okHandler()
	handler := limiter.Middleware()(next)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d; want 200", i+1, rec.Code)
		}
	}
}

func TestIPRateLimiterBlocksOverBurst(t *testing.T) {
	limiter := NewIPRateLimiter(1, 2)
	next, _ := okHandler()
	handler := limiter.Middleware()(next)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		handler.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d; want 429", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("429 response should carry Retry-After")
	}
}

func TestIPRateLimiterSeparatesClients(t *testing.T) {
	limiter := NewIPRateLimiter(1, 1)
	next, _ := okHandler()
	handler := limiter.Middleware()(next)

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.3:1234"
	handler.ServeHTTP(first, req)

	other := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.4:1234"
	handler.ServeHTTP(other, req)

	if other.Code != http.StatusOK {
		t.Errorf("second client status = %d; want 200 (limits are per IP)", other.Code)
	}
}
