package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter("test", 0.001, 2)

	if !rl.Allow("198.51.100.1") || !rl.Allow("198.51.100.1") {
		t.Fatal("burst should be allowed")
	}
	if rl.Allow("198.51.100.1") {
		t.Error("third request should be limited")
	}
	if !rl.Allow("198.51.100.2") {
		t.Error("other clients keep their own bucket")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter("beacon", 1, 1)
	handler := rl.Middleware()(http.HandlerFunc(okHandler))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/analytics/events", nil)
		req.RemoteAddr = "192.0.2.10:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(); rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}
	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}
	if body := decodeAPIError(t, rec); body.Error == "" {
		t.Error("empty error message")
	}
}

func TestRateLimiterHTMLMiddleware(t *testing.T) {
	rl := NewRateLimiter("contact", 0.01, 1)
	handler := rl.HTMLMiddleware()(http.HandlerFunc(okHandler))

	do := func(method string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/contact", nil)
		req.RemoteAddr = "192.0.2.20:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := do(http.MethodPost); rec.Code != http.StatusOK {
		t.Fatalf("first POST = %d", rec.Code)
	}
	rec := do(http.MethodPost)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := rec.Header().Get("Retry-After"); got != "100" {
		t.Errorf("Retry-After = %q, want 100", got)
	}
	if rec := do(http.MethodGet); rec.Code != http.StatusOK {
		t.Errorf("GET = %d, the form page is never limited", rec.Code)
	}
}

func TestLimiterCacheClearIfExceeds(t *testing.T) {
	lc := newLimiterCache[string](1, 1)
	for _, ip := range []string{"a", "b", "c"} {
		lc.get(ip)
	}
	if lc.clearIfExceeds(5) {
		t.Error("cleared below the limit")
	}
	if !lc.clearIfExceeds(2) || lc.size() != 0 {
		t.Errorf("expected clear, size = %d", lc.size())
	}
}
