package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/olegiv/kpp-site/internal/middleware"
)

func validContactForm() url.Values {
	return url.Values{
		"name":    {"Ada Lovelace"},
		"email":   {"Ada@Example.com"},
		"company": {"Analytical Engines"},
		"subject": {"Partnership"},
		"message": {"We would like to build a 20 MW plant."},
	}
}

func TestContactPage(t *testing.T) {
	ts := newTestSite(t)
	rec := ts.get(t, "/contact")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	assertContains(t, rec.Body.String(), `<form method="post" action="/contact"`, `name="website"`, "info@kpp.example.com")
}

func TestSubmitContactRedirectsWithFlash(t *testing.T) {
	ts := newTestSite(t)

	rec := ts.postForm(t, "/contact", validContactForm())
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303; body %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/contact" {
		t.Errorf("Location = %q, want /contact", loc)
	}

	var email, ip string
	if err := ts.db.QueryRow(`SELECT email, ip_address FROM contact_messages`).Scan(&email, &ip); err != nil {
		t.Fatalf("reading message: %v", err)
	}
	if email != "ada@example.com" {
		t.Errorf("email = %q, want lowercased", email)
	}
	if ip == "203.0.113.7" {
		t.Error("client IP stored without anonymisation")
	}

	// The flash is shown once on the page the browser is sent to.
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie set")
	}
	page := ts.get(t, "/contact", cookies...)
	assertContains(t, page.Body.String(), `class="flash flash-success"`, "Thank you for your message")

	again := ts.get(t, "/contact", cookies...)
	assertNotContains(t, again.Body.String(), "Thank you for your message")
}

func TestSubmitContactValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(url.Values)
		field  string
	}{
		{"missing name", func(v url.Values) { v.Set("name", " ") }, "name"},
		{"bad email", func(v url.Values) { v.Set("email", "not-an-email") }, "email"},
		{"missing message", func(v url.Values) { v.Del("message") }, "message"},
		{"long message", func(v url.Values) { v.Set("message", strings.Repeat("x", 5001)) }, "message"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestSite(t)
			form := validContactForm()
			tt.modify(form)

			rec := ts.postForm(t, "/contact", form)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", rec.Code)
			}
			body := rec.Body.String()
			assertContains(t, body, `<p class="form-error" role="alert">`+tt.field+" ")
			// Entered values are kept.
			assertContains(t, body, `value="Analytical Engines"`)

			var n int
			_ = ts.db.QueryRow(`SELECT COUNT(*) FROM contact_messages`).Scan(&n)
			if n != 0 {
				t.Errorf("stored %d messages, want 0", n)
			}
		})
	}
}

func TestSubmitContactHoneypot(t *testing.T) {
	ts := newTestSite(t)
	form := validContactForm()
	form.Set("website", "http://spam.example")

	rec := ts.postForm(t, "/contact", form)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	var n int
	_ = ts.db.QueryRow(`SELECT COUNT(*) FROM contact_messages`).Scan(&n)
	if n != 0 {
		t.Errorf("stored %d messages from a bot, want 0", n)
	}
}

func TestSubmitContactRateLimited(t *testing.T) {
	ts := newTestSite(t)
	limiter := middleware.NewRateLimiter("contact", 0.001, 1)
	ts.router = ts.buildRouter(limiter)

	if rec := ts.postForm(t, "/contact", validContactForm()); rec.Code != http.StatusSeeOther {
		t.Fatalf("first post: status = %d, want 303", rec.Code)
	}
	rec := ts.postForm(t, "/contact", validContactForm())
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second post: status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	// Reading the form is never limited.
	if rec := ts.get(t, "/contact"); rec.Code != http.StatusOK {
		t.Errorf("GET after limit: status = %d, want 200", rec.Code)
	}
}

func TestSubmitContactCrossSiteRejected(t *testing.T) {
	ts := newTestSite(t)
	csrf := middleware.CSRF(middleware.DefaultCSRFConfig([]byte("0123456789abcdef0123456789abcdef"), false, nil))
	h := csrf(ts.router)

	post := func(fetchSite string) int {
		req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(validContactForm().Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Sec-Fetch-Site", fetchSite)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := post("cross-site"); code != http.StatusForbidden {
		t.Errorf("cross-site post: status = %d, want 403", code)
	}
	if code := post("same-origin"); code != http.StatusSeeOther {
		t.Errorf("same-origin post: status = %d, want 303", code)
	}
}
