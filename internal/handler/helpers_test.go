package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/kpp-site/internal/cache"
	"github.com/olegiv/kpp-site/internal/middleware"
	"github.com/olegiv/kpp-site/internal/render"
	"github.com/olegiv/kpp-site/internal/service"
	"github.com/olegiv/kpp-site/internal/store"
	"github.com/olegiv/kpp-site/internal/testutil"
	"github.com/olegiv/kpp-site/web"
)

const testSiteURL = "https://kpp.example.com"

type testSite struct {
	db       *sql.DB
	router   *chi.Mux
	frontend *Frontend
	sessions *scs.SessionManager
	content  *service.ContentService
	site     *service.SiteService
}

// newTestSite serves the seeded default content through the real templates.
func newTestSite(t *testing.T) *testSite {
	t.Helper()
	db := testutil.TestDB(t)
	if err := store.Seed(context.Background(), db, store.SeedOptions{
		AdminEmail:    "admin@example.com",
		AdminPassword: testutil.TestPassword,
	}); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	cm := cache.NewManager(cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute}), "memory", time.Minute)
	sm := scs.New()
	renderer, err := render.New(render.Config{TemplatesFS: web.Templates(), SessionManager: sm})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	ts := &testSite{
		db:       db,
		sessions: sm,
		content:  service.NewContentService(db, cm),
		site:     service.NewSiteService(db, cm),
	}
	ts.frontend = NewFrontend(FrontendConfig{
		Content:  ts.content,
		Site:     ts.site,
		Contact:  service.NewContactService(db),
		Renderer: renderer,
		SiteURL:  testSiteURL + "/",
	})

	ts.router = ts.buildRouter(nil)
	return ts
}

func (ts *testSite) buildRouter(contactLimiter *middleware.RateLimiter) *chi.Mux {
	r := chi.NewRouter()
	r.Use(ts.sessions.LoadAndSave)
	r.NotFound(ts.frontend.NotFound)
	ts.frontend.Routes(r, contactLimiter)
	return r
}

func (ts *testSite) get(t *testing.T, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testSite) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "203.0.113.7:5555"
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testSite) setSetting(t *testing.T, key, value, typ string) {
	t.Helper()
	if _, err := ts.site.UpdateSettings(context.Background(), []service.SettingUpdate{
		{Key: key, Value: value, Type: typ},
	}, 0); err != nil {
		t.Fatalf("UpdateSettings(%s): %v", key, err)
	}
}

func assertContains(t *testing.T, body string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(body, w) {
			t.Errorf("body does not contain %q", w)
		}
	}
}

func assertNotContains(t *testing.T, body string, unwanted ...string) {
	t.Helper()
	for _, u := range unwanted {
		if strings.Contains(body, u) {
			t.Errorf("body unexpectedly contains %q", u)
		}
	}
}
