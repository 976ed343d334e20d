package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/kpp-site/internal/auth"
	"github.com/olegiv/kpp-site/internal/cache"
	"github.com/olegiv/kpp-site/internal/middleware"
	"github.com/olegiv/kpp-site/internal/scheduler"
	"github.com/olegiv/kpp-site/internal/service"
	"github.com/olegiv/kpp-site/internal/store"
	"github.com/olegiv/kpp-site/internal/testutil"
)

type testAPI struct {
	db      *sql.DB
	tokens  *auth.TokenManager
	router  http.Handler
	backups *service.BackupService
	cache   *cache.Manager
	jobs    *fakeJobs
}

// fakeJobs records manual runs instead of touching a real scheduler.
type fakeJobs struct {
	ran  []string
	fail error
}

func (f *fakeJobs) List() []scheduler.JobInfo {
	return []scheduler.JobInfo{{Name: "backup", Schedule: "0 3 * * *"}, {Name: "prune-logs", Schedule: "30 2 * * *"}}
}

func (f *fakeJobs) TriggerNow(name string) error {
	if name != "backup" && name != "prune-logs" {
		return fmt.Errorf("%w: %s", scheduler.ErrJobNotFound, name)
	}
	if f.fail != nil {
		return f.fail
	}
	f.ran = append(f.ran, name)
	return nil
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db := testutil.TestDB(t)
	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	cm := cache.NewManager(mem, "memory", time.Minute)
	tokens := auth.NewTokenManager("0123456789abcdef0123456789abcdef-api", time.Hour)
	login := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit: 100, IPBurst: 100, MaxFailedAttempts: 3,
	})
	t.Cleanup(login.Close)

	perms := service.NewPermissionService(db, cm)
	events := service.NewEventService(db)
	backups := service.NewBackupService(db, t.TempDir(), 5, cm)
	jobs := &fakeJobs{}
	h := NewHandler(Services{
		DB:        db,
		Tokens:    tokens,
		Login:     login,
		Perms:     perms,
		Content:   service.NewContentService(db, cm),
		Site:      service.NewSiteService(db, cm),
		Media:     service.NewMediaService(db, t.TempDir(), 1<<20),
		Users:     service.NewUserService(db),
		Audit:     service.NewAuditService(db),
		Events:    events,
		Analytics: service.NewAnalyticsService(db, nil, "test-salt"),
		Backups:   backups,
		Contact:   service.NewContactService(db),
		Dashboard: service.NewDashboardService(db),
		Cache:     cm,
		Jobs:      jobs,
	})

	r := chi.NewRouter()
	r.Mount("/api/admin", h.AdminRoutes(middleware.NewGuard(perms, events), nil))
	r.Post("/api/analytics/events", h.Beacon)
	return &testAPI{db: db, tokens: tokens, router: r, backups: backups, cache: cm, jobs: jobs}
}

// userToken creates a user with role and returns it with a bearer token.
func (a *testAPI) userToken(t *testing.T, email, role string) (store.User, string) {
	t.Helper()
	u := testutil.CreateUser(t, a.db, email, role)
	token, _, err := a.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	return u, token
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.RemoteAddr = "192.0.2.1:1234"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    *Meta           `json:"meta"`
	Error   string          `json:"error"`
}

// decode checks the status and unpacks the envelope, decoding data into dst
// when dst is non-nil.
func decode(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int, dst any) envelope {
	t.Helper()
	if rec.Code != wantStatus {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, wantStatus, rec.Body.String())
	}
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding envelope %q: %v", rec.Body.String(), err)
	}
	if env.Success != (wantStatus < 400) {
		t.Errorf("success = %v for status %d", env.Success, wantStatus)
	}
	if wantStatus >= 400 && env.Error == "" {
		t.Error("error envelope without message")
	}
	if dst != nil {
		if err := json.Unmarshal(env.Data, dst); err != nil {
			t.Fatalf("decoding data %s: %v", env.Data, err)
		}
	}
	return env
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("%s: %v", query, err)
	}
	return n
}

func ptr[T any](v T) *T { return &v }
