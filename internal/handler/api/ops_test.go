package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/scheduler"
	"github.com/olegiv/kpp-site/internal/service"
)

const browserUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

func (a *testAPI) beacon(t *testing.T, body, ua string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/analytics/events", bytes.NewBufferString(body))
	req.RemoteAddr = "198.51.100.7:5555"
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", ua)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func TestBeacon(t *testing.T) {
	a := newTestAPI(t)

	var out map[string]bool
	decode(t, a.beacon(t, `{"path":"/projects","referrer":"https://www.google.com/search"}`, browserUA), http.StatusAccepted, &out)
	if !out["recorded"] {
		t.Error("browser page view not recorded")
	}
	decode(t, a.beacon(t, `{"event_type":"click","path":"/","metadata":{"cta":"contact"}}`, browserUA),
		http.StatusAccepted, &out)

	decode(t, a.beacon(t, `{"path":"/"}`, "Googlebot/2.1 (+http://www.google.com/bot.html)"), http.StatusAccepted, &out)
	if out["recorded"] {
		t.Error("bot traffic recorded")
	}
	decode(t, a.beacon(t, `{"event_type":"nonsense","path":"/"}`, browserUA), http.StatusBadRequest, nil)
	decode(t, a.beacon(t, `not json`, browserUA), http.StatusBadRequest, nil)

	if n := countRows(t, a.db, `SELECT COUNT(*) FROM analytics_events`); n != 2 {
		t.Errorf("analytics rows = %d, want 2", n)
	}
}

func TestBeaconDisabled(t *testing.T) {
	a := newTestAPI(t)
	_, admin := a.userToken(t, "admin@example.com", model.RoleAdmin)
	decode(t, a.do(t, http.MethodPut, "/api/admin/settings", admin, UpdateSettingsRequest{Settings: []service.SettingUpdate{
		{Key: model.SettingAnalyticsOn, Value: "false", Type: model.SettingTypeBool},
	}}), http.StatusOK, nil)

	var out map[string]bool
	decode(t, a.beacon(t, `{"path":"/"}`, browserUA), http.StatusAccepted, &out)
	if out["recorded"] {
		t.Error("recorded while analytics disabled")
	}
}

func TestAnalyticsAdmin(t *testing.T) {
	a := newTestAPI(t)
	_, editor := a.userToken(t, "editor@example.com", model.RoleEditor)
	_, admin := a.userToken(t, "admin@example.com", model.RoleAdmin)
	for _, p := range []string{"/", "/projects", "/projects"} {
		decode(t, a.beacon(t, fmt.Sprintf(`{"path":%q}`, p), browserUA), http.StatusAccepted, nil)
	}

	var sum service.AnalyticsSummary
	decode(t, a.do(t, http.MethodGet, "/api/admin/analytics/summary?days=7", editor, nil), http.StatusOK, &sum)
	if sum.Days != 7 || sum.Totals.PageViews != 3 {
		t.Errorf("summary = %+v", sum.Totals)
	}
	if len(sum.TopPages) == 0 || sum.TopPages[0].Key != "/projects" {
		t.Errorf("top pages = %+v", sum.TopPages)
	}
	decode(t, a.do(t, http.MethodGet, "/api/admin/analytics/summary?days=x", editor, nil), http.StatusBadRequest, nil)

	var events []AnalyticsEventResponse
	env := decode(t, a.do(t, http.MethodGet, "/api/admin/analytics/events?path=/projects", editor, nil), http.StatusOK, &events)
	if env.Meta.Total != 2 {
		t.Errorf("events for /projects = %d", env.Meta.Total)
	}

	decode(t, a.do(t, http.MethodDelete, "/api/admin/analytics/events?older_than_days=30", editor, nil), http.StatusForbidden, nil)
	var res map[string]int64
	decode(t, a.do(t, http.MethodDelete, "/api/admin/analytics/events?older_than_days=30", admin, nil), http.StatusOK, &res)
	if res["deleted"] != 0 {
		t.Errorf("deleted fresh events: %d", res["deleted"])
	}
}

func TestAuditLogs(t *testing.T) {
	a := newTestAPI(t)
	adminUser, admin := a.userToken(t, "admin@example.com", model.RoleAdmin)
	_, super := a.userToken(t, "root@example.com", model.RoleSuperAdmin)
	decode(t, a.do(t, http.MethodPost, "/api/admin/pages", admin, map[string]any{"title": "Home"}), http.StatusCreated, nil)
	decode(t, a.do(t, http.MethodPost, "/api/admin/projects", admin, map[string]any{"name": "Solar One"}), http.StatusCreated, nil)

	var logs []AuditLogResponse
	decode(t, a.do(t, http.MethodGet, "/api/admin/audit-logs?resource_type=page", admin, nil), http.StatusOK, &logs)
	if len(logs) != 1 || logs[0].Action != model.AuditActionCreate {
		t.Fatalf("page audit = %+v", logs)
	}
	if logs[0].UserEmail == nil || *logs[0].UserEmail != adminUser.Email {
		t.Errorf("audit actor = %v", logs[0].UserEmail)
	}

	today := time.Now().UTC().Format(time.DateOnly)
	env := decode(t, a.do(t, http.MethodGet, fmt.Sprintf("/api/admin/audit-logs?user_id=%d&from=%s&to=%s", adminUser.ID, today, today),
		admin, nil), http.StatusOK, &logs)
	if env.Meta.Total != 2 {
		t.Errorf("admin rows today = %d", env.Meta.Total)
	}
	decode(t, a.do(t, http.MethodGet, "/api/admin/audit-logs?from=yesterday", admin, nil), http.StatusBadRequest, nil)

	// Only super admins prune, and pruning needs a positive age.
	decode(t, a.do(t, http.MethodDelete, "/api/admin/audit-logs?older_than_days=90", admin, nil), http.StatusForbidden, nil)
	decode(t, a.do(t, http.MethodDelete, "/api/admin/audit-logs", super, nil), http.StatusBadRequest, nil)
	decode(t, a.do(t, http.MethodDelete, "/api/admin/audit-logs?older_than_days=90", super, nil), http.StatusOK, nil)
	if n := countRows(t, a.db, `SELECT COUNT(*) FROM audit_logs WHERE action = ?`, model.AuditActionPrune); n != 1 {
		t.Errorf("prune audit rows = %d", n)
	}
}

func TestEventLog(t *testing.T) {
	a := newTestAPI(t)
	_, admin := a.userToken(t, "admin@example.com", model.RoleAdmin)
	decode(t, a.do(t, http.MethodPost, "/api/admin/auth/login", "", LoginRequest{
		Email: "admin@example.com", Password: "wrong-password",
	}), http.StatusUnauthorized, nil)

	var events []EventResponse
	decode(t, a.do(t, http.MethodGet, "/api/admin/logs?category=auth&level=warning", admin, nil), http.StatusOK, &events)
	if len(events) != 1 {
		t.Errorf("auth warnings = %d", len(events))
	}
}

func TestBackups(t *testing.T) {
	a := newTestAPI(t)
	_, admin := a.userToken(t, "admin@example.com", model.RoleAdmin)
	_, super := a.userToken(t, "root@example.com", model.RoleSuperAdmin)
	_, editor := a.userToken(t, "editor@example.com", model.RoleEditor)

	decode(t, a.do(t, http.MethodPost, "/api/admin/backups", editor, nil), http.StatusForbidden, nil)

	var pg PageResponse
	decode(t, a.do(t, http.MethodPost, "/api/admin/pages", admin, map[string]any{"title": "Before"}), http.StatusCreated, &pg)
	var info service.BackupInfo
	decode(t, a.do(t, http.MethodPost, "/api/admin/backups", admin, nil), http.StatusCreated, &info)
	if info.Name == "" || info.Size == 0 {
		t.Fatalf("backup = %+v", info)
	}

	decode(t, a.do(t, http.MethodPut, fmt.Sprintf("/api/admin/pages/%d", pg.ID), admin, map[string]any{"title": "After"}),
		http.StatusOK, nil)

	rec := a.do(t, http.MethodGet, "/api/admin/backups/"+info.Name+"?download=true", admin, nil)
	if rec.Code != http.StatusOK || rec.Body.Len() == 0 {
		t.Errorf("download status %d, %d bytes", rec.Code, rec.Body.Len())
	}

	decode(t, a.do(t, http.MethodPost, "/api/admin/backups/"+info.Name+"/restore", admin, nil), http.StatusForbidden, nil)

	var restored RestoreBackupResponse
	decode(t, a.do(t, http.MethodPost, "/api/admin/backups/"+info.Name+"/restore", super, nil), http.StatusOK, &restored)
	if restored.SafetyBackup == "" || restored.SafetyBackup == info.Name {
		t.Errorf("restore = %+v", restored)
	}

	var title string
	if err := a.db.QueryRowContext(context.Background(), `SELECT title FROM pages WHERE id = ?`, pg.ID).Scan(&title); err != nil {
		t.Fatal(err)
	}
	if title != "Before" {
		t.Errorf("title after restore = %q", title)
	}

	var list []service.BackupInfo
	decode(t, a.do(t, http.MethodGet, "/api/admin/backups", admin, nil), http.StatusOK, &list)
	if len(list) != 2 {
		t.Errorf("backups = %d, want original plus safety", len(list))
	}

	decode(t, a.do(t, http.MethodGet, "/api/admin/backups/..%2Fetc%2Fpasswd", admin, nil), http.StatusBadRequest, nil)
	decode(t, a.do(t, http.MethodDelete, "/api/admin/backups/"+info.Name, admin, nil), http.StatusOK, nil)
	decode(t, a.do(t, http.MethodGet, "/api/admin/backups/"+info.Name, admin, nil), http.StatusNotFound, nil)
}

func TestContactMessages(t *testing.T) {
	a := newTestAPI(t)
	_, editor := a.userToken(t, "editor@example.com", model.RoleEditor)
	_, viewer := a.userToken(t, "viewer@example.com", model.RoleViewer)

	msg, err := service.NewContactService(a.db).Submit(context.Background(), service.ContactInput{
		Name: "Ada", Email: "ada@example.com", Subject: "Partnership", Message: "We would like to talk about a solar site.",
		IP: "203.0.113.9",
	})
	if err != nil {
		t.Fatal(err)
	}

	decode(t, a.do(t, http.MethodGet, "/api/admin/contact-messages", viewer, nil), http.StatusForbidden, nil)

	env := decode(t, a.do(t, http.MethodGet, "/api/admin/contact-messages?unread=true", editor, nil), http.StatusOK, nil)
	if env.Meta.Total != 1 {
		t.Errorf("unread = %d", env.Meta.Total)
	}

	path := fmt.Sprintf("/api/admin/contact-messages/%d", msg.ID)
	decode(t, a.do(t, http.MethodPut, path+"/read", editor, nil), http.StatusOK, nil)
	env = decode(t, a.do(t, http.MethodGet, "/api/admin/contact-messages?unread=true", editor, nil), http.StatusOK, nil)
	if env.Meta.Total != 0 {
		t.Errorf("unread after mark = %d", env.Meta.Total)
	}
	decode(t, a.do(t, http.MethodPut, path+"/read", editor, MarkReadRequest{Read: ptr(false)}), http.StatusOK, nil)

	decode(t, a.do(t, http.MethodDelete, path, editor, nil), http.StatusOK, nil)
	decode(t, a.do(t, http.MethodDelete, path, editor, nil), http.StatusNotFound, nil)
}

func TestDashboardAndCache(t *testing.T) {
	a := newTestAPI(t)
	_, admin := a.userToken(t, "admin@example.com", model.RoleAdmin)
	_, editor := a.userToken(t, "editor@example.com", model.RoleEditor)
	decode(t, a.do(t, http.MethodPost, "/api/admin/pages", admin, map[string]any{"title": "Home", "status": "published"}),
		http.StatusCreated, nil)

	var d DashboardResponse
	decode(t, a.do(t, http.MethodGet, "/api/admin/dashboard", editor, nil), http.StatusOK, &d)
	if d.Pages[model.PageStatusPublished] != 1 || d.Users != 2 {
		t.Errorf("dashboard = %+v", d.Dashboard)
	}
	if len(d.RecentActivity) == 0 {
		t.Error("no recent activity")
	}

	decode(t, a.do(t, http.MethodPost, "/api/admin/cache/clear", editor, nil), http.StatusForbidden, nil)
	decode(t, a.do(t, http.MethodPost, "/api/admin/cache/clear", admin, nil), http.StatusOK, nil)
	if n := countRows(t, a.db, `SELECT COUNT(*) FROM audit_logs WHERE resource_type = ?`, model.ResourceCache); n != 1 {
		t.Errorf("cache audit rows = %d", n)
	}
}

// The scheduler wired in cmd/kpp must satisfy JobRunner.
var _ JobRunner = (*scheduler.Scheduler)(nil)

func TestJobs(t *testing.T) {
	a := newTestAPI(t)
	_, admin := a.userToken(t, "admin@example.com", model.RoleAdmin)
	_, editor := a.userToken(t, "editor@example.com", model.RoleEditor)

	decode(t, a.do(t, http.MethodGet, "/api/admin/jobs", editor, nil), http.StatusForbidden, nil)

	var jobs []scheduler.JobInfo
	decode(t, a.do(t, http.MethodGet, "/api/admin/jobs", admin, nil), http.StatusOK, &jobs)
	if len(jobs) != 2 || jobs[0].Name != "backup" {
		t.Errorf("jobs = %+v", jobs)
	}

	decode(t, a.do(t, http.MethodPost, "/api/admin/jobs/backup/run", admin, nil), http.StatusOK, nil)
	if len(a.jobs.ran) != 1 || a.jobs.ran[0] != "backup" {
		t.Errorf("ran = %v", a.jobs.ran)
	}
	if n := countRows(t, a.db, `SELECT COUNT(*) FROM audit_logs WHERE resource_type = ? AND action = ?`,
		model.ResourceJob, model.AuditActionRun); n != 1 {
		t.Errorf("job audit rows = %d", n)
	}

	decode(t, a.do(t, http.MethodPost, "/api/admin/jobs/missing/run", admin, nil), http.StatusNotFound, nil)

	a.jobs.fail = errors.New("disk full")
	decode(t, a.do(t, http.MethodPost, "/api/admin/jobs/prune-logs/run", admin, nil), http.StatusInternalServerError, nil)
}
