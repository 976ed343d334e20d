package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary migrated database.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "kpp-test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, q *Queries, email, role string) User {
	t.Helper()
	now := time.Now().UTC()
	u, err := q.CreateUser(context.Background(), CreateUserParams{
		Email:        email,
		Name:         "Test User",
		PasswordHash: "hashed-password",
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func createTestPage(t *testing.T, q *Queries, slug, status string) Page {
	t.Helper()
	now := time.Now().UTC()
	p, err := q.CreatePage(context.Background(), CreatePageParams{
		Slug:      slug,
		Title:     "Title " + slug,
		Content:   `{"blocks":[]}`,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	return p
}

func TestMigrate_MemoryDriver(t *testing.T) {
	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	defer func() { _ = db.Close() }()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	v, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 5 {
		t.Errorf("SchemaVersion = %d, want 5", v)
	}
}

func TestCreateUser(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	user := createTestUser(t, q, "test@example.com", "editor")
	if user.ID == 0 {
		t.Error("user.ID should not be 0")
	}
	if !user.IsActive {
		t.Error("IsActive = false, want true")
	}

	got, err := q.GetUserByEmail(ctx, "TEST@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail should be case-insensitive: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("GetUserByEmail ID = %d, want %d", got.ID, user.ID)
	}

	now := time.Now().UTC()
	_, err = q.CreateUser(ctx, CreateUserParams{
		Email: "Test@Example.com", PasswordHash: "x", Role: "viewer", CreatedAt: now, UpdatedAt: now,
	})
	if !IsUniqueViolation(err) {
		t.Errorf("duplicate email error = %v, want unique violation", err)
	}
}

func TestUserRoleCheckConstraint(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC()
	_, err := New(db).CreateUser(context.Background(), CreateUserParams{
		Email: "x@example.com", PasswordHash: "x", Role: "owner", CreatedAt: now, UpdatedAt: now,
	})
	if err == nil {
		t.Fatal("invalid role should be rejected by the schema")
	}
}

func TestEventUserForeignKey(t *testing.T) {
	db := testDB(t)
	err := New(db).CreateEvent(context.Background(), CreateEventParams{
		Level: "warning", Category: "auth", Message: "x", Metadata: "{}",
		UserID:    sql.NullInt64{Int64: 999, Valid: true},
		CreatedAt: time.Now().UTC(),
	})
	if !IsForeignKeyViolation(err) {
		t.Errorf("event for missing user err = %v, want foreign key violation", err)
	}
	if IsForeignKeyViolation(nil) {
		t.Error("nil error reported as a foreign key violation")
	}
}

func TestListUsersFilters(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	createTestUser(t, q, "alice@example.com", "editor")
	createTestUser(t, q, "bob@example.com", "viewer")
	createTestUser(t, q, "carol_x@example.com", "editor")

	editors, err := q.ListUsers(ctx, ListUsersParams{Role: "editor", Limit: 10})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(editors) != 2 {
		t.Errorf("len(editors) = %d, want 2", len(editors))
	}

	// Underscore is a LIKE wildcard and must be matched literally.
	n, err := q.CountUsers(ctx, CountUsersParams{Search: "l_x"})
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if n != 1 {
		t.Errorf("CountUsers(search l_x) = %d, want 1", n)
	}
}

func TestRolePermissions(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	tests := []struct {
		role, perm string
		want       bool
	}{
		{"viewer", "pages:read", true},
		{"viewer", "pages:write", false},
		{"editor", "pages:write", true},
		{"editor", "pages:delete", false},
		{"admin", "backups:manage", true},
		{"admin", "audit:manage", false},
	}
	for _, tt := range tests {
		got, err := q.RoleHasPermission(ctx, tt.role, tt.perm)
		if err != nil {
			t.Fatalf("RoleHasPermission: %v", err)
		}
		if got != tt.want {
			t.Errorf("RoleHasPermission(%q, %q) = %v, want %v", tt.role, tt.perm, got, tt.want)
		}
	}
}

func TestPageCRUD(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	p := createTestPage(t, q, "about", "draft")

	if _, err := q.GetPublishedPageBySlug(ctx, "about"); !IsNotFound(err) {
		t.Errorf("draft page should not be returned as published, err = %v", err)
	}

	now := time.Now().UTC()
	updated, err := q.UpdatePage(ctx, UpdatePageParams{
		Slug: "about-us", Title: "About us", Content: `{"blocks":[]}`, Status: "published",
		PublishedAt: sql.NullTime{Time: now, Valid: true}, UpdatedAt: now, ID: p.ID,
	})
	if err != nil {
		t.Fatalf("UpdatePage: %v", err)
	}
	if updated.Slug != "about-us" || !updated.PublishedAt.Valid {
		t.Errorf("UpdatePage result = %+v", updated)
	}

	taken, err := q.PageSlugTaken(ctx, "about-us", 0)
	if err != nil || !taken {
		t.Errorf("PageSlugTaken = %v, %v; want true", taken, err)
	}
	taken, _ = q.PageSlugTaken(ctx, "about-us", p.ID)
	if taken {
		t.Error("slug should not count as taken by the page itself")
	}

	createTestPage(t, q, "draft-one", "draft")
	counts, err := q.CountPagesByStatus(ctx)
	if err != nil {
		t.Fatalf("CountPagesByStatus: %v", err)
	}
	if counts["published"] != 1 || counts["draft"] != 1 {
		t.Errorf("CountPagesByStatus = %v", counts)
	}

	if err := q.DeletePage(ctx, p.ID); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}
	if _, err := q.GetPage(ctx, p.ID); !IsNotFound(err) {
		t.Errorf("GetPage after delete err = %v, want ErrNoRows", err)
	}
}

func TestContentVersionNumbering(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		v, err := q.CreateContentVersion(ctx, CreateContentVersionParams{
			ContentType: "page", ContentID: 1, Data: "{}", CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("CreateContentVersion: %v", err)
		}
		if v.VersionNumber != int64(i) {
			t.Errorf("VersionNumber = %d, want %d", v.VersionNumber, i)
		}
	}

	// Numbering is per (type, id).
	v, err := q.CreateContentVersion(ctx, CreateContentVersionParams{
		ContentType: "project", ContentID: 1, Data: "{}", CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateContentVersion: %v", err)
	}
	if v.VersionNumber != 1 {
		t.Errorf("project VersionNumber = %d, want 1", v.VersionNumber)
	}

	list, err := q.ListContentVersions(ctx, ListContentVersionsParams{ContentType: "page", ContentID: 1, Limit: 10})
	if err != nil {
		t.Fatalf("ListContentVersions: %v", err)
	}
	if len(list) != 3 || list[0].VersionNumber != 3 {
		t.Errorf("versions should be newest first, got %d items", len(list))
	}
}

func TestContentVersionConcurrentInserts(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	const writers = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- InTx(ctx, db, func(q *Queries) error {
				_, err := q.CreateContentVersion(ctx, CreateContentVersionParams{
					ContentType: "page", ContentID: 9, Data: "{}", CreatedAt: time.Now().UTC(),
				})
				return err
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent insert: %v", err)
		}
	}

	n, err := New(db).CountContentVersions(ctx, "page", 9)
	if err != nil {
		t.Fatalf("CountContentVersions: %v", err)
	}
	if n != writers {
		t.Errorf("versions = %d, want %d", n, writers)
	}
	latest, err := New(db).GetContentVersion(ctx, "page", 9, writers)
	if err != nil {
		t.Fatalf("highest version should be %d: %v", writers, err)
	}
	if latest.ContentID != 9 {
		t.Errorf("ContentID = %d", latest.ContentID)
	}
}

func TestAuditLogFiltersAndPrune(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()
	user := createTestUser(t, q, "admin@example.com", "admin")

	old := time.Now().UTC().AddDate(0, 0, -40)
	recent := time.Now().UTC()
	entries := []CreateAuditLogParams{
		{UserID: sql.NullInt64{Int64: user.ID, Valid: true}, Action: "create", ResourceType: "page", ResourceID: sql.NullString{String: "1", Valid: true}, Details: "{}", CreatedAt: old},
		{UserID: sql.NullInt64{Int64: user.ID, Valid: true}, Action: "update", ResourceType: "page", ResourceID: sql.NullString{String: "1", Valid: true}, Details: "{}", CreatedAt: recent},
		{Action: "login", ResourceType: "session", Details: "{}", CreatedAt: recent},
	}
	for _, e := range entries {
		if err := q.CreateAuditLog(ctx, e); err != nil {
			t.Fatalf("CreateAuditLog: %v", err)
		}
	}

	logs, err := q.ListAuditLogs(ctx, AuditLogFilter{UserID: user.ID}, 10, 0)
	if err != nil {
		t.Fatalf("ListAuditLogs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("len(logs) = %d, want 2", len(logs))
	}
	if logs[0].Action != "update" || logs[0].UserEmail.String != "admin@example.com" {
		t.Errorf("first log = %+v", logs[0])
	}

	n, err := q.CountAuditLogs(ctx, AuditLogFilter{From: sql.NullTime{Time: recent.Add(-time.Hour), Valid: true}})
	if err != nil {
		t.Fatalf("CountAuditLogs: %v", err)
	}
	if n != 2 {
		t.Errorf("CountAuditLogs(from) = %d, want 2", n)
	}

	deleted, err := q.DeleteAuditLogsBefore(ctx, time.Now().UTC().AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("DeleteAuditLogsBefore: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}

func TestAnalyticsAggregates(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	events := []CreateAnalyticsEventParams{
		{EventType: "page_view", Path: "/", VisitorHash: "v1", SessionHash: "s1", DeviceType: "desktop", ReferrerDomain: "google.com", CreatedAt: now},
		{EventType: "page_view", Path: "/", VisitorHash: "v2", SessionHash: "s2", DeviceType: "mobile", CreatedAt: now},
		{EventType: "page_view", Path: "/about", VisitorHash: "v1", SessionHash: "s1", DeviceType: "desktop", CreatedAt: now},
		{EventType: "click", Path: "/", VisitorHash: "v1", SessionHash: "s1", DeviceType: "desktop", CreatedAt: now},
		{EventType: "page_view", Path: "/old", VisitorHash: "v3", SessionHash: "s3", DeviceType: "desktop", CreatedAt: now.AddDate(0, 0, -60)},
	}
	for _, e := range events {
		e.Metadata = "{}"
		if err := q.CreateAnalyticsEvent(ctx, e); err != nil {
			t.Fatalf("CreateAnalyticsEvent: %v", err)
		}
	}

	since := now.AddDate(0, 0, -30)
	totals, err := q.GetAnalyticsTotals(ctx, since)
	if err != nil {
		t.Fatalf("GetAnalyticsTotals: %v", err)
	}
	if totals.Events != 4 || totals.PageViews != 3 || totals.UniqueVisitors != 2 {
		t.Errorf("totals = %+v", totals)
	}

	top, err := q.GetAnalyticsBreakdown(ctx, "path", since, 10)
	if err != nil {
		t.Fatalf("GetAnalyticsBreakdown: %v", err)
	}
	if len(top) != 2 || top[0].Key != "/" || top[0].Count != 2 {
		t.Errorf("top pages = %+v", top)
	}

	daily, err := q.GetAnalyticsDaily(ctx, since)
	if err != nil {
		t.Fatalf("GetAnalyticsDaily: %v", err)
	}
	if len(daily) != 1 || daily[0].Date != now.Format("2006-01-02") || daily[0].PageViews != 3 {
		t.Errorf("daily = %+v", daily)
	}

	deleted, err := q.DeleteAnalyticsEventsBefore(ctx, since)
	if err != nil {
		t.Fatalf("DeleteAnalyticsEventsBefore: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}

func TestMediaTagFilter(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, m := range []struct{ path, mime, tags string }{
		{"2026/01/a.jpg", "image/jpeg", `["turbine","site"]`},
		{"2026/01/b.pdf", "application/pdf", `["brochure"]`},
		{"2026/01/c.png", "image/png", `[]`},
	} {
		if _, err := q.CreateMedia(ctx, CreateMediaParams{
			Filename: filepath.Base(m.path), OriginalName: filepath.Base(m.path), StoragePath: m.path,
			MimeType: m.mime, Size: int64(100 * (i + 1)), Tags: m.tags, CreatedAt: now,
		}); err != nil {
			t.Fatalf("CreateMedia: %v", err)
		}
	}

	images, err := q.CountMedia(ctx, CountMediaParams{MimePrefix: "image/"})
	if err != nil || images != 2 {
		t.Errorf("CountMedia(image/) = %d, %v; want 2", images, err)
	}
	tagged, err := q.ListMedia(ctx, ListMediaParams{Tag: "turbine", Limit: 10})
	if err != nil {
		t.Fatalf("ListMedia: %v", err)
	}
	if len(tagged) != 1 || tagged[0].StoragePath != "2026/01/a.jpg" {
		t.Errorf("tagged = %+v", tagged)
	}
	count, bytes, err := q.GetMediaTotals(ctx)
	if err != nil || count != 3 || bytes != 600 {
		t.Errorf("GetMediaTotals = %d, %d, %v", count, bytes, err)
	}
}

func TestMenuUniqueNameLocation(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := q.CreateMenu(ctx, CreateMenuParams{Name: "Main", Location: "header", Items: "[]", CreatedAt: now}); err != nil {
		t.Fatalf("CreateMenu: %v", err)
	}
	if _, err := q.CreateMenu(ctx, CreateMenuParams{Name: "Main", Location: "footer", Items: "[]", CreatedAt: now}); err != nil {
		t.Fatalf("same name at another location should be allowed: %v", err)
	}
	_, err := q.CreateMenu(ctx, CreateMenuParams{Name: "Main", Location: "header", Items: "[]", CreatedAt: now})
	if !IsUniqueViolation(err) {
		t.Errorf("duplicate (name, location) err = %v, want unique violation", err)
	}
}

func TestSettingsUpsert(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := q.InsertSettingIfMissing(ctx, UpsertSettingParams{Key: "site_name", Value: "KPP", Type: "string", GroupName: "general", Description: "Name", UpdatedAt: now}); err != nil {
		t.Fatalf("InsertSettingIfMissing: %v", err)
	}
	if err := q.InsertSettingIfMissing(ctx, UpsertSettingParams{Key: "site_name", Value: "Other", Type: "string", GroupName: "general", UpdatedAt: now}); err != nil {
		t.Fatalf("InsertSettingIfMissing: %v", err)
	}
	s, _ := q.GetSetting(ctx, "site_name")
	if s.Value != "KPP" {
		t.Errorf("existing setting overwritten: %q", s.Value)
	}

	s, err := q.UpsertSetting(ctx, UpsertSettingParams{Key: "site_name", Value: "KPP Energy", Type: "string", GroupName: "general", UpdatedAt: now})
	if err != nil {
		t.Fatalf("UpsertSetting: %v", err)
	}
	if s.Value != "KPP Energy" || s.Description != "Name" {
		t.Errorf("UpsertSetting = %+v", s)
	}
}

func TestSeedIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	opts := SeedOptions{AdminEmail: "Owner@Example.com", AdminPassword: "s3cret-passw0rd"}

	for i := 0; i < 2; i++ {
		if err := Seed(ctx, db, opts); err != nil {
			t.Fatalf("Seed run %d: %v", i+1, err)
		}
	}

	q := New(db)
	users, _ := q.CountUsers(ctx, CountUsersParams{})
	if users != 1 {
		t.Errorf("users = %d, want 1", users)
	}
	admin, err := q.GetUserByEmail(ctx, "owner@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if admin.Role != "super_admin" {
		t.Errorf("seeded admin role = %q, want super_admin", admin.Role)
	}

	home, err := q.GetPublishedPageBySlug(ctx, "home")
	if err != nil {
		t.Fatalf("home page not seeded: %v", err)
	}
	if home.Content == "" {
		t.Error("home page has no content")
	}
	if _, err := q.GetMenuByLocation(ctx, "header"); err != nil {
		t.Errorf("header menu not seeded: %v", err)
	}
	projects, _ := q.CountProjects(ctx, CountProjectsParams{})
	if projects == 0 {
		t.Error("no projects seeded")
	}
}

func TestVacuumIntoAndRestore(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	createTestPage(t, q, "kept", "published")

	backupPath := filepath.Join(t.TempDir(), "backup.db")
	if err := VacuumInto(ctx, db, backupPath); err != nil {
		t.Fatalf("VacuumInto: %v", err)
	}

	createTestPage(t, q, "added-after-backup", "draft")

	tables := []string{"users", "pages", "content_versions"}
	if err := RestoreTables(ctx, db, backupPath, tables); err != nil {
		t.Fatalf("RestoreTables: %v", err)
	}

	if _, err := q.GetPageBySlug(ctx, "kept"); err != nil {
		t.Errorf("page from backup missing: %v", err)
	}
	if _, err := q.GetPageBySlug(ctx, "added-after-backup"); !IsNotFound(err) {
		t.Errorf("page created after backup should be gone, err = %v", err)
	}

	// The connection used for the restore is usable afterwards with foreign keys on.
	var fk int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil || fk != 1 {
		t.Errorf("foreign_keys = %d, %v; want 1", fk, err)
	}
}
