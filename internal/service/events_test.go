// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/store"
	"github.com/olegiv/kpp-site/internal/testutil"
)

func TestEventServiceLog(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewEventService(db)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "ops@example.com", model.RoleAdmin)

	err := svc.LogSecurity(ctx, "account locked", user.ID, "203.0.113.9", "/api/admin/users",
		map[string]any{"permission": "users:write"})
	if err != nil {
		t.Fatalf("LogSecurity: %v", err)
	}
	if err := svc.LogSystem(ctx, model.EventLevelInfo, model.EventCategoryBackup, "backup created", nil); err != nil {
		t.Fatalf("LogSystem: %v", err)
	}

	events, total, err := svc.List(ctx, "", model.EventCategorySecurity, 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(events) != 1 {
		t.Fatalf("security events = %d (total %d), want 1", len(events), total)
	}
	e := events[0]
	if e.Level != model.EventLevelWarning || e.Message != "account locked" {
		t.Errorf("event = %+v", e)
	}
	if !e.UserID.Valid || e.UserID.Int64 != user.ID {
		t.Errorf("UserID = %+v, want %d", e.UserID, user.ID)
	}
	if e.IPAddress != "203.0.113.9" || e.RequestURL != "/api/admin/users" {
		t.Errorf("request info = %q %q", e.IPAddress, e.RequestURL)
	}
	var meta map[string]string
	if err := json.Unmarshal([]byte(e.Metadata), &meta); err != nil || meta["permission"] != "users:write" {
		t.Errorf("metadata = %s (%v)", e.Metadata, err)
	}

	_, total, err = svc.List(ctx, model.EventLevelInfo, "", 10, 0)
	if err != nil || total != 1 {
		t.Errorf("info events total = %d, err %v", total, err)
	}
}

func TestEventServiceLogAccessDenied(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewEventService(db)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "viewer@example.com", model.RoleViewer)

	if err := svc.LogAccessDenied(ctx, user.ID, "203.0.113.9", "/api/admin/settings",
		map[string]any{"permission": model.PermSettingsWrite}); err != nil {
		t.Fatalf("LogAccessDenied: %v", err)
	}

	events, total, err := svc.List(ctx, "", model.EventCategoryAuth, 10, 0)
	if err != nil || total != 1 {
		t.Fatalf("auth events = %d, err %v", total, err)
	}
	if e := events[0]; e.RequestURL != "/api/admin/settings" || e.Level != model.EventLevelWarning {
		t.Errorf("event = %+v", e)
	}
	if _, total, _ := svc.List(ctx, "", model.EventCategorySecurity, 10, 0); total != 0 {
		t.Errorf("security events = %d, want 0", total)
	}
}

func TestEventServiceLogAuthWithoutUser(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewEventService(db)
	ctx := context.Background()

	if err := svc.LogAuth(ctx, model.EventLevelWarning, "login failed", 0, "198.51.100.4", nil); err != nil {
		t.Fatalf("LogAuth: %v", err)
	}
	events, _, err := svc.List(ctx, "", model.EventCategoryAuth, 10, 0)
	if err != nil || len(events) != 1 {
		t.Fatalf("List = %d events, err %v", len(events), err)
	}
	if events[0].UserID.Valid {
		t.Error("user_id should be NULL for anonymous events")
	}
	if events[0].Metadata != "{}" {
		t.Errorf("metadata = %q, want {}", events[0].Metadata)
	}
}

func TestEventServiceLogDeletedUser(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewEventService(db)
	ctx := context.Background()

	if err := svc.LogAccessDenied(ctx, 404, "198.51.100.4", "/api/admin/pages", nil); err != nil {
		t.Fatalf("LogAccessDenied for missing user: %v", err)
	}
	events, _, err := svc.List(ctx, "", model.EventCategoryAuth, 10, 0)
	if err != nil || len(events) != 1 {
		t.Fatalf("List = %d events, err %v", len(events), err)
	}
	if events[0].UserID.Valid {
		t.Errorf("UserID = %d, want NULL", events[0].UserID.Int64)
	}
}

func TestEventServiceDeleteOlderThan(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewEventService(db)
	ctx := context.Background()
	q := store.New(db)

	for _, age := range []time.Duration{100 * 24 * time.Hour, 91 * 24 * time.Hour, time.Hour} {
		if err := q.CreateEvent(ctx, store.CreateEventParams{
			Level:     model.EventLevelInfo,
			Category:  model.EventCategorySystem,
			Message:   "tick",
			Metadata:  "{}",
			CreatedAt: time.Now().UTC().Add(-age),
		}); err != nil {
			t.Fatal(err)
		}
	}

	n, err := svc.DeleteOlderThan(ctx, 90)
	if err != nil {
		t.Fatalf("DeleteOlderThan: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}
	_, total, _ := svc.List(ctx, "", "", 10, 0)
	if total != 1 {
		t.Errorf("remaining = %d, want 1", total)
	}
}

func TestAuditServiceRecordAndPrune(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewAuditService(db)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "editor@example.com", model.RoleEditor)

	if err := svc.Record(ctx, AuditEntry{
		UserID:       user.ID,
		Action:       model.AuditActionUpdate,
		ResourceType: model.ResourcePage,
		ResourceID:   "7",
		Details:      map[string]any{"slug": "about"},
		IPAddress:    "192.0.2.1",
		UserAgent:    "test",
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	logs, total, err := svc.List(ctx, store.AuditLogFilter{UserID: user.ID}, 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || logs[0].UserEmail.String != "editor@example.com" || logs[0].ResourceID.String != "7" {
		t.Errorf("logs = %+v", logs)
	}

	if _, err := svc.DeleteOlderThan(ctx, 0); !isValidation(err) {
		t.Errorf("DeleteOlderThan(0) err = %v, want validation error", err)
	}
	n, err := svc.DeleteOlderThan(ctx, 1)
	if err != nil || n != 0 {
		t.Errorf("DeleteOlderThan(1) = %d, %v; recent rows must survive", n, err)
	}
}
