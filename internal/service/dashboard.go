// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/olegiv/kpp-site/internal/store"
)

const recentActivityLimit = 10

// Dashboard is the landing view of the admin API.
type Dashboard struct {
	Pages          map[string]int64         `json:"pages"`
	Projects       store.ProjectTotals      `json:"projects"`
	Media          int64                    `json:"media"`
	Users          int64                    `json:"users"`
	UnreadMessages int64                    `json:"unread_messages"`
	ActiveVisitors int64                    `json:"active_visitors"`
	Last7Days      store.AnalyticsTotals    `json:"last_7_days"`
	RecentActivity []store.AuditLogWithUser `json:"recent_activity"`
}

// DashboardService gathers counts from the other tables.
type DashboardService struct {
	queries *store.Queries
}

// NewDashboardService creates a DashboardService.
func NewDashboardService(db *sql.DB) *DashboardService {
	return &DashboardService{queries: store.New(db)}
}

// Build collects the dashboard counters and the latest audit entries.
func (s *DashboardService) Build(ctx context.Context) (Dashboard, error) {
	var (
		d   Dashboard
		err error
	)
	now := time.Now().UTC()

	if d.Pages, err = s.queries.CountPagesByStatus(ctx); err != nil {
		return Dashboard{}, fmt.Errorf("counting pages: %w", err)
	}
	if d.Projects, err = s.queries.GetProjectTotals(ctx); err != nil {
		return Dashboard{}, fmt.Errorf("project totals: %w", err)
	}
	if d.Media, err = s.queries.CountMedia(ctx, store.CountMediaParams{}); err != nil {
		return Dashboard{}, fmt.Errorf("counting media: %w", err)
	}
	if d.Users, err = s.queries.CountUsers(ctx, store.CountUsersParams{}); err != nil {
		return Dashboard{}, fmt.Errorf("counting users: %w", err)
	}
	if d.UnreadMessages, err = s.queries.CountContactMessages(ctx, true); err != nil {
		return Dashboard{}, fmt.Errorf("counting messages: %w", err)
	}
	if d.ActiveVisitors, err = s.queries.CountActiveVisitors(ctx, now.Add(-5*time.Minute)); err != nil {
		return Dashboard{}, fmt.Errorf("counting active visitors: %w", err)
	}
	if d.Last7Days, err = s.queries.GetAnalyticsTotals(ctx, now.AddDate(0, 0, -7)); err != nil {
		return Dashboard{}, fmt.Errorf("analytics totals: %w", err)
	}
	if d.RecentActivity, err = s.queries.ListAuditLogs(ctx, store.AuditLogFilter{}, recentActivityLimit, 0); err != nil {
		return Dashboard{}, fmt.Errorf("recent activity: %w", err)
	}
	return d, nil
}
