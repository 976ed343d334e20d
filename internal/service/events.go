// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds the business logic behind the admin API and the
// public site: content versioning, media, users, analytics, backups and the
// audit and event logs.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/store"
)

// EventService writes rows to the system event log.
type EventService struct {
	queries *store.Queries
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{queries: store.New(db)}
}

// EventEntry is one event log row to write.
type EventEntry struct {
	Level      string
	Category   string
	Message    string
	UserID     int64
	IPAddress  string
	RequestURL string
	Metadata   map[string]any
}

// Log writes an event. An event naming a user that no longer exists is
// stored without the user. Failures are reported through slog at DEBUG so a
// broken events table cannot recurse through the event log handler.
func (s *EventService) Log(ctx context.Context, e EventEntry) error {
	params := store.CreateEventParams{
		Level:      e.Level,
		Category:   e.Category,
		Message:    e.Message,
		UserID:     sql.NullInt64{Int64: e.UserID, Valid: e.UserID > 0},
		IPAddress:  e.IPAddress,
		RequestURL: e.RequestURL,
		Metadata:   marshalMetadata(e.Metadata),
		CreatedAt:  time.Now().UTC(),
	}
	err := s.queries.CreateEvent(ctx, params)
	if params.UserID.Valid && store.IsForeignKeyViolation(err) {
		params.UserID = sql.NullInt64{}
		err = s.queries.CreateEvent(ctx, params)
	}
	if err != nil {
		slog.Debug("failed to write event", "error", err)
	}
	return err
}

// LogSecurity records a security event such as an account lockout.
func (s *EventService) LogSecurity(ctx context.Context, message string, userID int64, ip, url string, metadata map[string]any) error {
	return s.Log(ctx, EventEntry{
		Level:      model.EventLevelWarning,
		Category:   model.EventCategorySecurity,
		Message:    message,
		UserID:     userID,
		IPAddress:  ip,
		RequestURL: url,
		Metadata:   metadata,
	})
}

// LogAccessDenied records a request refused by a role or permission check
// as an auth event.
func (s *EventService) LogAccessDenied(ctx context.Context, userID int64, ip, url string, metadata map[string]any) error {
	return s.Log(ctx, EventEntry{
		Level:      model.EventLevelWarning,
		Category:   model.EventCategoryAuth,
		Message:    "Access denied: insufficient permissions",
		UserID:     userID,
		IPAddress:  ip,
		RequestURL: url,
		Metadata:   metadata,
	})
}

// LogAuth records a login, logout or token event.
func (s *EventService) LogAuth(ctx context.Context, level, message string, userID int64, ip string, metadata map[string]any) error {
	return s.Log(ctx, EventEntry{
		Level:     level,
		Category:  model.EventCategoryAuth,
		Message:   message,
		UserID:    userID,
		IPAddress: ip,
		Metadata:  metadata,
	})
}

// LogSystem records a background job event.
func (s *EventService) LogSystem(ctx context.Context, level, category, message string, metadata map[string]any) error {
	return s.Log(ctx, EventEntry{
		Level:    level,
		Category: category,
		Message:  message,
		Metadata: metadata,
	})
}

// List returns events filtered by level and category, newest first.
func (s *EventService) List(ctx context.Context, level, category string, limit, offset int64) ([]store.Event, int64, error) {
	events, err := s.queries.ListEvents(ctx, store.ListEventsParams{
		Level: level, Category: category, Limit: limit, Offset: offset,
	})
	if err != nil {
		return nil, 0, err
	}
	total, err := s.queries.CountEvents(ctx, level, category)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// DeleteOlderThan prunes events older than days and returns the number removed.
func (s *EventService) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	return s.queries.DeleteEventsBefore(ctx, cutoff(days))
}

func marshalMetadata(m map[string]any) string {
	if len(m) == 0 {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// cutoff returns the UTC instant days ago.
func cutoff(days int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -days)
}
