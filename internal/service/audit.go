package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/olegiv/kpp-site/internal/store"
)

// AuditService records who changed what through the admin API.
type AuditService struct {
	queries *store.Queries
}

// NewAuditService creates a new AuditService.
func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{queries: store.New(db)}
}

// AuditEntry is one audit log row.
type AuditEntry struct {
	UserID       int64
	Action       string
	ResourceType string
	ResourceID   string
	Details      map[string]any
	IPAddress    string
	UserAgent    string
}

// Record appends an audit row. A failed write is logged and returned; callers
// usually ignore the error because the mutation itself already succeeded.
func (s *AuditService) Record(ctx context.Context, e AuditEntry) error {
	err := s.queries.CreateAuditLog(ctx, store.CreateAuditLogParams{
		UserID:       sql.NullInt64{Int64: e.UserID, Valid: e.UserID > 0},
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   sql.NullString{String: e.ResourceID, Valid: e.ResourceID != ""},
		Details:      marshalMetadata(e.Details),
		IPAddress:    e.IPAddress,
		UserAgent:    e.UserAgent,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		slog.Error("failed to write audit log",
			"error", err, "action", e.Action, "resource_type", e.ResourceType)
	}
	return err
}

// List returns matching audit rows, newest first, and the total count.
func (s *AuditService) List(ctx context.Context, f store.AuditLogFilter, limit, offset int64) ([]store.AuditLogWithUser, int64, error) {
	logs, err := s.queries.ListAuditLogs(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.queries.CountAuditLogs(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// DeleteOlderThan prunes rows older than days.
func (s *AuditService) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	if days < 1 {
		return 0, invalid("older_than_days", "must be at least 1")
	}
	return s.queries.DeleteAuditLogsBefore(ctx, cutoff(days))
}
