package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/store"
)

// ListAuditLogs handles GET /api/admin/audit-logs with optional user_id,
// action, resource_type, resource_id, from and to filters. from and to
// accept YYYY-MM-DD or RFC 3339; a bare "to" date includes that whole day.
func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.AuditLogFilter{
		Action:       q.Get("action"),
		ResourceType: q.Get("resource_type"),
		ResourceID:   q.Get("resource_id"),
	}
	if raw := q.Get("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			WriteBadRequest(w, "Invalid user_id")
			return
		}
		f.UserID = id
	}
	var err error
	if f.From, err = parseTimeParam(q.Get("from"), false); err != nil {
		WriteBadRequest(w, "Invalid from date")
		return
	}
	if f.To, err = parseTimeParam(q.Get("to"), true); err != nil {
		WriteBadRequest(w, "Invalid to date")
		return
	}

	page, perPage, limit, offset := parsePagination(r)
	logs, total, err := h.audit.List(r.Context(), f, limit, offset)
	if err != nil {
		writeServiceError(w, r, err, "list audit logs")
		return
	}
	WriteSuccess(w, auditLogResponses(logs), newMeta(total, page, perPage))
}

func parseTimeParam(raw string, endOfDay bool) (sql.NullTime, error) {
	if raw == "" {
		return sql.NullTime{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return sql.NullTime{Time: t.UTC(), Valid: true}, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return sql.NullTime{}, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1)
	}
	return sql.NullTime{Time: t, Valid: true}, nil
}

// DeleteAuditLogs handles DELETE /api/admin/audit-logs?older_than_days=N.
// The prune itself is audited.
func (h *Handler) DeleteAuditLogs(w http.ResponseWriter, r *http.Request) {
	days, err := parseDaysParam(r, "older_than_days", 0)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	n, err := h.audit.DeleteOlderThan(r.Context(), days)
	if err != nil {
		writeServiceError(w, r, err, "delete audit logs")
		return
	}
	h.recordAudit(r, model.AuditActionPrune, model.ResourceAuditLog, nil,
		map[string]any{"older_than_days": days, "deleted": n})
	WriteSuccess(w, map[string]int64{"deleted": n}, nil)
}

// ListEvents handles GET /api/admin/logs?level=&category=
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	page, perPage, limit, offset := parsePagination(r)
	events, total, err := h.events.List(r.Context(), r.URL.Query().Get("level"), r.URL.Query().Get("category"), limit, offset)
	if err != nil {
		writeServiceError(w, r, err, "list logs")
		return
	}
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse(e))
	}
	WriteSuccess(w, out, newMeta(total, page, perPage))
}
