package store

import (
	"context"
	"database/sql"
	"time"
)

const createAuditLog = `INSERT INTO audit_logs (
    user_id, action, resource_type, resource_id, details, ip_address, user_agent, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type CreateAuditLogParams struct {
	UserID       sql.NullInt64
	Action       string
	ResourceType string
	ResourceID   sql.NullString
	Details      string
	IPAddress    string
	UserAgent    string
	CreatedAt    time.Time
}

func (q *Queries) CreateAuditLog(ctx context.Context, arg CreateAuditLogParams) error {
	_, err := q.db.ExecContext(ctx, createAuditLog,
		arg.UserID,
		arg.Action,
		arg.ResourceType,
		arg.ResourceID,
		arg.Details,
		arg.IPAddress,
		arg.UserAgent,
		arg.CreatedAt,
	)
	return err
}

// AuditLogWithUser is an audit row joined with the actor's email.
type AuditLogWithUser struct {
	AuditLog
	UserEmail sql.NullString `json:"user_email"`
}

const auditLogFilter = `WHERE (?1 = 0 OR a.user_id = ?1)
  AND (?2 = '' OR a.action = ?2)
  AND (?3 = '' OR a.resource_type = ?3)
  AND (?4 = '' OR a.resource_id = ?4)
  AND (?5 IS NULL OR a.created_at >= ?5)
  AND (?6 IS NULL OR a.created_at < ?6)`

const listAuditLogs = `SELECT a.id, a.user_id, a.action, a.resource_type, a.resource_id, a.details,
    a.ip_address, a.user_agent, a.created_at, u.email
FROM audit_logs a
LEFT JOIN users u ON u.id = a.user_id
` + auditLogFilter + `
ORDER BY a.created_at DESC, a.id DESC
LIMIT ?7 OFFSET ?8`

type AuditLogFilter struct {
	UserID       int64
	Action       string
	ResourceType string
	ResourceID   string
	From         sql.NullTime
	To           sql.NullTime
}

func (f AuditLogFilter) args() []any {
	return []any{f.UserID, f.Action, f.ResourceType, f.ResourceID, f.From, f.To}
}

func (q *Queries) ListAuditLogs(ctx context.Context, f AuditLogFilter, limit, offset int64) ([]AuditLogWithUser, error) {
	rows, err := q.db.QueryContext(ctx, listAuditLogs, append(f.args(), limit, offset)...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := []AuditLogWithUser{}
	for rows.Next() {
		var i AuditLogWithUser
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Action,
			&i.ResourceType,
			&i.ResourceID,
			&i.Details,
			&i.IPAddress,
			&i.UserAgent,
			&i.CreatedAt,
			&i.UserEmail,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countAuditLogs = `SELECT COUNT(*) FROM audit_logs a ` + auditLogFilter

func (q *Queries) CountAuditLogs(ctx context.Context, f AuditLogFilter) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countAuditLogs, f.args()...).Scan(&count)
	return count, err
}

const deleteAuditLogsBefore = `DELETE FROM audit_logs WHERE created_at < ?`

func (q *Queries) DeleteAuditLogsBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteAuditLogsBefore, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
