package store

import (
	"context"
	"database/sql"
	"time"
)

const contentVersionColumns = `id, content_type, content_id, version_number, data, change_summary, created_by, created_at`

func scanContentVersion(row rowScanner) (ContentVersion, error) {
	var i ContentVersion
	err := row.Scan(
		&i.ID,
		&i.ContentType,
		&i.ContentID,
		&i.VersionNumber,
		&i.Data,
		&i.ChangeSummary,
		&i.CreatedBy,
		&i.CreatedAt,
	)
	return i, err
}

// createContentVersion computes the next version number inside the INSERT
// itself, so callers inside a write transaction never observe a stale MAX.
const createContentVersion = `INSERT INTO content_versions (
    content_type, content_id, version_number, data, change_summary, created_by, created_at
)
SELECT ?1, ?2, COALESCE(MAX(version_number), 0) + 1, ?3, ?4, ?5, ?6
FROM content_versions
WHERE content_type = ?1 AND content_id = ?2
RETURNING ` + contentVersionColumns

type CreateContentVersionParams struct {
	ContentType   string
	ContentID     int64
	Data          string
	ChangeSummary string
	CreatedBy     sql.NullInt64
	CreatedAt     time.Time
}

func (q *Queries) CreateContentVersion(ctx context.Context, arg CreateContentVersionParams) (ContentVersion, error) {
	row := q.db.QueryRowContext(ctx, createContentVersion,
		arg.ContentType,
		arg.ContentID,
		arg.Data,
		arg.ChangeSummary,
		arg.CreatedBy,
		arg.CreatedAt,
	)
	return scanContentVersion(row)
}

const getContentVersion = `SELECT ` + contentVersionColumns + ` FROM content_versions
WHERE content_type = ? AND content_id = ? AND version_number = ?`

func (q *Queries) GetContentVersion(ctx context.Context, contentType string, contentID, version int64) (ContentVersion, error) {
	return scanContentVersion(q.db.QueryRowContext(ctx, getContentVersion, contentType, contentID, version))
}

const listContentVersions = `SELECT ` + contentVersionColumns + ` FROM content_versions
WHERE content_type = ? AND content_id = ?
ORDER BY version_number DESC
LIMIT ? OFFSET ?`

type ListContentVersionsParams struct {
	ContentType string
	ContentID   int64
	Limit       int64
	Offset      int64
}

func (q *Queries) ListContentVersions(ctx context.Context, arg ListContentVersionsParams) ([]ContentVersion, error) {
	rows, err := q.db.QueryContext(ctx, listContentVersions, arg.ContentType, arg.ContentID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := []ContentVersion{}
	for rows.Next() {
		i, err := scanContentVersion(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countContentVersions = `SELECT COUNT(*) FROM content_versions WHERE content_type = ? AND content_id = ?`

func (q *Queries) CountContentVersions(ctx context.Context, contentType string, contentID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countContentVersions, contentType, contentID).Scan(&count)
	return count, err
}

const deleteContentVersions = `DELETE FROM content_versions WHERE content_type = ? AND content_id = ?`

func (q *Queries) DeleteContentVersions(ctx context.Context, contentType string, contentID int64) error {
	_, err := q.db.ExecContext(ctx, deleteContentVersions, contentType, contentID)
	return err
}
