package store

import (
	"context"
	"database/sql"
	"time"
)

const mediaColumns = `id, filename, original_name, storage_path, mime_type, size, width, height,
alt_text, tags, thumbnail_path, uploaded_by, created_at, updated_at`

func scanMedium(row rowScanner) (Medium, error) {
	var i Medium
	err := row.Scan(
		&i.ID,
		&i.Filename,
		&i.OriginalName,
		&i.StoragePath,
		&i.MimeType,
		&i.Size,
		&i.Width,
		&i.Height,
		&i.AltText,
		&i.Tags,
		&i.ThumbnailPath,
		&i.UploadedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createMedia = `INSERT INTO media (
    filename, original_name, storage_path, mime_type, size, width, height,
    alt_text, tags, thumbnail_path, uploaded_by, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + mediaColumns

type CreateMediaParams struct {
	Filename      string
	OriginalName  string
	StoragePath   string
	MimeType      string
	Size          int64
	Width         sql.NullInt64
	Height        sql.NullInt64
	AltText       string
	Tags          string
	ThumbnailPath sql.NullString
	UploadedBy    sql.NullInt64
	CreatedAt     time.Time
}

func (q *Queries) CreateMedia(ctx context.Context, arg CreateMediaParams) (Medium, error) {
	row := q.db.QueryRowContext(ctx, createMedia,
		arg.Filename,
		arg.OriginalName,
		arg.StoragePath,
		arg.MimeType,
		arg.Size,
		arg.Width,
		arg.Height,
		arg.AltText,
		arg.Tags,
		arg.ThumbnailPath,
		arg.UploadedBy,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	return scanMedium(row)
}

const getMedia = `SELECT ` + mediaColumns + ` FROM media WHERE id = ?`

func (q *Queries) GetMedia(ctx context.Context, id int64) (Medium, error) {
	return scanMedium(q.db.QueryRowContext(ctx, getMedia, id))
}

// mediaFilter matches on a MIME prefix (e.g. "image/"), a tag inside the JSON
// tag list, and a filename search term.
const mediaFilter = `WHERE (?1 = '' OR mime_type LIKE ?1 || '%')
  AND (?2 = '' OR EXISTS (SELECT 1 FROM json_each(media.tags) WHERE json_each.value = ?2))
  AND (?3 = '' OR filename LIKE ?3 ESCAPE '\' OR original_name LIKE ?3 ESCAPE '\' OR alt_text LIKE ?3 ESCAPE '\')`

const listMedia = `SELECT ` + mediaColumns + ` FROM media ` + mediaFilter + `
ORDER BY created_at DESC, id DESC
LIMIT ?4 OFFSET ?5`

type ListMediaParams struct {
	MimePrefix string
	Tag        string
	Search     string
	Limit      int64
	Offset     int64
}

func (q *Queries) ListMedia(ctx context.Context, arg ListMediaParams) ([]Medium, error) {
	rows, err := q.db.QueryContext(ctx, listMedia,
		arg.MimePrefix, arg.Tag, likePattern(arg.Search), arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := []Medium{}
	for rows.Next() {
		i, err := scanMedium(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countMedia = `SELECT COUNT(*) FROM media ` + mediaFilter

type CountMediaParams struct {
	MimePrefix string
	Tag        string
	Search     string
}

func (q *Queries) CountMedia(ctx context.Context, arg CountMediaParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countMedia, arg.MimePrefix, arg.Tag, likePattern(arg.Search)).Scan(&count)
	return count, err
}

const updateMedia = `UPDATE media SET alt_text = ?, tags = ?, updated_at = ? WHERE id = ?
RETURNING ` + mediaColumns

type UpdateMediaParams struct {
	AltText   string
	Tags      string
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) UpdateMedia(ctx context.Context, arg UpdateMediaParams) (Medium, error) {
	return scanMedium(q.db.QueryRowContext(ctx, updateMedia, arg.AltText, arg.Tags, arg.UpdatedAt, arg.ID))
}

const deleteMedia = `DELETE FROM media WHERE id = ?`

func (q *Queries) DeleteMedia(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteMedia, id)
	return err
}

const mediaStorageTotals = `SELECT COUNT(*), COALESCE(SUM(size), 0) FROM media`

// GetMediaTotals returns the number of media files and their combined size in bytes.
func (q *Queries) GetMediaTotals(ctx context.Context) (count, bytes int64, err error) {
	err = q.db.QueryRowContext(ctx, mediaStorageTotals).Scan(&count, &bytes)
	return count, bytes, err
}
