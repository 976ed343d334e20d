package store

import (
	"context"
	"database/sql"
	"time"
)

const pageColumns = `id, slug, title, content, meta_title, meta_description, meta_keywords, og_image,
status, created_by, updated_by, published_at, created_at, updated_at`

func scanPage(row rowScanner) (Page, error) {
	var i Page
	err := row.Scan(
		&i.ID,
		&i.Slug,
		&i.Title,
		&i.Content,
		&i.MetaTitle,
		&i.MetaDescription,
		&i.MetaKeywords,
		&i.OgImage,
		&i.Status,
		&i.CreatedBy,
		&i.UpdatedBy,
		&i.PublishedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func collectPages(rows *sql.Rows, err error) ([]Page, error) {
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := []Page{}
	for rows.Next() {
		i, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createPage = `INSERT INTO pages (
    slug, title, content, meta_title, meta_description, meta_keywords, og_image,
    status, created_by, updated_by, published_at, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + pageColumns

type CreatePageParams struct {
	Slug            string
	Title           string
	Content         string
	MetaTitle       string
	MetaDescription string
	MetaKeywords    string
	OgImage         string
	Status          string
	CreatedBy       sql.NullInt64
	PublishedAt     sql.NullTime
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (q *Queries) CreatePage(ctx context.Context, arg CreatePageParams) (Page, error) {
	row := q.db.QueryRowContext(ctx, createPage,
		arg.Slug,
		arg.Title,
		arg.Content,
		arg.MetaTitle,
		arg.MetaDescription,
		arg.MetaKeywords,
		arg.OgImage,
		arg.Status,
		arg.CreatedBy,
		arg.CreatedBy,
		arg.PublishedAt,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanPage(row)
}

const getPage = `SELECT ` + pageColumns + ` FROM pages WHERE id = ?`

func (q *Queries) GetPage(ctx context.Context, id int64) (Page, error) {
	return scanPage(q.db.QueryRowContext(ctx, getPage, id))
}

const getPageBySlug = `SELECT ` + pageColumns + ` FROM pages WHERE slug = ?`

func (q *Queries) GetPageBySlug(ctx context.Context, slug string) (Page, error) {
	return scanPage(q.db.QueryRowContext(ctx, getPageBySlug, slug))
}

const getPublishedPageBySlug = `SELECT ` + pageColumns + ` FROM pages WHERE slug = ? AND status = 'published'`

func (q *Queries) GetPublishedPageBySlug(ctx context.Context, slug string) (Page, error) {
	return scanPage(q.db.QueryRowContext(ctx, getPublishedPageBySlug, slug))
}

const pageExistsBySlug = `SELECT EXISTS (SELECT 1 FROM pages WHERE slug = ? AND id != ?)`

// PageSlugTaken reports whether another page (id excluded) uses slug.
func (q *Queries) PageSlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var ok bool
	err := q.db.QueryRowContext(ctx, pageExistsBySlug, slug, excludeID).Scan(&ok)
	return ok, err
}

const listPages = `SELECT ` + pageColumns + ` FROM pages
WHERE (?1 = '' OR status = ?1)
  AND (?2 = '' OR title LIKE ?2 ESCAPE '\' OR slug LIKE ?2 ESCAPE '\')
ORDER BY updated_at DESC, id DESC
LIMIT ?3 OFFSET ?4`

type ListPagesParams struct {
	Status string
	Search string
	Limit  int64
	Offset int64
}

func (q *Queries) ListPages(ctx context.Context, arg ListPagesParams) ([]Page, error) {
	return collectPages(q.db.QueryContext(ctx, listPages, arg.Status, likePattern(arg.Search), arg.Limit, arg.Offset))
}

const countPages = `SELECT COUNT(*) FROM pages
WHERE (?1 = '' OR status = ?1)
  AND (?2 = '' OR title LIKE ?2 ESCAPE '\' OR slug LIKE ?2 ESCAPE '\')`

type CountPagesParams struct {
	Status string
	Search string
}

func (q *Queries) CountPages(ctx context.Context, arg CountPagesParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPages, arg.Status, likePattern(arg.Search)).Scan(&count)
	return count, err
}

const listPublishedPages = `SELECT ` + pageColumns + ` FROM pages WHERE status = 'published' ORDER BY slug`

func (q *Queries) ListPublishedPages(ctx context.Context) ([]Page, error) {
	return collectPages(q.db.QueryContext(ctx, listPublishedPages))
}

const updatePage = `UPDATE pages SET
    slug = ?, title = ?, content = ?, meta_title = ?, meta_description = ?, meta_keywords = ?,
    og_image = ?, status = ?, updated_by = ?, published_at = ?, updated_at = ?
WHERE id = ?
RETURNING ` + pageColumns

type UpdatePageParams struct {
	Slug            string
	Title           string
	Content         string
	MetaTitle       string
	MetaDescription string
	MetaKeywords    string
	OgImage         string
	Status          string
	UpdatedBy       sql.NullInt64
	PublishedAt     sql.NullTime
	UpdatedAt       time.Time
	ID              int64
}

func (q *Queries) UpdatePage(ctx context.Context, arg UpdatePageParams) (Page, error) {
	row := q.db.QueryRowContext(ctx, updatePage,
		arg.Slug,
		arg.Title,
		arg.Content,
		arg.MetaTitle,
		arg.MetaDescription,
		arg.MetaKeywords,
		arg.OgImage,
		arg.Status,
		arg.UpdatedBy,
		arg.PublishedAt,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanPage(row)
}

const deletePage = `DELETE FROM pages WHERE id = ?`

func (q *Queries) DeletePage(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deletePage, id)
	return err
}

const countPagesByStatus = `SELECT status, COUNT(*) FROM pages GROUP BY status`

// CountPagesByStatus returns page counts keyed by status.
func (q *Queries) CountPagesByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := q.db.QueryContext(ctx, countPagesByStatus)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := map[string]int64{}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}
