package store

import (
	"context"
	"database/sql"
	"time"
)

const projectColumns = `id, name, slug, summary, description, status, capacity_mw, location, budget, currency,
featured_image, is_featured, start_date, completion_date, sort_order, created_by, updated_by, created_at, updated_at`

func scanProject(row rowScanner) (Project, error) {
	var i Project
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Slug,
		&i.Summary,
		&i.Description,
		&i.Status,
		&i.CapacityMw,
		&i.Location,
		&i.Budget,
		&i.Currency,
		&i.FeaturedImage,
		&i.IsFeatured,
		&i.StartDate,
		&i.CompletionDate,
		&i.SortOrder,
		&i.CreatedBy,
		&i.UpdatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func collectProjects(rows *sql.Rows, err error) ([]Project, error) {
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := []Project{}
	for rows.Next() {
		i, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// ProjectFields are the editable columns shared by create and update.
type ProjectFields struct {
	Name           string
	Slug           string
	Summary        string
	Description    string
	Status         string
	CapacityMw     sql.NullFloat64
	Location       string
	Budget         sql.NullFloat64
	Currency       string
	FeaturedImage  string
	IsFeatured     bool
	StartDate      sql.NullString
	CompletionDate sql.NullString
	SortOrder      int64
}

const createProject = `INSERT INTO projects (
    name, slug, summary, description, status, capacity_mw, location, budget, currency,
    featured_image, is_featured, start_date, completion_date, sort_order,
    created_by, updated_by, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + projectColumns

type CreateProjectParams struct {
	ProjectFields
	CreatedBy sql.NullInt64
	CreatedAt time.Time
}

func (q *Queries) CreateProject(ctx context.Context, arg CreateProjectParams) (Project, error) {
	f := arg.ProjectFields
	row := q.db.QueryRowContext(ctx, createProject,
		f.Name,
		f.Slug,
		f.Summary,
		f.Description,
		f.Status,
		f.CapacityMw,
		f.Location,
		f.Budget,
		f.Currency,
		f.FeaturedImage,
		f.IsFeatured,
		f.StartDate,
		f.CompletionDate,
		f.SortOrder,
		arg.CreatedBy,
		arg.CreatedBy,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	return scanProject(row)
}

const getProject = `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`

func (q *Queries) GetProject(ctx context.Context, id int64) (Project, error) {
	return scanProject(q.db.QueryRowContext(ctx, getProject, id))
}

const getProjectBySlug = `SELECT ` + projectColumns + ` FROM projects WHERE slug = ?`

func (q *Queries) GetProjectBySlug(ctx context.Context, slug string) (Project, error) {
	return scanProject(q.db.QueryRowContext(ctx, getProjectBySlug, slug))
}

const projectSlugTaken = `SELECT EXISTS (SELECT 1 FROM projects WHERE slug = ? AND id != ?)`

// ProjectSlugTaken reports whether another project (id excluded) uses slug.
func (q *Queries) ProjectSlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var ok bool
	err := q.db.QueryRowContext(ctx, projectSlugTaken, slug, excludeID).Scan(&ok)
	return ok, err
}

const listProjects = `SELECT ` + projectColumns + ` FROM projects
WHERE (?1 = '' OR status = ?1)
  AND (?2 = '' OR name LIKE ?2 ESCAPE '\' OR location LIKE ?2 ESCAPE '\')
  AND (?3 = 0 OR is_featured = 1)
ORDER BY sort_order, name, id
LIMIT ?4 OFFSET ?5`

type ListProjectsParams struct {
	Status       string
	Search       string
	FeaturedOnly bool
	Limit        int64
	Offset       int64
}

func (q *Queries) ListProjects(ctx context.Context, arg ListProjectsParams) ([]Project, error) {
	return collectProjects(q.db.QueryContext(ctx, listProjects,
		arg.Status, likePattern(arg.Search), arg.FeaturedOnly, arg.Limit, arg.Offset))
}

const countProjects = `SELECT COUNT(*) FROM projects
WHERE (?1 = '' OR status = ?1)
  AND (?2 = '' OR name LIKE ?2 ESCAPE '\' OR location LIKE ?2 ESCAPE '\')
  AND (?3 = 0 OR is_featured = 1)`

type CountProjectsParams struct {
	Status       string
	Search       string
	FeaturedOnly bool
}

func (q *Queries) CountProjects(ctx context.Context, arg CountProjectsParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countProjects, arg.Status, likePattern(arg.Search), arg.FeaturedOnly).Scan(&count)
	return count, err
}

const updateProject = `UPDATE projects SET
    name = ?, slug = ?, summary = ?, description = ?, status = ?, capacity_mw = ?, location = ?,
    budget = ?, currency = ?, featured_image = ?, is_featured = ?, start_date = ?, completion_date = ?,
    sort_order = ?, updated_by = ?, updated_at = ?
WHERE id = ?
RETURNING ` + projectColumns

type UpdateProjectParams struct {
	ProjectFields
	UpdatedBy sql.NullInt64
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) UpdateProject(ctx context.Context, arg UpdateProjectParams) (Project, error) {
	f := arg.ProjectFields
	row := q.db.QueryRowContext(ctx, updateProject,
		f.Name,
		f.Slug,
		f.Summary,
		f.Description,
		f.Status,
		f.CapacityMw,
		f.Location,
		f.Budget,
		f.Currency,
		f.FeaturedImage,
		f.IsFeatured,
		f.StartDate,
		f.CompletionDate,
		f.SortOrder,
		arg.UpdatedBy,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanProject(row)
}

const deleteProject = `DELETE FROM projects WHERE id = ?`

func (q *Queries) DeleteProject(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteProject, id)
	return err
}

const projectTotals = `SELECT COUNT(*), COALESCE(SUM(capacity_mw), 0),
    COALESCE(SUM(CASE WHEN status = 'operational' THEN capacity_mw ELSE 0 END), 0)
FROM projects`

// ProjectTotals summarises the portfolio for the dashboard and the public projects page.
type ProjectTotals struct {
	Count               int64   `json:"count"`
	TotalCapacityMw     float64 `json:"total_capacity_mw"`
	OperationalCapacity float64 `json:"operational_capacity_mw"`
}

func (q *Queries) GetProjectTotals(ctx context.Context) (ProjectTotals, error) {
	var t ProjectTotals
	err := q.db.QueryRowContext(ctx, projectTotals).Scan(&t.Count, &t.TotalCapacityMw, &t.OperationalCapacity)
	return t, err
}
