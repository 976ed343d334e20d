// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/olegiv/kpp-site/internal/cache"
	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/store"
	"github.com/olegiv/kpp-site/internal/util"
)

const (
	maxTitleLength   = 200
	maxSummaryLength = 500
	publicListLimit  = 500
)

// reservedSlugs collide with fixed routes of the public site.
var reservedSlugs = map[string]bool{
	"api":     true,
	"static":  true,
	"uploads": true,
	"health":  true,
	"contact": true,
}

var currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// ContentService manages pages and projects together with their version
// history, and serves the cached copies the public site reads.
type ContentService struct {
	db      *sql.DB
	queries *store.Queries
	cache   *cache.Manager
}

// NewContentService creates a ContentService. cm may be nil.
func NewContentService(db *sql.DB, cm *cache.Manager) *ContentService {
	return &ContentService{db: db, queries: store.New(db), cache: cm}
}

// PageInput carries page fields from the admin API. Nil fields keep their
// current value on update and take the default on create.
type PageInput struct {
	Slug            *string         `json:"slug"`
	Title           *string         `json:"title"`
	Content         json.RawMessage `json:"content"`
	MetaTitle       *string         `json:"meta_title"`
	MetaDescription *string         `json:"meta_description"`
	MetaKeywords    *string         `json:"meta_keywords"`
	OgImage         *string         `json:"og_image"`
	Status          *string         `json:"status"`
	ChangeSummary   string          `json:"change_summary"`
}

// ProjectInput carries project fields from the admin API. Nil fields keep
// their current value on update. Empty date strings clear the date.
type ProjectInput struct {
	Name           *string  `json:"name"`
	Slug           *string  `json:"slug"`
	Summary        *string  `json:"summary"`
	Description    *string  `json:"description"`
	Status         *string  `json:"status"`
	CapacityMw     *float64 `json:"capacity_mw"`
	Location       *string  `json:"location"`
	Budget         *float64 `json:"budget"`
	Currency       *string  `json:"currency"`
	FeaturedImage  *string  `json:"featured_image"`
	IsFeatured     *bool    `json:"is_featured"`
	StartDate      *string  `json:"start_date"`
	CompletionDate *string  `json:"completion_date"`
	SortOrder      *int64   `json:"sort_order"`
	ChangeSummary  string   `json:"change_summary"`
}

// PageFilter narrows ListPages.
type PageFilter struct {
	Status string
	Search string
}

// ProjectFilter narrows ListProjects.
type ProjectFilter struct {
	Status       string
	Search       string
	FeaturedOnly bool
}

// ---- pages ----

// ListPages returns one page of pages and the total matching count.
func (s *ContentService) ListPages(ctx context.Context, f PageFilter, limit, offset int64) ([]store.Page, int64, error) {
	if f.Status != "" && !model.IsValidPageStatus(f.Status) {
		return nil, 0, invalid("status", "unknown status %q", f.Status)
	}
	pages, err := s.queries.ListPages(ctx, store.ListPagesParams{
		Status: f.Status, Search: f.Search, Limit: limit, Offset: offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing pages: %w", err)
	}
	total, err := s.queries.CountPages(ctx, store.CountPagesParams{Status: f.Status, Search: f.Search})
	if err != nil {
		return nil, 0, fmt.Errorf("counting pages: %w", err)
	}
	return pages, total, nil
}

// GetPage returns a page by ID.
func (s *ContentService) GetPage(ctx context.Context, id int64) (store.Page, error) {
	p, err := s.queries.GetPage(ctx, id)
	if err != nil {
		return store.Page{}, storeErr(err, "page")
	}
	return p, nil
}

// CreatePage validates in and inserts a new page.
func (s *ContentService) CreatePage(ctx context.Context, in PageInput, actorID int64) (store.Page, error) {
	var cur store.Page
	cur.Status = model.PageStatusDraft
	next, err := applyPageInput(cur, in)
	if err != nil {
		return store.Page{}, err
	}

	taken, err := s.queries.PageSlugTaken(ctx, next.Slug, 0)
	if err != nil {
		return store.Page{}, fmt.Errorf("checking slug: %w", err)
	}
	if taken {
		return store.Page{}, conflict("a page with slug %q already exists", next.Slug)
	}

	now := time.Now().UTC()
	page, err := s.queries.CreatePage(ctx, store.CreatePageParams{
		Slug:            next.Slug,
		Title:           next.Title,
		Content:         next.Content,
		MetaTitle:       next.MetaTitle,
		MetaDescription: next.MetaDescription,
		MetaKeywords:    next.MetaKeywords,
		OgImage:         next.OgImage,
		Status:          next.Status,
		CreatedBy:       nullID(actorID),
		PublishedAt:     publishedAt(sql.NullTime{}, next.Status, now),
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return store.Page{}, storeErr(err, "page")
	}

	slog.Info("page created", "page_id", page.ID, "slug", page.Slug, "created_by", actorID)
	s.invalidatePages(ctx, page.Slug)
	return page, nil
}

// UpdatePage applies in to a page, snapshotting its previous state as a new
// version in the same transaction.
func (s *ContentService) UpdatePage(ctx context.Context, id int64, in PageInput, actorID int64) (store.Page, error) {
	summary := in.ChangeSummary
	if summary == "" {
		summary = "Updated"
	}
	return s.rewritePage(ctx, id, actorID, summary, func(cur store.Page) (store.Page, error) {
		return applyPageInput(cur, in)
	})
}

// SetPageStatus publishes or unpublishes a page.
func (s *ContentService) SetPageStatus(ctx context.Context, id int64, status string, actorID int64) (store.Page, error) {
	if !model.IsValidPageStatus(status) {
		return store.Page{}, invalid("status", "unknown status %q", status)
	}
	summary := "Status changed to " + status
	return s.rewritePage(ctx, id, actorID, summary, func(cur store.Page) (store.Page, error) {
		cur.Status = status
		return cur, nil
	})
}

// RestorePageVersion brings back the page fields stored in version. The
// current state is snapshotted first, so a restore is itself undoable. The
// page keeps its current status.
func (s *ContentService) RestorePageVersion(ctx context.Context, id, version, actorID int64) (store.Page, error) {
	var (
		restored store.Page
		prevSlug string
	)
	summary := fmt.Sprintf("Restored version %d", version)

	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		v, err := q.GetContentVersion(ctx, model.ContentTypePage, id, version)
		if err != nil {
			return storeErr(err, "version")
		}
		var old store.Page
		if err := json.Unmarshal([]byte(v.Data), &old); err != nil {
			return fmt.Errorf("decoding version %d: %w", version, err)
		}
		prevSlug, restored, err = s.rewritePageTx(ctx, q, id, actorID, summary, func(cur store.Page) (store.Page, error) {
			old.Status = cur.Status
			old.PublishedAt = cur.PublishedAt
			return old, nil
		})
		return err
	})
	if err != nil {
		return store.Page{}, err
	}
	s.invalidatePages(ctx, prevSlug, restored.Slug)
	slog.Info("page version restored", "page_id", id, "version", version, "restored_by", actorID)
	return restored, nil
}

// DeletePage removes a page and its version history.
func (s *ContentService) DeletePage(ctx context.Context, id, actorID int64) (store.Page, error) {
	var page store.Page
	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		if page, err = q.GetPage(ctx, id); err != nil {
			return storeErr(err, "page")
		}
		if err := q.DeleteContentVersions(ctx, model.ContentTypePage, id); err != nil {
			return fmt.Errorf("deleting versions: %w", err)
		}
		return q.DeletePage(ctx, id)
	})
	if err != nil {
		return store.Page{}, err
	}
	slog.Info("page deleted", "page_id", id, "slug", page.Slug, "deleted_by", actorID)
	s.invalidatePages(ctx, page.Slug)
	return page, nil
}

func (s *ContentService) rewritePage(ctx context.Context, id, actorID int64, summary string, mutate func(store.Page) (store.Page, error)) (store.Page, error) {
	var (
		updated  store.Page
		prevSlug string
	)
	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		prevSlug, updated, err = s.rewritePageTx(ctx, q, id, actorID, summary, mutate)
		return err
	})
	if err != nil {
		return store.Page{}, err
	}
	s.invalidatePages(ctx, prevSlug, updated.Slug)
	slog.Info("page updated", "page_id", id, "slug", updated.Slug, "updated_by", actorID)
	return updated, nil
}

// rewritePageTx snapshots the current page and writes the mutated one. It
// returns the previous slug so the caller can drop both cache entries once
// the transaction commits.
func (s *ContentService) rewritePageTx(ctx context.Context, q *store.Queries, id, actorID int64, summary string, mutate func(store.Page) (store.Page, error)) (string, store.Page, error) {
	cur, err := q.GetPage(ctx, id)
	if err != nil {
		return "", store.Page{}, storeErr(err, "page")
	}
	next, err := mutate(cur)
	if err != nil {
		return "", store.Page{}, err
	}
	if err := validatePage(&next); err != nil {
		return "", store.Page{}, err
	}
	if next.Slug != cur.Slug {
		taken, err := q.PageSlugTaken(ctx, next.Slug, id)
		if err != nil {
			return "", store.Page{}, fmt.Errorf("checking slug: %w", err)
		}
		if taken {
			return "", store.Page{}, conflict("a page with slug %q already exists", next.Slug)
		}
	}

	if err := snapshot(ctx, q, model.ContentTypePage, id, cur, summary, actorID); err != nil {
		return "", store.Page{}, err
	}

	now := time.Now().UTC()
	updated, err := q.UpdatePage(ctx, store.UpdatePageParams{
		Slug:            next.Slug,
		Title:           next.Title,
		Content:         next.Content,
		MetaTitle:       next.MetaTitle,
		MetaDescription: next.MetaDescription,
		MetaKeywords:    next.MetaKeywords,
		OgImage:         next.OgImage,
		Status:          next.Status,
		UpdatedBy:       nullID(actorID),
		PublishedAt:     publishedAt(cur.PublishedAt, next.Status, now),
		UpdatedAt:       now,
		ID:              id,
	})
	if err != nil {
		return "", store.Page{}, storeErr(err, "page")
	}
	return cur.Slug, updated, nil
}

func applyPageInput(p store.Page, in PageInput) (store.Page, error) {
	setString(&p.Title, in.Title)
	setString(&p.Slug, in.Slug)
	setString(&p.MetaTitle, in.MetaTitle)
	setString(&p.MetaDescription, in.MetaDescription)
	setString(&p.MetaKeywords, in.MetaKeywords)
	setString(&p.OgImage, in.OgImage)
	setString(&p.Status, in.Status)
	if in.Content != nil || p.Content == "" {
		content, err := model.NormalizeContentJSON(in.Content)
		if err != nil {
			return p, invalid("content", "%v", err)
		}
		p.Content = content
	}
	if p.Slug == "" {
		p.Slug = util.Slugify(p.Title)
	}
	return p, validatePage(&p)
}

func validatePage(p *store.Page) error {
	p.Title = strings.TrimSpace(p.Title)
	p.Slug = strings.TrimSpace(p.Slug)
	switch {
	case p.Title == "":
		return invalid("title", "is required")
	case len(p.Title) > maxTitleLength:
		return invalid("title", "must be at most %d characters", maxTitleLength)
	case !util.IsValidSlug(p.Slug):
		return invalid("slug", "must contain only lowercase letters, numbers and single hyphens")
	case reservedSlugs[p.Slug]:
		return invalid("slug", "%q is reserved", p.Slug)
	case !model.IsValidPageStatus(p.Status):
		return invalid("status", "unknown status %q", p.Status)
	}
	return nil
}

// publishedAt keeps the first publication time, stamps now on first publish
// and leaves it unset for pages that were never published.
func publishedAt(prev sql.NullTime, status string, now time.Time) sql.NullTime {
	if prev.Valid {
		return prev
	}
	if status == model.PageStatusPublished {
		return sql.NullTime{Time: now, Valid: true}
	}
	return sql.NullTime{}
}

// ---- projects ----

// ListProjects returns one page of projects and the total matching count.
func (s *ContentService) ListProjects(ctx context.Context, f ProjectFilter, limit, offset int64) ([]store.Project, int64, error) {
	if f.Status != "" && !model.IsValidProjectStatus(f.Status) {
		return nil, 0, invalid("status", "unknown status %q", f.Status)
	}
	projects, err := s.queries.ListProjects(ctx, store.ListProjectsParams{
		Status: f.Status, Search: f.Search, FeaturedOnly: f.FeaturedOnly, Limit: limit, Offset: offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing projects: %w", err)
	}
	total, err := s.queries.CountProjects(ctx, store.CountProjectsParams{
		Status: f.Status, Search: f.Search, FeaturedOnly: f.FeaturedOnly,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("counting projects: %w", err)
	}
	return projects, total, nil
}

// GetProject returns a project by ID.
func (s *ContentService) GetProject(ctx context.Context, id int64) (store.Project, error) {
	p, err := s.queries.GetProject(ctx, id)
	if err != nil {
		return store.Project{}, storeErr(err, "project")
	}
	return p, nil
}

// CreateProject validates in and inserts a new project.
func (s *ContentService) CreateProject(ctx context.Context, in ProjectInput, actorID int64) (store.Project, error) {
	cur := store.Project{Status: model.ProjectStatusPlanning, Currency: "USD"}
	next, err := applyProjectInput(cur, in)
	if err != nil {
		return store.Project{}, err
	}
	taken, err := s.queries.ProjectSlugTaken(ctx, next.Slug, 0)
	if err != nil {
		return store.Project{}, fmt.Errorf("checking slug: %w", err)
	}
	if taken {
		return store.Project{}, conflict("a project with slug %q already exists", next.Slug)
	}

	project, err := s.queries.CreateProject(ctx, store.CreateProjectParams{
		ProjectFields: projectFields(next),
		CreatedBy:     nullID(actorID),
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return store.Project{}, storeErr(err, "project")
	}

	slog.Info("project created", "project_id", project.ID, "slug", project.Slug, "created_by", actorID)
	s.invalidateProjects(ctx)
	return project, nil
}

// UpdateProject applies in to a project, snapshotting its previous state.
func (s *ContentService) UpdateProject(ctx context.Context, id int64, in ProjectInput, actorID int64) (store.Project, error) {
	summary := in.ChangeSummary
	if summary == "" {
		summary = "Updated"
	}
	var updated store.Project
	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		updated, err = s.rewriteProjectTx(ctx, q, id, actorID, summary, func(cur store.Project) (store.Project, error) {
			return applyProjectInput(cur, in)
		})
		return err
	})
	if err != nil {
		return store.Project{}, err
	}
	s.invalidateProjects(ctx)
	slog.Info("project updated", "project_id", id, "slug", updated.Slug, "updated_by", actorID)
	return updated, nil
}

// RestoreProjectVersion brings back the project stored in version after
// snapshotting the current state.
func (s *ContentService) RestoreProjectVersion(ctx context.Context, id, version, actorID int64) (store.Project, error) {
	var restored store.Project
	summary := fmt.Sprintf("Restored version %d", version)
	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		v, err := q.GetContentVersion(ctx, model.ContentTypeProject, id, version)
		if err != nil {
			return storeErr(err, "version")
		}
		var old store.Project
		if err := json.Unmarshal([]byte(v.Data), &old); err != nil {
			return fmt.Errorf("decoding version %d: %w", version, err)
		}
		restored, err = s.rewriteProjectTx(ctx, q, id, actorID, summary, func(store.Project) (store.Project, error) {
			return old, nil
		})
		return err
	})
	if err != nil {
		return store.Project{}, err
	}
	s.invalidateProjects(ctx)
	slog.Info("project version restored", "project_id", id, "version", version, "restored_by", actorID)
	return restored, nil
}

// DeleteProject removes a project and its version history.
func (s *ContentService) DeleteProject(ctx context.Context, id, actorID int64) (store.Project, error) {
	var project store.Project
	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		if project, err = q.GetProject(ctx, id); err != nil {
			return storeErr(err, "project")
		}
		if err := q.DeleteContentVersions(ctx, model.ContentTypeProject, id); err != nil {
			return fmt.Errorf("deleting versions: %w", err)
		}
		return q.DeleteProject(ctx, id)
	})
	if err != nil {
		return store.Project{}, err
	}
	slog.Info("project deleted", "project_id", id, "slug", project.Slug, "deleted_by", actorID)
	s.invalidateProjects(ctx)
	return project, nil
}

func (s *ContentService) rewriteProjectTx(ctx context.Context, q *store.Queries, id, actorID int64, summary string, mutate func(store.Project) (store.Project, error)) (store.Project, error) {
	cur, err := q.GetProject(ctx, id)
	if err != nil {
		return store.Project{}, storeErr(err, "project")
	}
	next, err := mutate(cur)
	if err != nil {
		return store.Project{}, err
	}
	if err := validateProject(&next); err != nil {
		return store.Project{}, err
	}
	if next.Slug != cur.Slug {
		taken, err := q.ProjectSlugTaken(ctx, next.Slug, id)
		if err != nil {
			return store.Project{}, fmt.Errorf("checking slug: %w", err)
		}
		if taken {
			return store.Project{}, conflict("a project with slug %q already exists", next.Slug)
		}
	}

	if err := snapshot(ctx, q, model.ContentTypeProject, id, cur, summary, actorID); err != nil {
		return store.Project{}, err
	}

	updated, err := q.UpdateProject(ctx, store.UpdateProjectParams{
		ProjectFields: projectFields(next),
		UpdatedBy:     nullID(actorID),
		UpdatedAt:     time.Now().UTC(),
		ID:            id,
	})
	if err != nil {
		return store.Project{}, storeErr(err, "project")
	}
	return updated, nil
}

func applyProjectInput(p store.Project, in ProjectInput) (store.Project, error) {
	setString(&p.Name, in.Name)
	setString(&p.Slug, in.Slug)
	setString(&p.Summary, in.Summary)
	setString(&p.Description, in.Description)
	setString(&p.Status, in.Status)
	setString(&p.Location, in.Location)
	setString(&p.Currency, in.Currency)
	setString(&p.FeaturedImage, in.FeaturedImage)
	if in.CapacityMw != nil {
		p.CapacityMw = sql.NullFloat64{Float64: *in.CapacityMw, Valid: true}
	}
	if in.Budget != nil {
		p.Budget = sql.NullFloat64{Float64: *in.Budget, Valid: true}
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	if in.SortOrder != nil {
		p.SortOrder = *in.SortOrder
	}
	if in.StartDate != nil {
		p.StartDate = util.NullStringFromValue(strings.TrimSpace(*in.StartDate))
	}
	if in.CompletionDate != nil {
		p.CompletionDate = util.NullStringFromValue(strings.TrimSpace(*in.CompletionDate))
	}
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	if p.Slug == "" {
		p.Slug = util.Slugify(p.Name)
	}
	return p, validateProject(&p)
}

func validateProject(p *store.Project) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Slug = strings.TrimSpace(p.Slug)
	switch {
	case p.Name == "":
		return invalid("name", "is required")
	case len(p.Name) > maxTitleLength:
		return invalid("name", "must be at most %d characters", maxTitleLength)
	case len(p.Summary) > maxSummaryLength:
		return invalid("summary", "must be at most %d characters", maxSummaryLength)
	case !util.IsValidSlug(p.Slug):
		return invalid("slug", "must contain only lowercase letters, numbers and single hyphens")
	case !model.IsValidProjectStatus(p.Status):
		return invalid("status", "unknown status %q", p.Status)
	case p.CapacityMw.Valid && p.CapacityMw.Float64 < 0:
		return invalid("capacity_mw", "must not be negative")
	case p.Budget.Valid && p.Budget.Float64 < 0:
		return invalid("budget", "must not be negative")
	case !currencyRegex.MatchString(p.Currency):
		return invalid("currency", "must be a three-letter ISO code")
	}

	start, err := parseDate(p.StartDate)
	if err != nil {
		return invalid("start_date", "must be YYYY-MM-DD")
	}
	end, err := parseDate(p.CompletionDate)
	if err != nil {
		return invalid("completion_date", "must be YYYY-MM-DD")
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return invalid("completion_date", "must not be before start_date")
	}
	return nil
}

func parseDate(d sql.NullString) (time.Time, error) {
	if !d.Valid || d.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, d.String)
}

func projectFields(p store.Project) store.ProjectFields {
	return store.ProjectFields{
		Name:           p.Name,
		Slug:           p.Slug,
		Summary:        p.Summary,
		Description:    p.Description,
		Status:         p.Status,
		CapacityMw:     p.CapacityMw,
		Location:       p.Location,
		Budget:         p.Budget,
		Currency:       p.Currency,
		FeaturedImage:  p.FeaturedImage,
		IsFeatured:     p.IsFeatured,
		StartDate:      p.StartDate,
		CompletionDate: p.CompletionDate,
		SortOrder:      p.SortOrder,
	}
}

// ---- versions ----

// ListVersions returns the history of one page or project, newest first.
func (s *ContentService) ListVersions(ctx context.Context, contentType string, id, limit, offset int64) ([]store.ContentVersion, int64, error) {
	if err := s.contentExists(ctx, contentType, id); err != nil {
		return nil, 0, err
	}
	versions, err := s.queries.ListContentVersions(ctx, store.ListContentVersionsParams{
		ContentType: contentType, ContentID: id, Limit: limit, Offset: offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing versions: %w", err)
	}
	total, err := s.queries.CountContentVersions(ctx, contentType, id)
	if err != nil {
		return nil, 0, fmt.Errorf("counting versions: %w", err)
	}
	return versions, total, nil
}

// GetVersion returns one stored version.
func (s *ContentService) GetVersion(ctx context.Context, contentType string, id, version int64) (store.ContentVersion, error) {
	v, err := s.queries.GetContentVersion(ctx, contentType, id, version)
	if err != nil {
		return store.ContentVersion{}, storeErr(err, "version")
	}
	return v, nil
}

func (s *ContentService) contentExists(ctx context.Context, contentType string, id int64) error {
	var err error
	switch contentType {
	case model.ContentTypePage:
		_, err = s.queries.GetPage(ctx, id)
	case model.ContentTypeProject:
		_, err = s.queries.GetProject(ctx, id)
	default:
		return invalid("content_type", "unknown content type %q", contentType)
	}
	if err != nil {
		return storeErr(err, contentType)
	}
	return nil
}

// snapshot stores v as the next version of (contentType, id). The version
// number is assigned by the INSERT itself; a UNIQUE violation means another
// writer won the race and surfaces as a conflict.
func snapshot(ctx context.Context, q *store.Queries, contentType string, id int64, v any, summary string, actorID int64) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	_, err = q.CreateContentVersion(ctx, store.CreateContentVersionParams{
		ContentType:   contentType,
		ContentID:     id,
		Data:          string(data),
		ChangeSummary: summary,
		CreatedBy:     nullID(actorID),
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return conflict("concurrent edit of %s %d, retry", contentType, id)
		}
		return fmt.Errorf("creating version: %w", err)
	}
	return nil
}

// ---- public reads ----

// PublishedPage returns a published page by slug, from cache when possible.
func (s *ContentService) PublishedPage(ctx context.Context, slug string) (*store.Page, error) {
	load := func() (*store.Page, error) {
		p, err := s.queries.GetPublishedPageBySlug(ctx, slug)
		if err != nil {
			return nil, storeErr(err, "page")
		}
		return &p, nil
	}
	if s.cache == nil {
		return load()
	}
	return s.cache.Pages.GetOrSet(ctx, slug, load)
}

// PublishedPages lists every published page.
func (s *ContentService) PublishedPages(ctx context.Context) ([]store.Page, error) {
	return s.queries.ListPublishedPages(ctx)
}

// PublicProjects returns all projects in display order, from cache when possible.
func (s *ContentService) PublicProjects(ctx context.Context) ([]store.Project, error) {
	load := func() (*[]store.Project, error) {
		projects, err := s.queries.ListProjects(ctx, store.ListProjectsParams{Limit: publicListLimit})
		if err != nil {
			return nil, fmt.Errorf("listing projects: %w", err)
		}
		return &projects, nil
	}
	var (
		projects *[]store.Project
		err      error
	)
	if s.cache == nil {
		projects, err = load()
	} else {
		projects, err = s.cache.Projects.GetOrSet(ctx, "all", load)
	}
	if err != nil {
		return nil, err
	}
	return *projects, nil
}

// PublicProject returns a project by slug.
func (s *ContentService) PublicProject(ctx context.Context, slug string) (store.Project, error) {
	p, err := s.queries.GetProjectBySlug(ctx, slug)
	if err != nil {
		return store.Project{}, storeErr(err, "project")
	}
	return p, nil
}

// ProjectTotals summarises the portfolio.
func (s *ContentService) ProjectTotals(ctx context.Context) (store.ProjectTotals, error) {
	return s.queries.GetProjectTotals(ctx)
}

func (s *ContentService) invalidatePages(ctx context.Context, slugs ...string) {
	if s.cache != nil {
		s.cache.InvalidatePage(ctx, slugs...)
	}
}

func (s *ContentService) invalidateProjects(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateProjects(ctx)
	}
}

// ---- helpers shared by the services ----

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func nullID(id int64) sql.NullInt64 {
	if id <= 0 {
		return sql.NullInt64{}
	}
	return util.NullInt64FromValue(id)
}

// storeErr maps driver errors onto the service error kinds.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case store.IsNotFound(err):
		return fmt.Errorf("%s %w", what, ErrNotFound)
	case store.IsUniqueViolation(err):
		return conflict("%s already exists", what)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		return err
	}
	return fmt.Errorf("%s: %w", what, err)
}
