// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/kpp-site/internal/cache"
	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/testutil"
)

func newContentService(t *testing.T) (*ContentService, int64) {
	t.Helper()
	db := testutil.TestDB(t)
	editor := testutil.CreateUser(t, db, "editor@example.com", model.RoleEditor)
	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })
	return NewContentService(db, cache.NewManager(mem, "memory", time.Minute)), editor.ID
}

func TestCreatePageDefaults(t *testing.T) {
	svc, actor := newContentService(t)
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, PageInput{Title: ptr("Grid Storage Explained")}, actor)
	require.NoError(t, err)

	assert.Equal(t, "grid-storage-explained", page.Slug)
	assert.Equal(t, model.PageStatusDraft, page.Status)
	assert.Equal(t, `{"blocks":[]}`, page.Content)
	assert.False(t, page.PublishedAt.Valid)
	assert.Equal(t, actor, page.CreatedBy.Int64)
}

func TestCreatePageValidation(t *testing.T) {
	svc, actor := newContentService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   PageInput
	}{
		{"missing title", PageInput{}},
		{"bad slug", PageInput{Title: ptr("X"), Slug: ptr("Not A Slug")}},
		{"reserved slug", PageInput{Title: ptr("X"), Slug: ptr("api")}},
		{"bad status", PageInput{Title: ptr("X"), Status: ptr("live")}},
		{"content not object", PageInput{Title: ptr("X"), Content: json.RawMessage(`[1,2]`)}},
		{"blocks not list", PageInput{Title: ptr("X"), Content: json.RawMessage(`{"blocks":"x"}`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePage(ctx, tt.in, actor)
			if !isValidation(err) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}
}

func TestCreatePageSlugConflict(t *testing.T) {
	svc, actor := newContentService(t)
	ctx := context.Background()

	_, err := svc.CreatePage(ctx, PageInput{Title: ptr("About"), Slug: ptr("about")}, actor)
	require.NoError(t, err)
	_, err = svc.CreatePage(ctx, PageInput{Title: ptr("About again"), Slug: ptr("about")}, actor)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdatePageCreatesVersions(t *testing.T) {
	svc, actor := newContentService(t)
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, PageInput{
		Title:   ptr("Technology"),
		Content: json.RawMessage(`{"blocks":[{"type":"text","body":"v0"}]}`),
	}, actor)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		_, err := svc.UpdatePage(ctx, page.ID, PageInput{
			Content: json.RawMessage(`{"blocks":[{"type":"text","body":"v` + string(rune('0'+i)) + `"}]}`),
		}, actor)
		require.NoError(t, err)
	}

	versions, total, err := svc.ListVersions(ctx, model.ContentTypePage, page.ID, 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	assert.EqualValues(t, 3, versions[0].VersionNumber, "newest first")
	assert.EqualValues(t, 1, versions[2].VersionNumber)

	// Version 1 holds the state before the first update.
	v1, err := svc.GetVersion(ctx, model.ContentTypePage, page.ID, 1)
	require.NoError(t, err)
	assert.Contains(t, v1.Data, `v0`)
	assert.Equal(t, "Updated", v1.ChangeSummary)
}

func TestRestorePageVersion(t *testing.T) {
	svc, actor := newContentService(t)
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, PageInput{Title: ptr("Original title"), Slug: ptr("story")}, actor)
	require.NoError(t, err)
	_, err = svc.SetPageStatus(ctx, page.ID, model.PageStatusPublished, actor)
	require.NoError(t, err)
	_, err = svc.UpdatePage(ctx, page.ID, PageInput{Title: ptr("Rewritten title")}, actor)
	require.NoError(t, err)

	// Version 2 is the published page with the original title.
	restored, err := svc.RestorePageVersion(ctx, page.ID, 2, actor)
	require.NoError(t, err)
	assert.Equal(t, "Original title", restored.Title)
	assert.Equal(t, model.PageStatusPublished, restored.Status)
	assert.True(t, restored.PublishedAt.Valid)

	_, total, err := svc.ListVersions(ctx, model.ContentTypePage, page.ID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total, "restore snapshots the state it replaces")

	latest, err := svc.GetVersion(ctx, model.ContentTypePage, page.ID, 3)
	require.NoError(t, err)
	assert.Contains(t, latest.Data, "Rewritten title")

	_, err = svc.RestorePageVersion(ctx, page.ID, 99, actor)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRestorePageVersionSlugConflict(t *testing.T) {
	svc, actor := newContentService(t)
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, PageInput{Title: ptr("Page"), Slug: ptr("first")}, actor)
	require.NoError(t, err)
	_, err = svc.UpdatePage(ctx, page.ID, PageInput{Slug: ptr("second")}, actor)
	require.NoError(t, err)
	_, err = svc.CreatePage(ctx, PageInput{Title: ptr("Other"), Slug: ptr("first")}, actor)
	require.NoError(t, err)

	_, err = svc.RestorePageVersion(ctx, page.ID, 1, actor)
	assert.ErrorIs(t, err, ErrConflict)

	_, total, _ := svc.ListVersions(ctx, model.ContentTypePage, page.ID, 10, 0)
	assert.EqualValues(t, 1, total, "failed restore must not leave a version behind")
}

func TestConcurrentPageUpdatesNumberVersionsUniquely(t *testing.T) {
	svc, actor := newContentService(t)
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, PageInput{Title: ptr("Busy page")}, actor)
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.UpdatePage(ctx, page.ID, PageInput{MetaKeywords: ptr(string(rune('a' + i)))}, actor)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		} else if !errors.Is(err, ErrConflict) {
			t.Errorf("unexpected error: %v", err)
		}
	}

	versions, total, err := svc.ListVersions(ctx, model.ContentTypePage, page.ID, 50, 0)
	require.NoError(t, err)
	assert.EqualValues(t, ok, total)
	for i, v := range versions {
		assert.EqualValues(t, int(total)-i, v.VersionNumber, "versions are 1..n without gaps")
	}
}

func TestDeletePageRemovesVersions(t *testing.T) {
	svc, actor := newContentService(t)
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, PageInput{Title: ptr("Temp")}, actor)
	require.NoError(t, err)
	_, err = svc.UpdatePage(ctx, page.ID, PageInput{Title: ptr("Temp 2")}, actor)
	require.NoError(t, err)

	_, err = svc.DeletePage(ctx, page.ID, actor)
	require.NoError(t, err)

	_, err = svc.GetPage(ctx, page.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetVersion(ctx, model.ContentTypePage, page.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.DeletePage(ctx, page.ID, actor)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPublishedPageCacheInvalidation(t *testing.T) {
	svc, actor := newContentService(t)
	ctx := context.Background()

	page, err := svc.CreatePage(ctx, PageInput{Title: ptr("News"), Status: ptr(model.PageStatusPublished)}, actor)
	require.NoError(t, err)

	got, err := svc.PublishedPage(ctx, "news")
	require.NoError(t, err)
	assert.Equal(t, "News", got.Title)

	_, err = svc.UpdatePage(ctx, page.ID, PageInput{Title: ptr("Latest news")}, actor)
	require.NoError(t, err)
	got, err = svc.PublishedPage(ctx, "news")
	require.NoError(t, err)
	assert.Equal(t, "Latest news", got.Title, "update must drop the cached copy")

	_, err = svc.SetPageStatus(ctx, page.ID, model.PageStatusDraft, actor)
	require.NoError(t, err)
	_, err = svc.PublishedPage(ctx, "news")
	assert.ErrorIs(t, err, ErrNotFound, "drafts are not public")
}

func TestProjectLifecycle(t *testing.T) {
	svc, actor := newContentService(t)
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, ProjectInput{
		Name:       ptr("Nordic KPP 1"),
		CapacityMw: ptr(12.5),
		Currency:   ptr("eur"),
		StartDate:  ptr("2026-01-15"),
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, "nordic-kpp-1", project.Slug)
	assert.Equal(t, "EUR", project.Currency)
	assert.Equal(t, model.ProjectStatusPlanning, project.Status)

	public, err := svc.PublicProjects(ctx)
	require.NoError(t, err)
	require.Len(t, public, 1)

	updated, err := svc.UpdateProject(ctx, project.ID, ProjectInput{Status: ptr(model.ProjectStatusOperational)}, actor)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusOperational, updated.Status)

	public, err = svc.PublicProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusOperational, public[0].Status, "cache refreshed after update")

	restored, err := svc.RestoreProjectVersion(ctx, project.ID, 1, actor)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusPlanning, restored.Status)

	totals, err := svc.ProjectTotals(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, totals.Count)
	assert.InDelta(t, 12.5, totals.TotalCapacityMw, 0.001)
}

func TestProjectValidation(t *testing.T) {
	svc, actor := newContentService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   ProjectInput
	}{
		{"missing name", ProjectInput{}},
		{"bad status", ProjectInput{Name: ptr("P"), Status: ptr("done")}},
		{"negative capacity", ProjectInput{Name: ptr("P"), CapacityMw: ptr(-1.0)}},
		{"bad currency", ProjectInput{Name: ptr("P"), Currency: ptr("euro")}},
		{"bad date", ProjectInput{Name: ptr("P"), StartDate: ptr("15/01/2026")}},
		{"end before start", ProjectInput{Name: ptr("P"), StartDate: ptr("2026-02-01"), CompletionDate: ptr("2026-01-01")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProject(ctx, tt.in, actor)
			if !isValidation(err) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}
}

func TestListVersionsUnknownContent(t *testing.T) {
	svc, _ := newContentService(t)
	_, _, err := svc.ListVersions(context.Background(), model.ContentTypeProject, 404, 10, 0)
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = svc.ListVersions(context.Background(), "widget", 1, 10, 0)
	assert.True(t, isValidation(err))
}
