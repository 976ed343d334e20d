// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/kpp-site/internal/middleware"
	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/service"
	"github.com/olegiv/kpp-site/internal/store"
)

// ListPages handles GET /api/admin/pages?status=&search=&page=&per_page=
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	page, perPage, limit, offset := parsePagination(r)
	f := service.PageFilter{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
	}
	pages, total, err := h.content.ListPages(r.Context(), f, limit, offset)
	if err != nil {
		writeServiceError(w, r, err, "list pages")
		return
	}
	out := make([]PageResponse, 0, len(pages))
	for _, p := range pages {
		out = append(out, pageResponse(p))
	}
	WriteSuccess(w, out, newMeta(total, page, perPage))
}

// GetPage handles GET /api/admin/pages/{id}
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "page")
	if !ok {
		return
	}
	p, err := h.content.GetPage(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "retrieve page")
		return
	}
	WriteSuccess(w, pageResponse(p), nil)
}

// CreatePage handles POST /api/admin/pages
func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	var in service.PageInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.content.CreatePage(r.Context(), in, middleware.GetUserID(r))
	if err != nil {
		writeServiceError(w, r, err, "create page")
		return
	}
	h.recordAudit(r, model.AuditActionCreate, model.ResourcePage, p.ID,
		map[string]any{"slug": p.Slug, "status": p.Status})
	WriteCreated(w, pageResponse(p))
}

// UpdatePage handles PUT /api/admin/pages/{id}. Omitted fields keep their
// current value.
func (h *Handler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "page")
	if !ok {
		return
	}
	var in service.PageInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.content.UpdatePage(r.Context(), id, in, middleware.GetUserID(r))
	if err != nil {
		writeServiceError(w, r, err, "update page")
		return
	}
	h.recordAudit(r, model.AuditActionUpdate, model.ResourcePage, p.ID,
		map[string]any{"slug": p.Slug, "change_summary": in.ChangeSummary})
	WriteSuccess(w, pageResponse(p), nil)
}

// PublishPage handles POST /api/admin/pages/{id}/publish
func (h *Handler) PublishPage(w http.ResponseWriter, r *http.Request) {
	h.setPageStatus(w, r, model.PageStatusPublished, model.AuditActionPublish)
}

// UnpublishPage handles POST /api/admin/pages/{id}/unpublish
func (h *Handler) UnpublishPage(w http.ResponseWriter, r *http.Request) {
	h.setPageStatus(w, r, model.PageStatusDraft, model.AuditActionUpdate)
}

func (h *Handler) setPageStatus(w http.ResponseWriter, r *http.Request, status, action string) {
	id, ok := parseIDParam(w, r, "page")
	if !ok {
		return
	}
	p, err := h.content.SetPageStatus(r.Context(), id, status, middleware.GetUserID(r))
	if err != nil {
		writeServiceError(w, r, err, "change page status")
		return
	}
	h.recordAudit(r, action, model.ResourcePage, p.ID, map[string]any{"slug": p.Slug, "status": status})
	WriteSuccess(w, pageResponse(p), nil)
}

// DeletePage handles DELETE /api/admin/pages/{id}
func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "page")
	if !ok {
		return
	}
	p, err := h.content.DeletePage(r.Context(), id, middleware.GetUserID(r))
	if err != nil {
		writeServiceError(w, r, err, "delete page")
		return
	}
	h.recordAudit(r, model.AuditActionDelete, model.ResourcePage, p.ID,
		map[string]any{"slug": p.Slug, "title": p.Title})
	WriteSuccess(w, map[string]int64{"id": p.ID}, nil)
}

// ListPageVersions handles GET /api/admin/pages/{id}/versions
func (h *Handler) ListPageVersions(w http.ResponseWriter, r *http.Request) {
	h.listVersions(w, r, model.ContentTypePage)
}

// GetPageVersion handles GET /api/admin/pages/{id}/versions/{version}
func (h *Handler) GetPageVersion(w http.ResponseWriter, r *http.Request) {
	h.getVersion(w, r, model.ContentTypePage)
}

// RestorePageVersion handles POST /api/admin/pages/{id}/versions/{version}/restore
func (h *Handler) RestorePageVersion(w http.ResponseWriter, r *http.Request) {
	id, version, ok := parseVersionParams(w, r, "page")
	if !ok {
		return
	}
	p, err := h.content.RestorePageVersion(r.Context(), id, version, middleware.GetUserID(r))
	if err != nil {
		writeServiceError(w, r, err, "restore page version")
		return
	}
	h.recordAudit(r, model.AuditActionRestore, model.ResourcePage, p.ID,
		map[string]any{"slug": p.Slug, "version": version})
	WriteSuccess(w, pageResponse(p), nil)
}

// Versions are shared by pages and projects.

func parseVersionParams(w http.ResponseWriter, r *http.Request, entityName string) (id, version int64, ok bool) {
	if id, ok = parseIDParam(w, r, entityName); !ok {
		return 0, 0, false
	}
	if version, ok = parseInt64Param(w, r, "version", "Invalid version number"); !ok {
		return 0, 0, false
	}
	return id, version, true
}

func (h *Handler) listVersions(w http.ResponseWriter, r *http.Request, contentType string) {
	id, ok := parseIDParam(w, r, contentType)
	if !ok {
		return
	}
	page, perPage, limit, offset := parsePagination(r)
	versions, total, err := h.content.ListVersions(r.Context(), contentType, id, limit, offset)
	if err != nil {
		writeServiceError(w, r, err, "list versions")
		return
	}
	WriteSuccess(w, versionResponses(versions), newMeta(total, page, perPage))
}

func (h *Handler) getVersion(w http.ResponseWriter, r *http.Request, contentType string) {
	id, version, ok := parseVersionParams(w, r, contentType)
	if !ok {
		return
	}
	v, err := h.content.GetVersion(r.Context(), contentType, id, version)
	if err != nil {
		writeServiceError(w, r, err, "retrieve version")
		return
	}
	WriteSuccess(w, versionResponse(v, true), nil)
}

func versionResponses(versions []store.ContentVersion) []VersionResponse {
	out := make([]VersionResponse, 0, len(versions))
	for _, v := range versions {
		out = append(out, versionResponse(v, false))
	}
	return out
}
