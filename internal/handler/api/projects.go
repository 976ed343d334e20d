// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/kpp-site/internal/middleware"
	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/service"
)

// ListProjects handles GET /api/admin/projects?status=&search=&featured=
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	page, perPage, limit, offset := parsePagination(r)
	q := r.URL.Query()
	f := service.ProjectFilter{
		Status:       q.Get("status"),
		Search:       q.Get("search"),
		FeaturedOnly: q.Get("featured") == "true" || q.Get("featured") == "1",
	}
	projects, total, err := h.content.ListProjects(r.Context(), f, limit, offset)
	if err != nil {
		writeServiceError(w, r, err, "list projects")
		return
	}
	out := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectResponse(p))
	}
	WriteSuccess(w, out, newMeta(total, page, perPage))
}

// GetProject handles GET /api/admin/projects/{id}
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "project")
	if !ok {
		return
	}
	p, err := h.content.GetProject(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "retrieve project")
		return
	}
	WriteSuccess(w, projectResponse(p), nil)
}

// CreateProject handles POST /api/admin/projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var in service.ProjectInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.content.CreateProject(r.Context(), in, middleware.GetUserID(r))
	if err != nil {
		writeServiceError(w, r, err, "create project")
		return
	}
	h.recordAudit(r, model.AuditActionCreate, model.ResourceProject, p.ID,
		map[string]any{"slug": p.Slug, "status": p.Status})
	WriteCreated(w, projectResponse(p))
}

// UpdateProject handles PUT /api/admin/projects/{id}
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "project")
	if !ok {
		return
	}
	var in service.ProjectInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.content.UpdateProject(r.Context(), id, in, middleware.GetUserID(r))
	if err != nil {
		writeServiceError(w, r, err, "update project")
		return
	}
	h.recordAudit(r, model.AuditActionUpdate, model.ResourceProject, p.ID,
		map[string]any{"slug": p.Slug, "change_summary": in.ChangeSummary})
	WriteSuccess(w, projectResponse(p), nil)
}

// DeleteProject handles DELETE /api/admin/projects/{id}
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "project")
	if !ok {
		return
	}
	p, err := h.content.DeleteProject(r.Context(), id, middleware.GetUserID(r))
	if err != nil {
		writeServiceError(w, r, err, "delete project")
		return
	}
	h.recordAudit(r, model.AuditActionDelete, model.ResourceProject, p.ID,
		map[string]any{"slug": p.Slug, "name": p.Name})
	WriteSuccess(w, map[string]int64{"id": p.ID}, nil)
}

// ListProjectVersions handles GET /api/admin/projects/{id}/versions
func (h *Handler) ListProjectVersions(w http.ResponseWriter, r *http.Request) {
	h.listVersions(w, r, model.ContentTypeProject)
}

// GetProjectVersion handles GET /api/admin/projects/{id}/versions/{version}
func (h *Handler) GetProjectVersion(w http.ResponseWriter, r *http.Request) {
	h.getVersion(w, r, model.ContentTypeProject)
}

// RestoreProjectVersion handles POST /api/admin/projects/{id}/versions/{version}/restore
func (h *Handler) RestoreProjectVersion(w http.ResponseWriter, r *http.Request) {
	id, version, ok := parseVersionParams(w, r, "project")
	if !ok {
		return
	}
	p, err := h.content.RestoreProjectVersion(r.Context(), id, version, middleware.GetUserID(r))
	if err != nil {
		writeServiceError(w, r, err, "restore project version")
		return
	}
	h.recordAudit(r, model.AuditActionRestore, model.ResourceProject, p.ID,
		map[string]any{"slug": p.Slug, "version": version})
	WriteSuccess(w, projectResponse(p), nil)
}
