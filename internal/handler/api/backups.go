// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/kpp-site/internal/model"
)

// ListBackups handles GET /api/admin/backups, newest first.
func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := h.backups.List()
	if err != nil {
		writeServiceError(w, r, err, "list backups")
		return
	}
	WriteSuccess(w, backups, nil)
}

// CreateBackup handles POST /api/admin/backups
func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	info, err := h.backups.Create(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "create backup")
		return
	}
	h.recordAudit(r, model.AuditActionBackup, model.ResourceBackup, info.Name,
		map[string]any{"size": info.Size})
	WriteCreated(w, info)
}

// GetBackup handles GET /api/admin/backups/{name}. With ?download=true the
// database file itself is sent as an attachment.
func (h *Handler) GetBackup(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	info, err := h.backups.Get(name)
	if err != nil {
		writeServiceError(w, r, err, "retrieve backup")
		return
	}
	if r.URL.Query().Get("download") != "true" {
		WriteSuccess(w, info, nil)
		return
	}
	p, err := h.backups.Path(name)
	if err != nil {
		writeServiceError(w, r, err, "retrieve backup")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.sqlite3")
	w.Header().Set("Content-Disposition", `attachment; filename="`+info.Name+`"`)
	http.ServeFile(w, r, p)
}

// DeleteBackup handles DELETE /api/admin/backups/{name}
func (h *Handler) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.backups.Delete(name); err != nil {
		writeServiceError(w, r, err, "delete backup")
		return
	}
	h.recordAudit(r, model.AuditActionDelete, model.ResourceBackup, name, nil)
	WriteSuccess(w, map[string]string{"name": name}, nil)
}

// RestoreBackupResponse reports the safety backup taken before a restore.
type RestoreBackupResponse struct {
	Restored     string `json:"restored"`
	SafetyBackup string `json:"safety_backup"`
}

// RestoreBackup handles POST /api/admin/backups/{name}/restore. Only super
// admins reach it.
func (h *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	safety, err := h.backups.Restore(r.Context(), name)
	if err != nil {
		writeServiceError(w, r, err, "restore backup")
		return
	}
	h.recordAudit(r, model.AuditActionRestore, model.ResourceBackup, name,
		map[string]any{"safety_backup": safety.Name})
	WriteSuccess(w, RestoreBackupResponse{Restored: name, SafetyBackup: safety.Name}, nil)
}
