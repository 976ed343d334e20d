// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/kpp-site/internal/middleware"
	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/service"
)

// ListUsers handles GET /api/admin/users?role=&search=
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, perPage, limit, offset := parsePagination(r)
	users, total, err := h.users.List(r.Context(), r.URL.Query().Get("role"), r.URL.Query().Get("search"), limit, offset)
	if err != nil {
		writeServiceError(w, r, err, "list users")
		return
	}
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse(u))
	}
	WriteSuccess(w, out, newMeta(total, page, perPage))
}

// GetUser handles GET /api/admin/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "user")
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "retrieve user")
		return
	}
	WriteSuccess(w, userResponse(u), nil)
}

// CreateUser handles POST /api/admin/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in service.UserInput
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := h.users.Create(r.Context(), *middleware.GetUser(r), in)
	if err != nil {
		writeServiceError(w, r, err, "create user")
		return
	}
	h.recordAudit(r, model.AuditActionCreate, model.ResourceUser, u.ID,
		map[string]any{"email": u.Email, "role": u.Role})
	WriteCreated(w, userResponse(u))
}

// UpdateUser handles PUT /api/admin/users/{id}. The password is changed
// through its own endpoint.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "user")
	if !ok {
		return
	}
	var in service.UserInput
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := h.users.Update(r.Context(), *middleware.GetUser(r), id, in)
	if err != nil {
		writeServiceError(w, r, err, "update user")
		return
	}
	h.recordAudit(r, model.AuditActionUpdate, model.ResourceUser, u.ID,
		map[string]any{"email": u.Email, "role": u.Role, "is_active": u.IsActive})
	WriteSuccess(w, userResponse(u), nil)
}

// PasswordRequest is the body of PUT /api/admin/users/{id}/password.
type PasswordRequest struct {
	Password string `json:"password"`
}

// SetUserPassword handles PUT /api/admin/users/{id}/password
func (h *Handler) SetUserPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "user")
	if !ok {
		return
	}
	var req PasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.users.SetPassword(r.Context(), *middleware.GetUser(r), id, req.Password); err != nil {
		writeServiceError(w, r, err, "change password")
		return
	}
	h.recordAudit(r, model.AuditActionUpdate, model.ResourceUser, id, map[string]any{"field": "password"})
	WriteSuccess(w, map[string]string{"message": "Password updated"}, nil)
}

// DeleteUser handles DELETE /api/admin/users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "user")
	if !ok {
		return
	}
	u, err := h.users.Delete(r.Context(), *middleware.GetUser(r), id)
	if err != nil {
		writeServiceError(w, r, err, "delete user")
		return
	}
	h.recordAudit(r, model.AuditActionDelete, model.ResourceUser, u.ID,
		map[string]any{"email": u.Email, "role": u.Role})
	WriteSuccess(w, map[string]int64{"id": u.ID}, nil)
}
