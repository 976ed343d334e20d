// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the admin JSON API mounted under /api/admin and the
// public analytics beacon.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/kpp-site/internal/auth"
	"github.com/olegiv/kpp-site/internal/cache"
	"github.com/olegiv/kpp-site/internal/middleware"
	"github.com/olegiv/kpp-site/internal/scheduler"
	"github.com/olegiv/kpp-site/internal/service"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
	maxBodyBytes   = 1 << 20
)

// Services are the dependencies of the admin API.
type Services struct {
	DB        *sql.DB
	Tokens    *auth.TokenManager
	Login     *middleware.LoginProtection
	Perms     *service.PermissionService
	Content   *service.ContentService
	Site      *service.SiteService
	Media     *service.MediaService
	Users     *service.UserService
	Audit     *service.AuditService
	Events    *service.EventService
	Analytics *service.AnalyticsService
	Backups   *service.BackupService
	Contact   *service.ContactService
	Dashboard *service.DashboardService
	Cache     *cache.Manager
	Jobs      JobRunner // optional
}

// JobRunner lists and triggers scheduled jobs.
type JobRunner interface {
	List() []scheduler.JobInfo
	TriggerNow(name string) error
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db        *sql.DB
	tokens    *auth.TokenManager
	login     *middleware.LoginProtection
	perms     *service.PermissionService
	content   *service.ContentService
	site      *service.SiteService
	media     *service.MediaService
	users     *service.UserService
	audit     *service.AuditService
	events    *service.EventService
	analytics *service.AnalyticsService
	backups   *service.BackupService
	contact   *service.ContactService
	dashboard *service.DashboardService
	cache     *cache.Manager
	jobs      JobRunner
}

// NewHandler creates a new API handler.
func NewHandler(s Services) *Handler {
	return &Handler{
		db:        s.DB,
		tokens:    s.Tokens,
		login:     s.Login,
		perms:     s.Perms,
		content:   s.Content,
		site:      s.Site,
		media:     s.Media,
		users:     s.Users,
		audit:     s.Audit,
		events:    s.Events,
		analytics: s.Analytics,
		backups:   s.Backups,
		contact:   s.Contact,
		dashboard: s.Dashboard,
		cache:     s.Cache,
		jobs:      s.Jobs,
	}
}

// Response is the success envelope.
type Response struct {
	Success bool  `json:"success"`
	Data    any   `json:"data"`
	Meta    *Meta `json:"meta,omitempty"`
}

// Meta describes one page of a list.
type Meta struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Pages   int   `json:"pages"`
}

func newMeta(total int64, page, perPage int) *Meta {
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return &Meta{Total: total, Page: page, PerPage: perPage, Pages: pages}
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 envelope.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Success: true, Data: data, Meta: meta})
}

// WriteCreated writes a 201 envelope.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Success: true, Data: data})
}

// WriteBadRequest writes a 400 error envelope.
func WriteBadRequest(w http.ResponseWriter, message string) {
	middleware.WriteAPIError(w, http.StatusBadRequest, message)
}

// WriteNotFound writes a 404 error envelope.
func WriteNotFound(w http.ResponseWriter, message string) {
	middleware.WriteAPIError(w, http.StatusNotFound, message)
}

// WriteInternalError writes a 500 error envelope.
func WriteInternalError(w http.ResponseWriter, message string) {
	middleware.WriteAPIError(w, http.StatusInternalServerError, message)
}

// writeServiceError maps a service error onto the envelope. action completes
// "Failed to ..." for unexpected errors, which are logged and never shown.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		WriteBadRequest(w, ve.Error())
	case errors.Is(err, service.ErrNotFound):
		WriteNotFound(w, capitalizeFirst(err.Error()))
	case errors.Is(err, service.ErrConflict):
		middleware.WriteAPIError(w, http.StatusConflict, clientMessage(err, service.ErrConflict))
	case errors.Is(err, service.ErrForbidden):
		middleware.WriteAPIError(w, http.StatusForbidden, clientMessage(err, service.ErrForbidden))
	case errors.Is(err, service.ErrFileTooLarge):
		middleware.WriteAPIError(w, http.StatusRequestEntityTooLarge, capitalizeFirst(err.Error()))
	default:
		slog.Error("api request failed", "action", action, "path", r.URL.Path, "error", err)
		WriteInternalError(w, "Failed to "+action)
	}
}

// clientMessage strips the sentinel prefix added by the service layer.
func clientMessage(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	return capitalizeFirst(msg)
}

// capitalizeFirst returns s with the first letter capitalized.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// decodeJSON reads a JSON body into dst and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteAPIError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		WriteBadRequest(w, "Invalid JSON body")
		return false
	}
	return true
}

// parseIDParam parses the {id} URL parameter, writing a 400 when invalid.
func parseIDParam(w http.ResponseWriter, r *http.Request, entityName string) (int64, bool) {
	return parseInt64Param(w, r, "id", "Invalid "+entityName+" ID")
}

func parseInt64Param(w http.ResponseWriter, r *http.Request, name, message string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		WriteBadRequest(w, message)
		return 0, false
	}
	return id, true
}

// parsePagination reads page and per_page, clamping both to sane values.
func parsePagination(r *http.Request) (page, perPage int, limit, offset int64) {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err = strconv.Atoi(q.Get("per_page"))
	if err != nil || perPage < 1 {
		perPage = defaultPerPage
	}
	perPage = min(perPage, maxPerPage)
	return page, perPage, int64(perPage), int64((page - 1) * perPage)
}

// parseDaysParam reads a positive integer query parameter.
func parseDaysParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

// recordAudit appends an audit row for the authenticated actor.
func (h *Handler) recordAudit(r *http.Request, action, resourceType string, resourceID any, details map[string]any) {
	id := ""
	if resourceID != nil {
		id = fmt.Sprint(resourceID)
	}
	_ = h.audit.Record(r.Context(), service.AuditEntry{
		UserID:       middleware.GetUserID(r),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   id,
		Details:      details,
		IPAddress:    middleware.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}
