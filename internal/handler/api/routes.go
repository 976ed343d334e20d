// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/kpp-site/internal/middleware"
	"github.com/olegiv/kpp-site/internal/model"
)

// AdminRoutes returns the router mounted at /api/admin. limiter may be nil.
func (h *Handler) AdminRoutes(guard *middleware.Guard, limiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.NoStore)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteAPIError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.With(h.login.Middleware()).Post("/auth/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(h.tokens, h.db))
		if limiter != nil {
			r.Use(limiter.Middleware())
		}
		perm := guard.RequirePermission

		r.Get("/auth/me", h.Me)
		r.Post("/auth/refresh", h.Refresh)
		r.Post("/auth/logout", h.Logout)

		r.With(perm(model.PermAnalyticsRead)).Get("/dashboard", h.Dashboard)

		r.Route("/pages", func(r chi.Router) {
			r.With(perm(model.PermPagesRead)).Get("/", h.ListPages)
			r.With(perm(model.PermPagesWrite)).Post("/", h.CreatePage)
			r.Route("/{id}", func(r chi.Router) {
				r.With(perm(model.PermPagesRead)).Get("/", h.GetPage)
				r.With(perm(model.PermPagesWrite)).Put("/", h.UpdatePage)
				r.With(perm(model.PermPagesDelete)).Delete("/", h.DeletePage)
				r.With(perm(model.PermPagesWrite)).Post("/publish", h.PublishPage)
				r.With(perm(model.PermPagesWrite)).Post("/unpublish", h.UnpublishPage)
				r.With(perm(model.PermPagesRead)).Get("/versions", h.ListPageVersions)
				r.With(perm(model.PermPagesRead)).Get("/versions/{version}", h.GetPageVersion)
				r.With(perm(model.PermPagesWrite)).Post("/versions/{version}/restore", h.RestorePageVersion)
			})
		})

		r.Route("/projects", func(r chi.Router) {
			r.With(perm(model.PermProjectsRead)).Get("/", h.ListProjects)
			r.With(perm(model.PermProjectsWrite)).Post("/", h.CreateProject)
			r.Route("/{id}", func(r chi.Router) {
				r.With(perm(model.PermProjectsRead)).Get("/", h.GetProject)
				r.With(perm(model.PermProjectsWrite)).Put("/", h.UpdateProject)
				r.With(perm(model.PermProjectsDelete)).Delete("/", h.DeleteProject)
				r.With(perm(model.PermProjectsRead)).Get("/versions", h.ListProjectVersions)
				r.With(perm(model.PermProjectsRead)).Get("/versions/{version}", h.GetProjectVersion)
				r.With(perm(model.PermProjectsWrite)).Post("/versions/{version}/restore", h.RestoreProjectVersion)
			})
		})

		r.Route("/media", func(r chi.Router) {
			r.With(perm(model.PermMediaRead)).Get("/", h.ListMedia)
			r.With(perm(model.PermMediaWrite)).Post("/", h.UploadMedia)
			r.With(perm(model.PermMediaRead)).Get("/{id}", h.GetMedia)
			r.With(perm(model.PermMediaWrite)).Put("/{id}", h.UpdateMedia)
			r.With(perm(model.PermMediaDelete)).Delete("/{id}", h.DeleteMedia)
		})

		r.Route("/menus", func(r chi.Router) {
			r.With(perm(model.PermMenusRead)).Get("/", h.ListMenus)
			r.With(perm(model.PermMenusWrite)).Post("/", h.CreateMenu)
			r.With(perm(model.PermMenusRead)).Get("/{id}", h.GetMenu)
			r.With(perm(model.PermMenusWrite)).Put("/{id}", h.UpdateMenu)
			r.With(perm(model.PermMenusWrite)).Delete("/{id}", h.DeleteMenu)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(perm(model.PermUsersRead)).Get("/", h.ListUsers)
			r.With(perm(model.PermUsersWrite)).Post("/", h.CreateUser)
			r.With(perm(model.PermUsersRead)).Get("/{id}", h.GetUser)
			r.With(perm(model.PermUsersWrite)).Put("/{id}", h.UpdateUser)
			r.With(perm(model.PermUsersWrite)).Put("/{id}/password", h.SetUserPassword)
			r.With(perm(model.PermUsersWrite)).Delete("/{id}", h.DeleteUser)
		})

		r.With(perm(model.PermSettingsRead)).Get("/settings", h.ListSettings)
		r.With(perm(model.PermSettingsWrite)).Put("/settings", h.UpdateSettings)
		r.With(perm(model.PermSettingsWrite)).Delete("/settings/{key}", h.DeleteSetting)

		r.With(perm(model.PermAnalyticsRead)).Get("/analytics/summary", h.AnalyticsSummary)
		r.With(perm(model.PermAnalyticsRead)).Get("/analytics/events", h.ListAnalyticsEvents)
		r.With(perm(model.PermAnalyticsManage)).Delete("/analytics/events", h.DeleteAnalyticsEvents)

		r.With(perm(model.PermAuditRead)).Get("/audit-logs", h.ListAuditLogs)
		r.With(perm(model.PermAuditManage)).Delete("/audit-logs", h.DeleteAuditLogs)
		r.With(perm(model.PermLogsRead)).Get("/logs", h.ListEvents)

		r.Route("/backups", func(r chi.Router) {
			r.Use(perm(model.PermBackupsManage))
			r.Get("/", h.ListBackups)
			r.Post("/", h.CreateBackup)
			r.Get("/{name}", h.GetBackup)
			r.Delete("/{name}", h.DeleteBackup)
			r.With(guard.RequireRole(model.RoleSuperAdmin)).Post("/{name}/restore", h.RestoreBackup)
		})

		r.Route("/contact-messages", func(r chi.Router) {
			r.With(perm(model.PermContactRead)).Get("/", h.ListContactMessages)
			r.With(perm(model.PermContactManage)).Put("/{id}/read", h.MarkContactMessageRead)
			r.With(perm(model.PermContactManage)).Delete("/{id}", h.DeleteContactMessage)
		})

		r.With(guard.RequireRole(model.RoleAdmin)).Post("/cache/clear", h.ClearCache)

		r.Route("/jobs", func(r chi.Router) {
			r.Use(guard.RequireRole(model.RoleAdmin))
			r.Get("/", h.ListJobs)
			r.Post("/{name}/run", h.RunJob)
		})
	})

	return r
}
