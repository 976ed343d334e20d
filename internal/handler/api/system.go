package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/kpp-site/internal/middleware"
	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/scheduler"
)

// Dashboard handles GET /api/admin/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.dashboard.Build(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "build dashboard")
		return
	}
	WriteSuccess(w, DashboardResponse{Dashboard: d, RecentActivity: auditLogResponses(d.RecentActivity)}, nil)
}

// ClearCache handles POST /api/admin/cache/clear
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.ClearAll(r.Context()); err != nil {
		writeServiceError(w, r, err, "clear cache")
		return
	}
	slog.Info("cache cleared", "user_id", middleware.GetUserID(r))
	h.recordAudit(r, model.AuditActionDelete, model.ResourceCache, nil, nil)
	WriteSuccess(w, map[string]string{"message": "Cache cleared"}, nil)
}

// ListJobs handles GET /api/admin/jobs
func (h *Handler) ListJobs(w http.ResponseWriter, _ *http.Request) {
	jobs := []scheduler.JobInfo{}
	if h.jobs != nil {
		jobs = h.jobs.List()
	}
	WriteSuccess(w, jobs, nil)
}

// RunJob handles POST /api/admin/jobs/{name}/run. The job runs to completion
// before the response is sent.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.jobs == nil {
		WriteNotFound(w, "Job not found")
		return
	}

	err := h.jobs.TriggerNow(name)
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		WriteNotFound(w, "Job not found")
		return
	case err != nil:
		slog.Error("manual job run failed", "job", name, "error", err)
		middleware.WriteAPIError(w, http.StatusInternalServerError, "Job failed")
		return
	}

	h.recordAudit(r, model.AuditActionRun, model.ResourceJob, name, nil)
	WriteSuccess(w, map[string]string{"job": name, "status": "completed"}, nil)
}
