package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/kpp-site/internal/middleware"
	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/service"
)

// ListMenus handles GET /api/admin/menus
func (h *Handler) ListMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := h.site.ListMenus(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "list menus")
		return
	}
	out := make([]MenuResponse, 0, len(menus))
	for _, m := range menus {
		out = append(out, menuResponse(m))
	}
	WriteSuccess(w, out, nil)
}

// GetMenu handles GET /api/admin/menus/{id}
func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "menu")
	if !ok {
		return
	}
	m, err := h.site.GetMenu(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "retrieve menu")
		return
	}
	WriteSuccess(w, menuResponse(m), nil)
}

// CreateMenu handles POST /api/admin/menus
func (h *Handler) CreateMenu(w http.ResponseWriter, r *http.Request) {
	var in service.MenuInput
	if !decodeJSON(w, r, &in) {
		return
	}
	m, err := h.site.CreateMenu(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err, "create menu")
		return
	}
	h.recordAudit(r, model.AuditActionCreate, model.ResourceMenu, m.ID,
		map[string]any{"name": m.Name, "location": m.Location})
	WriteCreated(w, menuResponse(m))
}

// UpdateMenu handles PUT /api/admin/menus/{id}
func (h *Handler) UpdateMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "menu")
	if !ok {
		return
	}
	var in service.MenuInput
	if !decodeJSON(w, r, &in) {
		return
	}
	m, err := h.site.UpdateMenu(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err, "update menu")
		return
	}
	h.recordAudit(r, model.AuditActionUpdate, model.ResourceMenu, m.ID,
		map[string]any{"name": m.Name, "location": m.Location})
	WriteSuccess(w, menuResponse(m), nil)
}

// DeleteMenu handles DELETE /api/admin/menus/{id}
func (h *Handler) DeleteMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "menu")
	if !ok {
		return
	}
	m, err := h.site.DeleteMenu(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "delete menu")
		return
	}
	h.recordAudit(r, model.AuditActionDelete, model.ResourceMenu, m.ID, map[string]any{"name": m.Name})
	WriteSuccess(w, map[string]int64{"id": m.ID}, nil)
}

// ListSettings handles GET /api/admin/settings?group=
func (h *Handler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.site.ListSettings(r.Context(), r.URL.Query().Get("group"))
	if err != nil {
		writeServiceError(w, r, err, "list settings")
		return
	}
	out := make([]SettingResponse, 0, len(settings))
	for _, s := range settings {
		out = append(out, settingResponse(s))
	}
	WriteSuccess(w, out, nil)
}

// UpdateSettingsRequest is the body of PUT /api/admin/settings.
type UpdateSettingsRequest struct {
	Settings []service.SettingUpdate `json:"settings"`
}

// UpdateSettings handles PUT /api/admin/settings. All updates are applied
// together or not at all.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Settings) == 0 {
		WriteBadRequest(w, "No settings provided")
		return
	}
	updated, err := h.site.UpdateSettings(r.Context(), req.Settings, middleware.GetUserID(r))
	if err != nil {
		writeServiceError(w, r, err, "update settings")
		return
	}
	keys := make([]string, 0, len(updated))
	out := make([]SettingResponse, 0, len(updated))
	for _, s := range updated {
		keys = append(keys, s.Key)
		out = append(out, settingResponse(s))
	}
	h.recordAudit(r, model.AuditActionUpdate, model.ResourceSetting, nil, map[string]any{"keys": keys})
	WriteSuccess(w, out, nil)
}

// DeleteSetting handles DELETE /api/admin/settings/{key}.
func (h *Handler) DeleteSetting(w http.ResponseWriter, r *http.Request) {
	st, err := h.site.DeleteSetting(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeServiceError(w, r, err, "delete setting")
		return
	}
	h.recordAudit(r, model.AuditActionDelete, model.ResourceSetting, nil, map[string]any{"key": st.Key})
	WriteSuccess(w, map[string]string{"key": st.Key}, nil)
}
