// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/kpp-site/internal/middleware"
	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/service"
)

const maxBeaconBytes = 8 << 10

// AnalyticsSummary handles GET /api/admin/analytics/summary?days=N
func (h *Handler) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	days, err := parseDaysParam(r, "days", 30)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	sum, err := h.analytics.Summary(r.Context(), days)
	if err != nil {
		writeServiceError(w, r, err, "build analytics summary")
		return
	}
	WriteSuccess(w, sum, nil)
}

// ListAnalyticsEvents handles GET /api/admin/analytics/events?event_type=&path=&days=
func (h *Handler) ListAnalyticsEvents(w http.ResponseWriter, r *http.Request) {
	days, err := parseDaysParam(r, "days", 0)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	page, perPage, limit, offset := parsePagination(r)
	f := service.AnalyticsFilter{
		EventType: r.URL.Query().Get("event_type"),
		Path:      r.URL.Query().Get("path"),
		Days:      days,
	}
	events, total, err := h.analytics.ListEvents(r.Context(), f, limit, offset)
	if err != nil {
		writeServiceError(w, r, err, "list analytics events")
		return
	}
	out := make([]AnalyticsEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, analyticsEventResponse(e))
	}
	WriteSuccess(w, out, newMeta(total, page, perPage))
}

// DeleteAnalyticsEvents handles DELETE /api/admin/analytics/events?older_than_days=N
func (h *Handler) DeleteAnalyticsEvents(w http.ResponseWriter, r *http.Request) {
	days, err := parseDaysParam(r, "older_than_days", 0)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	n, err := h.analytics.DeleteOlderThan(r.Context(), days)
	if err != nil {
		writeServiceError(w, r, err, "delete analytics events")
		return
	}
	h.recordAudit(r, model.AuditActionPrune, model.ResourceAnalytics, nil,
		map[string]any{"older_than_days": days, "deleted": n})
	WriteSuccess(w, map[string]int64{"deleted": n}, nil)
}

// BeaconRequest is the body of POST /api/analytics/events.
type BeaconRequest struct {
	EventType string         `json:"event_type"`
	Path      string         `json:"path"`
	Referrer  string         `json:"referrer"`
	Metadata  map[string]any `json:"metadata"`
}

// Beacon handles POST /api/analytics/events from the public site. It is
// unauthenticated and sits behind a per-IP rate limiter.
func (h *Handler) Beacon(w http.ResponseWriter, r *http.Request) {
	if !h.site.SettingBool(r.Context(), model.SettingAnalyticsOn, true) {
		WriteJSON(w, http.StatusAccepted, Response{Success: true, Data: map[string]bool{"recorded": false}})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBeaconBytes)
	var req BeaconRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.EventType == "" {
		req.EventType = model.AnalyticsPageView
	}
	recorded, err := h.analytics.Track(r.Context(), service.TrackInput{
		EventType:      req.EventType,
		Path:           req.Path,
		Referrer:       req.Referrer,
		IP:             middleware.ClientIP(r),
		UserAgent:      r.UserAgent(),
		AcceptLanguage: r.Header.Get("Accept-Language"),
		Metadata:       req.Metadata,
	})
	if err != nil {
		writeServiceError(w, r, err, "record event")
		return
	}
	WriteJSON(w, http.StatusAccepted, Response{Success: true, Data: map[string]bool{"recorded": recorded}})
}
