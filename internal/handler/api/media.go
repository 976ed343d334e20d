// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/olegiv/kpp-site/internal/middleware"
	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/service"
)

// multipartOverhead leaves room for the form fields around the file.
const multipartOverhead = 1 << 20

// ListMedia handles GET /api/admin/media?type=&tag=&search=
// type is a MIME prefix such as "image/" or "application/pdf".
func (h *Handler) ListMedia(w http.ResponseWriter, r *http.Request) {
	page, perPage, limit, offset := parsePagination(r)
	q := r.URL.Query()
	f := service.MediaFilter{
		MimePrefix: q.Get("type"),
		Tag:        q.Get("tag"),
		Search:     q.Get("search"),
	}
	items, total, err := h.media.List(r.Context(), f, limit, offset)
	if err != nil {
		writeServiceError(w, r, err, "list media")
		return
	}
	out := make([]MediaResponse, 0, len(items))
	for _, m := range items {
		out = append(out, mediaResponse(m))
	}
	WriteSuccess(w, out, newMeta(total, page, perPage))
}

// GetMedia handles GET /api/admin/media/{id}
func (h *Handler) GetMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "media")
	if !ok {
		return
	}
	m, err := h.media.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "retrieve media")
		return
	}
	WriteSuccess(w, mediaResponse(m), nil)
}

// UploadMedia handles POST /api/admin/media as multipart/form-data with a
// "file" part and optional "alt_text" and comma separated "tags" fields.
func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.media.MaxSize()+multipartOverhead)
	if err := r.ParseMultipartForm(h.media.MaxSize()); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteAPIError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		WriteBadRequest(w, "Invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteBadRequest(w, "No file provided")
		return
	}
	defer func() { _ = file.Close() }()

	var tags []string
	if raw := r.FormValue("tags"); raw != "" {
		tags = strings.Split(raw, ",")
	}
	m, err := h.media.Upload(r.Context(), file, service.UploadInput{
		OriginalName: header.Filename,
		AltText:      r.FormValue("alt_text"),
		Tags:         tags,
	}, middleware.GetUserID(r))
	if err != nil {
		writeServiceError(w, r, err, "upload file")
		return
	}
	h.recordAudit(r, model.AuditActionUpload, model.ResourceMedia, m.ID,
		map[string]any{"filename": m.Filename, "mime_type": m.MimeType, "size": m.Size})
	WriteCreated(w, mediaResponse(m))
}

// UpdateMedia handles PUT /api/admin/media/{id}; only alt text and tags are
// editable.
func (h *Handler) UpdateMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "media")
	if !ok {
		return
	}
	var in service.MediaInput
	if !decodeJSON(w, r, &in) {
		return
	}
	m, err := h.media.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err, "update media")
		return
	}
	h.recordAudit(r, model.AuditActionUpdate, model.ResourceMedia, m.ID, nil)
	WriteSuccess(w, mediaResponse(m), nil)
}

// DeleteMedia handles DELETE /api/admin/media/{id}
func (h *Handler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "media")
	if !ok {
		return
	}
	m, err := h.media.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "delete media")
		return
	}
	h.recordAudit(r, model.AuditActionDelete, model.ResourceMedia, m.ID,
		map[string]any{"filename": m.Filename, "path": m.StoragePath})
	WriteSuccess(w, map[string]int64{"id": m.ID}, nil)
}
