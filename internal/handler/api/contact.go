package api

import (
	"net/http"

	"github.com/olegiv/kpp-site/internal/model"
)

// ListContactMessages handles GET /api/admin/contact-messages?unread=true
func (h *Handler) ListContactMessages(w http.ResponseWriter, r *http.Request) {
	page, perPage, limit, offset := parsePagination(r)
	msgs, total, err := h.contact.List(r.Context(), r.URL.Query().Get("unread") == "true", limit, offset)
	if err != nil {
		writeServiceError(w, r, err, "list messages")
		return
	}
	WriteSuccess(w, msgs, newMeta(total, page, perPage))
}

// MarkReadRequest is the optional body of PUT /contact-messages/{id}/read.
type MarkReadRequest struct {
	Read *bool `json:"read"`
}

// MarkContactMessageRead handles PUT /api/admin/contact-messages/{id}/read.
// An empty body marks the message read; {"read":false} marks it unread.
func (h *Handler) MarkContactMessageRead(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "message")
	if !ok {
		return
	}
	read := true
	if r.ContentLength > 0 {
		var req MarkReadRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Read != nil {
			read = *req.Read
		}
	}
	msg, err := h.contact.MarkRead(r.Context(), id, read)
	if err != nil {
		writeServiceError(w, r, err, "update message")
		return
	}
	WriteSuccess(w, msg, nil)
}

// DeleteContactMessage handles DELETE /api/admin/contact-messages/{id}
func (h *Handler) DeleteContactMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "message")
	if !ok {
		return
	}
	if err := h.contact.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "delete message")
		return
	}
	h.recordAudit(r, model.AuditActionDelete, model.ResourceContact, id, nil)
	WriteSuccess(w, map[string]int64{"id": id}, nil)
}
