// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/kpp-site/internal/middleware"
	"github.com/olegiv/kpp-site/internal/render"
	"github.com/olegiv/kpp-site/internal/seo"
	"github.com/olegiv/kpp-site/internal/service"
)

// maxContactFormBytes bounds the size of a posted contact form.
const maxContactFormBytes = 64 << 10

// honeypotField is hidden from people; bots that fill it are dropped.
const honeypotField = "website"

const contactSuccessMessage = "Thank you for your message. We will get back to you soon."

// ContactForm is the contact form as submitted.
type ContactForm struct {
	Name    string
	Email   string
	Company string
	Subject string
	Message string
}

// ContactView holds data for the contact page.
type ContactView struct {
	Form   ContactForm
	Errors map[string]string
}

// ContactPage handles GET /contact.
func (h *Frontend) ContactPage(w http.ResponseWriter, r *http.Request) {
	h.renderContact(w, r, http.StatusOK, ContactView{})
}

// SubmitContact handles POST /contact. A valid message is stored and the
// browser is redirected back to the form with a flash message.
func (h *Frontend) SubmitContact(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxContactFormBytes)
	if err := r.ParseForm(); err != nil {
		h.renderer.SetFlash(r, "The form could not be read. Please try again.", render.FlashError)
		http.Redirect(w, r, "/contact", http.StatusSeeOther)
		return
	}

	form := ContactForm{
		Name:    strings.TrimSpace(r.PostFormValue("name")),
		Email:   strings.TrimSpace(r.PostFormValue("email")),
		Company: strings.TrimSpace(r.PostFormValue("company")),
		Subject: strings.TrimSpace(r.PostFormValue("subject")),
		Message: strings.TrimSpace(r.PostFormValue("message")),
	}

	if r.PostFormValue(honeypotField) != "" {
		slog.Info("dropped contact form spam", "ip", middleware.ClientIP(r))
		h.renderer.SetFlash(r, contactSuccessMessage, render.FlashSuccess)
		http.Redirect(w, r, "/contact", http.StatusSeeOther)
		return
	}

	_, err := h.contact.Submit(r.Context(), service.ContactInput{
		Name:    form.Name,
		Email:   form.Email,
		Company: form.Company,
		Subject: form.Subject,
		Message: form.Message,
		IP:      middleware.ClientIP(r),
	})
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			h.renderContact(w, r, http.StatusUnprocessableEntity, ContactView{
				Form:   form,
				Errors: map[string]string{verr.Field: verr.Message},
			})
			return
		}
		slog.Error("failed to store contact message", "error", err)
		h.renderer.SetFlash(r, "Your message could not be sent. Please try again later.", render.FlashError)
		http.Redirect(w, r, "/contact", http.StatusSeeOther)
		return
	}

	h.renderer.SetFlash(r, contactSuccessMessage, render.FlashSuccess)
	http.Redirect(w, r, "/contact", http.StatusSeeOther)
}

func (h *Frontend) renderContact(w http.ResponseWriter, r *http.Request, status int, view ContactView) {
	data := h.baseData(r, "Contact", seo.PageData{
		Title:           "Contact",
		Path:            "/contact",
		MetaDescription: "Get in touch with our team about projects, partnerships and press.",
	})
	data.Data = view
	h.renderStatus(w, r, status, "pages/contact", data)
}
