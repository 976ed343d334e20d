package handler

import (
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/kpp-site/internal/middleware"
)

// Routes registers the public pages on r. contactLimiter may be nil.
func (h *Frontend) Routes(r chi.Router, contactLimiter *middleware.RateLimiter) {
	r.Get("/sitemap.xml", h.Sitemap)
	r.Get("/robots.txt", h.Robots)

	r.Group(func(r chi.Router) {
		r.Use(h.Maintenance)

		r.Get("/", h.Home)
		r.Get("/about", h.StaticPage(SlugAbout))
		r.Get("/technology", h.StaticPage(SlugTechnology))
		r.Get("/projects", h.Projects)
		r.Get("/projects/{slug}", h.Project)

		r.Group(func(r chi.Router) {
			if contactLimiter != nil {
				r.Use(contactLimiter.HTMLMiddleware())
			}
			r.Get("/contact", h.ContactPage)
			r.Post("/contact", h.SubmitContact)
		})

		r.Get("/{slug}", h.Page)
	})
}
