package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/seo"
)

// Sitemap handles GET /sitemap.xml.
func (h *Frontend) Sitemap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pages, err := h.content.PublishedPages(ctx)
	if err != nil {
		slog.Error("failed to list pages for sitemap", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	projects, err := h.content.PublicProjects(ctx)
	if err != nil {
		slog.Error("failed to list projects for sitemap", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	pageEntries := make([]seo.SitemapEntry, 0, len(pages))
	for _, p := range pages {
		pageEntries = append(pageEntries, seo.SitemapEntry{Slug: p.Slug, UpdatedAt: p.UpdatedAt})
	}
	projectEntries := make([]seo.SitemapEntry, 0, len(projects))
	for _, p := range projects {
		projectEntries = append(projectEntries, seo.SitemapEntry{Slug: p.Slug, UpdatedAt: p.UpdatedAt})
	}

	out, err := seo.GenerateSitemap(h.siteURL, pageEntries, projectEntries)
	if err != nil {
		slog.Error("failed to build sitemap", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(out)
}

// Robots handles GET /robots.txt. Crawlers are shut out entirely during
// maintenance.
func (h *Frontend) Robots(w http.ResponseWriter, r *http.Request) {
	body := seo.BuildRobots(seo.RobotsConfig{
		SiteURL:     h.siteURL,
		DisallowAll: h.site.SettingBool(r.Context(), model.SettingMaintenanceMode, false),
	})
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write([]byte(body))
}
