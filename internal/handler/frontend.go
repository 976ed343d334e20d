// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the HTTP handlers of the public site.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/render"
	"github.com/olegiv/kpp-site/internal/seo"
	"github.com/olegiv/kpp-site/internal/service"
	"github.com/olegiv/kpp-site/internal/store"
)

// Page slugs with dedicated routes.
const (
	SlugHome       = seo.HomeSlug
	SlugAbout      = "about"
	SlugTechnology = "technology"
	SlugProjects   = "projects"
)

// PageView is a published page with its rendered content blocks.
type PageView struct {
	Page   store.Page
	Blocks []render.Block
}

// HomeView holds data for the home page.
type HomeView struct {
	PageView
	Featured []store.Project
	Totals   store.ProjectTotals
}

// ProjectsView holds data for the projects overview.
type ProjectsView struct {
	Intro    *PageView // nil when no "projects" page is published
	Projects []store.Project
	Totals   store.ProjectTotals
}

// ProjectView holds data for a project detail page.
type ProjectView struct {
	Project     store.Project
	Description template.HTML
}

// ErrorView holds data for the error page.
type ErrorView struct {
	Status  int
	Heading string
	Message string
}

// Frontend handles the public marketing pages.
type Frontend struct {
	content  *service.ContentService
	site     *service.SiteService
	contact  *service.ContactService
	renderer *render.Renderer
	siteURL  string
}

// FrontendConfig holds the dependencies of Frontend.
type FrontendConfig struct {
	Content  *service.ContentService
	Site     *service.SiteService
	Contact  *service.ContactService
	Renderer *render.Renderer
	SiteURL  string
}

// NewFrontend creates a Frontend.
func NewFrontend(cfg FrontendConfig) *Frontend {
	return &Frontend{
		content:  cfg.Content,
		site:     cfg.Site,
		contact:  cfg.Contact,
		renderer: cfg.Renderer,
		siteURL:  strings.TrimSuffix(cfg.SiteURL, "/"),
	}
}

// Home handles GET /.
func (h *Frontend) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pv, err := h.publishedPage(ctx, SlugHome)
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	view := HomeView{PageView: *pv}
	projects, err := h.content.PublicProjects(ctx)
	if err != nil {
		slog.Error("failed to list projects", "error", err)
	}
	for _, p := range projects {
		if p.IsFeatured {
			view.Featured = append(view.Featured, p)
		}
	}
	if view.Totals, err = h.content.ProjectTotals(ctx); err != nil {
		slog.Error("failed to load project totals", "error", err)
	}

	data := h.baseData(r, pv.Page.Title, h.pageMeta(pv.Page, "/"))
	data.JSONLD = h.organizationSchema(ctx)
	data.Data = view
	h.render(w, r, "pages/home", data)
}

// StaticPage returns a handler rendering the page with the given slug.
func (h *Frontend) StaticPage(slug string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.renderPage(w, r, slug)
	}
}

// Page handles GET /{slug} for any published page. The home page is only
// served at the root.
func (h *Frontend) Page(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == SlugHome {
		http.Redirect(w, r, "/", http.StatusMovedPermanently)
		return
	}
	h.renderPage(w, r, slug)
}

func (h *Frontend) renderPage(w http.ResponseWriter, r *http.Request, slug string) {
	pv, err := h.publishedPage(r.Context(), slug)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	data := h.baseData(r, pv.Page.Title, h.pageMeta(pv.Page, "/"+slug))
	data.Data = pv
	h.render(w, r, "pages/page", data)
}

// Projects handles GET /projects.
func (h *Frontend) Projects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projects, err := h.content.PublicProjects(ctx)
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	view := ProjectsView{Projects: projects}
	title := "Projects"
	meta := seo.PageData{Title: title, Path: "/projects"}
	if pv, err := h.publishedPage(ctx, SlugProjects); err == nil {
		view.Intro = pv
		title = pv.Page.Title
		meta = h.pageMeta(pv.Page, "/projects")
	} else if !errors.Is(err, service.ErrNotFound) {
		slog.Error("failed to load projects page", "error", err)
	}
	if view.Totals, err = h.content.ProjectTotals(ctx); err != nil {
		slog.Error("failed to load project totals", "error", err)
	}

	data := h.baseData(r, title, meta)
	data.Data = view
	h.render(w, r, "pages/projects", data)
}

// Project handles GET /projects/{slug}.
func (h *Frontend) Project(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.content.PublicProject(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	view := ProjectView{Project: p}
	if p.Description != "" {
		if view.Description, err = h.renderer.Blocks().Markdown(p.Description); err != nil {
			slog.Warn("failed to render project description", "project", p.Slug, "error", err)
		}
	}

	path := "/projects/" + p.Slug
	data := h.baseData(r, p.Name, seo.PageData{
		Title:   p.Name,
		Path:    path,
		Summary: p.Summary,
		OGImage: p.FeaturedImage,
	})
	data.JSONLD = seo.BuildProjectSchema(seo.ProjectSchema{
		Name:        p.Name,
		URL:         path,
		Description: p.Summary,
		Image:       p.FeaturedImage,
	}, h.seoSite(h.site.Settings(ctx)), p.Location)
	data.Data = view
	h.render(w, r, "pages/project", data)
}

// NotFound renders the 404 page.
func (h *Frontend) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound)
}

// Maintenance answers public page requests with 503 while the
// maintenance_mode setting is on.
func (h *Frontend) Maintenance(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.site.SettingBool(r.Context(), model.SettingMaintenanceMode, false) {
			w.Header().Set("Retry-After", "3600")
			h.renderError(w, r, http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// publishedPage loads a published page and renders its blocks.
func (h *Frontend) publishedPage(ctx context.Context, slug string) (*PageView, error) {
	p, err := h.content.PublishedPage(ctx, slug)
	if err != nil {
		return nil, err
	}
	blocks, err := h.renderer.Blocks().Render(p.Content)
	if err != nil {
		slog.Warn("page has invalid content", "slug", slug, "error", err)
	}
	return &PageView{Page: *p, Blocks: blocks}, nil
}

func (h *Frontend) pageMeta(p store.Page, path string) seo.PageData {
	return seo.PageData{
		Title:           p.Title,
		Path:            path,
		MetaTitle:       p.MetaTitle,
		MetaDescription: p.MetaDescription,
		MetaKeywords:    p.MetaKeywords,
		OGImage:         p.OgImage,
	}
}

func (h *Frontend) seoSite(settings map[string]string) seo.SiteConfig {
	return seo.SiteConfig{
		SiteName:       settings[model.SettingSiteName],
		SiteURL:        h.siteURL,
		Tagline:        settings[model.SettingSiteTagline],
		DefaultOGImage: "/static/img/og-default.png",
	}
}

// baseData collects the layout data shared by every page.
func (h *Frontend) baseData(r *http.Request, title string, page seo.PageData) render.TemplateData {
	ctx := r.Context()
	settings := h.site.Settings(ctx)

	site := render.SiteInfo{
		Name:           settings[model.SettingSiteName],
		Tagline:        settings[model.SettingSiteTagline],
		ContactEmail:   settings[model.SettingContactEmail],
		ContactPhone:   settings[model.SettingContactPhone],
		ContactAddress: settings[model.SettingContactAddress],
		SocialLinks:    socialLinks(settings[model.SettingSocialLinks]),
	}
	if site.Name == "" {
		site.Name = "KPP"
	}

	return render.TemplateData{
		Title:       title,
		Meta:        seo.BuildMeta(page, h.seoSite(settings)),
		Site:        site,
		HeaderMenu:  h.site.MenuItems(ctx, model.MenuLocationHeader),
		FooterMenu:  h.site.MenuItems(ctx, model.MenuLocationFooter),
		CurrentPath: r.URL.Path,
		Analytics:   h.site.SettingBool(ctx, model.SettingAnalyticsOn, true),
	}
}

func (h *Frontend) organizationSchema(ctx context.Context) template.JS {
	settings := h.site.Settings(ctx)
	org := seo.OrganizationSchema{
		Name:        settings[model.SettingSiteName],
		URL:         h.siteURL + "/",
		Description: settings[model.SettingSiteTagline],
		Email:       settings[model.SettingContactEmail],
		Telephone:   settings[model.SettingContactPhone],
		Address:     settings[model.SettingContactAddress],
	}
	if links := socialLinks(settings[model.SettingSocialLinks]); len(links) > 0 {
		org.SameAs = slices.Sorted(maps.Values(links))
	}
	return seo.BuildOrganizationSchema(org)
}

// socialLinks decodes the social_links JSON setting, dropping empty URLs.
func socialLinks(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	var links map[string]string
	if err := json.Unmarshal([]byte(raw), &links); err != nil {
		slog.Warn("invalid social_links setting", "error", err)
		return nil
	}
	for name, url := range links {
		if url == "" {
			delete(links, name)
		}
	}
	return links
}

func (h *Frontend) render(w http.ResponseWriter, r *http.Request, name string, data render.TemplateData) {
	h.renderStatus(w, r, http.StatusOK, name, data)
}

func (h *Frontend) renderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data render.TemplateData) {
	if err := h.renderer.RenderStatus(w, r, status, name, data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "Template rendering error", http.StatusInternalServerError)
	}
}

// pageError renders 404 for missing content and 500 otherwise.
func (h *Frontend) pageError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrNotFound) {
		h.renderError(w, r, http.StatusNotFound)
		return
	}
	slog.Error("failed to load page", "path", r.URL.Path, "error", err)
	h.renderError(w, r, http.StatusInternalServerError)
}

var errorMessages = map[int][2]string{
	http.StatusNotFound:            {"Page not found", "The page you are looking for does not exist or has been moved."},
	http.StatusServiceUnavailable:  {"Down for maintenance", "We are updating the site. Please check back shortly."},
	http.StatusInternalServerError: {"Something went wrong", "An error occurred while processing your request."},
}

func (h *Frontend) renderError(w http.ResponseWriter, r *http.Request, status int) {
	msg, ok := errorMessages[status]
	if !ok {
		msg = [2]string{http.StatusText(status), ""}
	}
	data := h.baseData(r, msg[0], seo.PageData{Title: msg[0], Path: r.URL.Path, NoIndex: true})
	data.Data = ErrorView{Status: status, Heading: msg[0], Message: msg[1]}
	h.renderStatus(w, r, status, "pages/error", data)
}
