// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"encoding/json"
	"html/template"
	"strings"
)

const descriptionLength = 160

// Meta holds the SEO meta tag data for a page.
type Meta struct {
	Title         string // <title>
	Description   string
	Keywords      string
	Canonical     string
	OGTitle       string
	OGDescription string
	OGImage       string // absolute
	OGType        string // website, article
	OGSiteName    string
	Robots        string
	TwitterCard   string
}

// PageData describes the page being rendered. Path is the public path,
// such as "/" or "/projects/harbor-point".
type PageData struct {
	Title           string
	Path            string
	MetaTitle       string
	MetaDescription string
	MetaKeywords    string
	OGImage         string
	Summary         string // fallback description, plain text
	NoIndex         bool
}

// SiteConfig contains site-wide settings for SEO.
type SiteConfig struct {
	SiteName       string
	SiteURL        string
	Tagline        string
	DefaultOGImage string
}

// BuildMeta creates Meta for page with site-level fallbacks. The title is
// suffixed with the site name unless it already is the site name.
func BuildMeta(page PageData, site SiteConfig) *Meta {
	meta := &Meta{
		OGType:      "website",
		OGSiteName:  site.SiteName,
		TwitterCard: "summary_large_image",
		Keywords:    page.MetaKeywords,
		Canonical:   AbsoluteURL(page.Path, site.SiteURL),
		Robots:      "index,follow",
	}
	if page.NoIndex {
		meta.Robots = "noindex,nofollow"
	}
	if page.Path != "/" && page.Path != "" {
		meta.OGType = "article"
	}

	title := page.MetaTitle
	if title == "" {
		title = page.Title
	}
	meta.OGTitle = title
	switch {
	case title == "":
		meta.Title = site.SiteName
		meta.OGTitle = site.SiteName
	case site.SiteName == "" || title == site.SiteName:
		meta.Title = title
	default:
		meta.Title = title + " | " + site.SiteName
	}

	switch {
	case page.MetaDescription != "":
		meta.Description = page.MetaDescription
	case page.Summary != "":
		meta.Description = truncateText(collapseSpace(page.Summary), descriptionLength)
	default:
		meta.Description = site.Tagline
	}
	meta.OGDescription = meta.Description

	image := page.OGImage
	if image == "" {
		image = site.DefaultOGImage
	}
	meta.OGImage = AbsoluteURL(image, site.SiteURL)
	return meta
}

// OrganizationSchema is JSON-LD Organization data for the home page.
type OrganizationSchema struct {
	Context     string   `json:"@context"`
	Type        string   `json:"@type"`
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Description string   `json:"description,omitempty"`
	Email       string   `json:"email,omitempty"`
	Telephone   string   `json:"telephone,omitempty"`
	Address     string   `json:"address,omitempty"`
	SameAs      []string `json:"sameAs,omitempty"`
}

// ProjectSchema is JSON-LD data for a power plant project.
type ProjectSchema struct {
	Context     string       `json:"@context"`
	Type        string       `json:"@type"`
	Name        string       `json:"name"`
	URL         string       `json:"url"`
	Description string       `json:"description,omitempty"`
	Image       string       `json:"image,omitempty"`
	Location    *PlaceSchema `json:"location,omitempty"`
	Parent      *OrgRef      `json:"parentOrganization,omitempty"`
}

// PlaceSchema is a JSON-LD Place.
type PlaceSchema struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

// OrgRef references an Organization by name.
type OrgRef struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

// BuildOrganizationSchema renders the organization JSON-LD.
func BuildOrganizationSchema(org OrganizationSchema) template.JS {
	org.Context = "https://schema.org"
	org.Type = "Organization"
	return marshalJSONLD(org)
}

// BuildProjectSchema renders the JSON-LD for a project page.
func BuildProjectSchema(p ProjectSchema, site SiteConfig, location string) template.JS {
	p.Context = "https://schema.org"
	p.Type = "Project"
	p.URL = AbsoluteURL(p.URL, site.SiteURL)
	p.Image = AbsoluteURL(p.Image, site.SiteURL)
	if location != "" {
		p.Location = &PlaceSchema{Type: "Place", Name: location}
	}
	if site.SiteName != "" {
		p.Parent = &OrgRef{Type: "Organization", Name: site.SiteName}
	}
	return marshalJSONLD(p)
}

// marshalJSONLD marshals structured data for a script tag. json.Marshal
// escapes <, > and & so the output cannot close the tag.
func marshalJSONLD(v any) template.JS {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return template.JS(data) //nolint:gosec // escaped by encoding/json
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateText truncates text to maxLen bytes at a word boundary.
func truncateText(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	if len(text) <= maxLen {
		return text
	}

	truncated := text[:maxLen]
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > maxLen/2 {
		truncated = truncated[:lastSpace]
	}
	return strings.TrimSpace(truncated) + "..."
}

// AbsoluteURL prefixes relative paths with the site URL.
func AbsoluteURL(url, siteURL string) string {
	if url == "" {
		return ""
	}
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	siteURL = strings.TrimSuffix(siteURL, "/")
	if !strings.HasPrefix(url, "/") {
		url = "/" + url
	}
	return siteURL + url
}
