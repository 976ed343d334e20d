// Package seo builds the sitemap, robots.txt and page meta data of the
// public site.
package seo

import (
	"encoding/xml"
	"strings"
	"time"
)

// XMLNamespace is the sitemap XML namespace.
const XMLNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ChangeFreq represents the change frequency of a URL.
type ChangeFreq string

// Change frequencies used by the site.
const (
	ChangeFreqDaily   ChangeFreq = "daily"
	ChangeFreqWeekly  ChangeFreq = "weekly"
	ChangeFreqMonthly ChangeFreq = "monthly"
)

// HomeSlug is the page rendered at the site root.
const HomeSlug = "home"

// SitemapURL represents a single URL entry in the sitemap.
type SitemapURL struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   string     `xml:"priority,omitempty"`
}

// Sitemap represents the complete sitemap document.
type Sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// SitemapEntry is a published page or a project.
type SitemapEntry struct {
	Slug      string
	UpdatedAt time.Time
}

// SitemapBuilder builds sitemap XML from pages and projects.
type SitemapBuilder struct {
	siteURL string
	urls    []SitemapURL
	seen    map[string]bool
}

// NewSitemapBuilder creates a new sitemap builder.
func NewSitemapBuilder(siteURL string) *SitemapBuilder {
	return &SitemapBuilder{
		siteURL: strings.TrimSuffix(siteURL, "/"),
		seen:    make(map[string]bool),
	}
}

func (b *SitemapBuilder) add(path string, updated time.Time, freq ChangeFreq, priority string) {
	loc := b.siteURL + path
	if b.seen[loc] {
		return
	}
	b.seen[loc] = true
	u := SitemapURL{Loc: loc, ChangeFreq: freq, Priority: priority}
	if !updated.IsZero() {
		u.LastMod = updated.UTC().Format(time.RFC3339)
	}
	b.urls = append(b.urls, u)
}

// AddHomepage adds the site root. updated may be zero.
func (b *SitemapBuilder) AddHomepage(updated time.Time) {
	b.add("/", updated, ChangeFreqDaily, "1.0")
}

// AddPage adds a published page. The home page maps to the site root.
func (b *SitemapBuilder) AddPage(page SitemapEntry) {
	if page.Slug == HomeSlug {
		b.AddHomepage(page.UpdatedAt)
		return
	}
	b.add("/"+page.Slug, page.UpdatedAt, ChangeFreqWeekly, "0.8")
}

// AddProject adds a project detail page.
func (b *SitemapBuilder) AddProject(project SitemapEntry) {
	b.add("/projects/"+project.Slug, project.UpdatedAt, ChangeFreqMonthly, "0.6")
}

// Build generates the sitemap XML.
func (b *SitemapBuilder) Build() ([]byte, error) {
	sitemap := Sitemap{
		XMLNS: XMLNamespace,
		URLs:  b.urls,
	}

	output := []byte(xml.Header)
	xmlBytes, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(output, xmlBytes...), nil
}

// GenerateSitemap builds a sitemap with the root, the fixed sections, every
// page and every project.
func GenerateSitemap(siteURL string, pages, projects []SitemapEntry) ([]byte, error) {
	b := NewSitemapBuilder(siteURL)
	for _, p := range pages {
		b.AddPage(p)
	}
	b.AddHomepage(time.Time{})
	b.add("/projects", time.Time{}, ChangeFreqWeekly, "0.8")
	b.add("/contact", time.Time{}, ChangeFreqMonthly, "0.5")
	for _, p := range projects {
		b.AddProject(p)
	}
	return b.Build()
}
