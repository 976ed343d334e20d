// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"strings"
	"testing"
)

var testSite = SiteConfig{
	SiteName:       "KPP Energy",
	SiteURL:        "https://kpp.example.com",
	Tagline:        "Clean baseload power",
	DefaultOGImage: "/static/img/og.png",
}

func TestBuildMeta(t *testing.T) {
	tests := []struct {
		name      string
		page      PageData
		wantTitle string
		wantDesc  string
		wantImage string
		wantType  string
	}{
		{
			name:      "home falls back to site data",
			page:      PageData{Path: "/", Title: "KPP Energy"},
			wantTitle: "KPP Energy",
			wantDesc:  "Clean baseload power",
			wantImage: "https://kpp.example.com/static/img/og.png",
			wantType:  "website",
		},
		{
			name:      "meta title wins",
			page:      PageData{Path: "/about", Title: "About", MetaTitle: "About KPP", MetaDescription: "Who we are"},
			wantTitle: "About KPP | KPP Energy",
			wantDesc:  "Who we are",
			wantImage: "https://kpp.example.com/static/img/og.png",
			wantType:  "article",
		},
		{
			name:      "summary as description and own image",
			page:      PageData{Path: "/projects/x", Title: "Harbor", Summary: "  A   10 MW\nplant ", OGImage: "https://cdn.example.com/h.jpg"},
			wantTitle: "Harbor | KPP Energy",
			wantDesc:  "A 10 MW plant",
			wantImage: "https://cdn.example.com/h.jpg",
			wantType:  "article",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := BuildMeta(tt.page, testSite)
			if m.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", m.Title, tt.wantTitle)
			}
			if m.Description != tt.wantDesc || m.OGDescription != tt.wantDesc {
				t.Errorf("Description = %q, want %q", m.Description, tt.wantDesc)
			}
			if m.OGImage != tt.wantImage {
				t.Errorf("OGImage = %q, want %q", m.OGImage, tt.wantImage)
			}
			if m.OGType != tt.wantType {
				t.Errorf("OGType = %q, want %q", m.OGType, tt.wantType)
			}
			if m.Canonical != AbsoluteURL(tt.page.Path, testSite.SiteURL) {
				t.Errorf("Canonical = %q", m.Canonical)
			}
		})
	}
}

func TestBuildMetaNoIndex(t *testing.T) {
	m := BuildMeta(PageData{Path: "/contact", Title: "Contact", NoIndex: true}, testSite)
	if m.Robots != "noindex,nofollow" {
		t.Errorf("Robots = %q", m.Robots)
	}
}

func TestTruncateText(t *testing.T) {
	long := strings.Repeat("word ", 50)
	got := truncateText(long, 30)
	if len(got) > 33 || !strings.HasSuffix(got, "...") {
		t.Errorf("truncateText = %q", got)
	}
	if got := truncateText("short", 30); got != "short" {
		t.Errorf("truncateText(short) = %q", got)
	}
}

func TestAbsoluteURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"/uploads/a.png", "https://kpp.example.com/uploads/a.png"},
		{"uploads/a.png", "https://kpp.example.com/uploads/a.png"},
		{"https://cdn.example.com/a.png", "https://cdn.example.com/a.png"},
	}
	for _, tt := range tests {
		if got := AbsoluteURL(tt.in, "https://kpp.example.com/"); got != tt.want {
			t.Errorf("AbsoluteURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSchemas(t *testing.T) {
	org := string(BuildOrganizationSchema(OrganizationSchema{Name: "KPP </script>", URL: "https://kpp.example.com"}))
	if !strings.Contains(org, `"@type":"Organization"`) {
		t.Errorf("org schema = %s", org)
	}
	if strings.Contains(org, "</script>") {
		t.Error("schema output can close the script tag")
	}

	p := string(BuildProjectSchema(ProjectSchema{Name: "Harbor", URL: "/projects/harbor"}, testSite, "Harbor Point"))
	for _, want := range []string{`"@type":"Project"`, `"url":"https://kpp.example.com/projects/harbor"`, `"name":"Harbor Point"`, `"parentOrganization"`} {
		if !strings.Contains(p, want) {
			t.Errorf("project schema missing %s: %s", want, p)
		}
	}
}
