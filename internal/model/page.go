// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"fmt"
)

// Page statuses
const (
	PageStatusDraft     = "draft"
	PageStatusPublished = "published"
	PageStatusArchived  = "archived"
)

// IsValidPageStatus reports whether s is a known page status.
func IsValidPageStatus(s string) bool {
	switch s {
	case PageStatusDraft, PageStatusPublished, PageStatusArchived:
		return true
	}
	return false
}

// Content block types understood by the public renderer.
const (
	BlockHero     = "hero"
	BlockText     = "text"
	BlockHTML     = "html"
	BlockFeatures = "features"
	BlockStats    = "stats"
	BlockCTA      = "cta"
	BlockImage    = "image"
)

// PageContent is the JSON document stored in pages.content.
type PageContent struct {
	Blocks []Block `json:"blocks"`
}

// Block is one section of a page. Only the fields relevant to Type are set.
type Block struct {
	Type       string      `json:"type"`
	Heading    string      `json:"heading,omitempty"`
	Subheading string      `json:"subheading,omitempty"`
	Body       string      `json:"body,omitempty"` // markdown for text blocks
	HTML       string      `json:"html,omitempty"` // raw HTML, sanitised on render
	Image      string      `json:"image,omitempty"`
	Alt        string      `json:"alt,omitempty"`
	Caption    string      `json:"caption,omitempty"`
	Label      string      `json:"label,omitempty"`
	URL        string      `json:"url,omitempty"`
	Items      []BlockItem `json:"items,omitempty"`
}

// BlockItem is an entry in a features or stats block.
type BlockItem struct {
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
	Icon  string `json:"icon,omitempty"`
	Value string `json:"value,omitempty"`
	Label string `json:"label,omitempty"`
}

// ParsePageContent decodes a stored content blob. Empty input yields an empty document.
func ParsePageContent(raw string) (PageContent, error) {
	var c PageContent
	if raw == "" {
		return c, nil
	}
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return c, fmt.Errorf("parsing page content: %w", err)
	}
	return c, nil
}

// NormalizeContentJSON validates that raw is a JSON object and returns its
// compact form. An empty value becomes `{"blocks":[]}`.
func NormalizeContentJSON(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return `{"blocks":[]}`, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("content must be a JSON object: %w", err)
	}
	if blocks, ok := obj["blocks"]; ok {
		if _, isList := blocks.([]any); !isList {
			return "", fmt.Errorf("content.blocks must be an array")
		}
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
