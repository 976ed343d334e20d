// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"slices"
	"strings"
)

// Supported MIME types
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
	MimeTypeSVG  = "image/svg+xml"
	MimeTypePDF  = "application/pdf"
	MimeTypeMP4  = "video/mp4"
	MimeTypeWebM = "video/webm"
)

// ThumbnailConfig defines the size of generated media thumbnails.
type ThumbnailConfig struct {
	Width   int
	Height  int
	Quality int
	Crop    bool // true = crop to exact size, false = fit within bounds
}

// DefaultThumbnail is used for every raster upload.
var DefaultThumbnail = ThumbnailConfig{Width: 400, Height: 300, Quality: 82, Crop: true}

// IsRasterImage reports whether a MIME type can be decoded and resized.
func IsRasterImage(mimeType string) bool {
	switch mimeType {
	case MimeTypeJPEG, MimeTypePNG, MimeTypeGIF, MimeTypeWebP:
		return true
	}
	return false
}

// NormalizeTags lowercases, trims and de-duplicates tags, preserving order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// ParseTags decodes a stored JSON tag list, returning an empty slice on bad input.
func ParseTags(raw string) []string {
	var tags []string
	if raw == "" || json.Unmarshal([]byte(raw), &tags) != nil {
		return []string{}
	}
	return tags
}

// TagsJSON encodes tags for storage.
func TagsJSON(tags []string) string {
	b, err := json.Marshal(NormalizeTags(tags))
	if err != nil {
		return "[]"
	}
	return string(b)
}
