// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"bytes"
	"html/template"
	"log/slog"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/olegiv/kpp-site/internal/model"
)

// Block is a content block ready for a template. HTML carries the rendered
// body of text and html blocks; the other types use the embedded fields.
type Block struct {
	model.Block
	HTML template.HTML
}

// BlockRenderer turns stored page content into template blocks. Markdown is
// converted by goldmark and every HTML fragment passes through a UGC policy.
type BlockRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewBlockRenderer creates a BlockRenderer.
func NewBlockRenderer() *BlockRenderer {
	return &BlockRenderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: bluemonday.UGCPolicy(),
	}
}

// Render decodes raw page content and renders its blocks in order. Unknown
// block types are skipped, as are text blocks whose markdown fails to convert.
func (b *BlockRenderer) Render(raw string) ([]Block, error) {
	content, err := model.ParsePageContent(raw)
	if err != nil {
		return nil, err
	}

	out := make([]Block, 0, len(content.Blocks))
	for _, blk := range content.Blocks {
		rb := Block{Block: blk}
		switch blk.Type {
		case model.BlockText:
			html, err := b.Markdown(blk.Body)
			if err != nil {
				slog.Warn("skipping text block", "error", err)
				continue
			}
			rb.HTML = html
		case model.BlockHTML:
			rb.HTML = b.Sanitize(blk.HTML)
		case model.BlockHero, model.BlockFeatures, model.BlockStats, model.BlockCTA, model.BlockImage:
		default:
			continue
		}
		out = append(out, rb)
	}
	return out, nil
}

// Markdown converts md to sanitised HTML.
func (b *BlockRenderer) Markdown(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := b.md.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return template.HTML(b.policy.SanitizeBytes(buf.Bytes())), nil //nolint:gosec // sanitised above
}

// Sanitize strips unsafe markup from html.
func (b *BlockRenderer) Sanitize(html string) template.HTML {
	return template.HTML(b.policy.Sanitize(html)) //nolint:gosec // sanitised by bluemonday
}
