// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/olegiv/kpp-site/internal/imaging"
	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/store"
	"github.com/olegiv/kpp-site/internal/util"
)

// Upload limits
const (
	DefaultMaxUploadSize = 20 * 1024 * 1024 // 20MB
	DefaultUploadDir     = "./uploads"

	// maxNameAttempts bounds the name-1, name-2, ... search.
	maxNameAttempts = 1000
	maxAltLength    = 500
)

// ErrFileTooLarge is returned when an upload exceeds the configured limit.
var ErrFileTooLarge = errors.New("file too large")

// allowedExtensions lists, per accepted MIME type, the extensions a file of
// that type may carry.
var allowedExtensions = map[string][]string{
	model.MimeTypeJPEG: {".jpg", ".jpeg"},
	model.MimeTypePNG:  {".png"},
	model.MimeTypeGIF:  {".gif"},
	model.MimeTypeWebP: {".webp"},
	model.MimeTypeSVG:  {".svg"},
	model.MimeTypePDF:  {".pdf"},
	model.MimeTypeMP4:  {".mp4"},
	model.MimeTypeWebM: {".webm"},
}

// MediaService stores uploads on disk under YYYY/MM directories and keeps
// their metadata in the media table.
type MediaService struct {
	queries   *store.Queries
	processor *imaging.Processor
	uploadDir string
	maxSize   int64
}

// NewMediaService creates a media service writing below uploadDir.
func NewMediaService(db *sql.DB, uploadDir string, maxSize int64) *MediaService {
	if uploadDir == "" {
		uploadDir = DefaultUploadDir
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &MediaService{
		queries:   store.New(db),
		processor: imaging.NewProcessor(model.DefaultThumbnail),
		uploadDir: uploadDir,
		maxSize:   maxSize,
	}
}

// MaxSize returns the upload size limit in bytes.
func (s *MediaService) MaxSize() int64 {
	return s.maxSize
}

// UploadDir returns the directory uploads are written to.
func (s *MediaService) UploadDir() string {
	return s.uploadDir
}

// UploadInput describes one uploaded file.
type UploadInput struct {
	OriginalName string
	AltText      string
	Tags         []string
}

// MediaInput is the editable part of a media row.
type MediaInput struct {
	AltText *string   `json:"alt_text"`
	Tags    *[]string `json:"tags"`
}

// MediaFilter narrows List.
type MediaFilter struct {
	MimePrefix string
	Tag        string
	Search     string
}

// Upload validates r, writes it under uploadDir/YYYY/MM without overwriting
// any existing file, renders a thumbnail for raster images and records the
// result.
func (s *MediaService) Upload(ctx context.Context, r io.Reader, in UploadInput, actorID int64) (store.Medium, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return store.Medium{}, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return store.Medium{}, ErrFileTooLarge
	}
	if len(data) == 0 {
		return store.Medium{}, invalid("file", "is empty")
	}

	original, err := util.SanitizeFilename(in.OriginalName)
	if err != nil {
		return store.Medium{}, invalid("file", "invalid filename")
	}
	ext := strings.ToLower(filepath.Ext(original))
	mimeType := sniffUploadType(data, ext)
	exts, ok := allowedExtensions[mimeType]
	if !ok {
		return store.Medium{}, invalid("file", "file type %s is not allowed", mimeType)
	}
	if !slices.Contains(exts, ext) {
		return store.Medium{}, invalid("file", "extension %q does not match content type %s", ext, mimeType)
	}
	if len(in.AltText) > maxAltLength {
		return store.Medium{}, invalid("alt_text", "must be at most %d characters", maxAltLength)
	}

	stem := util.Slugify(strings.TrimSuffix(original, filepath.Ext(original)))
	if stem == "" {
		stem = "file"
	}

	params := store.CreateMediaParams{
		OriginalName: original,
		MimeType:     mimeType,
		AltText:      strings.TrimSpace(in.AltText),
		Tags:         model.TagsJSON(in.Tags),
		UploadedBy:   nullID(actorID),
		CreatedAt:    time.Now().UTC(),
	}

	var thumb *imaging.Thumbnail
	if s.processor.IsImage(mimeType) {
		res, img, err := s.processor.Process(data)
		if err != nil {
			return store.Medium{}, invalid("file", "cannot process image: %v", err)
		}
		if res.Data != nil {
			data = res.Data
		}
		params.Width = sql.NullInt64{Int64: int64(res.Width), Valid: true}
		params.Height = sql.NullInt64{Int64: int64(res.Height), Valid: true}
		if thumb, err = s.processor.Thumbnail(img, mimeType); err != nil {
			slog.Warn("thumbnail generation failed", "file", original, "error", err)
			thumb = nil
		}
	}

	relDir := params.CreatedAt.Format("2006/01")
	dir, err := util.SafeJoinPath(s.uploadDir, filepath.FromSlash(relDir))
	if err != nil {
		return store.Medium{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return store.Medium{}, fmt.Errorf("creating upload directory: %w", err)
	}

	filename, err := writeUnique(dir, stem, ext, data)
	if err != nil {
		return store.Medium{}, err
	}
	params.Filename = filename
	params.StoragePath = path.Join(relDir, filename)
	params.Size = int64(len(data))
	written := []string{filepath.Join(dir, filename)}

	if thumb != nil {
		thumbStem := strings.TrimSuffix(filename, ext) + ".thumb"
		if thumbName, err := writeUnique(dir, thumbStem, thumb.Ext, thumb.Data); err != nil {
			slog.Warn("failed to save thumbnail", "file", filename, "error", err)
		} else {
			params.ThumbnailPath = sql.NullString{String: path.Join(relDir, thumbName), Valid: true}
			written = append(written, filepath.Join(dir, thumbName))
		}
	}

	m, err := s.queries.CreateMedia(ctx, params)
	if err != nil {
		for _, f := range written {
			_ = os.Remove(f)
		}
		return store.Medium{}, storeErr(err, "media")
	}

	slog.Info("media uploaded", "media_id", m.ID, "path", m.StoragePath, "size", m.Size, "uploaded_by", actorID)
	return m, nil
}

// writeUnique creates stem+ext in dir, or stem-1+ext, stem-2+ext and so on if
// the name is taken. O_EXCL makes the claim atomic, so concurrent uploads of
// the same name never overwrite each other.
func writeUnique(dir, stem, ext string, data []byte) (string, error) {
	for i := 0; i < maxNameAttempts; i++ {
		name := stem + ext
		if i > 0 {
			name = fmt.Sprintf("%s-%d%s", stem, i, ext)
		}
		full := filepath.Join(dir, name)
		f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating %s: %w", name, err)
		}
		_, werr := f.Write(data)
		cerr := f.Close()
		if werr != nil || cerr != nil {
			_ = os.Remove(full)
			return "", fmt.Errorf("writing %s: %w", name, errors.Join(werr, cerr))
		}
		return name, nil
	}
	return "", fmt.Errorf("no free filename for %s%s after %d attempts", stem, ext, maxNameAttempts)
}

// sniffUploadType detects the MIME type from content. SVG is text to the
// sniffer, so it is recognised by extension plus an <svg root element.
func sniffUploadType(data []byte, ext string) string {
	detected := imaging.DetectMimeType(data)
	if ext == ".svg" && (strings.HasPrefix(detected, "text/") || detected == "application/octet-stream") {
		head := data
		if len(head) > 1024 {
			head = head[:1024]
		}
		if bytes.Contains(bytes.ToLower(head), []byte("<svg")) {
			return model.MimeTypeSVG
		}
	}
	return detected
}

// Get returns a media row by ID.
func (s *MediaService) Get(ctx context.Context, id int64) (store.Medium, error) {
	m, err := s.queries.GetMedia(ctx, id)
	if err != nil {
		return store.Medium{}, storeErr(err, "media")
	}
	return m, nil
}

// List returns one page of media and the total matching count.
func (s *MediaService) List(ctx context.Context, f MediaFilter, limit, offset int64) ([]store.Medium, int64, error) {
	tag := ""
	if f.Tag != "" {
		if norm := model.NormalizeTags([]string{f.Tag}); len(norm) == 1 {
			tag = norm[0]
		}
	}
	items, err := s.queries.ListMedia(ctx, store.ListMediaParams{
		MimePrefix: f.MimePrefix, Tag: tag, Search: f.Search, Limit: limit, Offset: offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing media: %w", err)
	}
	total, err := s.queries.CountMedia(ctx, store.CountMediaParams{
		MimePrefix: f.MimePrefix, Tag: tag, Search: f.Search,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("counting media: %w", err)
	}
	return items, total, nil
}

// Update changes alt text and tags.
func (s *MediaService) Update(ctx context.Context, id int64, in MediaInput) (store.Medium, error) {
	cur, err := s.queries.GetMedia(ctx, id)
	if err != nil {
		return store.Medium{}, storeErr(err, "media")
	}
	alt := cur.AltText
	if in.AltText != nil {
		alt = strings.TrimSpace(*in.AltText)
	}
	if len(alt) > maxAltLength {
		return store.Medium{}, invalid("alt_text", "must be at most %d characters", maxAltLength)
	}
	tags := cur.Tags
	if in.Tags != nil {
		tags = model.TagsJSON(*in.Tags)
	}
	m, err := s.queries.UpdateMedia(ctx, store.UpdateMediaParams{
		AltText:   alt,
		Tags:      tags,
		UpdatedAt: time.Now().UTC(),
		ID:        id,
	})
	if err != nil {
		return store.Medium{}, storeErr(err, "media")
	}
	return m, nil
}

// Delete removes the row first, then the files. A file that cannot be
// removed is logged; the row is already gone.
func (s *MediaService) Delete(ctx context.Context, id int64) (store.Medium, error) {
	m, err := s.queries.GetMedia(ctx, id)
	if err != nil {
		return store.Medium{}, storeErr(err, "media")
	}
	if err := s.queries.DeleteMedia(ctx, id); err != nil {
		return store.Medium{}, fmt.Errorf("deleting media: %w", err)
	}

	files := []string{m.StoragePath}
	if m.ThumbnailPath.Valid {
		files = append(files, m.ThumbnailPath.String)
	}
	for _, rel := range files {
		full, err := util.SafeJoinPath(s.uploadDir, filepath.FromSlash(rel))
		if err != nil {
			slog.Warn("refusing to delete media file outside upload dir", "media_id", id, "path", rel)
			continue
		}
		if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to delete media file", "media_id", id, "path", rel, "error", err)
		}
	}

	slog.Info("media deleted", "media_id", id, "path", m.StoragePath)
	return m, nil
}

// URL returns the public URL of a stored media path.
func URL(storagePath string) string {
	if storagePath == "" {
		return ""
	}
	return "/uploads/" + storagePath
}
