// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging decodes uploaded raster images, applies their EXIF
// orientation and renders thumbnails using pure Go libraries.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/olegiv/kpp-site/internal/model"
)

// ErrUnsupportedFormat is returned for data that is not JPEG, PNG, GIF or WebP.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// maxPixels bounds decoded image size to keep a hostile upload from
// exhausting memory.
const maxPixels = 50_000_000

// ProcessResult describes an uploaded image after orientation was applied.
type ProcessResult struct {
	Width    int
	Height   int
	MimeType string
	// Data is the re-encoded original with EXIF stripped, or nil when the
	// upload should be stored unchanged.
	Data []byte
}

// Thumbnail is a rendered thumbnail ready to be written to disk.
type Thumbnail struct {
	Width  int
	Height int
	Ext    string
	Data   []byte
}

// Processor handles image processing operations.
type Processor struct {
	thumb model.ThumbnailConfig
}

// NewProcessor creates a processor that renders thumbnails with cfg.
func NewProcessor(cfg model.ThumbnailConfig) *Processor {
	return &Processor{thumb: cfg}
}

// IsImage checks if a MIME type represents an image that can be processed.
func (p *Processor) IsImage(mimeType string) bool {
	return model.IsRasterImage(mimeType)
}

// Process decodes data, applies the EXIF orientation and reports the final
// dimensions. JPEGs carrying an orientation are re-encoded upright so
// browsers that ignore EXIF show them correctly; GIFs are never re-encoded
// to keep animation.
func (p *Processor) Process(data []byte) (*ProcessResult, image.Image, error) {
	format := detectFormat(data)
	if format == "" {
		return nil, nil, ErrUnsupportedFormat
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("reading image header: %w", err)
	}
	if cfg.Width*cfg.Height > maxPixels {
		return nil, nil, fmt.Errorf("image is too large (%dx%d)", cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode image: %w", err)
	}

	res := &ProcessResult{MimeType: formatToMimeType(format)}
	if format == "jpeg" {
		if orientation := readExifOrientation(bytes.NewReader(data)); orientation > 1 {
			img = applyOrientation(img, orientation)
			res.Data, err = encodeImage(img, format, 92)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to encode image: %w", err)
			}
		}
	}

	bounds := img.Bounds()
	res.Width = bounds.Dx()
	res.Height = bounds.Dy()
	return res, img, nil
}

// Thumbnail renders img at the configured thumbnail size. WebP sources are
// written as JPEG since there is no pure Go WebP encoder; GIFs become PNG.
func (p *Processor) Thumbnail(img image.Image, mimeType string) (*Thumbnail, error) {
	var resized image.Image
	if p.thumb.Crop {
		resized = imaging.Fill(img, p.thumb.Width, p.thumb.Height, imaging.Center, imaging.Lanczos)
	} else {
		resized = imaging.Fit(img, p.thumb.Width, p.thumb.Height, imaging.Lanczos)
	}

	format, ext := "jpeg", ".jpg"
	if mimeType == model.MimeTypePNG || mimeType == model.MimeTypeGIF {
		format, ext = "png", ".png"
	}
	data, err := encodeImage(resized, format, p.thumb.Quality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	b := resized.Bounds()
	return &Thumbnail{Width: b.Dx(), Height: b.Dy(), Ext: ext, Data: data}, nil
}

// DetectMimeType sniffs the MIME type of data.
func DetectMimeType(data []byte) string {
	contentType := http.DetectContentType(data)
	// http.DetectContentType returns types like "text/plain; charset=utf-8"
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return contentType
}

// readExifOrientation reads the EXIF orientation tag from image data.
// Returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}

	return orientation
}

// applyOrientation applies EXIF orientation transformation to an image.
// Orientation values:
// 1: Normal
// 2: Flip horizontal
// 3: Rotate 180°
// 4: Flip vertical
// 5: Rotate 90° CW + flip horizontal
// 6: Rotate 90° CW
// 7: Rotate 90° CCW + flip horizontal
// 8: Rotate 90° CCW
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// detectFormat detects the image format from raw bytes.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	// Explicitly reject TIFF (CVE-2023-36308 in disintegration/imaging)
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

func formatToMimeType(format string) string {
	switch format {
	case "jpeg":
		return model.MimeTypeJPEG
	case "png":
		return model.MimeTypePNG
	case "gif":
		return model.MimeTypeGIF
	case "webp":
		return model.MimeTypeWebP
	default:
		return "application/octet-stream"
	}
}
