// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	"github.com/olegiv/kpp-site/internal/model"
)

// createTestImage creates a simple test image with the given dimensions.
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, createTestImage(w, h)); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestProcessorIsImage(t *testing.T) {
	p := NewProcessor(model.DefaultThumbnail)

	tests := []struct {
		mimeType string
		want     bool
	}{
		{model.MimeTypeJPEG, true},
		{model.MimeTypePNG, true},
		{model.MimeTypeGIF, true},
		{model.MimeTypeWebP, true},
		{model.MimeTypeSVG, false},
		{model.MimeTypePDF, false},
		{model.MimeTypeMP4, false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			if got := p.IsImage(tt.mimeType); got != tt.want {
				t.Errorf("IsImage(%q) = %v, want %v", tt.mimeType, got, tt.want)
			}
		})
	}
}

func TestProcessPNG(t *testing.T) {
	p := NewProcessor(model.DefaultThumbnail)

	res, img, err := p.Process(pngBytes(t, 640, 480))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Width != 640 || res.Height != 480 {
		t.Errorf("dimensions = %dx%d, want 640x480", res.Width, res.Height)
	}
	if res.MimeType != model.MimeTypePNG {
		t.Errorf("MimeType = %q", res.MimeType)
	}
	if res.Data != nil {
		t.Error("PNG without orientation should be stored unchanged")
	}

	thumb, err := p.Thumbnail(img, res.MimeType)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	if thumb.Width != model.DefaultThumbnail.Width || thumb.Height != model.DefaultThumbnail.Height {
		t.Errorf("thumbnail = %dx%d", thumb.Width, thumb.Height)
	}
	if thumb.Ext != ".png" {
		t.Errorf("thumbnail ext = %q, want .png", thumb.Ext)
	}
	if DetectMimeType(thumb.Data) != model.MimeTypePNG {
		t.Errorf("thumbnail data is %s", DetectMimeType(thumb.Data))
	}
}

func TestThumbnailFit(t *testing.T) {
	p := NewProcessor(model.ThumbnailConfig{Width: 100, Height: 100, Quality: 80})
	thumb, err := p.Thumbnail(createTestImage(400, 200), model.MimeTypeWebP)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	if thumb.Width != 100 || thumb.Height != 50 {
		t.Errorf("fit thumbnail = %dx%d, want 100x50", thumb.Width, thumb.Height)
	}
	if thumb.Ext != ".jpg" {
		t.Errorf("webp thumbnail ext = %q, want .jpg", thumb.Ext)
	}
}

func TestProcessGIFKeepsOriginal(t *testing.T) {
	var buf bytes.Buffer
	if err := gif.Encode(&buf, createTestImage(20, 10), nil); err != nil {
		t.Fatal(err)
	}
	res, _, err := NewProcessor(model.DefaultThumbnail).Process(buf.Bytes())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.MimeType != model.MimeTypeGIF || res.Data != nil {
		t.Errorf("gif result = %+v", res)
	}
}

func TestProcessRejectsUnknown(t *testing.T) {
	_, _, err := NewProcessor(model.DefaultThumbnail).Process([]byte("%PDF-1.7 not an image"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg magic bytes", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "jpeg"},
		{"png magic bytes", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "png"},
		{"gif magic bytes", []byte{0x47, 0x49, 0x46, 0x38, 0x39, 0x61}, "gif"},
		{"tiff rejected", []byte{0x49, 0x49, 0x2A, 0x00}, ""},
		{"unknown", []byte{0x00, 0x01, 0x02, 0x03}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectFormat(tt.data); got != tt.want {
				t.Errorf("detectFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyOrientationDimensions(t *testing.T) {
	img := createTestImage(30, 10)
	for orientation := 0; orientation <= 9; orientation++ {
		got := applyOrientation(img, orientation).Bounds()
		swapped := orientation >= 5 && orientation <= 8
		wantW, wantH := 30, 10
		if swapped {
			wantW, wantH = 10, 30
		}
		if got.Dx() != wantW || got.Dy() != wantH {
			t.Errorf("orientation %d: %dx%d, want %dx%d", orientation, got.Dx(), got.Dy(), wantW, wantH)
		}
	}
}
