// Package imagedecoder is a default implementation of the pluggable
// per-format image decoder the viewer exposes as an external collaborator.
// The core prefetch pipeline only ever depends on imageprefetch.Decoder;
// this package exists so a demo or test consumer has a working one without
// reaching into the stdlib directly.
package imagedecoder

import (
	"bytes"
	"fmt"
	stdimage "image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	"imgviewer/internal/imageprefetch"
)

// decoded wraps a decoded bitmap as an imageprefetch.Image. Closing it is a
// no-op: decoded bitmaps hold no OS resources, only heap memory the
// garbage collector reclaims once the ring drops the last reference.
type decoded struct {
	name string
	img  stdimage.Image
}

func (d *decoded) Close() error { return nil }

// Image exposes the decoded bitmap for a demo consumer to render.
func (d *decoded) Image() stdimage.Image { return d.img }

// Name is the display name the Downloader passed through (ordinarily the
// upstream URL).
func (d *decoded) Name() string { return d.name }

// Bytes re-encodes the decoded bitmap as JPEG on demand, satisfying the
// debug HTTP surface's optional imageprefetch.Encoder interface.
func (d *decoded) Bytes() ([]byte, string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, d.img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, "", fmt.Errorf("imagedecoder: re-encode: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// Standard decodes bytes with the registered stdlib jpeg/png codecs and
// optionally downscales the result using a Catmull-Rom resampler.
type Standard struct {
	// MaxWidth downscales any decoded image wider than this to fit, while
	// preserving aspect ratio. Zero disables downscaling.
	MaxWidth int
}

func (s *Standard) Decode(data []byte, name string) (imageprefetch.Image, error) {
	img, format, err := stdimage.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imagedecoder: %w", err)
	}
	_ = format

	if s.MaxWidth > 0 {
		img = downscale(img, s.MaxWidth)
	}
	return &decoded{name: name, img: img}, nil
}

func downscale(src stdimage.Image, maxWidth int) stdimage.Image {
	bounds := src.Bounds()
	origWidth := bounds.Dx()
	if maxWidth >= origWidth || origWidth == 0 {
		return src
	}

	ratio := float64(maxWidth) / float64(origWidth)
	targetHeight := int(float64(bounds.Dy()) * ratio)
	if targetHeight < 1 {
		targetHeight = 1
	}

	dst := stdimage.NewRGBA(stdimage.Rect(0, 0, maxWidth, targetHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
