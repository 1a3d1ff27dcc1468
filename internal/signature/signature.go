// Package signature holds the user's signature image and its background-removed variant.
//
// An Asset keeps two rasters: the original as decoded, which is never modified,
// and the processed variant that background removal replaces. Restore resets
// the processed variant to a fresh copy of the original.
package signature

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"sync"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"go-stamppdf/internal/apperr"
)

const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
)

// Asset is a loaded signature. It is safe for concurrent use.
type Asset struct {
	mu        sync.RWMutex
	source    []byte
	format    string
	original  *image.NRGBA
	processed *image.NRGBA
	modified  bool
}

// Decode parses an encoded image into a new Asset whose processed variant equals the original.
func Decode(data []byte) (*Asset, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Decode("decode signature", err)
	}
	orig := toNRGBA(img)
	if orig.Rect.Empty() {
		return nil, apperr.Decode("decode signature", fmt.Errorf("empty image"))
	}
	return &Asset{
		source:    append([]byte(nil), data...),
		format:    format,
		original:  orig,
		processed: Clone(orig),
	}, nil
}

// Format is the name of the decoder that read the source ("png", "jpeg", "webp", ...).
func (a *Asset) Format() string {
	return a.format
}

// Bounds returns the size of the signature raster.
func (a *Asset) Bounds() image.Rectangle {
	return a.original.Rect
}

// Original returns a copy of the image as loaded.
func (a *Asset) Original() *image.NRGBA {
	return Clone(a.original)
}

// Processed returns a copy of the current processed variant.
func (a *Asset) Processed() *image.NRGBA {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Clone(a.processed)
}

// RemoveBackground keys near-white pixels of the processed variant out.
// Repeated calls compound, as each one starts from the previous result.
func (a *Asset) RemoveBackground(tolerance int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.processed = RemoveBackground(a.processed, tolerance)
	a.modified = true
}

// Restore discards background removal.
func (a *Asset) Restore() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.processed = Clone(a.original)
	a.modified = false
}

// Modified reports whether the processed variant differs from the original.
func (a *Asset) Modified() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.modified
}

// Encoded returns the bytes to embed and their MIME type. An untouched PNG or
// JPEG is passed through as uploaded; everything else is re-encoded as PNG.
func (a *Asset) Encoded() ([]byte, string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.modified {
		switch a.format {
		case "png":
			return a.source, MIMEPNG, nil
		case "jpeg":
			return a.source, MIMEJPEG, nil
		}
	}
	data, err := EncodePNG(a.processed)
	if err != nil {
		return nil, "", err
	}
	return data, MIMEPNG, nil
}

// RemoveBackground returns a copy of img where every pixel whose red, green
// and blue channels are all >= tolerance is fully transparent. Other pixels are
// copied unchanged. tolerance is clamped to [0,255].
func RemoveBackground(img *image.NRGBA, tolerance int) *image.NRGBA {
	t := uint8(max(0, min(255, tolerance)))
	out := Clone(img)
	w, h := out.Rect.Dx(), out.Rect.Dy()
	for y := 0; y < h; y++ {
		row := out.Pix[y*out.Stride : y*out.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			if row[i] >= t && row[i+1] >= t && row[i+2] >= t {
				row[i+3] = 0
			}
		}
	}
	return out
}

// Clone deep-copies img.
func Clone(img *image.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(img.Rect)
	copy(out.Pix, img.Pix)
	return out
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Rect, img, b.Min, draw.Src)
	return out
}
