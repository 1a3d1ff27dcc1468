package signature

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"go-stamppdf/internal/apperr"
)

// testImage is 4x1: white, near-white, dark ink, mid grey.
func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	img.SetNRGBA(0, 0, color.NRGBA{255, 255, 255, 255})
	img.SetNRGBA(1, 0, color.NRGBA{240, 245, 250, 255})
	img.SetNRGBA(2, 0, color.NRGBA{10, 20, 30, 255})
	img.SetNRGBA(3, 0, color.NRGBA{200, 250, 250, 128})
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestRemoveBackground(t *testing.T) {
	tests := []struct {
		name      string
		tolerance int
		alpha     [4]uint8
	}{
		{"tolerance 230", 230, [4]uint8{0, 0, 255, 128}},
		{"tolerance 200", 200, [4]uint8{0, 0, 255, 0}},
		{"tolerance 255", 255, [4]uint8{0, 255, 255, 128}},
		{"tolerance 0 keys everything", 0, [4]uint8{0, 0, 0, 0}},
		{"above range is clamped", 999, [4]uint8{0, 255, 255, 128}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := testImage()
			out := RemoveBackground(src, tt.tolerance)
			for x := 0; x < 4; x++ {
				got := out.NRGBAAt(x, 0)
				orig := src.NRGBAAt(x, 0)
				if got.A != tt.alpha[x] {
					t.Errorf("pixel %d alpha = %d, want %d", x, got.A, tt.alpha[x])
				}
				if got.R != orig.R || got.G != orig.G || got.B != orig.B {
					t.Errorf("pixel %d color changed: %v -> %v", x, orig, got)
				}
			}
		})
	}
}

func TestRemoveBackgroundPreservesInput(t *testing.T) {
	src := testImage()
	_ = RemoveBackground(src, 100)
	if src.NRGBAAt(0, 0).A != 255 {
		t.Error("input image was modified in place")
	}
}

func TestAssetRemoveAndRestore(t *testing.T) {
	asset, err := Decode(encodePNG(t, testImage()))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if asset.Format() != "png" {
		t.Errorf("Format() = %q, want png", asset.Format())
	}
	if asset.Modified() {
		t.Error("fresh asset should not be modified")
	}

	asset.RemoveBackground(230)
	if !asset.Modified() {
		t.Error("asset should be modified after background removal")
	}
	if a := asset.Processed().NRGBAAt(0, 0).A; a != 0 {
		t.Errorf("processed alpha = %d, want 0", a)
	}
	if a := asset.Original().NRGBAAt(0, 0).A; a != 255 {
		t.Errorf("original alpha = %d, want 255", a)
	}

	asset.Restore()
	if asset.Modified() {
		t.Error("asset should not be modified after restore")
	}
	if a := asset.Processed().NRGBAAt(0, 0).A; a != 255 {
		t.Errorf("restored alpha = %d, want 255", a)
	}

	// The restored variant must not share pixels with the original.
	asset.RemoveBackground(230)
	if a := asset.Original().NRGBAAt(0, 0).A; a != 255 {
		t.Error("original changed after removal following restore")
	}
}

func TestAssetEncoded(t *testing.T) {
	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, testImage(), nil); err != nil {
		t.Fatalf("Failed to encode jpeg: %v", err)
	}
	asset, err := Decode(jpg.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	data, mime, err := asset.Encoded()
	if err != nil {
		t.Fatalf("Encoded failed: %v", err)
	}
	if mime != MIMEJPEG || !bytes.Equal(data, jpg.Bytes()) {
		t.Errorf("untouched jpeg should pass through, got %s", mime)
	}

	asset.RemoveBackground(200)
	data, mime, err = asset.Encoded()
	if err != nil {
		t.Fatalf("Encoded failed: %v", err)
	}
	if mime != MIMEPNG {
		t.Errorf("mime = %s, want %s", mime, MIMEPNG)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("re-encoded signature is not a png: %v", err)
	}
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode([]byte("not an image"))
	if !errors.Is(err, apperr.ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}
