package preview

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"go-stamppdf/internal/apperr"
	"go-stamppdf/internal/geometry"
	"go-stamppdf/internal/placement"
)

var ref = geometry.ReferenceGeometry{VisualWidth: 100, VisualHeight: 100, DisplayScale: 1}

func solid(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255 // opaque black
	}
	return img
}

func isDark(c color.NRGBA) bool  { return c.R < 64 && c.G < 64 && c.B < 64 }
func isWhite(c color.NRGBA) bool { return c.R == 255 && c.G == 255 && c.B == 255 }

func TestRenderCanvasSize(t *testing.T) {
	r := geometry.ReferenceGeometry{VisualWidth: 612, VisualHeight: 792, DisplayScale: 1.5}
	img, err := Render(r, nil, placement.Default)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(918, 1188) {
		t.Errorf("canvas size = %v, want 918x1188", got)
	}
}

func TestRenderUnrotated(t *testing.T) {
	p := placement.Placement{X: 10, Y: 10, W: 20, H: 20}
	img, err := Render(ref, solid(10, 10), p)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if c := img.NRGBAAt(20, 20); !isDark(c) {
		t.Errorf("pixel inside placement = %v, want dark", c)
	}
	if c := img.NRGBAAt(5, 50); !isWhite(c) {
		t.Errorf("pixel outside placement = %v, want white", c)
	}
}

func TestRenderRotatedAboutCenter(t *testing.T) {
	// 40x10 box centered at (50, 50); a quarter turn makes it 10 wide, 40 tall.
	p := placement.Placement{X: 30, Y: 45, W: 40, H: 10, Rot: 90}
	img, err := Render(ref, solid(8, 2), p)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if c := img.NRGBAAt(50, 35); !isDark(c) {
		t.Errorf("pixel on rotated box = %v, want dark", c)
	}
	if c := img.NRGBAAt(35, 50); !isWhite(c) {
		t.Errorf("pixel where the unrotated box was = %v, want white", c)
	}
}

func TestRenderRejectsDegenerate(t *testing.T) {
	if _, err := Render(geometry.ReferenceGeometry{}, nil, placement.Default); !errors.Is(err, apperr.ErrGeometry) {
		t.Errorf("expected ErrGeometry for empty reference, got %v", err)
	}
	p := placement.Placement{X: 1, Y: 1, W: 0, H: 5}
	if _, err := Render(ref, solid(2, 2), p); !errors.Is(err, apperr.ErrGeometry) {
		t.Errorf("expected ErrGeometry for zero width, got %v", err)
	}
}
