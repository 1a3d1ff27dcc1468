// Package geometry maps a signature placement chosen on the reference page
// into PDF point space on each target page.
//
// Two coordinate systems meet here. The editor works in reference-display
// pixels: origin top-left, y down, the reference page rendered at
// DisplayScale. PDF drawing works in points: origin bottom-left, y up.
// Both sides use visual page sizes, that is sizes with the page's own
// /Rotate already applied.
package geometry

import (
	"math"

	"go-stamppdf/internal/apperr"
)

// Viewport is a page's visual size in points at scale 1.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ScalePolicy decides how large the reference page is drawn in the editor.
type ScalePolicy struct {
	DesiredScale    float64 `yaml:"desired-scale" json:"desiredScale"`
	MaxDisplayWidth float64 `yaml:"max-display-width" json:"maxDisplayWidth"`
}

// DefaultScalePolicy renders at 1.5x unless that exceeds 1100 pixels of width.
var DefaultScalePolicy = ScalePolicy{DesiredScale: 1.5, MaxDisplayWidth: 1100}

// ReferenceGeometry is resolved once when the editor opens and never changes
// afterwards; opening the editor again produces a new value.
type ReferenceGeometry struct {
	VisualWidth  float64 `json:"visualWidth"`
	VisualHeight float64 `json:"visualHeight"`
	DisplayScale float64 `json:"displayScale"`
}

// ResolveReference picks the display scale for a reference page of visual
// size vp. The desired scale is used unless the page would then be wider
// than MaxDisplayWidth, in which case the scale shrinks to fit exactly.
func ResolveReference(vp Viewport, policy ScalePolicy) (ReferenceGeometry, error) {
	if !positive(vp.Width) || !positive(vp.Height) {
		return ReferenceGeometry{}, apperr.Geometry("resolve reference", "page size %vx%v", vp.Width, vp.Height)
	}
	if !positive(policy.DesiredScale) {
		return ReferenceGeometry{}, apperr.Geometry("resolve reference", "display scale %v", policy.DesiredScale)
	}
	scale := policy.DesiredScale
	if policy.MaxDisplayWidth > 0 && vp.Width*scale > policy.MaxDisplayWidth {
		scale = policy.MaxDisplayWidth / vp.Width
	}
	return ReferenceGeometry{
		VisualWidth:  vp.Width,
		VisualHeight: vp.Height,
		DisplayScale: scale,
	}, nil
}

// DisplaySize is the pixel size of the rendered reference page.
func (r ReferenceGeometry) DisplaySize() (int, int) {
	return int(math.Floor(r.VisualWidth * r.DisplayScale)), int(math.Floor(r.VisualHeight * r.DisplayScale))
}

// Validate rejects degenerate reference geometry.
func (r ReferenceGeometry) Validate() error {
	if !positive(r.VisualWidth) || !positive(r.VisualHeight) || !positive(r.DisplayScale) {
		return apperr.Geometry("reference", "size %vx%v at scale %v", r.VisualWidth, r.VisualHeight, r.DisplayScale)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
