package geometry

import (
	"go-stamppdf/internal/apperr"
	"go-stamppdf/internal/placement"
)

// TargetPage is the raw MediaBox size of a target document's last page and
// its /Rotate value.
type TargetPage struct {
	Width    float64
	Height   float64
	Rotation int
}

// NormalizedRotation returns Rotation in [0, 360).
func (t TargetPage) NormalizedRotation() int {
	return ((t.Rotation % 360) + 360) % 360
}

// Visual returns the page size as seen on screen: width and height swap
// for pages rotated by 90 or 270 degrees.
func (t TargetPage) Visual() (float64, float64) {
	switch t.NormalizedRotation() {
	case 90, 270:
		return t.Height, t.Width
	}
	return t.Width, t.Height
}

// Calibration holds the empirical point-space offsets between the editor's
// canvas origin and the page content origin. The defaults were measured
// against one browser rendering setup and are not universal.
type Calibration struct {
	// OffsetX is added to the horizontal position.
	OffsetX float64 `yaml:"offset-x" json:"offsetX"`
	// OffsetY is subtracted from the flipped vertical position.
	OffsetY float64 `yaml:"offset-y" json:"offsetY"`
	// ScaleOffsets multiplies OffsetX by scaleX and OffsetY by scaleY.
	ScaleOffsets bool `yaml:"scale-offsets" json:"scaleOffsets"`
}

// DefaultCalibration holds the offsets measured for the browser editor.
var DefaultCalibration = Calibration{OffsetX: 40, OffsetY: 62, ScaleOffsets: true}

// Result is a draw instruction in PDF points, origin bottom-left, ready for
// exactly one image on the target page.
type Result struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	W        float64 `json:"w"`
	H        float64 `json:"h"`
	Rotation float64 `json:"rotationDegrees"`
	ScaleX   float64 `json:"scaleX"`
	ScaleY   float64 `json:"scaleY"`
}

// ToTargetSpace converts p, chosen on the reference page described by ref,
// into a draw instruction for target. It performs no I/O and does not modify
// its arguments.
//
// Both dimensions of the signature follow scaleX so its own aspect ratio is
// kept when the target page's aspect ratio differs from the reference; the
// vertical position still follows scaleY.
func ToTargetSpace(p placement.Placement, ref ReferenceGeometry, target TargetPage, cal Calibration) (Result, error) {
	if err := ref.Validate(); err != nil {
		return Result{}, err
	}
	if !p.Valid() {
		return Result{}, apperr.Geometry("transform", "placement size %vx%v", p.W, p.H)
	}
	if target.NormalizedRotation()%90 != 0 {
		return Result{}, apperr.Geometry("transform", "page rotation %d", target.Rotation)
	}
	tw, th := target.Visual()
	if !positive(tw) || !positive(th) {
		return Result{}, apperr.Geometry("transform", "target page size %vx%v", target.Width, target.Height)
	}

	// Display pixels to reference points, still top-left origin.
	rx := p.X / ref.DisplayScale
	ry := p.Y / ref.DisplayScale
	rw := p.W / ref.DisplayScale
	rh := p.H / ref.DisplayScale

	sx := tw / ref.VisualWidth
	sy := th / ref.VisualHeight

	w := rw * sx
	h := rh * sx

	ox, oy := cal.OffsetX, cal.OffsetY
	if cal.ScaleOffsets {
		ox *= sx
		oy *= sy
	}

	return Result{
		X:        rx*sx + ox,
		Y:        th - ry*sy - h - oy,
		W:        w,
		H:        h,
		Rotation: -p.Rot,
		ScaleX:   sx,
		ScaleY:   sy,
	}, nil
}
