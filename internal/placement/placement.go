// Package placement models where the signature sits on the reference page.
//
// A Placement is expressed in reference-display pixels: X and Y locate the
// top-left corner, W and H the size, Rot the clockwise rotation in degrees
// about the signature's own center. Every operation returns a new value so the
// caller decides when to re-render.
package placement

import (
	"math"
)

// Placement is the JSON record persisted between editing sessions.
type Placement struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	W   float64 `json:"w"`
	H   float64 `json:"h"`
	Rot float64 `json:"rot"`
}

// Default is the placement used when nothing has been saved yet.
var Default = Placement{X: 400, Y: 600, W: 140, H: 50, Rot: 0}

// Center returns the midpoint of the unrotated box.
func (p Placement) Center() (float64, float64) {
	return p.X + p.W/2, p.Y + p.H/2
}

// Drag moves the top-left corner to (x, y). The caller subtracts its grab
// offset beforehand so the signature does not jump to the cursor.
func (p Placement) Drag(x, y float64) Placement {
	p.X, p.Y = x, y
	return p
}

// ScaleAboutCenter multiplies W and H by factor, keeping the center fixed.
// Non-positive or non-finite factors, and factors whose result would
// overflow or underflow to zero, leave p unchanged.
func (p Placement) ScaleAboutCenter(factor float64) Placement {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return p
	}
	return p.resize(p.W*factor, p.H*factor)
}

// resize sets the size to w x h about the current center. p is returned
// unchanged when the result is not a valid placement.
func (p Placement) resize(w, h float64) Placement {
	cx, cy := p.Center()
	next := Placement{X: cx - w/2, Y: cy - h/2, W: w, H: h, Rot: p.Rot}
	if !next.Valid() {
		return p
	}
	return next
}

// Rotate adds delta degrees. The remainder keeps the sign of the sum, so
// rotating left from 0 yields a negative angle; use Degrees for display.
func (p Placement) Rotate(delta float64) Placement {
	p.Rot = math.Mod(p.Rot+delta, 360)
	return p
}

// Degrees returns Rot normalized to [0, 360).
func (p Placement) Degrees() float64 {
	d := math.Mod(p.Rot, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// Valid reports whether the size is positive and every field is finite.
func (p Placement) Valid() bool {
	for _, v := range []float64{p.X, p.Y, p.W, p.H, p.Rot} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return p.W > 0 && p.H > 0
}

// Clamp grows the placement about its center until neither side is below
// minSize. The short side becomes exactly minSize and the aspect ratio is
// preserved; a ratio too extreme to represent falls back to a square.
func (p Placement) Clamp(minSize float64) Placement {
	if minSize <= 0 || math.IsInf(minSize, 0) || !(p.W > 0 && p.H > 0) {
		return p
	}
	if math.Min(p.W, p.H) >= minSize {
		return p
	}
	w, h := minSize, minSize
	if p.W > p.H {
		w = minSize * (p.W / p.H)
	} else if p.H > p.W {
		h = minSize * (p.H / p.W)
	}
	if math.IsInf(w, 0) || math.IsInf(h, 0) {
		w, h = minSize, minSize
	}
	return p.resize(w, h)
}

// Steps holds the increments used by the editor's discrete controls.
type Steps struct {
	Button     float64 // fractional grow/shrink per button press
	Wheel      float64 // fractional grow/shrink per wheel notch
	Rotate     float64 // degrees per rotate button press
	FineRotate float64 // degrees per arrow key press
}

// DefaultSteps are ±10% per button, ±7% per wheel notch, 5° and 3° rotation.
var DefaultSteps = Steps{Button: 0.10, Wheel: 0.07, Rotate: 5, FineRotate: 3}

// ScaleFactor maps a named step to a scale factor. ok is false for unknown names.
func (s Steps) ScaleFactor(step string) (factor float64, ok bool) {
	switch step {
	case "in":
		return 1 + s.Button, true
	case "out":
		return 1 - s.Button, true
	case "wheel-in":
		return 1 + s.Wheel, true
	case "wheel-out":
		return 1 - s.Wheel, true
	}
	return 0, false
}

// RotateDelta maps a named step to a rotation delta in degrees.
func (s Steps) RotateDelta(step string) (delta float64, ok bool) {
	switch step {
	case "left":
		return -s.Rotate, true
	case "right":
		return s.Rotate, true
	case "fine-left":
		return -s.FineRotate, true
	case "fine-right":
		return s.FineRotate, true
	}
	return 0, false
}
