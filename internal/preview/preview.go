// Package preview draws the live editor view: the reference page at display
// scale with the signature composited at its current placement.
//
// Mutations in the placement package never render; callers request a
// preview after each change.
package preview

import (
	"image"
	"image/color"
	stddraw "image/draw"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"go-stamppdf/internal/apperr"
	"go-stamppdf/internal/geometry"
	"go-stamppdf/internal/placement"
)

var (
	pageColor   = color.NRGBA{255, 255, 255, 255}
	borderColor = color.NRGBA{200, 200, 200, 255}
)

// Render returns a canvas of the reference display size with sig drawn inside
// the rotated placement box. sig may be nil, in which case only the page is drawn.
func Render(ref geometry.ReferenceGeometry, sig image.Image, p placement.Placement) (*image.NRGBA, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	w, h := ref.DisplaySize()
	if w < 1 || h < 1 {
		return nil, apperr.Geometry("preview", "display size %dx%d", w, h)
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, w, h))
	stddraw.Draw(canvas, canvas.Bounds(), image.NewUniform(pageColor), image.Point{}, stddraw.Src)
	outline(canvas, borderColor)

	if sig == nil || sig.Bounds().Empty() {
		return canvas, nil
	}
	if !p.Valid() {
		return nil, apperr.Geometry("preview", "placement size %vx%v", p.W, p.H)
	}
	draw.BiLinear.Transform(canvas, placementMatrix(sig.Bounds(), p), sig, sig.Bounds(), draw.Over, nil)
	return canvas, nil
}

// placementMatrix maps source pixels into the placement box, rotated
// clockwise by p.Rot about the box center (y grows downward on screen).
func placementMatrix(src image.Rectangle, p placement.Placement) f64.Aff3 {
	iw, ih := float64(src.Dx()), float64(src.Dy())
	kx, ky := p.W/iw, p.H/ih
	sin, cos := math.Sincos(p.Rot * math.Pi / 180)
	cx, cy := p.Center()

	// Source coordinates are relative to src.Min.
	ox, oy := float64(src.Min.X), float64(src.Min.Y)
	a, b := cos*kx, -sin*ky
	d, e := sin*kx, cos*ky
	c := cx - a*iw/2 - b*ih/2 - a*ox - b*oy
	f := cy - d*iw/2 - e*ih/2 - d*ox - e*oy
	return f64.Aff3{a, b, c, d, e, f}
}

func outline(img *image.NRGBA, c color.NRGBA) {
	b := img.Bounds()
	for x := b.Min.X; x < b.Max.X; x++ {
		img.SetNRGBA(x, b.Min.Y, c)
		img.SetNRGBA(x, b.Max.Y-1, c)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		img.SetNRGBA(b.Min.X, y, c)
		img.SetNRGBA(b.Max.X-1, y, c)
	}
}
