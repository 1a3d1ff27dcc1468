// Package pdf wraps pdfcpu with the small document surface the stamper needs.
//
// Functions:
//   - Load: parses PDF bytes into a Document.
//     Input: raw PDF bytes. Output: *Document or an apperr.ErrDecode error.
//   - Document.Page / LastPage: raw MediaBox size, origin and /Rotate of a page.
//   - Document.Viewport: rotation-normalized visual size of a page at scale 1.
//   - Document.EmbedImage: adds a PNG or JPEG signature as an image XObject.
//   - Document.DrawImage: draws an embedded image on a page.
//   - Document.Serialize: writes the document back to bytes.
//
// Documents are not safe for concurrent use; each target is loaded into its own Document.
package pdf

import (
	"bytes"
	"fmt"
	"os"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"go-stamppdf/internal/apperr"
	"go-stamppdf/internal/geometry"
)

// Page describes one page as stored, before any rotation is applied.
type Page struct {
	Number   int
	Width    float64
	Height   float64
	Rotation int
	// Lower-left corner of the MediaBox; usually the origin.
	OriginX float64
	OriginY float64
}

// Target converts the page into the geometry consumed by the coordinate transform.
func (p Page) Target() geometry.TargetPage {
	return geometry.TargetPage{Width: p.Width, Height: p.Height, Rotation: p.Rotation}
}

// Document is one parsed PDF.
type Document struct {
	ctx    *model.Context
	images int
}

// Load parses data.
func Load(data []byte) (*Document, error) {
	config := model.NewDefaultConfiguration()
	ctx, err := pdfapi.ReadContext(bytes.NewReader(data), config)
	if err != nil {
		return nil, apperr.Decode("read pdf", err)
	}
	if err := pdfapi.ValidateContext(ctx); err != nil {
		return nil, apperr.Decode("validate pdf", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, apperr.Decode("count pages", err)
	}
	if ctx.PageCount < 1 {
		return nil, apperr.Decode("count pages", fmt.Errorf("document has no pages"))
	}
	return &Document{ctx: ctx}, nil
}

// LoadFile reads and parses the PDF at path.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Decode("read file", err)
	}
	return Load(data)
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// Page returns the raw geometry of page n (1-based).
func (d *Document) Page(n int) (Page, error) {
	pageDict, inh, err := d.pageDict(n)
	if err != nil {
		return Page{}, err
	}
	if inh == nil || inh.MediaBox == nil {
		return Page{}, apperr.Geometry("page", "page %d has no MediaBox", n)
	}
	mb := inh.MediaBox
	p := Page{
		Number:   n,
		Width:    mb.Width(),
		Height:   mb.Height(),
		Rotation: rotation(pageDict, inh),
		OriginX:  mb.LL.X,
		OriginY:  mb.LL.Y,
	}
	if p.Width <= 0 || p.Height <= 0 {
		return Page{}, apperr.Geometry("page", "page %d size %vx%v", n, p.Width, p.Height)
	}
	return p, nil
}

// LastPage returns the raw geometry of the final page, the one that gets stamped.
func (d *Document) LastPage() (Page, error) {
	return d.Page(d.ctx.PageCount)
}

// Viewport returns the visual size of page n at scale 1, the way a viewer
// shows it: the CropBox clipped to the MediaBox, swapped for 90/270 rotation.
func (d *Document) Viewport(n int) (geometry.Viewport, error) {
	pageDict, inh, err := d.pageDict(n)
	if err != nil {
		return geometry.Viewport{}, err
	}
	if inh == nil || inh.MediaBox == nil {
		return geometry.Viewport{}, apperr.Geometry("viewport", "page %d has no MediaBox", n)
	}
	w, h := visibleBox(inh.MediaBox, inh.CropBox)
	if w <= 0 || h <= 0 {
		return geometry.Viewport{}, apperr.Geometry("viewport", "page %d size %vx%v", n, w, h)
	}
	switch rotation(pageDict, inh) {
	case 90, 270:
		w, h = h, w
	}
	return geometry.Viewport{Width: w, Height: h}, nil
}

// Serialize writes the document, including any stamps, to bytes.
func (d *Document) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if err := pdfapi.WriteContext(d.ctx, &buf); err != nil {
		return nil, apperr.New(apperr.ErrSerialize, "write pdf", err)
	}
	return buf.Bytes(), nil
}

func (d *Document) pageDict(n int) (types.Dict, *model.InheritedPageAttrs, error) {
	if n < 1 || n > d.ctx.PageCount {
		return nil, nil, apperr.Geometry("page", "page %d out of range (total pages: %d)", n, d.ctx.PageCount)
	}
	pageDict, _, inh, err := d.ctx.PageDict(n, true)
	if err != nil {
		return nil, nil, apperr.Decode("page dict", err)
	}
	if pageDict == nil {
		return nil, nil, apperr.Decode("page dict", fmt.Errorf("page %d not found", n))
	}
	return pageDict, inh, nil
}

func visibleBox(mediaBox, cropBox *types.Rectangle) (float64, float64) {
	if cropBox == nil {
		return mediaBox.Width(), mediaBox.Height()
	}
	llx := max(mediaBox.LL.X, cropBox.LL.X)
	lly := max(mediaBox.LL.Y, cropBox.LL.Y)
	urx := min(mediaBox.UR.X, cropBox.UR.X)
	ury := min(mediaBox.UR.Y, cropBox.UR.Y)
	if urx <= llx || ury <= lly {
		return mediaBox.Width(), mediaBox.Height()
	}
	return urx - llx, ury - lly
}

// rotation prefers the page's own /Rotate over the inherited value.
func rotation(pageDict types.Dict, inh *model.InheritedPageAttrs) int {
	if obj, found := pageDict.Find("Rotate"); found {
		switch v := obj.(type) {
		case types.Integer:
			return normalizeRotation(int(v))
		case types.Float:
			return normalizeRotation(int(v))
		}
	}
	if inh != nil {
		return normalizeRotation(inh.Rotate)
	}
	return 0
}

func normalizeRotation(r int) int {
	return ((r % 360) + 360) % 360
}
