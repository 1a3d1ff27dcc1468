package pdf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"seehuhn.de/go/geom/matrix"

	"go-stamppdf/internal/apperr"
)

// DrawOptions places an image in page space. X and Y locate the lower-left
// corner of the unrotated image, relative to the MediaBox origin; Rotate is
// counter-clockwise degrees about that corner.
type DrawOptions struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	Rotate float64
}

// Matrix is the CTM that maps the unit image square onto the page.
func (o DrawOptions) Matrix() matrix.Matrix {
	return matrix.Scale(o.Width, o.Height).
		Mul(matrix.RotateDeg(o.Rotate)).
		Mul(matrix.Translate(o.X, o.Y))
}

// DrawImage draws img on page. The existing page content is wrapped in q/Q so
// a dangling graphics state cannot leak into the signature.
func (d *Document) DrawImage(page Page, img *Image, opts DrawOptions) error {
	if img == nil {
		return apperr.New(apperr.ErrEmbed, "draw image", fmt.Errorf("no image"))
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return apperr.Geometry("draw image", "image size %vx%v", opts.Width, opts.Height)
	}
	pageDict, inh, err := d.pageDict(page.Number)
	if err != nil {
		return err
	}

	res, err := d.resources(pageDict, inh)
	if err != nil {
		return apperr.New(apperr.ErrEmbed, "page resources", err)
	}
	xobjects, err := d.subDict(res, "XObject")
	if err != nil {
		return apperr.New(apperr.ErrEmbed, "page xobjects", err)
	}
	name := d.nextImageName(xobjects)
	xobjects[name] = img.Ref

	contents, err := d.contents(pageDict)
	if err != nil {
		return apperr.New(apperr.ErrEmbed, "page contents", err)
	}
	opts.X += page.OriginX
	opts.Y += page.OriginY
	open, err := d.contentStream("q\n")
	if err != nil {
		return err
	}
	stamp, err := d.contentStream(drawOps(name, opts.Matrix()))
	if err != nil {
		return err
	}

	updated := make(types.Array, 0, len(contents)+2)
	updated = append(updated, open)
	updated = append(updated, contents...)
	updated = append(updated, stamp)
	pageDict["Contents"] = updated
	return nil
}

// drawOps closes the q opened before the page content and draws the image.
// It starts with a newline because readers may concatenate content streams
// and the page's last stream need not end with whitespace.
func drawOps(name string, m matrix.Matrix) string {
	var b strings.Builder
	b.WriteString("\nQ\nq\n")
	for _, v := range m {
		b.WriteString(formatNumber(v))
		b.WriteByte(' ')
	}
	b.WriteString("cm\n/")
	b.WriteString(name)
	b.WriteString(" Do\nQ\n")
	return b.String()
}

// formatNumber writes v with at most six decimals and no exponent, as PDF
// content streams require.
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

func (d *Document) contentStream(ops string) (types.IndirectRef, error) {
	sd, err := d.ctx.NewStreamDictForBuf([]byte(ops))
	if err != nil {
		return types.IndirectRef{}, apperr.New(apperr.ErrEmbed, "content stream", err)
	}
	if err := sd.Encode(); err != nil {
		return types.IndirectRef{}, apperr.New(apperr.ErrEmbed, "encode content stream", err)
	}
	ref, err := d.ctx.IndRefForNewObject(*sd)
	if err != nil {
		return types.IndirectRef{}, apperr.New(apperr.ErrEmbed, "content stream", err)
	}
	return *ref, nil
}

// contents flattens the page's Contents entry into an array of stream references.
func (d *Document) contents(pageDict types.Dict) (types.Array, error) {
	obj, found := pageDict.Find("Contents")
	if !found || obj == nil {
		return nil, nil
	}
	switch o := obj.(type) {
	case types.IndirectRef:
		deref, err := d.ctx.Dereference(o)
		if err != nil {
			return nil, err
		}
		if arr, ok := deref.(types.Array); ok {
			return append(types.Array(nil), arr...), nil
		}
		return types.Array{o}, nil
	case types.Array:
		return append(types.Array(nil), o...), nil
	}
	return nil, fmt.Errorf("unexpected Contents entry %T", obj)
}

// resources returns the page's own resource dictionary, creating one from the
// inherited resources when the page has none.
func (d *Document) resources(pageDict types.Dict, inh *model.InheritedPageAttrs) (types.Dict, error) {
	if obj, found := pageDict.Find("Resources"); found && obj != nil {
		res, err := d.ctx.DereferenceDict(obj)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}
	res := types.Dict{}
	if inh != nil {
		for k, v := range inh.Resources {
			res[k] = v
		}
	}
	pageDict["Resources"] = res
	return res, nil
}

func (d *Document) subDict(parent types.Dict, key string) (types.Dict, error) {
	if obj, found := parent.Find(key); found && obj != nil {
		sub, err := d.ctx.DereferenceDict(obj)
		if err != nil {
			return nil, err
		}
		if sub != nil {
			return sub, nil
		}
	}
	sub := types.Dict{}
	parent[key] = sub
	return sub, nil
}

func (d *Document) nextImageName(xobjects types.Dict) string {
	for {
		d.images++
		name := fmt.Sprintf("Sig%d", d.images)
		if _, taken := xobjects[name]; !taken {
			return name
		}
	}
}
