package pdf

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"go-stamppdf/internal/apperr"
)

// ImageFormat selects how signature bytes are interpreted when embedded.
type ImageFormat int

const (
	PNG ImageFormat = iota
	JPEG
)

func (f ImageFormat) String() string {
	if f == JPEG {
		return "jpeg"
	}
	return "png"
}

// FormatFromMIME maps image/png and image/jpeg to an ImageFormat.
func FormatFromMIME(mime string) (ImageFormat, error) {
	switch strings.ToLower(mime) {
	case "image/png":
		return PNG, nil
	case "image/jpeg", "image/jpg":
		return JPEG, nil
	}
	return PNG, fmt.Errorf("unsupported image type %q", mime)
}

// Image is an embedded image XObject.
type Image struct {
	Ref    types.IndirectRef
	Width  int
	Height int
}

// EmbedImage decodes data, which must be in format f, and stores it as a
// DeviceRGB image XObject. PNG transparency becomes a DeviceGray soft mask;
// JPEG is treated as opaque.
func (d *Document) EmbedImage(data []byte, f ImageFormat) (*Image, error) {
	if len(data) == 0 {
		return nil, apperr.New(apperr.ErrEmbed, "embed image", fmt.Errorf("invalid image data"))
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.New(apperr.ErrEmbed, "embed image", err)
	}
	if format != f.String() {
		return nil, apperr.New(apperr.ErrEmbed, "embed image", fmt.Errorf("expected %s data, got %s", f, format))
	}

	rgb, alpha, hasAlpha := splitChannels(img)
	if f == JPEG {
		hasAlpha = false
	}
	b := img.Bounds()

	sd, err := d.ctx.NewStreamDictForBuf(rgb)
	if err != nil {
		return nil, apperr.New(apperr.ErrEmbed, "embed image", err)
	}
	setImageDict(sd.Dict, b.Dx(), b.Dy(), "DeviceRGB")

	if hasAlpha {
		mask, err := d.ctx.NewStreamDictForBuf(alpha)
		if err != nil {
			return nil, apperr.New(apperr.ErrEmbed, "embed soft mask", err)
		}
		setImageDict(mask.Dict, b.Dx(), b.Dy(), "DeviceGray")
		if err := mask.Encode(); err != nil {
			return nil, apperr.New(apperr.ErrEmbed, "encode soft mask", err)
		}
		maskRef, err := d.ctx.IndRefForNewObject(*mask)
		if err != nil {
			return nil, apperr.New(apperr.ErrEmbed, "embed soft mask", err)
		}
		sd.Dict["SMask"] = *maskRef
	}

	if err := sd.Encode(); err != nil {
		return nil, apperr.New(apperr.ErrEmbed, "encode image", err)
	}
	ref, err := d.ctx.IndRefForNewObject(*sd)
	if err != nil {
		return nil, apperr.New(apperr.ErrEmbed, "embed image", err)
	}
	return &Image{Ref: *ref, Width: b.Dx(), Height: b.Dy()}, nil
}

func setImageDict(dict types.Dict, w, h int, colorSpace string) {
	dict["Type"] = types.Name("XObject")
	dict["Subtype"] = types.Name("Image")
	dict["Width"] = types.Integer(w)
	dict["Height"] = types.Integer(h)
	dict["ColorSpace"] = types.Name(colorSpace)
	dict["BitsPerComponent"] = types.Integer(8)
}

// splitChannels returns packed 8-bit RGB and alpha planes of img. Color is
// un-premultiplied so transparent edges keep their ink color.
func splitChannels(img image.Image) (rgb, alpha []byte, hasAlpha bool) {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	rgb = make([]byte, 0, n*3)
	alpha = make([]byte, 0, n)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if a < 0xffff {
				hasAlpha = true
			}
			if a > 0 && a < 0xffff {
				r = r * 0xffff / a
				g = g * 0xffff / a
				bl = bl * 0xffff / a
			}
			rgb = append(rgb, uint8(r>>8), uint8(g>>8), uint8(bl>>8))
			alpha = append(alpha, uint8(a>>8))
		}
	}
	return rgb, alpha, hasAlpha
}
