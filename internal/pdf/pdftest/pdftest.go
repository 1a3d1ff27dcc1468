// Package pdftest builds small, valid PDF files in memory for tests.
package pdftest

import (
	"bytes"
	"fmt"
)

// PageSpec describes one blank page.
type PageSpec struct {
	Width   float64
	Height  float64
	Rotate  int
	CropBox []float64 // optional [llx lly urx ury]
}

// Letter is an unrotated 612x792 page.
var Letter = PageSpec{Width: 612, Height: 792}

// Build returns a PDF with one page per spec and a correct xref table.
func Build(pages ...PageSpec) []byte {
	if len(pages) == 0 {
		pages = []PageSpec{Letter}
	}

	var objs []string
	objs = append(objs, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", 3+2*i)
	}
	objs = append(objs, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(pages)))

	for i, p := range pages {
		extra := ""
		if p.Rotate != 0 {
			extra += fmt.Sprintf(" /Rotate %d", p.Rotate)
		}
		if len(p.CropBox) == 4 {
			extra += fmt.Sprintf(" /CropBox [%g %g %g %g]", p.CropBox[0], p.CropBox[1], p.CropBox[2], p.CropBox[3])
		}
		objs = append(objs, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g]%s /Resources << >> /Contents %d 0 R >>",
			p.Width, p.Height, extra, 4+2*i))
		content := fmt.Sprintf("0 0 1 RG 10 10 m %g %g l S", p.Width-10, p.Height-10)
		objs = append(objs, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

// Corrupt returns bytes that carry a PDF header but cannot be parsed.
func Corrupt() []byte {
	return []byte("%PDF-1.4\nthis is not a pdf body\n%%EOF\n")
}
