// Package stamp applies one signature placement to the last page of every
// target PDF in a batch.
//
// Targets are processed strictly in input order, one at a time. A failing
// target is recorded and skipped; the rest of the batch continues. The
// context is checked before each target so a batch can be cancelled between
// documents, and an optional per-document timeout stops one unresponsive
// document from stalling the batch.
package stamp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"go-stamppdf/internal/apperr"
	"go-stamppdf/internal/geometry"
	"go-stamppdf/internal/pdf"
	"go-stamppdf/internal/placement"
)

// Document is the part of a parsed PDF the stamper drives.
type Document interface {
	LastPage() (pdf.Page, error)
	EmbedImage(data []byte, f pdf.ImageFormat) (*pdf.Image, error)
	DrawImage(page pdf.Page, img *pdf.Image, opts pdf.DrawOptions) error
	Serialize() ([]byte, error)
}

// Opener parses raw bytes into a Document.
type Opener func(data []byte) (Document, error)

// OpenPDF opens documents with pdfcpu.
func OpenPDF(data []byte) (Document, error) {
	doc, err := pdf.Load(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Target is one input document.
type Target struct {
	Name string
	Read func() ([]byte, error)
}

// FileTarget reads the document from path and reports it as name.
func FileTarget(name, path string) Target {
	return Target{Name: name, Read: func() ([]byte, error) { return os.ReadFile(path) }}
}

// BytesTarget wraps an in-memory document.
func BytesTarget(name string, data []byte) Target {
	return Target{Name: name, Read: func() ([]byte, error) { return data, nil }}
}

// Signature is the encoded image stamped onto every target.
type Signature struct {
	Data   []byte
	Format pdf.ImageFormat
}

// Job is everything one batch needs.
type Job struct {
	Targets   []Target
	Signature Signature
	Placement placement.Placement
	Reference geometry.ReferenceGeometry
}

// Result is one successfully stamped document.
type Result struct {
	FileName string
	Bytes    []byte
	Draw     geometry.Result
}

// Failure is one skipped document.
type Failure struct {
	FileName string
	Err      error
}

// Report collects the outcome of a batch in input order.
type Report struct {
	Results   []Result
	Failures  []Failure
	Cancelled bool
}

// Stamper runs batches.
type Stamper struct {
	Open        Opener
	Calibration geometry.Calibration
	// Timeout bounds the work on a single document. Zero disables it.
	Timeout time.Duration
	// Progress, when set, is called before each document with its 1-based index.
	Progress func(i, n int, name string)
}

// New returns a Stamper backed by pdfcpu.
func New(cal geometry.Calibration, timeout time.Duration) *Stamper {
	return &Stamper{Open: OpenPDF, Calibration: cal, Timeout: timeout}
}

// StampAll stamps every target of job. Per-document failures are returned in
// the report, not as an error. The error is non-nil only when a precondition
// fails before any work starts, or when ctx is cancelled; in the latter case
// the report still holds the documents finished so far.
func (s *Stamper) StampAll(ctx context.Context, job Job) (*Report, error) {
	if len(job.Signature.Data) == 0 {
		return nil, apperr.Precondition("no signature loaded")
	}
	if len(job.Targets) == 0 {
		return nil, apperr.Precondition("no documents selected")
	}
	if err := job.Reference.Validate(); err != nil {
		return nil, err
	}
	if !job.Placement.Valid() {
		return nil, apperr.Geometry("stamp", "placement size %vx%v", job.Placement.W, job.Placement.H)
	}

	report := &Report{}
	n := len(job.Targets)
	for i, target := range job.Targets {
		if err := ctx.Err(); err != nil {
			report.Cancelled = true
			log.Printf("Batch cancelled before %s (%d/%d)", target.Name, i+1, n)
			return report, apperr.New(apperr.ErrCancelled, "stamp", err)
		}
		if s.Progress != nil {
			s.Progress(i+1, n, target.Name)
		}
		log.Printf("Signing %s (%d/%d)", target.Name, i+1, n)

		res, err := s.stampWithTimeout(ctx, target, job)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				report.Cancelled = true
				log.Printf("Batch cancelled while signing %s", target.Name)
				return report, apperr.New(apperr.ErrCancelled, "stamp", ctx.Err())
			}
			log.Printf("Error signing %s: %v", target.Name, err)
			report.Failures = append(report.Failures, Failure{FileName: target.Name, Err: err})
			continue
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

func (s *Stamper) stampWithTimeout(ctx context.Context, target Target, job Job) (Result, error) {
	if s.Timeout <= 0 && ctx.Done() == nil {
		return s.stampOne(target, job)
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := s.stampOne(target, job)
		done <- outcome{res, err}
	}()
	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return Result{}, fmt.Errorf("document abandoned: %w", ctx.Err())
	}
}

func (s *Stamper) stampOne(target Target, job Job) (Result, error) {
	data, err := target.Read()
	if err != nil {
		return Result{}, apperr.Decode("read document", err)
	}
	open := s.Open
	if open == nil {
		open = OpenPDF
	}
	doc, err := open(data)
	if err != nil {
		return Result{}, err
	}
	page, err := doc.LastPage()
	if err != nil {
		return Result{}, err
	}
	draw, err := geometry.ToTargetSpace(job.Placement, job.Reference, page.Target(), s.Calibration)
	if err != nil {
		return Result{}, err
	}
	img, err := doc.EmbedImage(job.Signature.Data, job.Signature.Format)
	if err != nil {
		return Result{}, err
	}
	opts := pdf.DrawOptions{X: draw.X, Y: draw.Y, Width: draw.W, Height: draw.H, Rotate: draw.Rotation}
	if err := doc.DrawImage(page, img, opts); err != nil {
		return Result{}, err
	}
	out, err := doc.Serialize()
	if err != nil {
		return Result{}, err
	}
	return Result{FileName: target.Name, Bytes: out, Draw: draw}, nil
}
