// Package apperr defines the error taxonomy shared by the stamping pipeline.
//
// Kinds:
//   - ErrDecode: an image or PDF cannot be parsed
//   - ErrGeometry: a degenerate page or placement size
//   - ErrEmbed: the signature image cannot be embedded into a target PDF
//   - ErrSerialize: a stamped document cannot be re-encoded
//   - ErrCancelled: the user dismissed the operation; never reported as a failure
//   - ErrPrecondition: session state is missing (no signature, no documents, editor closed)
//
// Callers match kinds with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrDecode       = errors.New("decode error")
	ErrGeometry     = errors.New("geometry error")
	ErrEmbed        = errors.New("embed error")
	ErrSerialize    = errors.New("serialize error")
	ErrCancelled    = errors.New("cancelled")
	ErrPrecondition = errors.New("precondition failed")
)

// Error attaches a taxonomy kind and the failing operation to an underlying error.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind of e.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// New wraps err with kind and op. A nil err still yields an error of that kind.
func New(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Decode is shorthand for New(ErrDecode, op, err).
func Decode(op string, err error) error { return New(ErrDecode, op, err) }

// Geometry reports a degenerate size.
func Geometry(op, format string, args ...any) error {
	return New(ErrGeometry, op, fmt.Errorf(format, args...))
}

// Precondition reports missing session state.
func Precondition(format string, args ...any) error {
	return New(ErrPrecondition, "precondition", fmt.Errorf(format, args...))
}

// IsCancelled reports whether err is a user cancellation, which callers treat as a normal exit.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
