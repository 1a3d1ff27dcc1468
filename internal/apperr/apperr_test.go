package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsKind(t *testing.T) {
	err := New(ErrEmbed, "embed image", errors.New("bad png"))
	if !errors.Is(err, ErrEmbed) {
		t.Error("expected errors.Is to match ErrEmbed")
	}
	if errors.Is(err, ErrDecode) {
		t.Error("did not expect errors.Is to match ErrDecode")
	}

	wrapped := fmt.Errorf("report.pdf: %w", err)
	if !errors.Is(wrapped, ErrEmbed) {
		t.Error("expected kind to survive wrapping")
	}
}

func TestErrorUnwrapsCause(t *testing.T) {
	err := New(ErrCancelled, "stamp", context.Canceled)
	if !errors.Is(err, context.Canceled) {
		t.Error("expected cause to be reachable")
	}
	if !IsCancelled(err) {
		t.Error("expected IsCancelled to be true")
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{New(ErrSerialize, "write", errors.New("disk full")), "write: serialize error: disk full"},
		{New(ErrGeometry, "transform", nil), "transform: geometry error"},
		{Geometry("target", "page width %d", 0), "target: geometry error: page width 0"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
