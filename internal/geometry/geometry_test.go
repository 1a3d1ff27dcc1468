package geometry

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"go-stamppdf/internal/apperr"
	"go-stamppdf/internal/placement"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestResolveReference(t *testing.T) {
	tests := []struct {
		name string
		vp   Viewport
		want ReferenceGeometry
	}{
		{"letter fits at desired scale", Viewport{612, 792}, ReferenceGeometry{612, 792, 1.5}},
		{"wide page shrinks to budget", Viewport{850, 1100}, ReferenceGeometry{850, 1100, 1100.0 / 850}},
		{"rotated letter is wider", Viewport{792, 612}, ReferenceGeometry{792, 612, 1100.0 / 792}},
		{"exactly at budget", Viewport{1100.0 / 1.5, 500}, ReferenceGeometry{1100.0 / 1.5, 500, 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveReference(tt.vp, DefaultScalePolicy)
			if err != nil {
				t.Fatalf("ResolveReference failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
			w, _ := got.DisplaySize()
			if float64(w) > DefaultScalePolicy.MaxDisplayWidth+1e-9 {
				t.Errorf("display width %d exceeds budget", w)
			}
		})
	}
}

func TestResolveReferenceRejectsDegenerate(t *testing.T) {
	for _, vp := range []Viewport{{0, 792}, {612, 0}, {-1, 10}} {
		if _, err := ResolveReference(vp, DefaultScalePolicy); !errors.Is(err, apperr.ErrGeometry) {
			t.Errorf("%+v: expected ErrGeometry, got %v", vp, err)
		}
	}
	if _, err := ResolveReference(Viewport{612, 792}, ScalePolicy{}); !errors.Is(err, apperr.ErrGeometry) {
		t.Errorf("zero scale: expected ErrGeometry, got %v", err)
	}
}

func TestTargetPageVisual(t *testing.T) {
	tests := []struct {
		page TargetPage
		w, h float64
	}{
		{TargetPage{1100, 850, 0}, 1100, 850},
		{TargetPage{1100, 850, 90}, 850, 1100},
		{TargetPage{1100, 850, 180}, 1100, 850},
		{TargetPage{1100, 850, 270}, 850, 1100},
		{TargetPage{1100, 850, -90}, 850, 1100},
		{TargetPage{1100, 850, 450}, 850, 1100},
	}
	for _, tt := range tests {
		w, h := tt.page.Visual()
		if w != tt.w || h != tt.h {
			t.Errorf("%+v Visual() = %vx%v, want %vx%v", tt.page, w, h, tt.w, tt.h)
		}
	}
}

func TestIdentityTransform(t *testing.T) {
	ref := ReferenceGeometry{VisualWidth: 850, VisualHeight: 1100, DisplayScale: 1}
	target := TargetPage{Width: 850, Height: 1100}
	p := placement.Placement{X: 123, Y: 456, W: 78, H: 9, Rot: 33}

	got, err := ToTargetSpace(p, ref, target, Calibration{})
	if err != nil {
		t.Fatalf("ToTargetSpace failed: %v", err)
	}
	// Y is compared in PDF space, whose origin is the bottom-left corner.
	want := Result{X: 123, Y: 1100 - 456 - 9, W: 78, H: 9, Rotation: -33, ScaleX: 1, ScaleY: 1}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSamePageScenario(t *testing.T) {
	ref := ReferenceGeometry{VisualWidth: 850, VisualHeight: 1100, DisplayScale: 1}
	target := TargetPage{Width: 850, Height: 1100}

	got, err := ToTargetSpace(placement.Default, ref, target, DefaultCalibration)
	if err != nil {
		t.Fatalf("ToTargetSpace failed: %v", err)
	}
	want := Result{X: 440, Y: 1100 - 600 - 50 - 62, W: 140, H: 50, Rotation: 0, ScaleX: 1, ScaleY: 1}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if got.Y < 0 || got.Y > 1100 {
		t.Errorf("y = %v lies outside the page", got.Y)
	}
}

func TestDoubledPageScenario(t *testing.T) {
	ref := ReferenceGeometry{VisualWidth: 850, VisualHeight: 1100, DisplayScale: 1}
	target := TargetPage{Width: 1700, Height: 2200}

	for _, cal := range []Calibration{{}, DefaultCalibration} {
		same, err := ToTargetSpace(placement.Default, ref, TargetPage{Width: 850, Height: 1100}, cal)
		if err != nil {
			t.Fatalf("ToTargetSpace failed: %v", err)
		}
		got, err := ToTargetSpace(placement.Default, ref, target, cal)
		if err != nil {
			t.Fatalf("ToTargetSpace failed: %v", err)
		}
		if got.W != 2*same.W || got.H != 2*same.H || got.X != 2*same.X {
			t.Errorf("%+v: got %+v, want double of %+v", cal, got, same)
		}
		wantY := 2200 - 600*2 - got.H - cal.OffsetY*2
		if diff := cmp.Diff(wantY, got.Y, approx); diff != "" {
			t.Errorf("%+v: y mismatch (-want +got):\n%s", cal, diff)
		}
	}
}

func TestDisplayScaleIsRemoved(t *testing.T) {
	ref := ReferenceGeometry{VisualWidth: 612, VisualHeight: 792, DisplayScale: 1.5}
	p := placement.Placement{X: 150, Y: 300, W: 90, H: 30}

	got, err := ToTargetSpace(p, ref, TargetPage{Width: 612, Height: 792}, Calibration{})
	if err != nil {
		t.Fatalf("ToTargetSpace failed: %v", err)
	}
	want := Result{X: 100, Y: 792 - 200 - 20, W: 60, H: 20, ScaleX: 1, ScaleY: 1}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRotatedTargetUsesVisualSize(t *testing.T) {
	ref := ReferenceGeometry{VisualWidth: 850, VisualHeight: 1100, DisplayScale: 1}
	target := TargetPage{Width: 1100, Height: 850, Rotation: 90}

	got, err := ToTargetSpace(placement.Default, ref, target, Calibration{})
	if err != nil {
		t.Fatalf("ToTargetSpace failed: %v", err)
	}
	if got.ScaleX != 1 || got.ScaleY != 1 {
		t.Errorf("scale = %v,%v; want 1,1 from swapped 850x1100", got.ScaleX, got.ScaleY)
	}
	if got.Y != 1100-600-50 {
		t.Errorf("y = %v, want flip against visual height 1100", got.Y)
	}
}

func TestAspectRatioFollowsScaleX(t *testing.T) {
	ref := ReferenceGeometry{VisualWidth: 600, VisualHeight: 800, DisplayScale: 1}
	target := TargetPage{Width: 300, Height: 1600}
	p := placement.Placement{X: 60, Y: 80, W: 100, H: 40}

	got, err := ToTargetSpace(p, ref, target, Calibration{})
	if err != nil {
		t.Fatalf("ToTargetSpace failed: %v", err)
	}
	if got.ScaleX != 0.5 || got.ScaleY != 2 {
		t.Fatalf("scale = %v,%v; want 0.5,2", got.ScaleX, got.ScaleY)
	}
	want := Result{X: 30, Y: 1600 - 160 - 20, W: 50, H: 20, ScaleX: 0.5, ScaleY: 2}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestUnscaledOffsets(t *testing.T) {
	ref := ReferenceGeometry{VisualWidth: 850, VisualHeight: 1100, DisplayScale: 1}
	cal := Calibration{OffsetX: 40, OffsetY: 62}

	got, err := ToTargetSpace(placement.Default, ref, TargetPage{Width: 1700, Height: 2200}, cal)
	if err != nil {
		t.Fatalf("ToTargetSpace failed: %v", err)
	}
	if got.X != 800+40 {
		t.Errorf("x = %v, want 840", got.X)
	}
	if got.Y != 2200-1200-100-62 {
		t.Errorf("y = %v, want 838", got.Y)
	}
}

func TestTransformDoesNotMutateInputs(t *testing.T) {
	p := placement.Placement{X: 1, Y: 2, W: 3, H: 4, Rot: 5}
	ref := ReferenceGeometry{VisualWidth: 100, VisualHeight: 200, DisplayScale: 2}
	target := TargetPage{Width: 300, Height: 400, Rotation: 270}
	p0, ref0, target0 := p, ref, target

	if _, err := ToTargetSpace(p, ref, target, DefaultCalibration); err != nil {
		t.Fatalf("ToTargetSpace failed: %v", err)
	}
	if p != p0 || ref != ref0 || target != target0 {
		t.Error("inputs were modified")
	}
}

func TestTransformRejectsDegenerate(t *testing.T) {
	ref := ReferenceGeometry{VisualWidth: 850, VisualHeight: 1100, DisplayScale: 1}
	tests := []struct {
		name   string
		p      placement.Placement
		ref    ReferenceGeometry
		target TargetPage
	}{
		{"zero width target", placement.Default, ref, TargetPage{Width: 0, Height: 1100}},
		{"zero height target", placement.Default, ref, TargetPage{Width: 850, Height: 0}},
		{"odd rotation", placement.Default, ref, TargetPage{Width: 850, Height: 1100, Rotation: 45}},
		{"zero display scale", placement.Default, ReferenceGeometry{850, 1100, 0}, TargetPage{Width: 850, Height: 1100}},
		{"zero size placement", placement.Placement{X: 1, Y: 1}, ref, TargetPage{Width: 850, Height: 1100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ToTargetSpace(tt.p, tt.ref, tt.target, DefaultCalibration); !errors.Is(err, apperr.ErrGeometry) {
				t.Errorf("expected ErrGeometry, got %v", err)
			}
		})
	}
}
