package placement

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestDrag(t *testing.T) {
	got := Default.Drag(12.5, -3)
	want := Placement{X: 12.5, Y: -3, W: 140, H: 50}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Drag mismatch (-want +got):\n%s", diff)
	}
}

func TestScaleAboutCenterKeepsCenter(t *testing.T) {
	for _, f := range []float64{0.5, 0.93, 1, 1.07, 1.1, 3} {
		p := Default.Rotate(30)
		got := p.ScaleAboutCenter(f)

		cx0, cy0 := p.Center()
		cx1, cy1 := got.Center()
		if math.Abs(cx0-cx1) > 1e-9 || math.Abs(cy0-cy1) > 1e-9 {
			t.Errorf("factor %v moved center from (%v,%v) to (%v,%v)", f, cx0, cy0, cx1, cy1)
		}
		if math.Abs(got.W-p.W*f) > 1e-9 || math.Abs(got.H-p.H*f) > 1e-9 {
			t.Errorf("factor %v: size %vx%v", f, got.W, got.H)
		}
		if got.Rot != p.Rot {
			t.Errorf("factor %v changed rotation", f)
		}
	}
}

func TestScaleRoundTrip(t *testing.T) {
	for _, f := range []float64{0.01, 0.5, 0.93, 1.07, 2, 250} {
		got := Default.ScaleAboutCenter(f).ScaleAboutCenter(1 / f)
		if diff := cmp.Diff(Default, got, approx); diff != "" {
			t.Errorf("factor %v round trip (-want +got):\n%s", f, diff)
		}
	}
}

func TestScaleRejectsNonPositive(t *testing.T) {
	for _, f := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if got := Default.ScaleAboutCenter(f); got != Default {
			t.Errorf("factor %v changed placement to %+v", f, got)
		}
	}
}

func TestScaleKeepsPlacementFinite(t *testing.T) {
	got := Default.ScaleAboutCenter(1e300).ScaleAboutCenter(1e300)
	if !got.Valid() {
		t.Fatalf("repeated huge scale produced %+v", got)
	}
	if got.Clamp(1) != got {
		t.Errorf("Clamp changed a placement above the minimum: %+v", got.Clamp(1))
	}

	got = Default.ScaleAboutCenter(1e300).ScaleAboutCenter(1e300).ScaleAboutCenter(1e300)
	if !got.Valid() {
		t.Errorf("overflowing scale produced %+v", got)
	}
}

func TestClampAfterUnderflow(t *testing.T) {
	got := Default.ScaleAboutCenter(5e-324).Clamp(1)
	if !got.Valid() {
		t.Fatalf("Clamp produced %+v", got)
	}
	if math.Min(got.W, got.H) < 1 {
		t.Errorf("Clamp size = %vx%v, want short side of at least 1", got.W, got.H)
	}
	cx, cy := got.Center()
	dcx, dcy := Default.Center()
	if math.Abs(cx-dcx) > 1e-9 || math.Abs(cy-dcy) > 1e-9 {
		t.Errorf("Clamp moved center to (%v,%v), want (%v,%v)", cx, cy, dcx, dcy)
	}

	extreme := Placement{X: 10, Y: 10, W: 1, H: 5e-324}
	got = extreme.Clamp(1)
	if !got.Valid() || got.W != 1 || got.H != 1 {
		t.Errorf("Clamp of an unrepresentable ratio = %+v, want a 1x1 square", got)
	}
}

func TestRotateRoundTrip(t *testing.T) {
	for _, d := range []float64{0, 3, -5, 90, 359, 360, 725, -1080} {
		p := Default.Rotate(17)
		got := p.Rotate(d).Rotate(-d)
		if math.Mod(got.Rot-p.Rot, 360) != 0 {
			t.Errorf("rotate %v round trip: %v -> %v", d, p.Rot, got.Rot)
		}
		if got.X != p.X || got.Y != p.Y || got.W != p.W || got.H != p.H {
			t.Errorf("rotate %v changed the box", d)
		}
	}
}

func TestRotateKeepsSign(t *testing.T) {
	p := Default.Rotate(-5)
	if p.Rot != -5 {
		t.Errorf("Rot = %v, want -5", p.Rot)
	}
	if p.Degrees() != 355 {
		t.Errorf("Degrees() = %v, want 355", p.Degrees())
	}
	if got := Default.Rotate(365).Rot; got != 5 {
		t.Errorf("Rot = %v, want 5", got)
	}
}

func TestClamp(t *testing.T) {
	tiny := Placement{X: 100, Y: 100, W: 0.4, H: 0.2}
	got := tiny.Clamp(1)
	if math.Abs(got.H-1) > 1e-9 || math.Abs(got.W-2) > 1e-9 {
		t.Errorf("Clamp size = %vx%v, want 2x1", got.W, got.H)
	}
	cx, cy := got.Center()
	if math.Abs(cx-100.2) > 1e-9 || math.Abs(cy-100.1) > 1e-9 {
		t.Errorf("Clamp moved center to (%v,%v)", cx, cy)
	}
	if Default.Clamp(1) != Default {
		t.Error("Clamp changed a placement above the minimum")
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		p    Placement
		want bool
	}{
		{Default, true},
		{Placement{W: 0, H: 10}, false},
		{Placement{W: 10, H: -1}, false},
		{Placement{X: math.NaN(), W: 1, H: 1}, false},
	}
	for _, tt := range tests {
		if got := tt.p.Valid(); got != tt.want {
			t.Errorf("%+v Valid() = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestSteps(t *testing.T) {
	s := DefaultSteps
	factors := map[string]float64{"in": 1.1, "out": 0.9, "wheel-in": 1.07, "wheel-out": 0.93}
	for step, want := range factors {
		got, ok := s.ScaleFactor(step)
		if !ok || math.Abs(got-want) > 1e-12 {
			t.Errorf("ScaleFactor(%q) = %v, %v; want %v", step, got, ok, want)
		}
	}
	deltas := map[string]float64{"left": -5, "right": 5, "fine-left": -3, "fine-right": 3}
	for step, want := range deltas {
		got, ok := s.RotateDelta(step)
		if !ok || got != want {
			t.Errorf("RotateDelta(%q) = %v, %v; want %v", step, got, ok, want)
		}
	}
	if _, ok := s.ScaleFactor("sideways"); ok {
		t.Error("unknown scale step accepted")
	}
	if _, ok := s.RotateDelta("up"); ok {
		t.Error("unknown rotate step accepted")
	}
}
