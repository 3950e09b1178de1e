package geometry

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var floatOpt = cmp.Comparer(func(x, y float64) bool {
	return math.Abs(x-y) < 0.00001
})

func TestRotate(t *testing.T) {
	tests := []struct {
		v    Vector2
		deg  float64
		want Vector2
	}{
		{v: Point{X: 1, Y: 0}, deg: 90, want: Point{X: 0, Y: 1}},
		{v: Point{X: 1, Y: 0}, deg: -90, want: Point{X: 0, Y: -1}},
		{v: Point{X: 2, Y: 1}, deg: 180, want: Point{X: -2, Y: -1}},
		{v: Point{X: 3, Y: 4}, deg: 0, want: Point{X: 3, Y: 4}},
	}
	for i, test := range tests {
		got := test.v.Rotate(test.deg)
		if diff := cmp.Diff(test.want, got, floatOpt); diff != "" {
			t.Errorf("Test %d - %v.Rotate(%g) incorrect output: %s", i, test.v, test.deg, diff)
		}
	}
}

func TestAngleAndNormalize(t *testing.T) {
	tests := []struct {
		v    Vector2
		want float64
	}{
		{Point{X: 1, Y: 0}, 0},
		{Point{X: 0, Y: 1}, 90},
		{Point{X: -1, Y: 0}, 180},
		{Point{X: 0, Y: -1}, 270},
	}
	for _, test := range tests {
		if diff := cmp.Diff(test.want, test.v.Angle(), floatOpt); diff != "" {
			t.Errorf("%v.Angle(): %s", test.v, diff)
		}
	}
	if got := NormalizeDegrees(-90); got != 270 {
		t.Errorf("NormalizeDegrees(-90) = %g, want 270", got)
	}
	if got := NormalizeDegrees(720); got != 0 {
		t.Errorf("NormalizeDegrees(720) = %g, want 0", got)
	}
}

func TestBounds(t *testing.T) {
	if _, ok := Bounds(); ok {
		t.Errorf("Bounds() of no points should report false")
	}
	r, ok := Bounds(Point{X: 1, Y: 5}, Point{X: -2, Y: 3}, Point{X: 4, Y: -1})
	if !ok {
		t.Fatalf("Bounds() reported no points")
	}
	want := Rectangle{Min: Point{X: -2, Y: -1}, Max: Point{X: 4, Y: 5}}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Errorf("incorrect bounds: %s", diff)
	}
	if r.Width() != 6 || r.Height() != 6 {
		t.Errorf("incorrect size %gx%g", r.Width(), r.Height())
	}
	if diff := cmp.Diff(Point{X: 1, Y: 2}, r.Center()); diff != "" {
		t.Errorf("incorrect center: %s", diff)
	}
}

func TestMatrix(t *testing.T) {
	p := Point{X: 2, Y: 3}

	if diff := cmp.Diff(p, Identity().TransformPoint(p)); diff != "" {
		t.Errorf("identity changed the point: %s", diff)
	}

	// Rotate first, then translate.
	m := Translate(10, 20).Multiply(Rotate(90))
	if diff := cmp.Diff(Point{X: 7, Y: 22}, m.TransformPoint(p), floatOpt); diff != "" {
		t.Errorf("rotate+translate incorrect: %s", diff)
	}
	if diff := cmp.Diff(Point{X: -3, Y: 2}, m.TransformVector(p), floatOpt); diff != "" {
		t.Errorf("vector transform should ignore translation: %s", diff)
	}

	flip := Scale(1, -1)
	if !flip.Mirrors() {
		t.Errorf("Y flip should mirror")
	}
	if m.Mirrors() {
		t.Errorf("rigid transform should not mirror")
	}
	if !(Matrix{}).IsZero() || Identity().IsZero() {
		t.Errorf("IsZero incorrect")
	}
}
