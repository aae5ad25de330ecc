package geometry

import (
	"math"
	"testing"
)

func TestQuadSignedArea(t *testing.T) {
	cw := RectQuad(10, 10)
	if a := cw.SignedArea(); a != 100 {
		t.Fatalf("clockwise area = %v, want 100", a)
	}
	ccw := Quad{cw[0], cw[3], cw[2], cw[1]}
	if a := ccw.SignedArea(); a != -100 {
		t.Fatalf("counter-clockwise area = %v, want -100", a)
	}
}

func TestQuadDegenerate(t *testing.T) {
	tests := []struct {
		name string
		q    Quad
		want bool
	}{
		{"rectangle", RectQuad(20, 10), false},
		{"skewed", Quad{{1, 2}, {40, 5}, {38, 30}, {3, 25}}, false},
		{"collinear", Quad{{0, 0}, {5, 5}, {10, 10}, {0, 10}}, true},
		{"repeated", Quad{{0, 0}, {0, 0}, {10, 10}, {0, 10}}, true},
		{"all same", Quad{{3, 3}, {3, 3}, {3, 3}, {3, 3}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Degenerate(); got != tt.want {
				t.Errorf("Degenerate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHomographyInverse(t *testing.T) {
	h := Homography{2, 0.1, 5, -0.2, 1.5, 7, 0.001, 0.002, 1}
	inv, ok := h.Inverse()
	if !ok {
		t.Fatal("expected invertible homography")
	}
	p := Point2D{X: 12, Y: 34}
	q, ok := h.Apply(p)
	if !ok {
		t.Fatal("point mapped to infinity")
	}
	back, ok := inv.Apply(q)
	if !ok {
		t.Fatal("point mapped to infinity on the way back")
	}
	if back.Distance(p) > 1e-9 {
		t.Errorf("round trip = %+v, want %+v", back, p)
	}
	if _, ok := (Homography{}).Inverse(); ok {
		t.Error("zero matrix should not be invertible")
	}
}

func TestIdentityHomography(t *testing.T) {
	id := IdentityHomography()
	p, _ := id.Apply(Point2D{X: 3.5, Y: -2})
	if p.X != 3.5 || p.Y != -2 {
		t.Errorf("identity moved point to %+v", p)
	}
	if math.Abs(id.Det()-1) > 0 {
		t.Errorf("identity det = %v", id.Det())
	}
}

func TestQuadBounds(t *testing.T) {
	q := Quad{{12, 5}, {40, 8}, {38, 30}, {3, 25}}
	want := Rect{X: 3, Y: 5, Width: 37, Height: 25}
	if got := q.Bounds(); got != want {
		t.Fatalf("Bounds = %+v, want %+v", got, want)
	}
	for _, p := range q {
		if !want.Contains(p) {
			t.Errorf("bounds should contain corner %v", p)
		}
	}
	if want.Contains(Point2D{X: 41, Y: 10}) {
		t.Error("point right of bounds reported inside")
	}
	if got := BoundingBox(nil); got != (Rect{}) {
		t.Errorf("empty BoundingBox = %+v", got)
	}
}
