package frame

import (
	"errors"
	"image/color"
	"testing"
)

func TestBlend(t *testing.T) {
	dst := NewUniform(2, 2, color.RGBA{R: 200, G: 100, B: 0})
	src := NewUniform(2, 2, color.RGBA{R: 50, G: 100, B: 255})

	tests := []struct {
		mode    BlendMode
		opacity float64
		want    [3]uint8
	}{
		{BlendNormal, 1, [3]uint8{50, 100, 255}},
		{BlendNormal, 0, [3]uint8{200, 100, 0}},
		{BlendDifference, 1, [3]uint8{150, 0, 255}},
		{BlendMultiply, 1, [3]uint8{39, 39, 0}},
		{BlendScreen, 1, [3]uint8{211, 161, 255}},
	}
	for _, tt := range tests {
		got, err := Blend(dst, src, tt.mode, tt.opacity)
		if err != nil {
			t.Fatal(err)
		}
		r, g, b := got.RGB(1, 1)
		if [3]uint8{r, g, b} != tt.want {
			t.Errorf("%v@%.1f = (%d,%d,%d), want %v", tt.mode, tt.opacity, r, g, b, tt.want)
		}
	}

	if _, err := Blend(New(2, 2), New(3, 2), BlendNormal, 1); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestSideBySide(t *testing.T) {
	a := NewUniform(2, 3, color.RGBA{R: 10})
	b := NewUniform(4, 1, color.RGBA{G: 20})
	out := SideBySide(a, b)
	if out.Width != 6 || out.Height != 3 {
		t.Fatalf("size = %dx%d, want 6x3", out.Width, out.Height)
	}
	if r, _, _ := out.RGB(1, 2); r != 10 {
		t.Errorf("left pixel red = %d", r)
	}
	if _, g, _ := out.RGB(5, 0); g != 20 {
		t.Errorf("right pixel green = %d", g)
	}
	if r, g, b := out.RGB(5, 2); r|g|b != 0 {
		t.Error("padding should be black")
	}
}
