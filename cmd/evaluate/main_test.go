package main

import (
	"image"
	"image/color"
	"testing"

	"projector-match/internal/frame"
)

func TestParseCrop(t *testing.T) {
	tests := []struct {
		in      string
		want    image.Rectangle
		wantErr bool
	}{
		{"", image.Rectangle{}, false},
		{"10,20,100,50", image.Rect(10, 20, 110, 70), false},
		{" 0, 0, 5, 5 ", image.Rect(0, 0, 5, 5), false},
		{"1,2,3", image.Rectangle{}, true},
		{"a,2,3,4", image.Rectangle{}, true},
		{"0,0,0,10", image.Rectangle{}, true},
	}
	for _, tt := range tests {
		got, err := parseCrop(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseCrop(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseCrop(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEvaluatorModes(t *testing.T) {
	ref := frame.NewUniform(4, 4, color.RGBA{R: 100, G: 100, B: 100})
	dim := frame.NewUniform(4, 4, color.RGBA{R: 90, G: 90, B: 90})

	for _, mode := range []string{modeNone, modeStatic, modeLowPass} {
		ev, err := newEvaluator(mode, 3)
		if err != nil {
			t.Fatal(err)
		}
		first, err := ev.prepare(ref)
		if err != nil {
			t.Fatal(err)
		}
		if !first.Equal(ref) {
			t.Errorf("%s: first frame should be projected unchanged", mode)
		}
		if err := ev.observe(ref, dim); err != nil {
			t.Fatal(err)
		}
		second, err := ev.prepare(ref)
		if err != nil {
			t.Fatal(err)
		}
		r, _, _ := second.RGB(0, 0)
		want := uint8(110)
		if mode == modeNone {
			want = 100
		}
		if r != want {
			t.Errorf("%s: second frame = %d, want %d", mode, r, want)
		}
	}

	if _, err := newEvaluator("bogus", 3); err == nil {
		t.Error("unknown mode accepted")
	}
}
