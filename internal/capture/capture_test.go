package capture

import (
	"errors"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"projector-match/internal/frame"
)

func TestLessNumbered(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"frame_2.png", "frame_10.png", true},
		{"frame_10.png", "frame_2.png", false},
		{"7.jpg", "frame_8.png", true},
		{"frame_3.png", "cover.png", true},
		{"a.png", "b.png", true},
		{"frame_3.png", "frame_3.tif", true},
	}
	for _, tt := range tests {
		if got := lessNumbered(tt.a, tt.b); got != tt.want {
			t.Errorf("lessNumbered(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSequence(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"frame_10.png", "frame_2.png", "frame_1.png"} {
		img := frame.NewUniform(3, 2, color.RGBA{R: uint8(i), A: 255})
		if err := frame.Save(filepath.Join(dir, name), img); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	seq, err := OpenSequence(dir)
	if err != nil {
		t.Fatal(err)
	}
	if seq.Len() != 3 {
		t.Fatalf("Len = %d, want 3", seq.Len())
	}

	// Red channel records the write order: frame_1 was written third.
	for _, want := range []struct {
		name string
		red  uint8
	}{{"frame_1.png", 2}, {"frame_2.png", 1}, {"frame_10.png", 0}} {
		img, err := seq.NextFrame()
		if err != nil {
			t.Fatal(err)
		}
		if got := filepath.Base(seq.Current()); got != want.name {
			t.Errorf("current = %s, want %s", got, want.name)
		}
		if r, _, _ := img.RGB(0, 0); r != want.red {
			t.Errorf("%s red = %d, want %d", want.name, r, want.red)
		}
	}
	if _, err := seq.NextFrame(); err != io.EOF {
		t.Errorf("expected io.EOF after last frame, got %v", err)
	}
	seq.Rewind()
	if _, err := seq.NextFrame(); err != nil {
		t.Errorf("after rewind: %v", err)
	}
}

func TestSequenceErrors(t *testing.T) {
	if _, err := OpenSequence(t.TempDir()); !errors.Is(err, ErrDevice) {
		t.Errorf("empty dir: expected ErrDevice, got %v", err)
	}
	if _, err := OpenSequence(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, ErrDevice) {
		t.Errorf("missing dir: expected ErrDevice, got %v", err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	seq, err := OpenSequence(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := seq.NextFrame(); !errors.Is(err, ErrDevice) {
		t.Errorf("corrupt file: expected ErrDevice, got %v", err)
	}
}

func TestStillAndDiscard(t *testing.T) {
	src := frame.NewUniform(2, 2, color.RGBA{G: 9})
	s := Still{Image: src}
	a, err := s.NextFrame()
	if err != nil {
		t.Fatal(err)
	}
	a.Pix[0] = 200
	b, err := s.NextFrame()
	if err != nil {
		t.Fatal(err)
	}
	if !b.Equal(src) {
		t.Error("still frames share memory")
	}

	if _, err := (Still{}).NextFrame(); !errors.Is(err, ErrDevice) {
		t.Errorf("expected ErrDevice, got %v", err)
	}

	var d Display = Discard{}
	if err := d.Show(src); err != nil {
		t.Error(err)
	}
}
