package smoothing

import (
	"errors"
	"image/color"
	"testing"

	"projector-match/internal/frame"
)

func gray(v uint8) *frame.Image {
	return frame.NewUniform(4, 3, color.RGBA{R: v, G: v, B: v})
}

func TestCapacityOnePassesDelta(t *testing.T) {
	f, err := NewLowPassFilter(1)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		trueV, measured, want uint8
	}{
		{100, 90, 110},
		{100, 120, 80},
		{200, 100, 255}, // clipped high
		{40, 100, 0},    // clipped low
		{100, 100, 100},
	}
	for _, tt := range tests {
		got, err := f.Apply(gray(tt.trueV), gray(tt.measured))
		if err != nil {
			t.Fatal(err)
		}
		if r, _, _ := got.RGB(0, 0); r != tt.want {
			t.Errorf("Apply(%d, %d) = %d, want %d", tt.trueV, tt.measured, r, tt.want)
		}
		if f.Len() != 1 {
			t.Errorf("Len = %d, want 1", f.Len())
		}
	}
}

func TestRunningMeanEvictsOldest(t *testing.T) {
	const n = 5
	f, err := NewLowPassFilter(n)
	if err != nil {
		t.Fatal(err)
	}
	base := gray(100)

	// n identical deltas of +10.
	for i := 0; i < n; i++ {
		got, err := f.Apply(base, gray(90))
		if err != nil {
			t.Fatal(err)
		}
		if r, _, _ := got.RGB(0, 0); r != 110 {
			t.Fatalf("step %d: got %d, want 110", i, r)
		}
	}

	// Each -40 delta replaces one +10: means are 0, -10, -20, -30, -40.
	for i, want := range []uint8{100, 90, 80, 70, 60} {
		got, err := f.Apply(base, gray(140))
		if err != nil {
			t.Fatal(err)
		}
		if r, _, _ := got.RGB(3, 2); r != want {
			t.Errorf("after %d new deltas: got %d, want %d", i+1, r, want)
		}
		if f.Len() != n {
			t.Errorf("Len = %d, want %d", f.Len(), n)
		}
	}
}

func TestEmptyHistoryIsIdentity(t *testing.T) {
	f, err := NewLowPassFilter(3)
	if err != nil {
		t.Fatal(err)
	}
	in := gray(77)
	got, err := f.Predict(in)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(in) {
		t.Error("empty history should leave the frame unchanged")
	}

	if _, err := f.Apply(gray(100), gray(50)); err != nil {
		t.Fatal(err)
	}
	f.Reset()
	if f.Len() != 0 {
		t.Fatalf("Len after Reset = %d", f.Len())
	}
	got, err = f.Predict(in)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(in) {
		t.Error("history not cleared by Reset")
	}
}

func TestShapeMismatch(t *testing.T) {
	f, err := NewLowPassFilter(2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Apply(frame.New(4, 3), frame.New(3, 4)); !errors.Is(err, frame.ErrShapeMismatch) {
		t.Errorf("pair mismatch: expected ErrShapeMismatch, got %v", err)
	}
	if _, err := f.Apply(gray(10), gray(10)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Apply(frame.New(8, 8), frame.New(8, 8)); !errors.Is(err, frame.ErrShapeMismatch) {
		t.Errorf("history mismatch: expected ErrShapeMismatch, got %v", err)
	}
	if f.Len() != 1 {
		t.Errorf("rejected pair changed history: Len = %d", f.Len())
	}
}

func TestInvalidCapacity(t *testing.T) {
	for _, c := range []int{0, -1} {
		if _, err := NewLowPassFilter(c); err == nil {
			t.Errorf("capacity %d accepted", c)
		}
	}
}

func TestDeltaHistoryOrder(t *testing.T) {
	h, err := NewDeltaHistory(3)
	if err != nil {
		t.Fatal(err)
	}
	if h.Mean() != nil || h.Oldest() != nil {
		t.Fatal("empty history should have no mean or oldest")
	}
	mk := func(v float64) *frame.Buffer {
		b := frame.NewBuffer(1, 1)
		for i := range b.Values {
			b.Values[i] = v
		}
		return b
	}
	for _, v := range []float64{1, 2, 3, 4} {
		if err := h.Push(mk(v)); err != nil {
			t.Fatal(err)
		}
	}
	if h.Len() != 3 || h.Cap() != 3 {
		t.Fatalf("Len/Cap = %d/%d, want 3/3", h.Len(), h.Cap())
	}
	if got := h.Oldest().Values[0]; got != 2 {
		t.Errorf("oldest = %v, want 2", got)
	}
	if got := h.Mean().Values[0]; got != 3 {
		t.Errorf("mean = %v, want 3", got)
	}
}
