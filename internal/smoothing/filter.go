// Package smoothing reduces frame-to-frame flicker in the correction by
// averaging recent deltas.
package smoothing

import (
	"fmt"

	"projector-match/internal/frame"

	"gonum.org/v1/gonum/floats"
)

// DeltaHistory is a fixed-capacity ring of correction deltas. Pushing into
// a full history evicts the oldest delta.
type DeltaHistory struct {
	items []*frame.Buffer
	head  int // index of the oldest delta once full
	full  bool
}

// NewDeltaHistory returns an empty history holding at most capacity deltas.
func NewDeltaHistory(capacity int) (*DeltaHistory, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("history capacity must be at least 1, got %d", capacity)
	}
	return &DeltaHistory{items: make([]*frame.Buffer, 0, capacity)}, nil
}

// Cap returns the fixed capacity.
func (h *DeltaHistory) Cap() int { return cap(h.items) }

// Len returns the number of deltas currently held.
func (h *DeltaHistory) Len() int { return len(h.items) }

// Push appends d, evicting the oldest delta when the history is full.
// d must match the shape of the deltas already held.
func (h *DeltaHistory) Push(d *frame.Buffer) error {
	if len(h.items) > 0 && h.items[0].Shape() != d.Shape() {
		return &frame.ShapeError{Op: "push delta", A: h.items[0].Shape(), B: d.Shape()}
	}
	if len(h.items) < cap(h.items) {
		h.items = append(h.items, d)
		h.full = len(h.items) == cap(h.items)
		return nil
	}
	h.items[h.head] = d
	h.head = (h.head + 1) % len(h.items)
	return nil
}

// Mean returns the element-wise mean of the held deltas, or nil when the
// history is empty.
func (h *DeltaHistory) Mean() *frame.Buffer {
	if len(h.items) == 0 {
		return nil
	}
	sum := h.items[0].Clone()
	for _, d := range h.items[1:] {
		floats.Add(sum.Values, d.Values)
	}
	n := float64(len(h.items))
	for i := range sum.Values {
		sum.Values[i] /= n
	}
	return sum
}

// Oldest returns the delta that the next Push into a full history would
// evict, or nil when empty.
func (h *DeltaHistory) Oldest() *frame.Buffer {
	if len(h.items) == 0 {
		return nil
	}
	if !h.full {
		return h.items[0]
	}
	return h.items[h.head]
}

// Reset drops all held deltas.
func (h *DeltaHistory) Reset() {
	clear(h.items)
	h.items = h.items[:0]
	h.head = 0
	h.full = false
}

// LowPassFilter smooths per-pixel corrections over the last N frame pairs.
// Not safe for concurrent use.
type LowPassFilter struct {
	history *DeltaHistory
}

// NewLowPassFilter returns a filter averaging over the last capacity deltas.
func NewLowPassFilter(capacity int) (*LowPassFilter, error) {
	h, err := NewDeltaHistory(capacity)
	if err != nil {
		return nil, err
	}
	return &LowPassFilter{history: h}, nil
}

// Apply records trueFrame - measured and returns trueFrame shifted by the
// mean of the recorded deltas, clipped to [0, 255].
func (f *LowPassFilter) Apply(trueFrame, measured *frame.Image) (*frame.Image, error) {
	delta, err := frame.Difference(trueFrame, measured)
	if err != nil {
		return nil, fmt.Errorf("low-pass filter: %w", err)
	}
	if err := f.history.Push(delta); err != nil {
		return nil, fmt.Errorf("low-pass filter: %w", err)
	}
	return f.history.Mean().AddTo(trueFrame)
}

// Predict returns trueFrame shifted by the mean of the recorded deltas
// without recording a new pair. With an empty history it returns a copy of
// trueFrame.
func (f *LowPassFilter) Predict(trueFrame *frame.Image) (*frame.Image, error) {
	mean := f.history.Mean()
	if mean == nil {
		return trueFrame.Clone(), nil
	}
	out, err := mean.AddTo(trueFrame)
	if err != nil {
		return nil, fmt.Errorf("low-pass filter: %w", err)
	}
	return out, nil
}

// Len returns the number of deltas currently averaged.
func (f *LowPassFilter) Len() int { return f.history.Len() }

// Reset forgets all recorded deltas.
func (f *LowPassFilter) Reset() { f.history.Reset() }
