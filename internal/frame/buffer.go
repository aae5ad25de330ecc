package frame

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MaxSample is the largest valid 8-bit sample value.
const MaxSample = 255

// Buffer holds per-pixel, per-channel float64 samples with the same layout
// as Image. It is used for signed correction deltas and for accumulators
// that must not lose precision to repeated 8-bit rounding.
type Buffer struct {
	Width  int
	Height int
	Values []float64
}

// NewBuffer allocates a zeroed buffer.
func NewBuffer(width, height int) *Buffer {
	return &Buffer{
		Width:  width,
		Height: height,
		Values: make([]float64, width*height*Channels),
	}
}

// BufferFrom widens an image into a new buffer.
func BufferFrom(img *Image) *Buffer {
	b := NewBuffer(img.Width, img.Height)
	for i, v := range img.Pix {
		b.Values[i] = float64(v)
	}
	return b
}

// Difference returns a - b as a signed buffer.
func Difference(a, b *Image) (*Buffer, error) {
	if err := CheckShape("difference", a, b); err != nil {
		return nil, err
	}
	d := BufferFrom(a)
	for i, v := range b.Pix {
		d.Values[i] -= float64(v)
	}
	return d, nil
}

// Shape returns the (height, width, channels) triple.
func (b *Buffer) Shape() Shape {
	return Shape{Height: b.Height, Width: b.Width, Channels: Channels}
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{Width: b.Width, Height: b.Height, Values: make([]float64, len(b.Values))}
	copy(c.Values, b.Values)
	return c
}

// Add adds other to b in place.
func (b *Buffer) Add(other *Buffer) error {
	if b.Shape() != other.Shape() {
		return &ShapeError{Op: "add", A: b.Shape(), B: other.Shape()}
	}
	floats.Add(b.Values, other.Values)
	return nil
}

// Clamp limits every sample to [lo, hi] in place.
func (b *Buffer) Clamp(lo, hi float64) {
	for i, v := range b.Values {
		b.Values[i] = math.Min(hi, math.Max(lo, v))
	}
}

// Clip limits every sample to the valid 8-bit range in place.
func (b *Buffer) Clip() {
	b.Clamp(0, MaxSample)
}

// Image narrows the buffer to 8 bits. Samples are clipped to [0, 255] and
// then truncated toward zero.
func (b *Buffer) Image() *Image {
	img := New(b.Width, b.Height)
	for i, v := range b.Values {
		img.Pix[i] = uint8(math.Min(MaxSample, math.Max(0, v)))
	}
	return img
}

// AddTo returns clip(img + b) as a new image.
func (b *Buffer) AddTo(img *Image) (*Image, error) {
	if img.Shape() != b.Shape() {
		return nil, &ShapeError{Op: "add", A: img.Shape(), B: b.Shape()}
	}
	sum := BufferFrom(img)
	floats.Add(sum.Values, b.Values)
	return sum.Image(), nil
}
