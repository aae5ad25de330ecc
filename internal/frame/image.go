// Package frame provides the 8-bit RGB image and wide-range sample buffer
// types shared by every stage of the correction pipeline.
package frame

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Channels is the number of samples per pixel. Channel order is RGB.
const Channels = 3

// ErrShapeMismatch is returned when two images or buffers that must share
// dimensions do not.
var ErrShapeMismatch = errors.New("shape mismatch")

// ShapeError describes a shape mismatch between two operands.
type ShapeError struct {
	Op   string
	A, B Shape
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %s: %v vs %v", e.Op, ErrShapeMismatch, e.A, e.B)
}

// Is lets errors.Is match ErrShapeMismatch.
func (e *ShapeError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// Shape is (height, width, channels).
type Shape struct {
	Height, Width, Channels int
}

func (s Shape) String() string {
	return fmt.Sprintf("(%d, %d, %d)", s.Height, s.Width, s.Channels)
}

// Image is an 8-bit RGB image stored row-major with interleaved channels.
// Pipeline stages treat Images as immutable and return new values.
type Image struct {
	Width  int
	Height int
	Pix    []uint8
}

// New allocates a black image.
func New(width, height int) *Image {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("frame: negative size %dx%d", width, height))
	}
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*Channels),
	}
}

// NewUniform allocates an image filled with a single color.
func NewUniform(width, height int, c color.RGBA) *Image {
	img := New(width, height)
	for i := 0; i < len(img.Pix); i += Channels {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
	}
	return img
}

// Shape returns the (height, width, channels) triple.
func (m *Image) Shape() Shape {
	return Shape{Height: m.Height, Width: m.Width, Channels: Channels}
}

// Bounds returns the image rectangle anchored at the origin.
func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// Empty reports whether the image holds no pixels.
func (m *Image) Empty() bool {
	return m == nil || m.Width == 0 || m.Height == 0
}

// Clone returns a deep copy.
func (m *Image) Clone() *Image {
	c := &Image{Width: m.Width, Height: m.Height, Pix: make([]uint8, len(m.Pix))}
	copy(c.Pix, m.Pix)
	return c
}

// Offset returns the index of the first sample of pixel (x, y).
func (m *Image) Offset(x, y int) int {
	return (y*m.Width + x) * Channels
}

// RGB returns the samples at (x, y).
func (m *Image) RGB(x, y int) (r, g, b uint8) {
	i := m.Offset(x, y)
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

// SetRGB sets the samples at (x, y).
func (m *Image) SetRGB(x, y int, r, g, b uint8) {
	i := m.Offset(x, y)
	m.Pix[i], m.Pix[i+1], m.Pix[i+2] = r, g, b
}

// FillRect paints a rectangle (clipped to the image) with a single color.
func (m *Image) FillRect(r image.Rectangle, c color.RGBA) {
	r = r.Intersect(m.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.SetRGB(x, y, c.R, c.G, c.B)
		}
	}
}

// Equal reports whether two images have the same shape and samples.
func (m *Image) Equal(other *Image) bool {
	if m.Shape() != other.Shape() {
		return false
	}
	for i := range m.Pix {
		if m.Pix[i] != other.Pix[i] {
			return false
		}
	}
	return true
}

// CheckShape returns a *ShapeError when a and b differ in shape.
func CheckShape(op string, a, b *Image) error {
	if a.Shape() != b.Shape() {
		return &ShapeError{Op: op, A: a.Shape(), B: b.Shape()}
	}
	return nil
}

// Crop copies the pixels inside r into a new image.
func Crop(img *Image, r image.Rectangle) (*Image, error) {
	if !r.In(img.Bounds()) || r.Empty() {
		return nil, fmt.Errorf("crop %v outside image bounds %v", r, img.Bounds())
	}
	out := New(r.Dx(), r.Dy())
	rowLen := r.Dx() * Channels
	for y := 0; y < r.Dy(); y++ {
		src := img.Offset(r.Min.X, r.Min.Y+y)
		copy(out.Pix[y*rowLen:(y+1)*rowLen], img.Pix[src:src+rowLen])
	}
	return out, nil
}

// FromImage converts any image.Image to an RGB Image. Alpha is dropped
// after compositing onto black.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	rgba, ok := src.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	}

	out := New(b.Dx(), b.Dy())
	for y := 0; y < out.Height; y++ {
		row := rgba.Pix[y*rgba.Stride:]
		for x := 0; x < out.Width; x++ {
			i := out.Offset(x, y)
			out.Pix[i] = row[x*4]
			out.Pix[i+1] = row[x*4+1]
			out.Pix[i+2] = row[x*4+2]
		}
	}
	return out
}

// RGBA converts the image to an opaque *image.RGBA.
func (m *Image) RGBA() *image.RGBA {
	out := image.NewRGBA(m.Bounds())
	for y := 0; y < m.Height; y++ {
		row := out.Pix[y*out.Stride:]
		for x := 0; x < m.Width; x++ {
			i := m.Offset(x, y)
			row[x*4] = m.Pix[i]
			row[x*4+1] = m.Pix[i+1]
			row[x*4+2] = m.Pix[i+2]
			row[x*4+3] = 255
		}
	}
	return out
}
