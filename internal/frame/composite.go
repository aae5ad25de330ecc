package frame

import (
	"image"
	"math"
)

// BlendMode specifies how two images are combined.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDifference
)

func (m BlendMode) String() string {
	switch m {
	case BlendNormal:
		return "Normal"
	case BlendMultiply:
		return "Multiply"
	case BlendScreen:
		return "Screen"
	case BlendOverlay:
		return "Overlay"
	case BlendDifference:
		return "Difference"
	default:
		return "Unknown"
	}
}

// Blend composites src over dst with the given mode and opacity in [0, 1]
// and returns the result. Difference at full opacity shows where a capture
// departs from its reference.
func Blend(dst, src *Image, mode BlendMode, opacity float64) (*Image, error) {
	if err := CheckShape("blend", dst, src); err != nil {
		return nil, err
	}
	opacity = clamp(opacity, 0, 1)
	out := New(dst.Width, dst.Height)
	for i := range dst.Pix {
		s := float64(src.Pix[i]) / MaxSample
		d := float64(dst.Pix[i]) / MaxSample

		var r float64
		switch mode {
		case BlendMultiply:
			r = s * d
		case BlendScreen:
			r = 1 - (1-s)*(1-d)
		case BlendOverlay:
			if d < 0.5 {
				r = 2 * s * d
			} else {
				r = 1 - 2*(1-s)*(1-d)
			}
		case BlendDifference:
			r = math.Abs(s - d)
		default:
			r = s
		}

		v := r*opacity + d*(1-opacity)
		out.Pix[i] = uint8(math.Round(clamp(v, 0, 1) * MaxSample))
	}
	return out, nil
}

// SideBySide places a and b next to each other on a black canvas, a on the
// left. Used for visual reports.
func SideBySide(a, b *Image) *Image {
	out := New(a.Width+b.Width, max(a.Height, b.Height))
	paste(out, a, image.Pt(0, 0))
	paste(out, b, image.Pt(a.Width, 0))
	return out
}

func paste(dst, src *Image, at image.Point) {
	row := src.Width * Channels
	for y := 0; y < src.Height; y++ {
		copy(dst.Pix[dst.Offset(at.X, at.Y+y):], src.Pix[y*row:(y+1)*row])
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
