// Package colorutil provides shared color utilities for overlays and color
// metrics.
package colorutil

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Overlay colors. Both have R == B so they draw the same in RGB and BGR
// channel order.
var (
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
)

// FromSamples converts 8-bit sRGB samples to a colorful.Color.
func FromSamples(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// DeltaE returns the CIEDE2000 difference between two 8-bit sRGB colors.
// Differences below about 1 are invisible to most viewers.
func DeltaE(r1, g1, b1, r2, g2, b2 uint8) float64 {
	return FromSamples(r1, g1, b1).DistanceCIEDE2000(FromSamples(r2, g2, b2))
}
