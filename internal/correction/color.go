// Package correction aligns the global color statistics of captured frames
// with their reference.
package correction

import (
	"math"

	"projector-match/internal/frame"

	"gonum.org/v1/gonum/stat"
)

// ChannelMeans returns the mean sample value of each channel over the whole
// image.
func ChannelMeans(img *frame.Image) [frame.Channels]float64 {
	var means [frame.Channels]float64
	n := img.Width * img.Height
	if n == 0 {
		return means
	}
	channel := make([]float64, n)
	for c := 0; c < frame.Channels; c++ {
		for i := 0; i < n; i++ {
			channel[i] = float64(img.Pix[i*frame.Channels+c])
		}
		means[c] = stat.Mean(channel, nil)
	}
	return means
}

// ColorCorrect shifts each channel of src so that its mean matches the
// corresponding channel mean of target. The shift is applied in floating
// point, clipped to [0, 255] and truncated. Correcting an image against
// itself returns an identical copy.
func ColorCorrect(src, target *frame.Image) (*frame.Image, error) {
	if err := frame.CheckShape("color correct", src, target); err != nil {
		return nil, err
	}
	return ApplyOffset(src, MeanOffset(target, src)), nil
}

// MeanOffset returns the per-channel shift that moves the means of
// recorded onto those of reference: mean(reference) - mean(recorded).
// The two images need not share a shape.
func MeanOffset(reference, recorded *frame.Image) [frame.Channels]float64 {
	ref := ChannelMeans(reference)
	rec := ChannelMeans(recorded)
	var off [frame.Channels]float64
	for c := range off {
		off[c] = ref[c] - rec[c]
	}
	return off
}

// ApplyOffset returns img with offset[c] added to every sample of channel c,
// clipped to [0, 255] and truncated.
func ApplyOffset(img *frame.Image, offset [frame.Channels]float64) *frame.Image {
	out := frame.New(img.Width, img.Height)
	for i, v := range img.Pix {
		s := float64(v) + offset[i%frame.Channels]
		out.Pix[i] = uint8(math.Min(frame.MaxSample, math.Max(0, s)))
	}
	return out
}

// StaticCorrector computes a mean offset from the first frame pair it sees
// and applies that same offset to every later frame.
type StaticCorrector struct {
	offset [frame.Channels]float64
	ready  bool
}

// Calibrated reports whether the offset has been measured.
func (s *StaticCorrector) Calibrated() bool {
	return s.ready
}

// Offset returns the measured offset, or zeros before calibration.
func (s *StaticCorrector) Offset() [frame.Channels]float64 {
	return s.offset
}

// Observe records the offset between a reference and its rectified capture
// if no offset has been recorded yet.
func (s *StaticCorrector) Observe(reference, recorded *frame.Image) {
	if s.ready {
		return
	}
	s.offset = MeanOffset(reference, recorded)
	s.ready = true
}

// Apply returns img shifted by the recorded offset.
func (s *StaticCorrector) Apply(img *frame.Image) *frame.Image {
	return ApplyOffset(img, s.offset)
}
