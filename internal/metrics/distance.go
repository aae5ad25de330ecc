// Package metrics scores how closely a captured image matches its reference.
package metrics

import (
	"fmt"

	"projector-match/internal/frame"
	"projector-match/pkg/colorutil"

	"gonum.org/v1/gonum/floats"
)

// Distance returns the normalized L1 distance between two images of the
// same shape: the sum of absolute sample differences divided by the largest
// possible sum. 0 means identical, 1 means every sample is fully inverted.
func Distance(a, b *frame.Image) (float64, error) {
	if err := frame.CheckShape("distance", a, b); err != nil {
		return 0, err
	}
	if len(a.Pix) == 0 {
		return 0, nil
	}
	total := floats.Distance(samples(a), samples(b), 1)
	return total / (frame.MaxSample * float64(len(a.Pix))), nil
}

// MeanDeltaE returns the mean CIEDE2000 color difference between
// corresponding pixels. It weighs hue and lightness errors the way a viewer
// perceives them, unlike Distance.
func MeanDeltaE(a, b *frame.Image) (float64, error) {
	if err := frame.CheckShape("delta e", a, b); err != nil {
		return 0, err
	}
	n := a.Width * a.Height
	if n == 0 {
		return 0, nil
	}
	var sum float64
	for i := 0; i < len(a.Pix); i += frame.Channels {
		sum += colorutil.DeltaE(a.Pix[i], a.Pix[i+1], a.Pix[i+2], b.Pix[i], b.Pix[i+1], b.Pix[i+2])
	}
	return sum / float64(n), nil
}

// Report bundles the scores printed for each evaluated frame.
type Report struct {
	Distance float64
	DeltaE   float64
}

func (r Report) String() string {
	return fmt.Sprintf("distance=%.4f deltaE=%.3f", r.Distance, r.DeltaE)
}

// Compare computes every metric for one pair of images.
func Compare(a, b *frame.Image) (Report, error) {
	d, err := Distance(a, b)
	if err != nil {
		return Report{}, err
	}
	e, err := MeanDeltaE(a, b)
	if err != nil {
		return Report{}, err
	}
	return Report{Distance: d, DeltaE: e}, nil
}

func samples(img *frame.Image) []float64 {
	out := make([]float64, len(img.Pix))
	for i, v := range img.Pix {
		out[i] = float64(v)
	}
	return out
}
