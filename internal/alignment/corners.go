package alignment

import (
	"errors"
	"fmt"
	"image"

	"projector-match/internal/frame"
	"projector-match/pkg/colorutil"
	"projector-match/pkg/geometry"

	"gocv.io/x/gocv"
)

// ErrDetection is returned when the projected region cannot be resolved to
// exactly one four-vertex outline.
var ErrDetection = errors.New("projection outline not found")

// Overlay colors. gocv writes color.RGBA in BGR channel order and frame Mats
// are RGB, so only colors with R == B render as named.
var (
	quadColor   = colorutil.Magenta
	anchorColor = colorutil.Green
)

// DetectOptions configures automatic quad detection.
type DetectOptions struct {
	BlurSize int // Gaussian kernel size, odd

	// Canny thresholds. When both are zero they are derived from the Otsu
	// threshold T of the blurred frame as LowRatio*T and HighRatio*T.
	LowThreshold  float64
	HighThreshold float64
	LowRatio      float64
	HighRatio     float64

	DilateSize int // must be larger than ErodeSize
	ErodeSize  int

	ApproxRatio float64 // polygon tolerance as a fraction of contour perimeter
	Debug       bool
}

// DefaultDetectOptions returns the detector settings used for projector
// captures.
func DefaultDetectOptions() DetectOptions {
	return DetectOptions{
		BlurSize:    5,
		LowRatio:    0.5,
		HighRatio:   1.0,
		DilateSize:  5,
		ErodeSize:   3,
		ApproxRatio: 0.02,
	}
}

// Validate checks option consistency.
func (o DetectOptions) Validate() error {
	if o.BlurSize < 1 || o.BlurSize%2 == 0 {
		return fmt.Errorf("blur size must be odd and positive, got %d", o.BlurSize)
	}
	if o.ErodeSize < 1 || o.DilateSize <= o.ErodeSize {
		return fmt.Errorf("dilate size %d must exceed erode size %d", o.DilateSize, o.ErodeSize)
	}
	if o.ApproxRatio <= 0 {
		return fmt.Errorf("approx ratio must be positive, got %g", o.ApproxRatio)
	}
	if o.LowThreshold < 0 || o.HighThreshold < 0 {
		return fmt.Errorf("negative edge threshold")
	}
	// A missing threshold is derived from the ratios.
	if (o.LowThreshold == 0 || o.HighThreshold == 0) && (o.LowRatio <= 0 || o.HighRatio <= 0) {
		return fmt.Errorf("edge threshold ratios must be positive, got %g and %g", o.LowRatio, o.HighRatio)
	}
	return nil
}

// CornerSelector establishes the quad of the projected region in a
// captured frame. Automatic detection and manual calibration share it.
type CornerSelector interface {
	SelectCorners(img *frame.Image) (geometry.Quad, error)
}

// Detector finds the projected region automatically.
type Detector struct {
	Options DetectOptions
}

// NewDetector returns a Detector with default options.
func NewDetector() *Detector {
	return &Detector{Options: DefaultDetectOptions()}
}

// SelectCorners implements CornerSelector.
func (d *Detector) SelectCorners(img *frame.Image) (geometry.Quad, error) {
	return DetectQuad(img, d.Options)
}

// FixedCorners is a quad supplied up front, typically from a one-time
// calibration stored in the config file.
type FixedCorners geometry.Quad

// SelectCorners implements CornerSelector. The frame is ignored.
func (f FixedCorners) SelectCorners(*frame.Image) (geometry.Quad, error) {
	q := geometry.Quad(f)
	if q.Degenerate() {
		return geometry.Quad{}, fmt.Errorf("fixed corners %v: %w", q, ErrDegenerateGeometry)
	}
	return OrderCorners(q), nil
}

// DetectQuad locates the bright projected rectangle in a captured frame and
// returns its corners in canonical order. Uses Canny edge detection and
// contour analysis; the simplified outline must have exactly four vertices.
func DetectQuad(img *frame.Image, opts DetectOptions) (geometry.Quad, error) {
	if err := opts.Validate(); err != nil {
		return geometry.Quad{}, err
	}
	src, err := frame.ToMat(img)
	if err != nil {
		return geometry.Quad{}, err
	}
	defer src.Close()

	// Convert to grayscale
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorRGBToGray)

	// Blur to reduce noise
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{opts.BlurSize, opts.BlurSize}, 0, 0, gocv.BorderDefault)

	low, high := edgeThresholds(blurred, opts)
	if opts.Debug {
		fmt.Printf("DetectQuad: canny thresholds low=%.1f high=%.1f\n", low, high)
	}

	// Canny edge detection
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, float32(low), float32(high))

	// Dilate to bridge gaps, then erode away isolated specks
	dilateKernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{opts.DilateSize, opts.DilateSize})
	defer dilateKernel.Close()
	erodeKernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{opts.ErodeSize, opts.ErodeSize})
	defer erodeKernel.Close()

	dilated := gocv.NewMat()
	defer dilated.Close()
	gocv.Dilate(edges, &dilated, dilateKernel)

	cleaned := gocv.NewMat()
	defer cleaned.Close()
	gocv.Erode(dilated, &cleaned, erodeKernel)

	// Find contours
	contours := gocv.FindContours(cleaned, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	if contours.Size() == 0 {
		return geometry.Quad{}, fmt.Errorf("no contours: %w", ErrDetection)
	}

	// The projected rectangle is the largest outline in the frame
	bestIdx := 0
	bestArea := -1.0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > bestArea {
			bestArea = area
			bestIdx = i
		}
	}
	best := contours.At(bestIdx)

	// Approximate to polygon
	epsilon := opts.ApproxRatio * gocv.ArcLength(best, true)
	approx := gocv.ApproxPolyDP(best, epsilon, true)
	defer approx.Close()

	if opts.Debug {
		fmt.Printf("DetectQuad: %d contours, largest area=%.0f, %d vertices\n",
			contours.Size(), bestArea, approx.Size())
	}

	if approx.Size() != 4 {
		return geometry.Quad{}, fmt.Errorf("largest contour simplifies to %d vertices, want 4: %w",
			approx.Size(), ErrDetection)
	}

	var q geometry.Quad
	for i := 0; i < 4; i++ {
		pt := approx.At(i)
		q[i] = geometry.Point2D{X: float64(pt.X), Y: float64(pt.Y)}
	}
	if q.Degenerate() {
		return geometry.Quad{}, fmt.Errorf("detected outline %v is degenerate: %w", q, ErrDetection)
	}
	return OrderCorners(q), nil
}

// edgeThresholds returns the Canny thresholds, from the explicit overrides
// when set, otherwise scaled from the Otsu threshold of the blurred frame.
func edgeThresholds(blurred gocv.Mat, opts DetectOptions) (float64, float64) {
	if opts.LowThreshold > 0 || opts.HighThreshold > 0 {
		low, high := opts.LowThreshold, opts.HighThreshold
		if high == 0 {
			high = low / opts.LowRatio * opts.HighRatio
		}
		if low == 0 {
			low = high / opts.HighRatio * opts.LowRatio
		}
		return low, high
	}

	binary := gocv.NewMat()
	defer binary.Close()
	otsu := float64(gocv.Threshold(blurred, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu))
	return opts.LowRatio * otsu, opts.HighRatio * otsu
}

// OrderCorners returns the corners of q starting at the corner with minimal
// x+y and proceeding clockwise on screen (y grows down).
//
// Ties on x+y go to the corner that comes first in the input. The walk
// direction follows the input's winding: inputs already listed clockwise
// are rotated, counter-clockwise inputs are walked backwards. The quad must
// be convex and non-degenerate; other inputs give an unspecified order.
func OrderCorners(q geometry.Quad) geometry.Quad {
	anchor := 0
	for i := 1; i < 4; i++ {
		if q[i].Sum() < q[anchor].Sum() {
			anchor = i
		}
	}

	step := 1
	if q.SignedArea() < 0 {
		step = -1
	}

	var out geometry.Quad
	for i := 0; i < 4; i++ {
		out[i] = q[((anchor+i*step)%4+4)%4]
	}
	return out
}

// DrawQuad returns a copy of img with the quad outlined and its first
// corner marked, for checking a calibration by eye.
func DrawQuad(img *frame.Image, q geometry.Quad) (*frame.Image, error) {
	mat, err := frame.ToMat(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	thickness := max(1, min(img.Width, img.Height)/200)
	for i := 0; i < 4; i++ {
		a, b := q[i], q[(i+1)%4]
		gocv.Line(&mat, toPoint(a), toPoint(b), quadColor, thickness)
	}
	gocv.Circle(&mat, toPoint(q[0]), 3*thickness, anchorColor, -1)

	return frame.FromMat(mat)
}

func toPoint(p geometry.Point2D) image.Point {
	return image.Point{X: int(p.X + 0.5), Y: int(p.Y + 0.5)}
}
