package alignment

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"projector-match/internal/frame"
	"projector-match/pkg/geometry"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateGeometry is returned when four corners do not span a
// quadrilateral, so no homography maps them onto a rectangle.
var ErrDegenerateGeometry = errors.New("degenerate quadrilateral")

// ComputeHomography solves the projective transform taking each src corner
// to the matching dst corner. Exactly four correspondences determine it;
// h33 is fixed at 1 and the remaining eight entries come from an 8x8 linear
// system.
func ComputeHomography(src, dst geometry.Quad) (geometry.Homography, error) {
	if src.Degenerate() {
		return geometry.Homography{}, fmt.Errorf("source %v: %w", src, ErrDegenerateGeometry)
	}
	if dst.Degenerate() {
		return geometry.Homography{}, fmt.Errorf("destination %v: %w", dst, ErrDegenerateGeometry)
	}

	// u = (h0*x + h1*y + h2) / (h6*x + h7*y + 1)
	// v = (h3*x + h4*y + h5) / (h6*x + h7*y + 1)
	A := mat.NewDense(8, 8, nil)
	B := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y

		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		A.Set(i*2, 6, -x*u)
		A.Set(i*2, 7, -y*u)
		B.SetVec(i*2, u)

		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		A.Set(i*2+1, 6, -x*v)
		A.Set(i*2+1, 7, -y*v)
		B.SetVec(i*2+1, v)
	}

	var params mat.VecDense
	if err := params.SolveVec(A, B); err != nil {
		return geometry.Homography{}, fmt.Errorf("solve homography: %v: %w", err, ErrDegenerateGeometry)
	}

	var h geometry.Homography
	for i := 0; i < 8; i++ {
		h[i] = params.AtVec(i)
	}
	h[8] = 1
	if _, ok := h.Inverse(); !ok {
		return geometry.Homography{}, fmt.Errorf("singular homography: %w", ErrDegenerateGeometry)
	}
	return h, nil
}

// Rectifier warps captured frames from a fixed quad onto a reference-sized
// rectangle. Build one per calibration and reuse it for every frame.
type Rectifier struct {
	Width, Height int
	Quad          geometry.Quad
	H             geometry.Homography
}

// NewRectifier computes the homography from q to the rectangle
// (0,0) (W,0) (W,H) (0,H) of a width x height reference.
func NewRectifier(width, height int, q geometry.Quad) (*Rectifier, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid reference size %dx%d", width, height)
	}
	h, err := ComputeHomography(q, geometry.RectQuad(float64(width), float64(height)))
	if err != nil {
		return nil, err
	}
	return &Rectifier{Width: width, Height: height, Quad: q, H: h}, nil
}

// Apply warps src into the reference frame. Bilinear sampling; pixels that
// map outside src are black. The result always has the reference size.
func (r *Rectifier) Apply(src *frame.Image) (*frame.Image, error) {
	srcMat, err := frame.ToMat(src)
	if err != nil {
		return nil, fmt.Errorf("rectify: %w", err)
	}
	defer srcMat.Close()

	// Create transform matrix for GoCV
	m := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer m.Close()
	for i, v := range r.H {
		m.SetDoubleAt(i/3, i%3, v)
	}

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.WarpPerspectiveWithParams(srcMat, &dst, m, image.Point{r.Width, r.Height},
		gocv.InterpolationLinear, gocv.BorderConstant, color.RGBA{R: 0, G: 0, B: 0, A: 0})

	return frame.FromMat(dst)
}

// Rectify warps the region q of src onto an image shaped like ref.
func Rectify(ref, src *frame.Image, q geometry.Quad) (*frame.Image, error) {
	r, err := NewRectifier(ref.Width, ref.Height, q)
	if err != nil {
		return nil, err
	}
	return r.Apply(src)
}

// ReprojectionError returns the largest distance between a mapped source
// corner and its destination. Useful for checking a solved homography.
func ReprojectionError(h geometry.Homography, src, dst geometry.Quad) float64 {
	var worst float64
	for i := range src {
		p, ok := h.Apply(src[i])
		if !ok {
			return math.Inf(1)
		}
		worst = max(worst, p.Distance(dst[i]))
	}
	return worst
}
