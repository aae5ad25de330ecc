// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{X: p.X - other.X, Y: p.Y - other.Y}
}

// Sum returns x+y, the metric used to pick the top-left corner.
func (p Point2D) Sum() float64 {
	return p.X + p.Y
}

// Cross returns the z component of the cross product of two vectors.
func (p Point2D) Cross(other Point2D) float64 {
	return p.X*other.Y - p.Y*other.X
}

// Quad is a quadrilateral given by exactly four corners.
// Once canonicalised, index 0 is the corner with minimal x+y and the
// remaining corners follow clockwise (image coordinates, y grows down).
type Quad [4]Point2D

// RectQuad returns the corners of a width x height rectangle anchored at the
// origin: TL, TR, BR, BL.
func RectQuad(width, height float64) Quad {
	return Quad{
		{X: 0, Y: 0},
		{X: width, Y: 0},
		{X: width, Y: height},
		{X: 0, Y: height},
	}
}

// SignedArea returns the shoelace area of the quad in its current index
// order. Positive means clockwise on screen (y down).
func (q Quad) SignedArea() float64 {
	var sum float64
	for i := 0; i < 4; i++ {
		a, b := q[i], q[(i+1)%4]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// Degenerate reports whether any three corners are (nearly) collinear,
// which includes repeated corners. A projective mapping is only defined
// for quads where this returns false.
func (q Quad) Degenerate() bool {
	scale := 0.0
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			scale = math.Max(scale, q[i].Distance(q[j]))
		}
	}
	if scale == 0 {
		return true
	}
	tol := 1e-9 * scale * scale
	for skip := 0; skip < 4; skip++ {
		var tri [3]Point2D
		n := 0
		for i := 0; i < 4; i++ {
			if i != skip {
				tri[n] = q[i]
				n++
			}
		}
		area := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0]))
		if math.Abs(area) <= tol {
			return true
		}
	}
	return false
}

// Bounds computes the axis-aligned bounding box of the quad.
func (q Quad) Bounds() Rect {
	return BoundingBox(q[:])
}

// Rect represents a rectangle with floating-point coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains returns true if the point is inside the rectangle.
func (r Rect) Contains(p Point2D) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Homography is a 3x3 projective transform in row-major order.
// [h0 h1 h2]
// [h3 h4 h5]
// [h6 h7 h8]
type Homography [9]float64

// IdentityHomography returns the identity transform.
func IdentityHomography() Homography {
	return Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Apply maps a point through the transform. ok is false when the point maps
// to infinity.
func (h Homography) Apply(p Point2D) (Point2D, bool) {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if w == 0 {
		return Point2D{}, false
	}
	return Point2D{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}, true
}

// Det returns the determinant of the matrix.
func (h Homography) Det() float64 {
	return h[0]*(h[4]*h[8]-h[5]*h[7]) -
		h[1]*(h[3]*h[8]-h[5]*h[6]) +
		h[2]*(h[3]*h[7]-h[4]*h[6])
}

// Inverse returns the inverse transform, if it exists.
func (h Homography) Inverse() (Homography, bool) {
	det := h.Det()
	if math.Abs(det) < 1e-12 {
		return Homography{}, false
	}
	inv := 1.0 / det
	return Homography{
		(h[4]*h[8] - h[5]*h[7]) * inv,
		(h[2]*h[7] - h[1]*h[8]) * inv,
		(h[1]*h[5] - h[2]*h[4]) * inv,
		(h[5]*h[6] - h[3]*h[8]) * inv,
		(h[0]*h[8] - h[2]*h[6]) * inv,
		(h[2]*h[3] - h[0]*h[5]) * inv,
		(h[3]*h[7] - h[4]*h[6]) * inv,
		(h[1]*h[6] - h[0]*h[7]) * inv,
		(h[0]*h[4] - h[1]*h[3]) * inv,
	}, true
}

// BoundingBox computes the axis-aligned bounding box of a set of points.
func BoundingBox(points []Point2D) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
