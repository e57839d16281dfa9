package valueobjects

import (
	"math"

	pkgerrors "mindboard/pkg/errors"
)

// Point is a 2D coordinate. Whether it is in screen or document space is
// decided by the caller; the type carries no unit.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint creates a point with validation
func NewPoint(x, y float64) (Point, error) {
	if !isValidCoordinate(x) || !isValidCoordinate(y) {
		return Point{}, pkgerrors.NewValidation("invalid coordinates: must be finite numbers")
	}
	return Point{X: x, Y: y}, nil
}

// Add returns p translated by (dx, dy)
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Sub returns the vector from other to p
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale multiplies both components by f
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// DistanceTo calculates the Euclidean distance to another point
func (p Point) DistanceTo(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Equals checks if two points are equal within a small epsilon
func (p Point) Equals(other Point) bool {
	const epsilon = 1e-9
	return math.Abs(p.X-other.X) < epsilon && math.Abs(p.Y-other.Y) < epsilon
}

// IsFinite reports whether both coordinates are finite
func (p Point) IsFinite() bool {
	return isValidCoordinate(p.X) && isValidCoordinate(p.Y)
}

// Size is a width/height pair
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewSize creates a size with validation; both extents must be positive and finite
func NewSize(width, height float64) (Size, error) {
	if !isValidCoordinate(width) || !isValidCoordinate(height) {
		return Size{}, pkgerrors.NewValidation("invalid size: must be finite numbers")
	}
	if width <= 0 || height <= 0 {
		return Size{}, pkgerrors.NewValidation("invalid size: width and height must be positive")
	}
	return Size{Width: width, Height: height}, nil
}

// Half returns the half-extent vector, used to center boxes on a point
func (s Size) Half() Point {
	return Point{X: s.Width / 2, Y: s.Height / 2}
}

// Rect is an axis-aligned rectangle given by its top-left corner and size
type Rect struct {
	Min  Point `json:"min"`
	Size Size  `json:"size"`
}

// RectAt builds a rect from a top-left point and a size
func RectAt(topLeft Point, size Size) Rect {
	return Rect{Min: topLeft, Size: size}
}

// Max returns the bottom-right corner
func (r Rect) Max() Point {
	return Point{X: r.Min.X + r.Size.Width, Y: r.Min.Y + r.Size.Height}
}

// Center returns the rectangle's center point
func (r Rect) Center() Point {
	return r.Min.Add(r.Size.Width/2, r.Size.Height/2)
}

// Contains reports whether p lies inside r, edges included
func (r Rect) Contains(p Point) bool {
	br := r.Max()
	return p.X >= r.Min.X && p.X <= br.X && p.Y >= r.Min.Y && p.Y <= br.Y
}

// Intersects reports whether r and other overlap, touching edges included
func (r Rect) Intersects(other Rect) bool {
	a, b := r.Max(), other.Max()
	return r.Min.X <= b.X && other.Min.X <= a.X && r.Min.Y <= b.Y && other.Min.Y <= a.Y
}

// isValidCoordinate checks if a coordinate is a valid finite number
func isValidCoordinate(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
