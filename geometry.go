package gfaview

import "github.com/chewxy/math32"

// Point represents a 2D point or vector in world coordinates.
// gfaview uses float32 throughout so that geometry can be uploaded to the
// GPU without conversion.
type Point struct {
	X, Y float32
}

// Pt is a convenience function to create a Point.
func Pt(x, y float32) Point {
	return Point{X: x, Y: y}
}

// Add returns the sum of two points (vector addition).
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the difference of two points (vector subtraction).
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul returns the point scaled by a scalar.
func (p Point) Mul(s float32) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Dot returns the dot product of two vectors.
func (p Point) Dot(q Point) float32 {
	return p.X*q.X + p.Y*q.Y
}

// Length returns the length of the vector.
func (p Point) Length() float32 {
	return math32.Hypot(p.X, p.Y)
}

// Distance returns the distance between two points.
func (p Point) Distance(q Point) float32 {
	return p.Sub(q).Length()
}

// Normalize returns a unit vector in the same direction.
// The zero vector normalizes to itself.
func (p Point) Normalize() Point {
	length := p.Length()
	if length == 0 {
		return Point{}
	}
	return Point{X: p.X / length, Y: p.Y / length}
}

// Perp returns the counterclockwise perpendicular of the vector.
func (p Point) Perp() Point {
	return Point{X: -p.Y, Y: p.X}
}

// Lerp performs linear interpolation between two points.
// t=0 returns p, t=1 returns q, intermediate values interpolate.
func (p Point) Lerp(q Point, t float32) Point {
	return Point{
		X: p.X + (q.X-p.X)*t,
		Y: p.Y + (q.Y-p.Y)*t,
	}
}

// Mid returns the midpoint of p and q.
func (p Point) Mid(q Point) Point {
	return Point{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}

// Rect is an axis-aligned rectangle in world coordinates.
//
// The zero value is the empty rectangle located nowhere: min is +Inf and
// max is -Inf on both axes, so that Union with any real rectangle yields
// that rectangle. Construct empty rectangles with RectEmpty, not Rect{}.
type Rect struct {
	Min, Max Point
}

// RectEmpty returns the empty rectangle. Union with any non-empty
// rectangle returns the other rectangle unchanged.
func RectEmpty() Rect {
	inf := math32.Inf(1)
	return Rect{
		Min: Point{X: inf, Y: inf},
		Max: Point{X: -inf, Y: -inf},
	}
}

// NewRect returns the smallest rectangle containing both p and q.
// The corners may be given in any order.
func NewRect(p, q Point) Rect {
	return Rect{
		Min: Point{X: math32.Min(p.X, q.X), Y: math32.Min(p.Y, q.Y)},
		Max: Point{X: math32.Max(p.X, q.X), Y: math32.Max(p.Y, q.Y)},
	}
}

// IsEmpty reports whether the rectangle contains no points.
func (r Rect) IsEmpty() bool {
	return r.Min.X > r.Max.X || r.Min.Y > r.Max.Y
}

// Width returns the horizontal extent, or 0 for empty rectangles.
func (r Rect) Width() float32 {
	if r.IsEmpty() {
		return 0
	}
	return r.Max.X - r.Min.X
}

// Height returns the vertical extent, or 0 for empty rectangles.
func (r Rect) Height() float32 {
	if r.IsEmpty() {
		return 0
	}
	return r.Max.Y - r.Min.Y
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return r.Min.Mid(r.Max)
}

// Contains reports whether p lies inside the rectangle (inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X &&
		p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Union returns the smallest rectangle containing both r and s.
func (r Rect) Union(s Rect) Rect {
	if r.IsEmpty() {
		return s
	}
	if s.IsEmpty() {
		return r
	}
	return Rect{
		Min: Point{X: math32.Min(r.Min.X, s.Min.X), Y: math32.Min(r.Min.Y, s.Min.Y)},
		Max: Point{X: math32.Max(r.Max.X, s.Max.X), Y: math32.Max(r.Max.Y, s.Max.Y)},
	}
}

// ExpandPoint returns the rectangle grown to include p.
func (r Rect) ExpandPoint(p Point) Rect {
	return r.Union(Rect{Min: p, Max: p})
}
