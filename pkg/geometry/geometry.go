package geometry

import (
	"math"
)

type Point struct {
	X float64
	Y float64
}

type Vector2 = Point

type LineSegment struct {
	A Point
	B Point
}

type Rectangle struct {
	Min Point
	Max Point
}

type Circle struct {
	Center Point
	Radius float64
}

func (a Vector2) Minus(b Vector2) Vector2 {
	return Vector2{
		X: a.X - b.X,
		Y: a.Y - b.Y,
	}
}

func (a Vector2) Add(b Vector2) Vector2 {
	return Vector2{
		X: a.X + b.X,
		Y: a.Y + b.Y,
	}
}

func (v Vector2) Magnitude() float64 {
	return math.Hypot(v.X, v.Y)
}

func (a Vector2) CrossProductZ(b Vector2) float64 {
	return a.X*b.Y - a.Y*b.X
}

// Distance returns the distance between two points.
func (p Point) Distance(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Scale returns the point scaled by the given factor f.
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// Rotate rotates the vector counter-clockwise (for a Y-up frame) by deg degrees.
func (v Vector2) Rotate(deg float64) Vector2 {
	sin, cos := math.Sincos(deg * math.Pi / 180)
	return Vector2{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

// Angle returns the direction of the vector in degrees, in [0, 360).
func (v Vector2) Angle() float64 {
	return NormalizeDegrees(math.Atan2(v.Y, v.X) * 180 / math.Pi)
}

// Near reports whether two points are within eps of each other on both axes.
func (p Point) Near(other Point, eps float64) bool {
	return math.Abs(p.X-other.X) <= eps && math.Abs(p.Y-other.Y) <= eps
}

func (s LineSegment) Length() float64 {
	return s.A.Distance(s.B)
}

// NormalizeDegrees maps an angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// Avoid returning 360 for tiny negative inputs.
	if deg >= 360 {
		deg -= 360
	}
	return deg
}

// Bounds returns the smallest rectangle containing all points. The second
// return value is false when no points were given.
func Bounds(points ...Point) (Rectangle, bool) {
	if len(points) == 0 {
		return Rectangle{}, false
	}
	r := Rectangle{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		r = r.Extend(p)
	}
	return r, true
}

// Extend grows the rectangle to include p.
func (r Rectangle) Extend(p Point) Rectangle {
	r.Min.X = math.Min(r.Min.X, p.X)
	r.Min.Y = math.Min(r.Min.Y, p.Y)
	r.Max.X = math.Max(r.Max.X, p.X)
	r.Max.Y = math.Max(r.Max.Y, p.Y)
	return r
}

func (r Rectangle) Width() float64 {
	return r.Max.X - r.Min.X
}

func (r Rectangle) Height() float64 {
	return r.Max.Y - r.Min.Y
}

func (r Rectangle) Center() Point {
	return Point{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}
