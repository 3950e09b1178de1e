package geometry

import "math"

// Matrix is a 2D affine transform in SVG order:
//
//	⎡ A  C  E ⎤
//	⎢ B  D  F ⎥
//	⎣ 0  0  1 ⎦
//
// The zero value is not the identity; use Identity.
type Matrix struct {
	A float64
	B float64
	C float64
	D float64
	E float64
	F float64
}

func Identity() Matrix {
	return Matrix{A: 1, D: 1}
}

func Translate(x, y float64) Matrix {
	return Matrix{
		A: 1, C: 0, E: x,
		B: 0, D: 1, F: y,
	}
}

func Scale(x, y float64) Matrix {
	return Matrix{
		A: x, C: 0, E: 0,
		B: 0, D: y, F: 0,
	}
}

// Rotate returns a rotation by deg degrees about the origin.
func Rotate(deg float64) Matrix {
	sin, cos := math.Sincos(deg * math.Pi / 180)
	return Matrix{
		A: cos, C: -sin,
		B: sin, D: cos,
	}
}

// Multiply returns m·other, i.e. other is applied first.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		A: m.A*other.A + m.C*other.B,
		B: m.B*other.A + m.D*other.B,
		C: m.A*other.C + m.C*other.D,
		D: m.B*other.C + m.D*other.D,
		E: m.A*other.E + m.C*other.F + m.E,
		F: m.B*other.E + m.D*other.F + m.F,
	}
}

func (m Matrix) TransformPoint(p Point) Point {
	return Point{
		X: m.A*p.X + m.C*p.Y + m.E,
		Y: m.B*p.X + m.D*p.Y + m.F,
	}
}

// TransformVector applies only the linear part of m.
func (m Matrix) TransformVector(v Vector2) Vector2 {
	return Vector2{
		X: m.A*v.X + m.C*v.Y,
		Y: m.B*v.X + m.D*v.Y,
	}
}

// IsZero reports whether m is the zero value, which callers treat as "unset".
func (m Matrix) IsZero() bool {
	return m == Matrix{}
}

// Mirrors reports whether m flips orientation (negative determinant).
func (m Matrix) Mirrors() bool {
	return m.A*m.D-m.B*m.C < 0
}
