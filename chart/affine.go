package chart

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Affine is a 2D transform: x' = a*x + b*y + tx, y' = c*x + d*y + ty
type Affine struct {
	A, B, Tx float64
	C, D, Ty float64
}

// Identity returns the identity transform
func Identity() Affine {
	return Affine{A: 1, D: 1}
}

// Translation creates a translation-only transform
func Translation(tx, ty float64) Affine {
	return Affine{A: 1, Tx: tx, D: 1, Ty: ty}
}

// Scaling creates a scaling transform around the origin
func Scaling(sx, sy float64) Affine {
	return Affine{A: sx, D: sy}
}

// RotationDeg creates a rotation around the origin. In pixel space (Y down)
// positive angles turn clockwise.
func RotationDeg(degrees float64) Affine {
	rad := degrees * math.Pi / 180.0
	cos, sin := math.Cos(rad), math.Sin(rad)
	return Affine{A: cos, B: -sin, C: sin, D: cos}
}

// Apply transforms a point
func (m Affine) Apply(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y + m.Tx,
		Y: m.C*p.X + m.D*p.Y + m.Ty,
	}
}

// Mul composes two transforms: applying the result is equivalent to
// applying n first, then m.
func (m Affine) Mul(n Affine) Affine {
	return Affine{
		A:  m.A*n.A + m.B*n.C,
		B:  m.A*n.B + m.B*n.D,
		Tx: m.A*n.Tx + m.B*n.Ty + m.Tx,
		C:  m.C*n.A + m.D*n.C,
		D:  m.C*n.B + m.D*n.D,
		Ty: m.C*n.Tx + m.D*n.Ty + m.Ty,
	}
}

// Aff3 converts to the matrix form used by golang.org/x/image/draw.
func (m Affine) Aff3() f64.Aff3 {
	return f64.Aff3{m.A, m.B, m.Tx, m.C, m.D, m.Ty}
}

// pixelTransform maps game coordinates to pixel space: scale, then shift
// the origin to the canvas centre.
func pixelTransform(scale, halfWidth, halfHeight float64) Affine {
	return Translation(halfWidth, halfHeight).Mul(Scaling(scale, scale))
}
