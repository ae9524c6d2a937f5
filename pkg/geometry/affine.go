package geometry

import (
	"math"

	"github.com/aretw0/cutline/pkg/domain"
)

// Affine is a 2x3 matrix: [ A C E ; B D F ].
type Affine struct {
	A, B, C, D, E, F float64
}

// IdentityAffine returns the identity matrix.
func IdentityAffine() Affine {
	return Affine{A: 1, D: 1}
}

// Translate returns a translation by (tx, ty).
func Translate(tx, ty float64) Affine {
	return Affine{A: 1, D: 1, E: tx, F: ty}
}

// Scale returns an axis aligned scale.
func Scale(sx, sy float64) Affine {
	return Affine{A: sx, D: sy}
}

// Rotate returns a counter-clockwise rotation by deg degrees. Multiples of 90
// degrees produce an exact matrix with no floating point residue.
func Rotate(deg float64) Affine {
	q := deg / 90
	if r := math.Round(q); math.Abs(q-r) < 1e-9 {
		switch ((int64(r) % 4) + 4) % 4 {
		case 0:
			return IdentityAffine()
		case 1:
			return Affine{A: 0, B: 1, C: -1, D: 0}
		case 2:
			return Affine{A: -1, D: -1}
		case 3:
			return Affine{A: 0, B: -1, C: 1, D: 0}
		}
	}
	sin, cos := math.Sincos(deg * math.Pi / 180)
	return Affine{A: cos, B: sin, C: -sin, D: cos}
}

// Mul returns t ∘ u (apply u, then t).
func (t Affine) Mul(u Affine) Affine {
	return Affine{
		A: t.A*u.A + t.C*u.B,
		B: t.B*u.A + t.D*u.B,
		C: t.A*u.C + t.C*u.D,
		D: t.B*u.C + t.D*u.D,
		E: t.A*u.E + t.C*u.F + t.E,
		F: t.B*u.E + t.D*u.F + t.F,
	}
}

// Apply transforms p.
func (t Affine) Apply(p domain.Point) domain.Point {
	return domain.Point{
		X: t.A*p.X + t.C*p.Y + t.E,
		Y: t.B*p.X + t.D*p.Y + t.F,
	}
}

// Determinant of the linear part.
func (t Affine) Determinant() float64 {
	return t.A*t.D - t.B*t.C
}
