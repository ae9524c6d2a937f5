package geometry

import (
	"math"

	"github.com/aretw0/cutline/pkg/domain"
)

// Ops describes a placement. The order of application is fixed:
// scale (with mirroring), then rotation, then translation.
type Ops struct {
	// ScaleX and ScaleY are independent factors. Zero means 1 and a negative
	// factor mirrors along that axis.
	ScaleX, ScaleY float64

	// MirrorX flips horizontally (negates x), MirrorY flips vertically.
	MirrorX, MirrorY bool

	// Rotation in degrees, counter-clockwise.
	Rotation float64

	TranslateX, TranslateY float64
}

// Identity returns the Ops that leave a graphic unchanged.
func Identity() Ops {
	return Ops{ScaleX: 1, ScaleY: 1}
}

// OpsFromParams extracts the placement part of job parameters.
func OpsFromParams(p domain.JobParams) Ops {
	return Ops{
		ScaleX:     p.ScaleX,
		ScaleY:     p.ScaleY,
		MirrorX:    p.MirrorX,
		MirrorY:    p.MirrorY,
		Rotation:   p.Rotation,
		TranslateX: p.TranslateX,
		TranslateY: p.TranslateY,
	}
}

func (o Ops) factors() (sx, sy float64) {
	sx, sy = o.ScaleX, o.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	if o.MirrorX {
		sx = -sx
	}
	if o.MirrorY {
		sy = -sy
	}
	return sx, sy
}

// IsIdentity reports whether o leaves every point where it is.
func (o Ops) IsIdentity() bool {
	sx, sy := o.factors()
	return sx == 1 && sy == 1 && math.Mod(o.Rotation, 360) == 0 && o.TranslateX == 0 && o.TranslateY == 0
}

func (o Ops) validate() error {
	for _, v := range []float64{o.ScaleX, o.ScaleY, o.Rotation, o.TranslateX, o.TranslateY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.NewError(domain.KindGeometry, "transform", "non-finite parameter", v)
		}
	}
	return nil
}

// Transform applies ops to g and returns a new Graphic.
//
// Scale and rotation pivot on the minimum corner of g's bounding box, and the
// result is shifted back so that its bounding box starts at the same corner.
// The translation is applied last.
func Transform(g *domain.Graphic, ops Ops) (*domain.Graphic, error) {
	if err := ops.validate(); err != nil {
		return nil, err
	}
	out := g.Clone()
	if out == nil {
		return domain.NewGraphic(nil), nil
	}

	bounds := g.Bounds()
	if !bounds.Valid || ops.IsIdentity() {
		return out, nil
	}

	sx, sy := ops.factors()
	pivot := bounds.Min
	linear := Rotate(ops.Rotation).Mul(Scale(sx, sy)).Mul(Translate(-pivot.X, -pivot.Y))

	var moved domain.Rect
	for _, p := range g.Paths {
		for _, s := range p.Segments {
			moved = moved.Extend(linear.Apply(s.Point))
		}
	}

	shift := pivot.Sub(moved.Min).Add(domain.Pt(ops.TranslateX, ops.TranslateY))
	m := Translate(shift.X, shift.Y).Mul(linear)

	for i, p := range out.Paths {
		out.Paths[i] = p.Map(m.Apply)
	}
	out.Size = out.Bounds().Size()
	return out, nil
}
