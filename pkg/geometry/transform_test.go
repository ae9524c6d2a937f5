package geometry

import (
	"math"
	"testing"

	"github.com/aretw0/cutline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rectGraphic(x, y, w, h float64) *domain.Graphic {
	return domain.NewGraphic([]domain.Path{domain.NewPath(
		domain.Pt(x, y), domain.Pt(x+w, y), domain.Pt(x+w, y+h), domain.Pt(x, y+h), domain.Pt(x, y),
	)})
}

func TestTransform_Order(t *testing.T) {
	g := rectGraphic(10, 10, 20, 10)

	out, err := Transform(g, Ops{ScaleX: 2, Rotation: 90, TranslateX: 5, TranslateY: -5})
	require.NoError(t, err)

	// scaled to 40x10, rotated to 10x40, re-anchored at (10,10), then translated.
	b := out.Bounds()
	assert.Equal(t, domain.Pt(15, 5), b.Min)
	assert.Equal(t, domain.Pt(25, 45), b.Max)
	assert.Equal(t, domain.Size{Width: 10, Height: 40}, out.Size)

	// The input is untouched.
	assert.Equal(t, domain.Pt(10, 10), g.Paths[0].Start())
}

func TestTransform_RightAnglesAreExact(t *testing.T) {
	g := domain.NewGraphic([]domain.Path{domain.NewPath(domain.Pt(0, 0), domain.Pt(3, 0), domain.Pt(3, 1))})

	for _, deg := range []float64{90, 180, 270, -90, 450} {
		out, err := Transform(g, Ops{Rotation: deg})
		require.NoError(t, err)
		for _, p := range out.Paths[0].Points() {
			assert.Equal(t, p.X, float64(int(p.X)), "deg %v", deg)
			assert.Equal(t, p.Y, float64(int(p.Y)), "deg %v", deg)
		}
	}

	out, err := Transform(g, Ops{Rotation: 180})
	require.NoError(t, err)
	assert.Equal(t, []domain.Point{domain.Pt(3, 1), domain.Pt(0, 1), domain.Pt(0, 0)}, out.Paths[0].Points())
}

func TestTransform_Mirror(t *testing.T) {
	g := domain.NewGraphic([]domain.Path{domain.NewPath(domain.Pt(0, 0), domain.Pt(4, 2))})

	out, err := Transform(g, Ops{MirrorX: true})
	require.NoError(t, err)
	assert.Equal(t, []domain.Point{domain.Pt(4, 0), domain.Pt(0, 2)}, out.Paths[0].Points())

	neg, err := Transform(g, Ops{ScaleX: -1})
	require.NoError(t, err)
	assert.Equal(t, out.Paths, neg.Paths)
}

func TestTransform_IdentityIsIdempotent(t *testing.T) {
	g := rectGraphic(0.1, 0.3, 7.7, 3.3)
	ops := Ops{ScaleX: 1.5, ScaleY: 0.7, Rotation: 33, TranslateX: 0.2, MirrorY: true}

	once, err := Transform(g, ops)
	require.NoError(t, err)
	twice, err := Transform(once, Identity())
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.NotSame(t, &once.Paths[0].Segments[0], &twice.Paths[0].Segments[0])
}

func TestTransform_Errors(t *testing.T) {
	_, err := Transform(rectGraphic(0, 0, 1, 1), Ops{Rotation: math.NaN()})
	assert.ErrorIs(t, err, domain.ErrGeometry)
}

func TestAffine_Mul(t *testing.T) {
	m := Translate(1, 2).Mul(Scale(2, 3))
	assert.Equal(t, domain.Pt(3, 5), m.Apply(domain.Pt(1, 1)))
	assert.Equal(t, 6.0, m.Determinant())
	assert.Equal(t, IdentityAffine(), Rotate(360))
}
