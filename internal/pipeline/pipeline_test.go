package pipeline

import (
	"strings"
	"testing"

	"github.com/aretw0/cutline/pkg/domain"
	"github.com/aretw0/cutline/pkg/travel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareSource() domain.Source {
	return domain.Source{Paths: []domain.SourcePath{{
		domain.Move(domain.Pt(0, 0)),
		domain.Line(domain.Pt(100, 0)),
		domain.Line(domain.Pt(100, 100)),
		domain.Line(domain.Pt(0, 100)),
		domain.Line(domain.Pt(0, 0)),
	}}}
}

func TestCompile_SquareWithOverlap(t *testing.T) {
	profile := domain.DeviceProfile{Name: "plotter", Dialect: "hpgl", Pen: 1}
	params := domain.DefaultParams()
	params.Overlap = 10

	res, err := Compile(squareSource(), profile, params)
	require.NoError(t, err)

	out := string(res.Program.Bytes())
	assert.True(t, strings.HasPrefix(out, "IN;SP1;"), out)
	assert.Equal(t, 1, strings.Count(out, "PU"))
	assert.Equal(t, 5, strings.Count(out, "PD"))
	assert.True(t, strings.HasSuffix(out, "PD10,0;"), out)
	assert.InDelta(t, 0, res.Travel, 1e-12)
}

func TestPrepare_OverlapFollowsOffsetContour(t *testing.T) {
	offset := 5.0
	params := domain.DefaultParams()
	params.BladeOffset = &offset
	params.Overlap = 10

	g, err := Prepare(squareSource(), domain.DeviceProfile{Dialect: "hpgl"}, params)
	require.NoError(t, err)
	require.Len(t, g.Paths, 1)

	want := []domain.Point{
		domain.Pt(5, 5), domain.Pt(95, 5), domain.Pt(95, 95),
		domain.Pt(5, 95), domain.Pt(5, 5), domain.Pt(15, 5),
	}
	got := g.Paths[0].Points()
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i].X, got[i].X, 1e-9, "point %d", i)
		assert.InDelta(t, want[i].Y, got[i].Y, 1e-9, "point %d", i)
	}
	assert.InDelta(t, 4*90+10, g.Paths[0].Length(), 1e-9)
}

func TestCompile_EncoderCheckedFirst(t *testing.T) {
	profile := domain.DeviceProfile{Dialect: "camm", Requires: []string{"pen"}}
	params := domain.DefaultParams()
	params.Copies = -1 // would be a geometry error

	_, err := Compile(squareSource(), profile, params)
	assert.ErrorIs(t, err, domain.ErrEncoding)
}

func TestPrepare_StageErrors(t *testing.T) {
	profile := domain.DeviceProfile{Dialect: "hpgl"}

	params := domain.DefaultParams()
	params.Overlap = 1000
	_, err := Prepare(squareSource(), profile, params)
	assert.ErrorIs(t, err, domain.ErrCompensation)

	params = domain.DefaultParams()
	profile.Width = 150
	profile.Height = 150
	params.Spacing = 10
	params.Copies = 3
	_, err = Prepare(squareSource(), profile, params)
	assert.ErrorIs(t, err, domain.ErrGeometry)

	params = domain.DefaultParams()
	params.Order = "random"
	_, err = Prepare(squareSource(), domain.DeviceProfile{}, params)
	assert.ErrorIs(t, err, travel.ErrUnknownPolicy)
}

func TestPrepare_CopiesAndOrder(t *testing.T) {
	params := domain.DefaultParams()
	params.Copies = 4
	params.Spacing = 5
	params.Order = domain.OrderBestTracking
	profile := domain.DeviceProfile{Width: 300}

	g, err := Prepare(squareSource(), profile, params)
	require.NoError(t, err)
	require.Len(t, g.Paths, 4)

	// Two columns of 105 fit in 300, so four copies make a 2x2 grid.
	assert.Equal(t, domain.Size{Width: 205, Height: 205}, g.Size)
	assert.Equal(t, domain.Pt(0, 0), g.Paths[0].Start())
}
