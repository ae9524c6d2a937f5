package protocol

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/aretw0/cutline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialects_WireFormats(t *testing.T) {
	tests := []struct {
		enc                  Encoder
		init, up, down       string
		pen, velocity, force string
	}{
		{HPGL{}, "IN;", "PU100,200;", "PD100,200;", "SP1;", "VS30;", "FS80;"},
		{DMPL{}, "H", "M100,200;", "D100,200;", "", "!30", "*80"},
		{GPGL{}, " ;:H A L0 ", "U100,200 ", "D100,200 ", "EC1 ", "V30 ", "BP80 "},
		{CAMM{}, "IN;", "PU100,200;", "PD100,200;", "", "VS30;", "FS80;"},
	}

	for _, tt := range tests {
		t.Run(tt.enc.Name(), func(t *testing.T) {
			assert.Equal(t, tt.init, string(tt.enc.OnConnect()))
			assert.Equal(t, tt.up, string(tt.enc.Move(100, 200, false)))
			assert.Equal(t, tt.down, string(tt.enc.Move(100, 200, true)))
			assert.Equal(t, tt.pen, string(tt.enc.SetPen(1)))
			assert.Equal(t, tt.velocity, string(tt.enc.SetVelocity(30)))
			assert.Equal(t, tt.force, string(tt.enc.SetForce(80)))
		})
	}

	assert.Equal(t, "PD-5,0;", string(HPGL{}.Move(-5, 0, true)))
	assert.Equal(t, "VS12.5;", string(HPGL{}.SetVelocity(12.5)))
}

func TestDebug_LogsAndEmitsNothing(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	enc, err := Lookup("debug", WithLogger(logger))
	require.NoError(t, err)

	assert.Empty(t, enc.OnConnect())
	assert.Empty(t, enc.Move(1, 2, true))
	assert.Empty(t, enc.SetForce(3))
	assert.Contains(t, buf.String(), "call=move")
	assert.Contains(t, buf.String(), "pen_down=true")

	// No logger is fine too.
	assert.Empty(t, Debug{}.SetPen(2))
}

func TestToDevice_RoundsHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in           domain.Point
		res          float64
		wantX, wantY int
	}{
		{domain.Pt(0.5, -0.5), 1, 1, -1},
		{domain.Pt(1.49, -1.51), 1, 1, -2},
		{domain.Pt(2.5, -2.5), 1, 3, -3},
		{domain.Pt(10, 25), 0.025, 400, 1000},
		{domain.Pt(3, 3), 0, 3, 3},
	}
	for _, tt := range tests {
		x, y, err := ToDevice(tt.in, tt.res)
		require.NoError(t, err)
		assert.Equal(t, tt.wantX, x, "%v", tt.in)
		assert.Equal(t, tt.wantY, y, "%v", tt.in)
	}
}

func TestToDevice_OutOfRange(t *testing.T) {
	tests := []struct {
		name string
		in   domain.Point
		res  float64
	}{
		{"huge x", domain.Pt(1e300, 0), 1},
		{"huge negative y", domain.Pt(0, -3e9), 1},
		{"tiny resolution", domain.Pt(10, 10), 1e-12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ToDevice(tt.in, tt.res)
			assert.ErrorIs(t, err, domain.ErrEncoding)
		})
	}

	x, y, err := ToDevice(domain.Pt(math.MaxInt32, math.MinInt32), 1)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt32, x)
	assert.Equal(t, math.MinInt32, y)
}

func TestEncode_RejectsOutOfRangeCoordinate(t *testing.T) {
	g := domain.NewGraphic([]domain.Path{
		domain.NewPath(domain.Pt(0, 0), domain.Pt(1, 1)),
		domain.NewPath(domain.Pt(0, 0), domain.Pt(5e9, 0)),
	})

	prog, err := Encode(HPGL{}, g, Settings{})
	assert.Nil(t, prog)
	assert.ErrorIs(t, err, domain.ErrEncoding)
	assert.ErrorContains(t, err, "5e+09")
}

func TestSelect(t *testing.T) {
	enc, err := Select("HPGL", domain.CapForce|domain.CapPenSelect)
	require.NoError(t, err)
	assert.Equal(t, "hpgl", enc.Name())

	_, err = Select("camm", domain.CapPenSelect)
	require.ErrorIs(t, err, domain.ErrEncoding)
	assert.Contains(t, err.Error(), "pen")

	_, err = Select("zz", 0)
	assert.ErrorIs(t, err, domain.ErrEncoding)

	_, err = SelectForProfile(domain.DeviceProfile{Dialect: "dmpl", Requires: []string{"force"}})
	assert.NoError(t, err)

	_, err = SelectForProfile(domain.DeviceProfile{Requires: []string{"laser"}})
	assert.ErrorIs(t, err, domain.ErrEncoding)
}

func TestDescribe(t *testing.T) {
	infos := Describe()
	require.Len(t, infos, 5)
	assert.Equal(t, []string{"camm", "debug", "dmpl", "gpgl", "hpgl"}, Dialects())
	assert.Equal(t, "camm", infos[0].ID)
	assert.Equal(t, []string{"velocity", "force"}, infos[0].Capabilities)
}

func TestEncode_SquareWithOverlap(t *testing.T) {
	// Square with 10 units re-traced along the first edge.
	path := domain.NewPath(
		domain.Pt(0, 0), domain.Pt(100, 0), domain.Pt(100, 100), domain.Pt(0, 100), domain.Pt(0, 0), domain.Pt(10, 0),
	)
	g := domain.NewGraphic([]domain.Path{path})

	prog, err := Encode(HPGL{}, g, Settings{Pen: 1})
	require.NoError(t, err)
	out := string(prog.Bytes())

	assert.True(t, strings.HasPrefix(out, "IN;SP1;"), out)
	assert.Equal(t, 1, strings.Count(out, "PU"))
	assert.Equal(t, 5, strings.Count(out, "PD"))
	assert.True(t, strings.HasSuffix(out, "PD10,0;"), out)

	require.Len(t, prog.Groups, 1)
	assert.Equal(t, Position{X: 10, Y: 0, PenDown: true}, prog.Groups[0].End)
	assert.Equal(t, len(out), prog.Size())
}

func TestEncode_InitAndGroups(t *testing.T) {
	g := domain.NewGraphic([]domain.Path{
		domain.NewPath(domain.Pt(0, 0), domain.Pt(1, 1)),
		{},
		domain.NewPath(domain.Pt(2, 2)),
	})

	prog, err := Encode(DMPL{}, g, Settings{Pen: 3, Velocity: 20, Force: 50, Resolution: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "H!20*50", string(prog.Init))
	require.Len(t, prog.Groups, 2)
	assert.Equal(t, "M0,0;D2,2;", string(prog.Groups[0].Data))
	assert.Equal(t, "M4,4;", string(prog.Groups[1].Data))
	assert.False(t, prog.Groups[1].End.PenDown)

	empty, err := Encode(CAMM{}, nil, Settings{})
	require.NoError(t, err)
	assert.Equal(t, "IN;", string(empty.Bytes()))
}

func TestSettingsFromProfile(t *testing.T) {
	s := SettingsFromProfile(domain.DeviceProfile{Pen: 2, Velocity: 10, Force: 5})
	assert.Equal(t, Settings{Pen: 2, Velocity: 10, Force: 5, Resolution: 1}, s)
}
