package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath_Basics(t *testing.T) {
	square := NewPath(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10), Pt(0, 0))

	assert.Equal(t, MoveTo, square.Segments[0].Kind)
	for _, s := range square.Segments[1:] {
		assert.Equal(t, LineTo, s.Kind)
	}
	assert.True(t, square.Closed())
	assert.InDelta(t, 40.0, square.Length(), 1e-12)
	assert.Equal(t, Rect{Min: Pt(0, 0), Max: Pt(10, 10), Valid: true}, square.Bounds())

	open := NewPath(Pt(0, 0), Pt(5, 5))
	assert.False(t, open.Closed())

	rev := NewPath(Pt(1, 2), Pt(3, 4), Pt(5, 6)).Reverse()
	assert.Equal(t, []Point{Pt(5, 6), Pt(3, 4), Pt(1, 2)}, rev.Points())
	assert.Equal(t, MoveTo, rev.Segments[0].Kind)
}

func TestGraphic_CloneDoesNotAlias(t *testing.T) {
	g := NewGraphic([]Path{NewPath(Pt(0, 0), Pt(1, 1))})
	cp := g.Clone()
	cp.Paths[0].Segments[1].Point = Pt(9, 9)

	assert.Equal(t, Pt(1, 1), g.Paths[0].Segments[1].Point)
	assert.Equal(t, Size{Width: 1, Height: 1}, g.Size)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusIdle, StatusConnecting, true},
		{StatusConnecting, StatusInitializing, true},
		{StatusInitializing, StatusPlotting, true},
		{StatusPlotting, StatusPaused, true},
		{StatusPaused, StatusPlotting, true},
		{StatusPlotting, StatusCompleted, true},
		{StatusPaused, StatusCancelled, true},
		{StatusConnecting, StatusFailed, true},
		{StatusConnecting, StatusPlotting, false},
		{StatusCompleted, StatusPlotting, false},
		{StatusCancelled, StatusConnecting, false},
		{StatusIdle, StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s->%s", tt.from, tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusPaused.Terminal())
	assert.False(t, StatusIdle.Active())
	assert.True(t, StatusPlotting.Active())
}

func TestError_IsKind(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("pipeline: %w", WrapError(KindTransport, "write", cause))

	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrGeometry)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindTransport, kind)

	geo := NewError(KindGeometry, "tile", "copies must be at least 1", 0)
	assert.Equal(t, "tile: copies must be at least 1 (got 0)", geo.Error())
}

func TestParseCapabilities(t *testing.T) {
	c, err := ParseCapabilities([]string{"force", " Velocity "})
	require.NoError(t, err)
	assert.True(t, c.Has(CapForce|CapVelocity))
	assert.False(t, c.Has(CapPenSelect))
	assert.Equal(t, "velocity,force", c.String())

	_, err = ParseCapabilities([]string{"laser"})
	assert.Error(t, err)
}

func TestJobParams_Effective(t *testing.T) {
	p := DefaultParams()
	profile := DeviceProfile{BladeOffset: 0.25}

	assert.Equal(t, 0.25, p.EffectiveBladeOffset(profile))
	zero := 0.0
	p.BladeOffset = &zero
	assert.Equal(t, 0.0, p.EffectiveBladeOffset(profile))

	p.Tolerance = 0
	assert.Equal(t, DefaultTolerance, p.EffectiveTolerance())
}
