// Package pipeline chains the pure conversion stages:
// flatten, transform, tile, overlap, blade offset, travel order and encoding.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/cutline/internal/logging"
	"github.com/aretw0/cutline/pkg/compensation"
	"github.com/aretw0/cutline/pkg/domain"
	"github.com/aretw0/cutline/pkg/geometry"
	"github.com/aretw0/cutline/pkg/protocol"
	"github.com/aretw0/cutline/pkg/travel"
)

// Result is a compiled job.
type Result struct {
	Graphic *domain.Graphic
	Program *protocol.Program

	// Travel is the pen-up distance of the final path order.
	Travel float64
}

type options struct {
	logger *slog.Logger
}

// Option configures a pipeline run.
type Option func(*options)

// WithLogger logs stage statistics at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) *options {
	o := &options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Prepare runs every geometric stage and returns the ordered Graphic.
// Copies of zero means one.
func Prepare(src domain.Source, profile domain.DeviceProfile, params domain.JobParams, opts ...Option) (*domain.Graphic, error) {
	o := newOptions(opts)
	return prepare(src, profile, params, o)
}

func prepare(src domain.Source, profile domain.DeviceProfile, params domain.JobParams, o *options) (*domain.Graphic, error) {
	g, err := geometry.Flatten(src, params.EffectiveTolerance())
	if err != nil {
		return nil, err
	}
	o.logger.Debug("Flattened", "paths", len(g.Paths), "segments", g.SegmentCount())

	if g, err = geometry.Transform(g, geometry.OpsFromParams(params)); err != nil {
		return nil, err
	}

	copies := params.Copies
	if copies == 0 {
		copies = 1
	}
	g, err = geometry.Tile(g, geometry.TileOptions{
		Copies:     copies,
		Spacing:    params.Spacing,
		AreaWidth:  profile.Width,
		AreaHeight: profile.Height,
	})
	if err != nil {
		return nil, err
	}

	// Offset runs on the closed rings so every vertex, the seam included, gets
	// a mitered corner; the overlap is then re-traced along the offset contour.
	paths, err := compensation.ApplyBladeOffset(g.Paths, params.EffectiveBladeOffset(profile))
	if err != nil {
		return nil, err
	}
	if paths, err = compensation.ApplyCutOverlap(paths, params.Overlap); err != nil {
		return nil, err
	}

	policy := params.Order
	if policy == "" {
		policy = domain.OrderSource
	}
	if paths, err = travel.Optimize(paths, policy); err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}

	out := domain.NewGraphic(paths)
	o.logger.Debug("Prepared", "paths", len(out.Paths), "segments", out.SegmentCount(), "order", policy)
	return out, nil
}

// Compile selects the profile's encoder, prepares the graphic and encodes it.
// Encoder selection happens first, so capability errors surface before any
// geometry work.
func Compile(src domain.Source, profile domain.DeviceProfile, params domain.JobParams, opts ...Option) (*Result, error) {
	o := newOptions(opts)

	enc, err := protocol.SelectForProfile(profile, protocol.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}

	g, err := prepare(src, profile, params, o)
	if err != nil {
		return nil, err
	}

	prog, err := protocol.Encode(enc, g, protocol.SettingsFromProfile(profile))
	if err != nil {
		return nil, err
	}
	o.logger.Debug("Encoded", "dialect", prog.Dialect, "groups", len(prog.Groups), "bytes", prog.Size())

	return &Result{
		Graphic: g,
		Program: prog,
		Travel:  travel.TravelDistance(g.Paths, domain.Point{}),
	}, nil
}
