package geometry

import (
	"math"

	"github.com/aretw0/cutline/pkg/domain"
)

const fitEpsilon = 1e-9

// TileOptions controls Tile.
type TileOptions struct {
	Copies  int
	Spacing float64 // gap between neighbouring bounding boxes

	// AreaWidth and AreaHeight describe the working area. Zero means unbounded.
	AreaWidth, AreaHeight float64
}

// Tile lays out opts.Copies duplicates of g in a row-major grid. The first
// copy keeps g's position; the others are offset by whole pitches of
// bounding-box size plus spacing. Columns are limited by AreaWidth; an
// unbounded width puts every copy on one row.
func Tile(g *domain.Graphic, opts TileOptions) (*domain.Graphic, error) {
	if opts.Copies < 1 {
		return nil, domain.NewError(domain.KindGeometry, "tile", "copies must be at least 1", opts.Copies)
	}
	if opts.Spacing < 0 || math.IsNaN(opts.Spacing) || math.IsInf(opts.Spacing, 0) {
		return nil, domain.NewError(domain.KindGeometry, "tile", "spacing must be a non-negative length", opts.Spacing)
	}
	if opts.AreaWidth < 0 || opts.AreaHeight < 0 {
		return nil, domain.NewError(domain.KindGeometry, "tile", "working area must not be negative",
			domain.Size{Width: opts.AreaWidth, Height: opts.AreaHeight})
	}
	if opts.Copies == 1 {
		return g.Clone(), nil
	}

	bounds := domain.Rect{}
	if g != nil {
		bounds = g.Bounds()
	}
	if !bounds.Valid || (bounds.Width() == 0 && bounds.Height() == 0) {
		return nil, domain.NewError(domain.KindGeometry, "tile", "graphic has zero extent", bounds.Size())
	}

	pitchX := bounds.Width() + opts.Spacing
	pitchY := bounds.Height() + opts.Spacing
	if pitchX <= 0 {
		return nil, domain.NewError(domain.KindGeometry, "tile", "zero horizontal pitch", pitchX)
	}

	cols := opts.Copies
	if opts.AreaWidth > 0 {
		if bounds.Width() > opts.AreaWidth+fitEpsilon {
			return nil, domain.NewError(domain.KindGeometry, "tile", "copy is wider than the working area", bounds.Width())
		}
		fit := int(math.Floor((opts.AreaWidth + opts.Spacing + fitEpsilon) / pitchX))
		cols = max(1, min(cols, fit))
	}
	rows := (opts.Copies + cols - 1) / cols
	if rows > 1 && pitchY <= 0 {
		return nil, domain.NewError(domain.KindGeometry, "tile", "zero vertical pitch", pitchY)
	}
	if opts.AreaHeight > 0 {
		need := float64(rows)*pitchY - opts.Spacing
		if need > opts.AreaHeight+fitEpsilon {
			return nil, domain.NewError(domain.KindGeometry, "tile", "copies exceed the working area height", need)
		}
	}

	paths := make([]domain.Path, 0, len(g.Paths)*opts.Copies)
	for i := 0; i < opts.Copies; i++ {
		offset := domain.Pt(float64(i%cols)*pitchX, float64(i/cols)*pitchY)
		for _, p := range g.Paths {
			paths = append(paths, p.Map(func(pt domain.Point) domain.Point {
				return pt.Add(offset)
			}))
		}
	}
	return domain.NewGraphic(paths), nil
}
