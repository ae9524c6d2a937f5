package geometry

import (
	"math"

	"github.com/aretw0/cutline/pkg/domain"
)

// maxFlattenDepth bounds the bisection of a single cubic. Reaching it stops
// refinement of that sub-curve and is not an error.
const maxFlattenDepth = 16

// Flatten converts every SourcePath of src into polylines.
func Flatten(src domain.Source, tolerance float64) (*domain.Graphic, error) {
	if err := checkTolerance(tolerance); err != nil {
		return nil, err
	}

	var paths []domain.Path
	for _, sp := range src.Paths {
		flat, err := FlattenPath(sp, tolerance)
		if err != nil {
			return nil, err
		}
		paths = append(paths, flat...)
	}
	return domain.NewGraphic(paths), nil
}

// FlattenPath subdivides the cubic segments of src until every chord lies
// within tolerance of the curve it replaces. A MoveTo after the first segment
// starts a new Path. Subpaths with a single point are dropped.
func FlattenPath(src domain.SourcePath, tolerance float64) ([]domain.Path, error) {
	if err := checkTolerance(tolerance); err != nil {
		return nil, err
	}
	if len(src) == 0 {
		return nil, nil
	}
	if src[0].Kind != domain.CurveMove {
		return nil, domain.NewError(domain.KindGeometry, "flatten", "path must start with a move", src[0].Kind)
	}

	var (
		paths []domain.Path
		cur   []domain.Point
		pen   domain.Point
	)
	flush := func() {
		if len(cur) > 1 {
			paths = append(paths, domain.NewPath(cur...))
		}
		cur = nil
	}

	for _, seg := range src {
		if !finite(seg.To) || !finite(seg.C1) || !finite(seg.C2) {
			return nil, domain.NewError(domain.KindGeometry, "flatten", "non-finite coordinate", seg.To)
		}
		switch seg.Kind {
		case domain.CurveMove:
			flush()
			cur = []domain.Point{seg.To}
		case domain.CurveLine:
			cur = append(cur, seg.To)
		case domain.CurveCubic:
			cur = flattenCubic(cur, pen, seg.C1, seg.C2, seg.To, tolerance, 0)
		default:
			return nil, domain.NewError(domain.KindGeometry, "flatten", "unknown segment kind", seg.Kind)
		}
		pen = seg.To
	}
	flush()

	return paths, nil
}

// flattenCubic appends the flattened image of the cubic (p0..p3) to out,
// excluding p0 which is already there.
func flattenCubic(out []domain.Point, p0, p1, p2, p3 domain.Point, tol float64, depth int) []domain.Point {
	if depth >= maxFlattenDepth || (distToSegment(p1, p0, p3) <= tol && distToSegment(p2, p0, p3) <= tol) {
		return append(out, p3)
	}

	// de Casteljau split at t = 0.5
	p01 := p0.Lerp(p1, 0.5)
	p12 := p1.Lerp(p2, 0.5)
	p23 := p2.Lerp(p3, 0.5)
	p012 := p01.Lerp(p12, 0.5)
	p123 := p12.Lerp(p23, 0.5)
	mid := p012.Lerp(p123, 0.5)

	out = flattenCubic(out, p0, p01, p012, mid, tol, depth+1)
	return flattenCubic(out, mid, p123, p23, p3, tol, depth+1)
}

// distToSegment returns the distance from p to the segment a-b.
func distToSegment(p, a, b domain.Point) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Dist(a)
	}
	t := p.Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Dist(a.Add(ab.Scale(t)))
}

func checkTolerance(tol float64) error {
	if !(tol > 0) || math.IsInf(tol, 1) {
		return domain.NewError(domain.KindGeometry, "flatten", "tolerance must be a positive length", tol)
	}
	return nil
}

func finite(p domain.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
