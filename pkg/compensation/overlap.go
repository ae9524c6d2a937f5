package compensation

import (
	"fmt"
	"math"

	"github.com/aretw0/cutline/pkg/domain"
)

// ApplyCutOverlap extends every closed path by re-tracing overlap units of arc
// length from its start along its own segments. Open paths are copied
// unchanged and an overlap of zero returns an exact copy of paths.
func ApplyCutOverlap(paths []domain.Path, overlap float64) ([]domain.Path, error) {
	if overlap < 0 || math.IsNaN(overlap) || math.IsInf(overlap, 0) {
		return nil, domain.NewError(domain.KindCompensation, "overlap", "overlap must be a non-negative length", overlap)
	}

	out := make([]domain.Path, len(paths))
	for i, p := range paths {
		if overlap == 0 || !p.Closed() {
			out[i] = p.Clone()
			continue
		}
		if l := p.Length(); overlap > l {
			return nil, domain.NewError(domain.KindCompensation, "overlap",
				fmt.Sprintf("path %d: overlap exceeds path length %g", i, l), overlap)
		}
		out[i] = retrace(p, overlap)
	}
	return out, nil
}

// retrace appends the leading `length` units of p to its end.
func retrace(p domain.Path, length float64) domain.Path {
	out := p.Clone()
	remaining := length
	for i := 1; i < len(p.Segments) && remaining > 0; i++ {
		a, b := p.Segments[i-1].Point, p.Segments[i].Point
		d := a.Dist(b)
		if d == 0 {
			continue
		}
		next := b
		if remaining < d {
			next = a.Lerp(b, remaining/d)
		}
		out.Segments = append(out.Segments, domain.Segment{Kind: domain.LineTo, Point: next})
		remaining -= d
	}
	return out
}
