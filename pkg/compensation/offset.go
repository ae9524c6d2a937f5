package compensation

import (
	"fmt"
	"math"

	"github.com/aretw0/cutline/pkg/domain"
)

// minMiterDenominator rejects corners whose normals are (nearly) opposite.
const minMiterDenominator = 1e-9

// ApplyBladeOffset shifts every path perpendicular to its direction of travel
// by offset. Positive offsets move to the left of the travel direction.
//
// Interior vertices move along the bisector of the adjacent edge normals,
// scaled so that each offset edge stays parallel to its source edge at
// distance |offset|. Closed paths wrap around. An offset of zero returns an
// exact copy of paths.
func ApplyBladeOffset(paths []domain.Path, offset float64) ([]domain.Path, error) {
	if math.IsNaN(offset) || math.IsInf(offset, 0) {
		return nil, domain.NewError(domain.KindCompensation, "blade-offset", "offset must be finite", offset)
	}

	out := make([]domain.Path, len(paths))
	for i, p := range paths {
		if offset == 0 {
			out[i] = p.Clone()
			continue
		}
		op, err := offsetPath(p, offset)
		if err != nil {
			return nil, domain.NewError(domain.KindCompensation, "blade-offset",
				fmt.Sprintf("path %d: %v", i, err), offset)
		}
		out[i] = op
	}
	return out, nil
}

func offsetPath(p domain.Path, offset float64) (domain.Path, error) {
	pts := dedupe(p.Points())
	if len(pts) < 2 {
		return p.Clone(), nil
	}

	closed := len(pts) > 2 && pts[0].Near(pts[len(pts)-1], domain.CloseTolerance)
	ring := pts
	if closed {
		ring = pts[:len(pts)-1]
	}
	n := len(ring)

	edges := n - 1
	if closed {
		edges = n
	}
	normals := make([]domain.Point, edges)
	for i := range normals {
		normals[i] = leftNormal(ring[i], ring[(i+1)%n])
	}

	moved := make([]domain.Point, n, n+1)
	for i, v := range ring {
		var disp domain.Point
		switch {
		case closed:
			d, ok := miter(normals[(i-1+n)%n], normals[i], offset)
			if !ok {
				return domain.Path{}, fmt.Errorf("hairpin at vertex %d %v", i, v)
			}
			disp = d
		case i == 0:
			disp = normals[0].Scale(offset)
		case i == n-1:
			disp = normals[n-2].Scale(offset)
		default:
			d, ok := miter(normals[i-1], normals[i], offset)
			if !ok {
				return domain.Path{}, fmt.Errorf("hairpin at vertex %d %v", i, v)
			}
			disp = d
		}
		moved[i] = v.Add(disp)
	}
	if closed {
		moved = append(moved, moved[0])
	}

	for i := 1; i < len(moved); i++ {
		src := pts[i].Sub(pts[i-1])
		dst := moved[i].Sub(moved[i-1])
		if src.Dot(dst) <= 0 {
			return domain.Path{}, fmt.Errorf("segment %d reverses direction", i-1)
		}
	}
	return domain.NewPath(moved...), nil
}

// miter returns the displacement of a corner between two edges with unit
// normals a and b. Its projection on either normal equals offset.
func miter(a, b domain.Point, offset float64) (domain.Point, bool) {
	den := 1 + a.Dot(b)
	if den < minMiterDenominator {
		return domain.Point{}, false
	}
	return a.Add(b).Scale(offset / den), true
}

func leftNormal(a, b domain.Point) domain.Point {
	d := b.Sub(a)
	l := d.Norm()
	return domain.Pt(-d.Y/l, d.X/l)
}

// dedupe drops consecutive points closer than CloseTolerance.
func dedupe(pts []domain.Point) []domain.Point {
	out := pts[:0:0]
	for _, p := range pts {
		if len(out) > 0 && out[len(out)-1].Dist(p) <= domain.CloseTolerance {
			continue
		}
		out = append(out, p)
	}
	return out
}
