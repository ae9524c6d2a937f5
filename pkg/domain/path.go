package domain

// SegmentKind tags a Segment as a pen-up move or a pen-down line.
type SegmentKind int

const (
	MoveTo SegmentKind = iota
	LineTo
)

func (k SegmentKind) String() string {
	if k == MoveTo {
		return "move"
	}
	return "line"
}

// Segment is one step of a polyline.
type Segment struct {
	Kind  SegmentKind `json:"kind"`
	Point Point       `json:"point"`
}

// Path is an ordered sequence of Segments. The first Segment is a MoveTo that
// establishes the pen position, the rest are LineTo.
type Path struct {
	Segments []Segment `json:"segments"`
}

// NewPath builds a Path that moves to pts[0] and draws through the rest.
func NewPath(pts ...Point) Path {
	segs := make([]Segment, len(pts))
	for i, p := range pts {
		kind := LineTo
		if i == 0 {
			kind = MoveTo
		}
		segs[i] = Segment{Kind: kind, Point: p}
	}
	return Path{Segments: segs}
}

// Points returns the vertices of the path in order.
func (p Path) Points() []Point {
	pts := make([]Point, len(p.Segments))
	for i, s := range p.Segments {
		pts[i] = s.Point
	}
	return pts
}

func (p Path) Len() int {
	return len(p.Segments)
}

func (p Path) Empty() bool {
	return len(p.Segments) == 0
}

func (p Path) Start() Point {
	if p.Empty() {
		return Point{}
	}
	return p.Segments[0].Point
}

func (p Path) End() Point {
	if p.Empty() {
		return Point{}
	}
	return p.Segments[len(p.Segments)-1].Point
}

// Closed reports whether the first and last points coincide within CloseTolerance.
func (p Path) Closed() bool {
	return len(p.Segments) > 2 && p.Start().Near(p.End(), CloseTolerance)
}

// Length is the arc length by straight-line summation.
func (p Path) Length() float64 {
	var l float64
	for i := 1; i < len(p.Segments); i++ {
		l += p.Segments[i-1].Point.Dist(p.Segments[i].Point)
	}
	return l
}

// Clone returns a deep copy of p.
func (p Path) Clone() Path {
	segs := make([]Segment, len(p.Segments))
	copy(segs, p.Segments)
	return Path{Segments: segs}
}

// Reverse returns a copy of p traversed end to start.
func (p Path) Reverse() Path {
	pts := p.Points()
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
	return NewPath(pts...)
}

// Bounds returns the bounding box of the path vertices.
func (p Path) Bounds() Rect {
	var r Rect
	for _, s := range p.Segments {
		r = r.Extend(s.Point)
	}
	return r
}

// Map returns a copy of p with fn applied to every vertex.
func (p Path) Map(fn func(Point) Point) Path {
	out := p.Clone()
	for i := range out.Segments {
		out.Segments[i].Point = fn(out.Segments[i].Point)
	}
	return out
}

// Graphic is the ordered set of Paths passed between pipeline stages.
// Every stage returns a new Graphic; Paths are never shared between them.
type Graphic struct {
	Paths []Path `json:"paths"`
	Size  Size   `json:"size"`
}

// NewGraphic creates a Graphic owning paths, sized to their bounds.
func NewGraphic(paths []Path) *Graphic {
	g := &Graphic{Paths: paths}
	g.Size = g.Bounds().Size()
	return g
}

// Clone returns a deep copy of g.
func (g *Graphic) Clone() *Graphic {
	if g == nil {
		return nil
	}
	paths := make([]Path, len(g.Paths))
	for i, p := range g.Paths {
		paths[i] = p.Clone()
	}
	return &Graphic{Paths: paths, Size: g.Size}
}

// Bounds returns the union of all path bounds.
func (g *Graphic) Bounds() Rect {
	var r Rect
	for _, p := range g.Paths {
		r = r.Union(p.Bounds())
	}
	return r
}

// SegmentCount counts the segments of all paths.
func (g *Graphic) SegmentCount() int {
	n := 0
	for _, p := range g.Paths {
		n += len(p.Segments)
	}
	return n
}
