package domain

// CurveKind tags a CurveSegment.
type CurveKind int

const (
	CurveMove CurveKind = iota
	CurveLine
	CurveCubic
)

// CurveSegment is one parsed vector segment in absolute coordinates.
// C1 and C2 are only meaningful for CurveCubic.
type CurveSegment struct {
	Kind CurveKind `json:"kind"`
	C1   Point     `json:"c1,omitempty"`
	C2   Point     `json:"c2,omitempty"`
	To   Point     `json:"to"`
}

// SourcePath is an ordered sequence of curve segments as produced by a vector
// parser. A MoveTo in the middle of a SourcePath starts a new subpath.
type SourcePath []CurveSegment

// Source is the parsed vector input handed to the pipeline.
type Source struct {
	Paths []SourcePath `json:"paths"`
	Size  Size         `json:"size"`
}

// Move, Line and Cubic are constructors for CurveSegment values.
func Move(p Point) CurveSegment {
	return CurveSegment{Kind: CurveMove, To: p}
}

func Line(p Point) CurveSegment {
	return CurveSegment{Kind: CurveLine, To: p}
}

func Cubic(c1, c2, to Point) CurveSegment {
	return CurveSegment{Kind: CurveCubic, C1: c1, C2: c2, To: to}
}
