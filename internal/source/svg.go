package source

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/cutline/pkg/domain"
	"github.com/aretw0/cutline/pkg/geometry"
)

// hidden lists containers whose children are never drawn directly.
var hidden = map[string]bool{
	"defs": true, "clipPath": true, "mask": true, "symbol": true, "marker": true, "pattern": true,
}

type svgShape struct {
	Transform string `xml:"transform,attr"`
	D         string `xml:"d,attr"`
	Points    string `xml:"points,attr"`
	X         string `xml:"x,attr"`
	Y         string `xml:"y,attr"`
	Width     string `xml:"width,attr"`
	Height    string `xml:"height,attr"`
	X1        string `xml:"x1,attr"`
	Y1        string `xml:"y1,attr"`
	X2        string `xml:"x2,attr"`
	Y2        string `xml:"y2,attr"`
}

// ParseSVG extracts path, polyline, polygon, line and rect elements.
// Group and element transforms are applied; coordinates keep the SVG
// orientation (y down). The size comes from viewBox, else width/height.
func ParseSVG(r io.Reader) (domain.Source, error) {
	dec := xml.NewDecoder(r)
	var src domain.Source
	stack := []geometry.Affine{geometry.IdentityAffine()}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Source{}, fmt.Errorf("decode token: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if hidden[name] {
				if err := dec.Skip(); err != nil {
					return domain.Source{}, fmt.Errorf("skip <%s>: %w", name, err)
				}
				continue
			}

			switch name {
			case "svg":
				if len(stack) == 1 {
					src.Size = svgSize(t.Attr)
				}
				stack = append(stack, stack[len(stack)-1])

			case "g":
				m, err := ParseTransform(attr(t.Attr, "transform"))
				if err != nil {
					return domain.Source{}, err
				}
				stack = append(stack, stack[len(stack)-1].Mul(m))

			case "path", "polyline", "polygon", "line", "rect":
				var raw svgShape
				if err := dec.DecodeElement(&raw, &t); err != nil {
					return domain.Source{}, fmt.Errorf("decode <%s>: %w", name, err)
				}
				local, err := ParseTransform(raw.Transform)
				if err != nil {
					return domain.Source{}, err
				}
				path, err := shapePath(name, raw)
				if err != nil {
					return domain.Source{}, fmt.Errorf("<%s>: %w", name, err)
				}
				if len(path) == 0 {
					continue
				}
				src.Paths = append(src.Paths, applyAffine(stack[len(stack)-1].Mul(local), path))
			}

		case xml.EndElement:
			if (t.Name.Local == "g" || t.Name.Local == "svg") && len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return src, nil
}

func shapePath(name string, raw svgShape) (domain.SourcePath, error) {
	switch name {
	case "path":
		return ParsePathData(raw.D)

	case "polyline", "polygon":
		pts, err := parsePoints(raw.Points)
		if err != nil || len(pts) == 0 {
			return nil, err
		}
		path := domain.SourcePath{domain.Move(pts[0])}
		for _, p := range pts[1:] {
			path = append(path, domain.Line(p))
		}
		if name == "polygon" && pts[len(pts)-1] != pts[0] {
			path = append(path, domain.Line(pts[0]))
		}
		return path, nil

	case "line":
		v, err := floats(raw.X1, raw.Y1, raw.X2, raw.Y2)
		if err != nil {
			return nil, err
		}
		return domain.SourcePath{domain.Move(domain.Pt(v[0], v[1])), domain.Line(domain.Pt(v[2], v[3]))}, nil

	case "rect":
		v, err := floats(raw.X, raw.Y, raw.Width, raw.Height)
		if err != nil {
			return nil, err
		}
		x, y, w, h := v[0], v[1], v[2], v[3]
		if w <= 0 || h <= 0 {
			return nil, nil
		}
		return domain.SourcePath{
			domain.Move(domain.Pt(x, y)),
			domain.Line(domain.Pt(x+w, y)),
			domain.Line(domain.Pt(x+w, y+h)),
			domain.Line(domain.Pt(x, y+h)),
			domain.Line(domain.Pt(x, y)),
		}, nil
	}
	return nil, nil
}

func applyAffine(m geometry.Affine, path domain.SourcePath) domain.SourcePath {
	if m == geometry.IdentityAffine() {
		return path
	}
	out := make(domain.SourcePath, len(path))
	for i, s := range path {
		s.To = m.Apply(s.To)
		if s.Kind == domain.CurveCubic {
			s.C1 = m.Apply(s.C1)
			s.C2 = m.Apply(s.C2)
		}
		out[i] = s
	}
	return out
}

func attr(attrs []xml.Attr, name string) string {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func svgSize(attrs []xml.Attr) domain.Size {
	if parts := strings.Fields(strings.ReplaceAll(attr(attrs, "viewBox"), ",", " ")); len(parts) == 4 {
		w, errW := strconv.ParseFloat(parts[2], 64)
		h, errH := strconv.ParseFloat(parts[3], 64)
		if errW == nil && errH == nil {
			return domain.Size{Width: w, Height: h}
		}
	}
	return domain.Size{
		Width:  parseLength(attr(attrs, "width")),
		Height: parseLength(attr(attrs, "height")),
	}
}

// parseLength reads the numeric prefix of a length such as "210mm".
// Unit conversion happens outside the core, so the unit is dropped.
func parseLength(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && strings.IndexByte("+-.0123456789eE", s[end]) >= 0 {
		end++
	}
	for end > 0 {
		if v, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return v
		}
		end--
	}
	return 0
}

// floats parses attribute values; empty means 0 as in SVG.
func floats(values ...string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, s := range values {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad coordinate %q", ErrSyntax, s)
		}
		out[i] = v
	}
	return out, nil
}

func parsePoints(s string) ([]domain.Point, error) {
	l := &lexer{s: s}
	var pts []domain.Point
	for !l.done() {
		v, err := l.numbers('P', 2)
		if err != nil {
			return nil, fmt.Errorf("%w: odd or malformed points list", ErrSyntax)
		}
		pts = append(pts, domain.Pt(v[0], v[1]))
	}
	return pts, nil
}

// ParseTransform parses an SVG transform list: matrix, translate, scale,
// rotate (with optional centre), skewX and skewY.
func ParseTransform(s string) (geometry.Affine, error) {
	m := geometry.IdentityAffine()
	rest := strings.TrimSpace(s)
	for rest != "" {
		open := strings.IndexByte(rest, '(')
		end := strings.IndexByte(rest, ')')
		if open < 0 || end < open {
			return m, fmt.Errorf("%w: bad transform %q", ErrSyntax, s)
		}
		name := strings.TrimSpace(strings.Trim(rest[:open], ", \t\n"))
		args, err := parseArgs(rest[open+1 : end])
		if err != nil {
			return m, fmt.Errorf("%w: bad transform %q", ErrSyntax, s)
		}

		op, err := transformOp(name, args)
		if err != nil {
			return m, err
		}
		m = m.Mul(op)
		rest = strings.TrimSpace(rest[end+1:])
	}
	return m, nil
}

func parseArgs(s string) ([]float64, error) {
	l := &lexer{s: s}
	var out []float64
	for !l.done() {
		v, ok, err := l.number()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrSyntax
		}
		out = append(out, v)
	}
	return out, nil
}

func transformOp(name string, a []float64) (geometry.Affine, error) {
	bad := fmt.Errorf("%w: %s takes a different number of arguments, got %d", ErrSyntax, name, len(a))
	switch name {
	case "matrix":
		if len(a) != 6 {
			return geometry.Affine{}, bad
		}
		return geometry.Affine{A: a[0], B: a[1], C: a[2], D: a[3], E: a[4], F: a[5]}, nil
	case "translate":
		switch len(a) {
		case 1:
			return geometry.Translate(a[0], 0), nil
		case 2:
			return geometry.Translate(a[0], a[1]), nil
		}
	case "scale":
		switch len(a) {
		case 1:
			return geometry.Scale(a[0], a[0]), nil
		case 2:
			return geometry.Scale(a[0], a[1]), nil
		}
	case "rotate":
		switch len(a) {
		case 1:
			return geometry.Rotate(a[0]), nil
		case 3:
			return geometry.Translate(a[1], a[2]).Mul(geometry.Rotate(a[0])).Mul(geometry.Translate(-a[1], -a[2])), nil
		}
	case "skewX":
		if len(a) == 1 {
			return geometry.Affine{A: 1, C: tanDeg(a[0]), D: 1}, nil
		}
	case "skewY":
		if len(a) == 1 {
			return geometry.Affine{A: 1, B: tanDeg(a[0]), D: 1}, nil
		}
	default:
		return geometry.Affine{}, fmt.Errorf("%w: unknown transform %q", ErrSyntax, name)
	}
	return geometry.Affine{}, bad
}

func tanDeg(deg float64) float64 {
	return math.Tan(deg * math.Pi / 180)
}
