// Package source loads vector input for the conversion pipeline.
//
// Three formats are understood: SVG files, and YAML or JSON documents that
// list paths either as SVG path data or as explicit segments:
//
//	width: 100
//	height: 100
//	paths:
//	  - d: "M0 0 H100 V100 H0 Z"
//	  - segments:
//	      - {op: move, to: [10, 10]}
//	      - {op: cubic, c1: [20, 0], c2: [30, 0], to: [40, 10]}
package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/cutline/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format names an input encoding.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf guesses the format from a file name. Unknown extensions are YAML.
func FormatOf(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".svg":
		return FormatSVG
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// Document is the YAML/JSON form of a Source.
type Document struct {
	Width  float64    `yaml:"width" json:"width"`
	Height float64    `yaml:"height" json:"height"`
	Paths  []PathSpec `yaml:"paths" json:"paths"`
}

// PathSpec holds either SVG path data or explicit segments.
type PathSpec struct {
	D        string        `yaml:"d,omitempty" json:"d,omitempty"`
	Segments []SegmentSpec `yaml:"segments,omitempty" json:"segments,omitempty"`
}

// SegmentSpec is one explicit segment. Op is move, line or cubic.
type SegmentSpec struct {
	Op string    `yaml:"op" json:"op"`
	To []float64 `yaml:"to" json:"to"`
	C1 []float64 `yaml:"c1,omitempty" json:"c1,omitempty"`
	C2 []float64 `yaml:"c2,omitempty" json:"c2,omitempty"`
}

// Load reads a file, choosing the format by extension.
func Load(path string) (domain.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Source{}, fmt.Errorf("failed to open source: %w", err)
	}
	defer f.Close()

	src, err := Read(f, FormatOf(path))
	if err != nil {
		return domain.Source{}, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

// Read parses r in the given format.
func Read(r io.Reader, format Format) (domain.Source, error) {
	if format == FormatSVG {
		return ParseSVG(r)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Source{}, fmt.Errorf("failed to read source: %w", err)
	}

	var doc Document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return domain.Source{}, fmt.Errorf("failed to parse source json: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && err != io.EOF {
			return domain.Source{}, fmt.Errorf("failed to parse source yaml: %w", err)
		}
	default:
		return domain.Source{}, fmt.Errorf("unknown source format %q", format)
	}
	return doc.Source()
}

// Source converts the document into pipeline input.
func (d Document) Source() (domain.Source, error) {
	src := domain.Source{Size: domain.Size{Width: d.Width, Height: d.Height}}
	for i, p := range d.Paths {
		path, err := p.path()
		if err != nil {
			return domain.Source{}, fmt.Errorf("paths[%d]: %w", i, err)
		}
		if len(path) > 0 {
			src.Paths = append(src.Paths, path)
		}
	}
	return src, nil
}

func (p PathSpec) path() (domain.SourcePath, error) {
	switch {
	case p.D != "" && len(p.Segments) > 0:
		return nil, fmt.Errorf("%w: d and segments are exclusive", ErrSyntax)
	case p.D != "":
		return ParsePathData(p.D)
	}

	out := make(domain.SourcePath, 0, len(p.Segments))
	for i, s := range p.Segments {
		seg, err := s.segment()
		if err != nil {
			return nil, fmt.Errorf("segments[%d]: %w", i, err)
		}
		out = append(out, seg)
	}
	return out, nil
}

func (s SegmentSpec) segment() (domain.CurveSegment, error) {
	to, err := point("to", s.To)
	if err != nil {
		return domain.CurveSegment{}, err
	}
	switch strings.ToLower(s.Op) {
	case "move", "m":
		return domain.Move(to), nil
	case "line", "l":
		return domain.Line(to), nil
	case "cubic", "c":
		c1, err := point("c1", s.C1)
		if err != nil {
			return domain.CurveSegment{}, err
		}
		c2, err := point("c2", s.C2)
		if err != nil {
			return domain.CurveSegment{}, err
		}
		return domain.Cubic(c1, c2, to), nil
	}
	return domain.CurveSegment{}, fmt.Errorf("%w: unknown op %q", ErrSyntax, s.Op)
}

func point(field string, v []float64) (domain.Point, error) {
	if len(v) != 2 {
		return domain.Point{}, fmt.Errorf("%w: %s needs [x, y], got %d values", ErrSyntax, field, len(v))
	}
	return domain.Pt(v[0], v[1]), nil
}
