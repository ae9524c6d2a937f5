package protocol

import (
	"bytes"

	"github.com/aretw0/cutline/pkg/domain"
)

// Position is a location in device steps together with the pen state.
type Position struct {
	X       int  `json:"x"`
	Y       int  `json:"y"`
	PenDown bool `json:"pen_down"`
}

// Group is the encoding of one path: a pen-up move to its start followed by
// pen-down moves. End is the device position after the last command.
type Group struct {
	Data []byte
	End  Position
}

// Program is an encoded job.
type Program struct {
	Dialect string
	Init    []byte
	Groups  []Group
}

// Bytes returns the complete stream: Init followed by every group.
func (p *Program) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(p.Size())
	buf.Write(p.Init)
	for _, g := range p.Groups {
		buf.Write(g.Data)
	}
	return buf.Bytes()
}

// Size is the total number of bytes in the program.
func (p *Program) Size() int {
	n := len(p.Init)
	for _, g := range p.Groups {
		n += len(g.Data)
	}
	return n
}

// Settings carries the per-job device parameters written during init.
// Zero values are not sent.
type Settings struct {
	Pen        int
	Velocity   float64
	Force      float64
	Resolution float64
}

// SettingsFromProfile copies the device defaults of p.
func SettingsFromProfile(p domain.DeviceProfile) Settings {
	return Settings{
		Pen:        p.Pen,
		Velocity:   p.Velocity,
		Force:      p.Force,
		Resolution: p.StepSize(),
	}
}

// Encode converts g into a Program for enc. It fails without a partial
// program when a coordinate cannot be expressed in device steps.
func Encode(enc Encoder, g *domain.Graphic, s Settings) (*Program, error) {
	prog := &Program{Dialect: enc.Name()}

	var init bytes.Buffer
	init.Write(enc.OnConnect())
	if s.Pen != 0 {
		init.Write(enc.SetPen(s.Pen))
	}
	if s.Velocity != 0 {
		init.Write(enc.SetVelocity(s.Velocity))
	}
	if s.Force != 0 {
		init.Write(enc.SetForce(s.Force))
	}
	prog.Init = init.Bytes()

	if g == nil {
		return prog, nil
	}
	for _, path := range g.Paths {
		if path.Empty() {
			continue
		}
		var buf bytes.Buffer
		var pos Position
		for i, seg := range path.Segments {
			x, y, err := ToDevice(seg.Point, s.Resolution)
			if err != nil {
				return nil, err
			}
			down := i > 0 && seg.Kind == domain.LineTo
			buf.Write(enc.Move(x, y, down))
			pos = Position{X: x, Y: y, PenDown: down}
		}
		prog.Groups = append(prog.Groups, Group{Data: buf.Bytes(), End: pos})
	}
	return prog, nil
}
