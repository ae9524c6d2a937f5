package source

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/aretw0/cutline/pkg/domain"
)

// ErrSyntax reports malformed vector input.
var ErrSyntax = errors.New("invalid path data")

// lexer splits SVG path data into command letters and numbers.
// Separators are whitespace and commas; a sign or a second decimal point
// also starts a new number ("10-5", "1.5.5").
type lexer struct {
	s   string
	pos int
}

func (l *lexer) skipSeparators() {
	for l.pos < len(l.s) {
		switch l.s[l.pos] {
		case ' ', '\t', '\n', '\r', ',':
			l.pos++
		default:
			return
		}
	}
}

func (l *lexer) done() bool {
	l.skipSeparators()
	return l.pos >= len(l.s)
}

// command returns the next command letter, if the next token is one.
func (l *lexer) command() (byte, bool) {
	l.skipSeparators()
	if l.pos >= len(l.s) {
		return 0, false
	}
	c := l.s[l.pos]
	if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
		if c == 'e' || c == 'E' {
			return 0, false
		}
		l.pos++
		return c, true
	}
	return 0, false
}

// number reads the next number; ok is false when the next token is not one.
func (l *lexer) number() (float64, bool, error) {
	l.skipSeparators()
	start := l.pos
	i := l.pos
	if i < len(l.s) && (l.s[i] == '+' || l.s[i] == '-') {
		i++
	}
	digits, dot := 0, false
scan:
	for ; i < len(l.s); i++ {
		c := l.s[i]
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && !dot:
			dot = true
		default:
			break scan
		}
	}
	if digits == 0 {
		return 0, false, nil
	}
	if i < len(l.s) && (l.s[i] == 'e' || l.s[i] == 'E') {
		j := i + 1
		if j < len(l.s) && (l.s[j] == '+' || l.s[j] == '-') {
			j++
		}
		k := j
		for k < len(l.s) && l.s[k] >= '0' && l.s[k] <= '9' {
			k++
		}
		if k > j {
			i = k
		}
	}

	v, err := strconv.ParseFloat(l.s[start:i], 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: bad number %q at offset %d", ErrSyntax, l.s[start:i], start)
	}
	l.pos = i
	return v, true, nil
}

// numbers reads exactly n numbers.
func (l *lexer) numbers(cmd byte, n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		v, ok, err := l.number()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: command %c needs %d numbers at offset %d", ErrSyntax, cmd, n, l.pos)
		}
		out[i] = v
	}
	return out, nil
}

// ParsePathData parses SVG path data with the M, L, H, V, C and Z commands,
// absolute and relative. Z closes with a line back to the subpath start.
func ParsePathData(d string) (domain.SourcePath, error) {
	l := &lexer{s: d}
	var (
		out        domain.SourcePath
		cur, start domain.Point
		cmd        byte
		closed     bool
	)

	for !l.done() {
		if c, ok := l.command(); ok {
			cmd = c
		} else if cmd == 0 {
			return nil, fmt.Errorf("%w: must start with a command", ErrSyntax)
		} else if cmd == 'Z' || cmd == 'z' {
			return nil, fmt.Errorf("%w: unexpected number after %c at offset %d", ErrSyntax, cmd, l.pos)
		}

		// Drawing after Z without a new M opens a subpath at the start point.
		if closed && cmd != 'M' && cmd != 'm' && cmd != 'Z' && cmd != 'z' {
			out = append(out, domain.Move(cur))
		}
		closed = cmd == 'Z' || cmd == 'z'

		rel := cmd >= 'a' && cmd <= 'z'
		at := func(x, y float64) domain.Point {
			if rel {
				return domain.Pt(cur.X+x, cur.Y+y)
			}
			return domain.Pt(x, y)
		}

		switch cmd {
		case 'M', 'm':
			v, err := l.numbers(cmd, 2)
			if err != nil {
				return nil, err
			}
			cur = at(v[0], v[1])
			start = cur
			out = append(out, domain.Move(cur))
			// Further pairs are implicit line-tos.
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}

		case 'L', 'l':
			v, err := l.numbers(cmd, 2)
			if err != nil {
				return nil, err
			}
			cur = at(v[0], v[1])
			out = append(out, domain.Line(cur))

		case 'H', 'h':
			v, err := l.numbers(cmd, 1)
			if err != nil {
				return nil, err
			}
			if rel {
				cur.X += v[0]
			} else {
				cur.X = v[0]
			}
			out = append(out, domain.Line(cur))

		case 'V', 'v':
			v, err := l.numbers(cmd, 1)
			if err != nil {
				return nil, err
			}
			if rel {
				cur.Y += v[0]
			} else {
				cur.Y = v[0]
			}
			out = append(out, domain.Line(cur))

		case 'C', 'c':
			v, err := l.numbers(cmd, 6)
			if err != nil {
				return nil, err
			}
			c1, c2, to := at(v[0], v[1]), at(v[2], v[3]), at(v[4], v[5])
			out = append(out, domain.Cubic(c1, c2, to))
			cur = to

		case 'Z', 'z':
			if len(out) > 0 && cur != start {
				out = append(out, domain.Line(start))
			}
			cur = start

		default:
			return nil, fmt.Errorf("%w: unsupported command %c", ErrSyntax, cmd)
		}

		if len(out) > 0 && out[0].Kind != domain.CurveMove {
			return nil, fmt.Errorf("%w: must start with a move", ErrSyntax)
		}
	}
	return out, nil
}
