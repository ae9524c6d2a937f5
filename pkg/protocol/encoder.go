package protocol

import (
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/cutline/pkg/domain"
)

// Encoder produces the bytes of one dialect.
type Encoder interface {
	Name() string
	Capabilities() domain.Capability

	OnConnect() []byte
	Move(x, y int, penDown bool) []byte
	SetPen(pen int) []byte
	SetVelocity(v float64) []byte
	SetForce(f float64) []byte
}

// ToDevice converts a point in working units to device steps, rounding half
// away from zero. Steps outside the int32 range are an encoding error.
func ToDevice(p domain.Point, resolution float64) (x, y int, err error) {
	if resolution <= 0 {
		resolution = 1
	}
	if x, err = toStep(p.X, resolution); err != nil {
		return 0, 0, err
	}
	if y, err = toStep(p.Y, resolution); err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func toStep(v, resolution float64) (int, error) {
	step := math.Round(v / resolution)
	if math.IsNaN(step) || step < math.MinInt32 || step > math.MaxInt32 {
		return 0, domain.NewError(domain.KindEncoding, "encode",
			"coordinate out of device range at resolution "+formatNumber(resolution), v)
	}
	return int(step), nil
}

// formatNumber prints v without trailing zeros.
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	if strings.IndexByte(s, '.') >= 0 {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

func coords(x, y int) string {
	return strconv.Itoa(x) + "," + strconv.Itoa(y)
}
