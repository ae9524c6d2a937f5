package domain

import (
	"fmt"
	"strings"
)

// Capability is a bit set of optional encoder features.
type Capability uint8

const (
	CapVelocity Capability = 1 << iota
	CapForce
	CapPenSelect
)

var capabilityNames = []struct {
	cap  Capability
	name string
}{
	{CapVelocity, "velocity"},
	{CapForce, "force"},
	{CapPenSelect, "pen"},
}

// Has reports whether every bit of o is set in c.
func (c Capability) Has(o Capability) bool {
	return c&o == o
}

func (c Capability) String() string {
	var names []string
	for _, n := range capabilityNames {
		if c.Has(n.cap) {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// ParseCapabilities parses names such as "velocity" or "force".
func ParseCapabilities(names []string) (Capability, error) {
	var c Capability
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		found := false
		for _, n := range capabilityNames {
			if n.name == name {
				c |= n.cap
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown capability %q", raw)
		}
	}
	return c, nil
}

// DeviceProfile is the static description of a device.
type DeviceProfile struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Width and Height of the working area. Zero means unbounded.
	Width  float64 `json:"width" yaml:"width" mapstructure:"width"`
	Height float64 `json:"height" yaml:"height" mapstructure:"height"`

	// Dialect selects the protocol encoder (e.g. "hpgl").
	Dialect string `json:"dialect" yaml:"dialect" mapstructure:"dialect"`

	Velocity    float64 `json:"velocity,omitempty" yaml:"velocity,omitempty" mapstructure:"velocity"`
	Force       float64 `json:"force,omitempty" yaml:"force,omitempty" mapstructure:"force"`
	BladeOffset float64 `json:"blade_offset,omitempty" yaml:"blade_offset,omitempty" mapstructure:"blade_offset"`
	Pen         int     `json:"pen,omitempty" yaml:"pen,omitempty" mapstructure:"pen"`

	// Resolution is the number of working units per device step. Zero means 1.
	Resolution float64 `json:"resolution,omitempty" yaml:"resolution,omitempty" mapstructure:"resolution"`

	// Requires lists capabilities the dialect must support ("velocity", "force", "pen").
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty" mapstructure:"requires"`
}

// Required returns the parsed Requires list.
func (p DeviceProfile) Required() (Capability, error) {
	return ParseCapabilities(p.Requires)
}

// StepSize returns the resolution, defaulting to 1.
func (p DeviceProfile) StepSize() float64 {
	if p.Resolution <= 0 {
		return 1
	}
	return p.Resolution
}
