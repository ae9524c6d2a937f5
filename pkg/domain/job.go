package domain

import "time"

// TravelPolicy selects how independent paths are ordered before encoding.
type TravelPolicy string

const (
	OrderSource       TravelPolicy = "source"
	OrderBestTracking TravelPolicy = "best-tracking"
	OrderShortestPath TravelPolicy = "shortest-path"
)

// DefaultTolerance is the flattening tolerance used when JobParams leaves it unset.
const DefaultTolerance = 0.1

// JobParams are the per-job conversion settings.
type JobParams struct {
	Copies  int     `json:"copies" yaml:"copies" mapstructure:"copies"`
	Spacing float64 `json:"spacing" yaml:"spacing" mapstructure:"spacing"`

	ScaleX   float64 `json:"scale_x,omitempty" yaml:"scale_x,omitempty" mapstructure:"scale_x"`
	ScaleY   float64 `json:"scale_y,omitempty" yaml:"scale_y,omitempty" mapstructure:"scale_y"`
	MirrorX  bool    `json:"mirror_x,omitempty" yaml:"mirror_x,omitempty" mapstructure:"mirror_x"`
	MirrorY  bool    `json:"mirror_y,omitempty" yaml:"mirror_y,omitempty" mapstructure:"mirror_y"`
	Rotation float64 `json:"rotation,omitempty" yaml:"rotation,omitempty" mapstructure:"rotation"`

	TranslateX float64 `json:"translate_x,omitempty" yaml:"translate_x,omitempty" mapstructure:"translate_x"`
	TranslateY float64 `json:"translate_y,omitempty" yaml:"translate_y,omitempty" mapstructure:"translate_y"`

	Overlap float64 `json:"overlap,omitempty" yaml:"overlap,omitempty" mapstructure:"overlap"`
	// BladeOffset overrides the profile default when set.
	BladeOffset *float64 `json:"blade_offset,omitempty" yaml:"blade_offset,omitempty" mapstructure:"blade_offset"`

	Order     TravelPolicy `json:"order,omitempty" yaml:"order,omitempty" mapstructure:"order"`
	Tolerance float64      `json:"tolerance,omitempty" yaml:"tolerance,omitempty" mapstructure:"tolerance"`
}

// DefaultParams returns one copy in source order at the default tolerance.
func DefaultParams() JobParams {
	return JobParams{
		Copies:    1,
		Order:     OrderSource,
		Tolerance: DefaultTolerance,
	}
}

// EffectiveBladeOffset resolves the blade offset against the profile default.
func (p JobParams) EffectiveBladeOffset(profile DeviceProfile) float64 {
	if p.BladeOffset != nil {
		return *p.BladeOffset
	}
	return profile.BladeOffset
}

// EffectiveTolerance returns Tolerance or DefaultTolerance when unset.
func (p JobParams) EffectiveTolerance() float64 {
	if p.Tolerance == 0 {
		return DefaultTolerance
	}
	return p.Tolerance
}

// Progress counts transmitted command groups.
type Progress struct {
	Sent  int `json:"sent"`
	Total int `json:"total"`
}

// Job is a conversion bound to a device profile, tracked through its Status.
type Job struct {
	ID       string        `json:"id"`
	Device   string        `json:"device"`
	Profile  DeviceProfile `json:"profile"`
	Params   JobParams     `json:"params"`
	Status   Status        `json:"status"`
	Reason   string        `json:"reason,omitempty"`
	Progress Progress      `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewJob creates a queued job.
func NewJob(id, device string, profile DeviceProfile, params JobParams) *Job {
	now := time.Now()
	return &Job{
		ID:        id,
		Device:    device,
		Profile:   profile,
		Params:    params,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Snapshot returns a copy of the job that is safe to hand to other goroutines.
func (j *Job) Snapshot() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	if j.Params.BladeOffset != nil {
		v := *j.Params.BladeOffset
		cp.Params.BladeOffset = &v
	}
	cp.Profile.Requires = append([]string(nil), j.Profile.Requires...)
	return &cp
}
