package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/cutline/pkg/domain"
)

// Loader implements ports.ProfileLoader over a fixed set of profiles.
type Loader struct {
	profiles map[string]domain.DeviceProfile
}

// NewLoader indexes profiles by name. Later duplicates win.
func NewLoader(profiles ...domain.DeviceProfile) (*Loader, error) {
	m := make(map[string]domain.DeviceProfile, len(profiles))
	for _, p := range profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("profile missing name")
		}
		m[p.Name] = p
	}
	return &Loader{profiles: m}, nil
}

// GetProfile returns the named profile.
func (l *Loader) GetProfile(ctx context.Context, name string) (domain.DeviceProfile, error) {
	p, ok := l.profiles[name]
	if !ok {
		return domain.DeviceProfile{}, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, name)
	}
	p.Requires = append([]string(nil), p.Requires...)
	return p, nil
}

// ListProfiles returns all profile names.
func (l *Loader) ListProfiles(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(l.profiles))
	for k := range l.profiles {
		names = append(names, k)
	}
	sort.Strings(names) // Deterministic order
	return names, nil
}
