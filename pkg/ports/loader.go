package ports

import (
	"context"

	"github.com/aretw0/cutline/pkg/domain"
)

// ProfileLoader resolves device profiles by name.
type ProfileLoader interface {
	// GetProfile returns domain.ErrProfileNotFound for unknown names.
	GetProfile(ctx context.Context, name string) (domain.DeviceProfile, error)

	// ListProfiles returns the names of every available profile.
	ListProfiles(ctx context.Context) ([]string, error)
}
