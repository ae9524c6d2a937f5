package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/cutline/pkg/domain"
	"github.com/aretw0/cutline/pkg/ports"
)

type chain []ports.ProfileLoader

// Chain resolves a profile from the first loader that knows it.
func Chain(loaders ...ports.ProfileLoader) ports.ProfileLoader {
	return chain(loaders)
}

func (c chain) GetProfile(ctx context.Context, name string) (domain.DeviceProfile, error) {
	for _, l := range c {
		p, err := l.GetProfile(ctx, name)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, domain.ErrProfileNotFound) {
			return domain.DeviceProfile{}, err
		}
	}
	return domain.DeviceProfile{}, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, name)
}

func (c chain) ListProfiles(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var names []string
	for _, l := range c {
		list, err := l.ListProfiles(ctx)
		if err != nil {
			return nil, err
		}
		for _, n := range list {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}
