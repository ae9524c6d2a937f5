package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/cutline/pkg/domain"
	"github.com/aretw0/cutline/pkg/ports"
)

// ProfileLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.ProfileLoader.
func ProfileLoaderContractTest(t *testing.T, loader ports.ProfileLoader, expected map[string]domain.DeviceProfile) {
	t.Helper()
	ctx := context.Background()

	// 1. Test GetProfile (Success)
	t.Run("GetProfile_Success", func(t *testing.T) {
		for name, want := range expected {
			got, err := loader.GetProfile(ctx, name)
			if err != nil {
				t.Fatalf("unexpected error getting profile %s: %v", name, err)
			}
			if got.Dialect != want.Dialect || got.Width != want.Width || got.Height != want.Height {
				t.Errorf("profile mismatch for %s. got %+v, want %+v", name, got, want)
			}
			if got.Name != name {
				t.Errorf("profile name mismatch: got %q, want %q", got.Name, name)
			}
		}
	})

	// 2. Test GetProfile (NotFound)
	t.Run("GetProfile_NotFound", func(t *testing.T) {
		_, err := loader.GetProfile(ctx, "non-existent-profile")
		if err == nil {
			t.Fatal("expected error for non-existent profile, got nil")
		}
		if !errors.Is(err, domain.ErrProfileNotFound) {
			t.Errorf("expected ErrProfileNotFound, got %v", err)
		}
	})

	// 3. Test ListProfiles
	t.Run("ListProfiles", func(t *testing.T) {
		names, err := loader.ListProfiles(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing profiles: %v", err)
		}

		if len(names) != len(expected) {
			t.Errorf("expected %d profiles, got %d", len(expected), len(names))
		}

		lookup := make(map[string]bool)
		for _, name := range names {
			lookup[name] = true
		}

		for name := range expected {
			if !lookup[name] {
				t.Errorf("profile %s missing from list", name)
			}
		}
	})
}
