package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/cutline/pkg/domain"
	"github.com/aretw0/loam"
)

// Loader adapts a Loam repository of profile documents to ports.ProfileLoader.
//
// Each document is a Markdown or YAML file whose front matter holds the
// DeviceProfile fields. The profile name defaults to the file name without
// its extension.
type Loader struct {
	Repo *loam.TypedRepository[domain.DeviceProfile]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[domain.DeviceProfile]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at dir and wraps it.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve profile directory: %w", err)
	}

	// Strict mode keeps integers from turning into float64; the loader never writes.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[domain.DeviceProfile](repo)), nil
}

// GetProfile returns the profile whose resolved name matches.
func (l *Loader) GetProfile(ctx context.Context, name string) (domain.DeviceProfile, error) {
	profiles, err := l.load(ctx)
	if err != nil {
		return domain.DeviceProfile{}, err
	}
	p, ok := profiles[name]
	if !ok {
		return domain.DeviceProfile{}, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, name)
	}
	return p, nil
}

// ListProfiles lists all profile names in the repository.
func (l *Loader) ListProfiles(ctx context.Context) ([]string, error) {
	profiles, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	return names, nil
}

func (l *Loader) load(ctx context.Context) (map[string]domain.DeviceProfile, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string, len(docs))
	profiles := make(map[string]domain.DeviceProfile, len(docs))
	for _, doc := range docs {
		p := doc.Data
		if p.Name == "" {
			p.Name = trimExtension(doc.ID)
		}

		if existing, ok := seen[p.Name]; ok {
			return nil, fmt.Errorf("collision detected: profile '%s' is defined in both '%s' and '%s'", p.Name, existing, doc.ID)
		}
		seen[p.Name] = doc.ID
		profiles[p.Name] = p
	}
	return profiles, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
