package loam

import (
	"context"
	"testing"

	"github.com/aretw0/cutline/internal/testutils"
	"github.com/aretw0/cutline/pkg/domain"
	"github.com/aretw0/cutline/pkg/ports/tests"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveDocs(t *testing.T, repo core.Repository, docs ...core.Document) {
	t.Helper()
	ctx := context.Background()
	for _, doc := range docs {
		require.NoError(t, repo.Save(ctx, doc))
	}
}

func TestLoader_Contract(t *testing.T) {
	_, repo := testutils.SetupTestRepo(t)

	saveDocs(t, repo,
		core.Document{
			ID: "a4.md",
			Content: `---
width: 210
height: 297
dialect: hpgl
---
Desk plotter with a drag knife.`,
		},
		core.Document{
			ID: "vinyl.md",
			Content: `---
name: vinyl
width: 600
dialect: camm
velocity: 20
requires: [velocity]
---
Roll cutter.`,
		},
	)

	loader := New(loam.NewTypedRepository[domain.DeviceProfile](repo))

	tests.ProfileLoaderContractTest(t, loader, map[string]domain.DeviceProfile{
		"a4":    {Width: 210, Height: 297, Dialect: "hpgl"},
		"vinyl": {Width: 600, Dialect: "camm"},
	})

	vinyl, err := loader.GetProfile(context.Background(), "vinyl")
	require.NoError(t, err)
	assert.Equal(t, 20.0, vinyl.Velocity)
	assert.Equal(t, []string{"velocity"}, vinyl.Requires)
}

func TestLoader_NameCollision(t *testing.T) {
	_, repo := testutils.SetupTestRepo(t)

	saveDocs(t, repo,
		core.Document{ID: "a.md", Content: "---\nname: shared\ndialect: hpgl\n---\n"},
		core.Document{ID: "b.md", Content: "---\nname: shared\ndialect: dmpl\n---\n"},
	)

	loader := New(loam.NewTypedRepository[domain.DeviceProfile](repo))
	_, err := loader.ListProfiles(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
}

func TestTrimExtension(t *testing.T) {
	assert.Equal(t, "a4", trimExtension("a4.md"))
	assert.Equal(t, "shop/vinyl", trimExtension("shop/vinyl.yaml"))
	assert.Equal(t, "plain", trimExtension("plain"))
}
