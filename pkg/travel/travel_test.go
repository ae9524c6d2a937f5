package travel

import (
	"fmt"
	"sort"
	"testing"

	"github.com/aretw0/cutline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reverseOrder returns short horizontal strokes listed far-to-near.
func reverseOrder(n int) []domain.Path {
	paths := make([]domain.Path, 0, n)
	for i := n - 1; i >= 0; i-- {
		x := float64(i * 10)
		paths = append(paths, domain.NewPath(domain.Pt(x, 0), domain.Pt(x+5, 0)))
	}
	return paths
}

// canonical renders paths as a sorted multiset of direction-normalised keys.
func canonical(paths []domain.Path) []string {
	keys := make([]string, len(paths))
	for i, p := range paths {
		fwd := fmt.Sprint(p.Points())
		rev := fmt.Sprint(p.Reverse().Points())
		if rev < fwd {
			fwd = rev
		}
		keys[i] = fwd
	}
	sort.Strings(keys)
	return keys
}

func TestOptimize_PreservesPathSet(t *testing.T) {
	in := []domain.Path{
		domain.NewPath(domain.Pt(50, 50), domain.Pt(60, 50)),
		domain.NewPath(domain.Pt(5, 5), domain.Pt(0, 0), domain.Pt(0, 9)),
		domain.NewPath(domain.Pt(100, 0), domain.Pt(1, 1)),
		domain.NewPath(domain.Pt(0, 0), domain.Pt(10, 0), domain.Pt(10, 10), domain.Pt(0, 0)),
	}

	for _, policy := range Policies {
		t.Run(string(policy), func(t *testing.T) {
			out, err := Optimize(in, policy)
			require.NoError(t, err)
			assert.Len(t, out, len(in))
			assert.Equal(t, canonical(in), canonical(out))
		})
	}
}

func TestOptimize_SourceIsIdentity(t *testing.T) {
	in := reverseOrder(4)
	out, err := Optimize(in, domain.OrderSource)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestOptimize_BestTrackingBeatsReverseOrder(t *testing.T) {
	in := reverseOrder(10)

	out, err := Optimize(in, domain.OrderBestTracking)
	require.NoError(t, err)

	src := TravelDistance(in, domain.Point{})
	best := TravelDistance(out, domain.Point{})
	assert.Less(t, best, src)
	assert.Equal(t, domain.Pt(0, 0), out[0].Start())
	assert.InDelta(t, 45.0, best, 1e-9)
}

func TestOptimize_ShortestPathReverses(t *testing.T) {
	in := []domain.Path{
		domain.NewPath(domain.Pt(0, 0), domain.Pt(10, 0)),
		domain.NewPath(domain.Pt(30, 0), domain.Pt(11, 0)),
	}

	bt, err := Optimize(in, domain.OrderBestTracking)
	require.NoError(t, err)
	assert.Equal(t, domain.Pt(30, 0), bt[1].Start())

	sp, err := Optimize(in, domain.OrderShortestPath)
	require.NoError(t, err)
	assert.Equal(t, domain.Pt(11, 0), sp[1].Start())
	assert.Less(t, TravelDistance(sp, domain.Point{}), TravelDistance(bt, domain.Point{}))
}

func TestOptimize_Ties(t *testing.T) {
	a := domain.NewPath(domain.Pt(5, 0), domain.Pt(5, 9))
	b := domain.NewPath(domain.Pt(0, 5), domain.Pt(9, 5))
	c := domain.NewPath(domain.Pt(9, 9), domain.Pt(0, 5)) // end ties with b's start

	out, err := Optimize([]domain.Path{a, b}, domain.OrderBestTracking)
	require.NoError(t, err)
	assert.Equal(t, a, out[0])

	out, err = OptimizeFrom([]domain.Path{c, b}, domain.OrderShortestPath, domain.Point{})
	require.NoError(t, err)
	assert.Equal(t, b, out[0])
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy(" Best-Tracking ")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderBestTracking, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderSource, p)

	_, err = ParsePolicy("tsp")
	assert.ErrorIs(t, err, ErrUnknownPolicy)

	_, err = Optimize(nil, "tsp")
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}
