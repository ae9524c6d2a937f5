// Package travel orders independent paths to reduce pen-up movement.
package travel

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/aretw0/cutline/pkg/domain"
)

// ErrUnknownPolicy is returned for a policy name that is not recognised.
var ErrUnknownPolicy = errors.New("unknown travel policy")

// Policies lists the supported policies.
var Policies = []domain.TravelPolicy{domain.OrderSource, domain.OrderBestTracking, domain.OrderShortestPath}

// ParsePolicy resolves a policy name. The empty string means source order.
func ParsePolicy(name string) (domain.TravelPolicy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return domain.OrderSource, nil
	}
	for _, p := range Policies {
		if string(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

// Optimize reorders paths starting from the origin.
func Optimize(paths []domain.Path, policy domain.TravelPolicy) ([]domain.Path, error) {
	return OptimizeFrom(paths, policy, domain.Point{})
}

// OptimizeFrom reorders paths starting from pen position `from`.
//
// best-tracking repeatedly picks the unvisited path whose start is closest to
// the pen; ties go to the lowest original index. shortest-path also considers
// each path reversed; ties prefer the forward direction, then the lowest
// index. Neither is optimal, both are greedy nearest-neighbour chains.
func OptimizeFrom(paths []domain.Path, policy domain.TravelPolicy, from domain.Point) ([]domain.Path, error) {
	switch policy {
	case domain.OrderSource, "":
		out := make([]domain.Path, len(paths))
		for i, p := range paths {
			out[i] = p.Clone()
		}
		return out, nil
	case domain.OrderBestTracking:
		return chain(paths, from, false), nil
	case domain.OrderShortestPath:
		return chain(paths, from, true), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
}

func chain(paths []domain.Path, pos domain.Point, reversible bool) []domain.Path {
	visited := make([]bool, len(paths))
	out := make([]domain.Path, 0, len(paths))

	for range paths {
		best, bestRev, bestDist := -1, false, math.Inf(1)
		consider := func(i int, rev bool, d float64) {
			if d < bestDist || (d == bestDist && bestRev && !rev) {
				best, bestRev, bestDist = i, rev, d
			}
		}
		for i, p := range paths {
			if visited[i] {
				continue
			}
			consider(i, false, pos.Dist(p.Start()))
			if reversible {
				consider(i, true, pos.Dist(p.End()))
			}
		}

		visited[best] = true
		next := paths[best].Clone()
		if bestRev {
			next = paths[best].Reverse()
		}
		out = append(out, next)
		pos = next.End()
	}
	return out
}

// TravelDistance is the total pen-up distance to visit paths in order,
// starting from `from`.
func TravelDistance(paths []domain.Path, from domain.Point) float64 {
	var d float64
	pos := from
	for _, p := range paths {
		if p.Empty() {
			continue
		}
		d += pos.Dist(p.Start())
		pos = p.End()
	}
	return d
}
