// Package tessellate turns convex polygons given as unordered edge sets into
// vertex loops, triangle fans and tangent bases. It is read-only and never
// mutates the space it is given data from.
package tessellate

import (
	"errors"
	"fmt"

	"github.com/chazu/hypercut/pkg/geom"
)

// ErrOpenLoop is returned when a polygon's edges do not form a single closed
// loop.
var ErrOpenLoop = errors.New("tessellate: polygon edges do not form a closed loop")

// OrderLoop orders the edges of a convex polygon into a closed vertex loop
// starting at the first endpoint of the first edge.
func OrderLoop[V comparable](edges [][2]V) ([]V, error) {
	if len(edges) < 3 {
		return nil, fmt.Errorf("%w: only %d edges", ErrOpenLoop, len(edges))
	}

	neighbors := make(map[V][]V, len(edges))
	for _, e := range edges {
		neighbors[e[0]] = append(neighbors[e[0]], e[1])
		neighbors[e[1]] = append(neighbors[e[1]], e[0])
	}
	for v, ns := range neighbors {
		if len(ns) != 2 {
			return nil, fmt.Errorf("%w: vertex %v has %d neighbors", ErrOpenLoop, v, len(ns))
		}
	}

	start := edges[0][0]
	loop := make([]V, 0, len(edges))
	prev, cur := start, edges[0][1]
	loop = append(loop, start)
	for cur != start {
		if len(loop) > len(edges) {
			return nil, ErrOpenLoop
		}
		loop = append(loop, cur)
		ns := neighbors[cur]
		next := ns[0]
		if next == prev {
			next = ns[1]
		}
		prev, cur = cur, next
	}
	if len(loop) != len(edges) {
		// The edges form more than one cycle.
		return nil, fmt.Errorf("%w: loop covers %d of %d edges", ErrOpenLoop, len(loop), len(edges))
	}
	return loop, nil
}

// Fan triangulates a convex polygon loop from its first vertex.
func Fan[V any](loop []V) [][3]V {
	if len(loop) < 3 {
		return nil
	}
	tris := make([][3]V, 0, len(loop)-2)
	for i := 1; i+1 < len(loop); i++ {
		tris = append(tris, [3]V{loop[0], loop[i], loop[i+1]})
	}
	return tris
}

// TangentBasis returns an orthonormal pair of vectors spanning the plane of a
// polygon loop. The first vector points along the loop's first edge.
func TangentBasis(loop []geom.Point) ([2]geom.Vector, error) {
	if len(loop) < 3 {
		return [2]geom.Vector{}, fmt.Errorf("tessellate: polygon has %d vertices", len(loop))
	}
	u, ok := loop[1].Sub(loop[0]).Normalize()
	if !ok {
		return [2]geom.Vector{}, errors.New("tessellate: degenerate polygon edge")
	}
	// Use the vertex furthest from the first edge's line for stability.
	var best geom.Vector
	bestNorm := 0.0
	for _, p := range loop[2:] {
		d := p.Sub(loop[0])
		d = d.Sub(u.Scale(u.Dot(d)))
		if n := d.Norm(); n > bestNorm {
			best, bestNorm = d, n
		}
	}
	v, ok := best.Normalize()
	if !ok {
		return [2]geom.Vector{}, errors.New("tessellate: polygon vertices are collinear")
	}
	return [2]geom.Vector{u, v}, nil
}
