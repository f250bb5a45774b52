// Package flat implements kernel.Space as an in-memory arena of convex
// polytopes. Every element is stored once and referenced by id; cutting never
// mutates an element, it only appends new ones.
package flat

import (
	"fmt"
	"strings"

	"github.com/chazu/hypercut/pkg/geom"
	"github.com/chazu/hypercut/pkg/kernel"
	"github.com/chazu/hypercut/pkg/tessellate"
)

type element struct {
	rank     int
	children []kernel.ElementID
	// pos is set for vertices only.
	pos geom.Point
	// plane is set for facets (rank ndim-1) only.
	plane      *geom.Hyperplane
	primordial bool
}

// Space is a kernel.Space backed by slices. It is not safe for concurrent
// use; callers serialize access (see builder.Puzzle).
type Space struct {
	ndim  int
	elems []element
}

// New returns an empty space of the given dimension.
func New(ndim int) (*Space, error) {
	if ndim < 1 {
		return nil, fmt.Errorf("flat: invalid dimension %d", ndim)
	}
	return &Space{ndim: ndim}, nil
}

// Compile-time interface check.
var _ kernel.Space = (*Space)(nil)

func (s *Space) NDim() int { return s.ndim }

// Len returns the number of elements ever created.
func (s *Space) Len() int { return len(s.elems) }

func (s *Space) push(e element) kernel.ElementID {
	s.elems = append(s.elems, e)
	return kernel.ElementID(len(s.elems) - 1)
}

func (s *Space) get(id kernel.ElementID) (*element, error) {
	if int(id) >= len(s.elems) {
		return nil, fmt.Errorf("%w: %d", kernel.ErrMissingElement, id)
	}
	return &s.elems[id], nil
}

// AddPrimordialCube builds the cube [-radius, radius]^ndim. Each face of the
// cube is named by a sign per axis: -1 or +1 for a fixed coordinate, 0 for a
// free one.
func (s *Space) AddPrimordialCube(radius float64) (kernel.PolytopeID, error) {
	if radius <= 0 {
		return kernel.None, fmt.Errorf("flat: invalid primordial cube radius %g", radius)
	}
	memo := make(map[string]kernel.ElementID)
	var build func(signs []int) kernel.ElementID
	build = func(signs []int) kernel.ElementID {
		key := signKey(signs)
		if id, ok := memo[key]; ok {
			return id
		}
		var e element
		for i, sg := range signs {
			if sg != 0 {
				continue
			}
			e.rank++
			for _, side := range []int{-1, 1} {
				child := append([]int(nil), signs...)
				child[i] = side
				e.children = append(e.children, build(child))
			}
		}
		if e.rank == 0 {
			e.pos = make(geom.Point, s.ndim)
			for i, sg := range signs {
				e.pos[i] = float64(sg) * radius
			}
		}
		if e.rank == s.ndim-1 {
			for i, sg := range signs {
				if sg != 0 {
					e.plane = &geom.Hyperplane{Normal: geom.Axis(s.ndim, i).Scale(float64(sg)), Distance: radius}
				}
			}
			e.primordial = true
		}
		id := s.push(e)
		memo[key] = id
		return id
	}
	return build(make([]int, s.ndim)), nil
}

func signKey(signs []int) string {
	var b strings.Builder
	for _, sg := range signs {
		b.WriteByte(byte('1' + sg))
	}
	return b.String()
}

func (s *Space) Rank(id kernel.ElementID) (int, error) {
	e, err := s.get(id)
	if err != nil {
		return 0, err
	}
	return e.rank, nil
}

func (s *Space) Boundary(id kernel.ElementID) ([]kernel.ElementID, error) {
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return append([]kernel.ElementID(nil), e.children...), nil
}

func (s *Space) Facets(p kernel.PolytopeID) ([]kernel.FacetID, error) {
	e, err := s.get(p)
	if err != nil {
		return nil, err
	}
	if e.rank != s.ndim {
		return nil, fmt.Errorf("%w: %d is rank %d, not a polytope", kernel.ErrMissingElement, p, e.rank)
	}
	return append([]kernel.FacetID(nil), e.children...), nil
}

// Subelements returns id followed by its boundary closure in depth-first
// order.
func (s *Space) Subelements(id kernel.ElementID) ([]kernel.ElementID, error) {
	if _, err := s.get(id); err != nil {
		return nil, err
	}
	seen := make(map[kernel.ElementID]bool)
	var out []kernel.ElementID
	var walk func(kernel.ElementID)
	walk = func(id kernel.ElementID) {
		if seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
		for _, c := range s.elems[id].children {
			walk(c)
		}
	}
	walk(id)
	return out, nil
}

func (s *Space) subelementsOfRank(id kernel.ElementID, rank int) ([]kernel.ElementID, error) {
	all, err := s.Subelements(id)
	if err != nil {
		return nil, err
	}
	var out []kernel.ElementID
	for _, e := range all {
		if s.elems[e].rank == rank {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Space) Vertices(id kernel.ElementID) ([]kernel.VertexID, error) {
	return s.subelementsOfRank(id, 0)
}

func (s *Space) Polygons(id kernel.ElementID) ([]kernel.ElementID, error) {
	return s.subelementsOfRank(id, 2)
}

func (s *Space) VertexPos(v kernel.VertexID) (geom.Point, error) {
	e, err := s.get(v)
	if err != nil {
		return nil, err
	}
	if e.rank != 0 {
		return nil, fmt.Errorf("%w: %d is not a vertex", kernel.ErrMissingElement, v)
	}
	return e.pos, nil
}

func (s *Space) ArbitraryVertex(id kernel.ElementID) (kernel.VertexID, error) {
	e, err := s.get(id)
	if err != nil {
		return kernel.None, err
	}
	for e.rank > 0 {
		if len(e.children) == 0 {
			return kernel.None, fmt.Errorf("%w: element %d has no boundary", kernel.ErrMissingElement, id)
		}
		id = e.children[0]
		e = &s.elems[id]
	}
	return id, nil
}

func (s *Space) Hyperplane(f kernel.FacetID) (geom.Hyperplane, error) {
	e, err := s.get(f)
	if err != nil {
		return geom.Hyperplane{}, err
	}
	if e.plane == nil {
		return geom.Hyperplane{}, fmt.Errorf("%w: %d is not a facet", kernel.ErrMissingElement, f)
	}
	return *e.plane, nil
}

func (s *Space) HasPrimordialFacet(p kernel.PolytopeID) (bool, error) {
	facets, err := s.Facets(p)
	if err != nil {
		return false, err
	}
	for _, f := range facets {
		if s.elems[f].primordial {
			return true, nil
		}
	}
	return false, nil
}

// Centroid returns the average of an element's vertices, weighted by the
// vertex count.
func (s *Space) Centroid(id kernel.ElementID) (geom.Centroid, error) {
	verts, err := s.Vertices(id)
	if err != nil {
		return geom.Centroid{}, err
	}
	var c geom.Centroid
	for _, v := range verts {
		c.AddPoint(s.elems[v].pos, 1)
	}
	return c, nil
}

func (s *Space) CombinedCentroid(ids []kernel.ElementID) (geom.Centroid, bool, error) {
	var total geom.Centroid
	for _, id := range ids {
		c, err := s.Centroid(id)
		if err != nil {
			return geom.Centroid{}, false, err
		}
		total.Add(c)
	}
	return total, !total.IsEmpty(), nil
}

func (s *Space) EdgeEndpoints(polygon kernel.ElementID) ([][2]kernel.VertexID, error) {
	e, err := s.get(polygon)
	if err != nil {
		return nil, err
	}
	if e.rank != 2 {
		return nil, fmt.Errorf("%w: %d is rank %d, not a polygon", kernel.ErrMissingElement, polygon, e.rank)
	}
	out := make([][2]kernel.VertexID, 0, len(e.children))
	for _, edge := range e.children {
		ends := s.elems[edge].children
		if len(ends) != 2 {
			return nil, fmt.Errorf("flat: edge %d has %d endpoints", edge, len(ends))
		}
		out = append(out, [2]kernel.VertexID{ends[0], ends[1]})
	}
	return out, nil
}

func (s *Space) polygonLoop(polygon kernel.ElementID) ([]kernel.VertexID, error) {
	edges, err := s.EdgeEndpoints(polygon)
	if err != nil {
		return nil, err
	}
	loop, err := tessellate.OrderLoop(edges)
	if err != nil {
		return nil, fmt.Errorf("polygon %d: %w", polygon, err)
	}
	return loop, nil
}

func (s *Space) Triangles(polygon kernel.ElementID) ([][3]kernel.VertexID, error) {
	loop, err := s.polygonLoop(polygon)
	if err != nil {
		return nil, err
	}
	return tessellate.Fan(loop), nil
}

func (s *Space) TangentVectors(polygon kernel.ElementID) ([2]geom.Vector, error) {
	loop, err := s.polygonLoop(polygon)
	if err != nil {
		return [2]geom.Vector{}, err
	}
	points := make([]geom.Point, len(loop))
	for i, v := range loop {
		points[i] = s.elems[v].pos
	}
	return tessellate.TangentBasis(points)
}
