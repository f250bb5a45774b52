package flat

import (
	"errors"
	"fmt"

	"github.com/chazu/hypercut/pkg/geom"
	"github.com/chazu/hypercut/pkg/kernel"
)

// ErrDegenerateCut is returned when a cut produces geometry that is not a
// valid convex polytope, which happens when the plane grazes elements within
// epsilon.
var ErrDegenerateCut = errors.New("flat: degenerate cut")

// Cut splits elements of a Space by one hyperplane. Results are memoized per
// element so shared boundaries are split once.
type Cut struct {
	space *Space
	plane geom.Hyperplane
	cache map[kernel.ElementID]kernel.CutOutput
}

func (s *Space) NewCut(plane geom.Hyperplane) kernel.Cut {
	return &Cut{
		space: s,
		plane: plane,
		cache: make(map[kernel.ElementID]kernel.CutOutput),
	}
}

func (c *Cut) Plane() geom.Hyperplane { return c.plane }

func (c *Cut) Cut(id kernel.ElementID) (kernel.CutOutput, error) {
	if out, ok := c.cache[id]; ok {
		return out, nil
	}
	out, err := c.cut(id)
	if err != nil {
		return kernel.CutOutput{}, err
	}
	c.cache[id] = out
	return out, nil
}

func flush() kernel.CutOutput {
	return kernel.CutOutput{Flush: true, Inside: kernel.None, Outside: kernel.None, Intersection: kernel.None}
}

func (c *Cut) cut(id kernel.ElementID) (kernel.CutOutput, error) {
	s := c.space
	e, err := s.get(id)
	if err != nil {
		return kernel.CutOutput{}, err
	}
	out := kernel.CutOutput{Inside: kernel.None, Outside: kernel.None, Intersection: kernel.None}

	if e.rank == 0 {
		switch c.plane.WhichSide(e.pos) {
		case geom.Inside:
			out.Inside = id
		case geom.Outside:
			out.Outside = id
		default:
			return flush(), nil
		}
		return out, nil
	}

	var inParts, outParts, flushChildren, intersections []kernel.ElementID
	seen := make(map[kernel.ElementID]bool)
	// Copy the children: recursive cuts append to s.elems, which may
	// invalidate e.
	children := append([]kernel.ElementID(nil), e.children...)
	rank, plane, primordial := e.rank, e.plane, e.primordial
	for _, child := range children {
		co, err := c.Cut(child)
		if err != nil {
			return kernel.CutOutput{}, err
		}
		if co.Flush {
			flushChildren = append(flushChildren, child)
			continue
		}
		if co.Inside.Valid() {
			inParts = append(inParts, co.Inside)
		}
		if co.Outside.Valid() {
			outParts = append(outParts, co.Outside)
		}
		if co.Intersection.Valid() && !seen[co.Intersection] {
			seen[co.Intersection] = true
			intersections = append(intersections, co.Intersection)
		}
	}

	switch {
	case len(inParts) == 0 && len(outParts) == 0:
		return flush(), nil

	case len(outParts) == 0 || len(inParts) == 0:
		if len(flushChildren) > 1 {
			return kernel.CutOutput{}, fmt.Errorf("%w: element %d has %d flush boundary elements", ErrDegenerateCut, id, len(flushChildren))
		}
		if len(outParts) == 0 {
			out.Inside = id
		} else {
			out.Outside = id
		}
		if len(flushChildren) == 1 {
			out.Intersection = flushChildren[0]
		}
		return out, nil
	}

	// The element is split in two.
	if len(flushChildren) > 0 {
		return kernel.CutOutput{}, fmt.Errorf("%w: split element %d has a flush boundary element", ErrDegenerateCut, id)
	}

	if rank == 1 {
		if len(inParts) != 1 || len(outParts) != 1 {
			return kernel.CutOutput{}, fmt.Errorf("%w: edge %d", ErrDegenerateCut, id)
		}
		a, b := s.elems[inParts[0]].pos, s.elems[outParts[0]].pos
		da, db := c.plane.SignedDistance(a), c.plane.SignedDistance(b)
		mid := s.push(element{pos: a.Lerp(b, da/(da-db))})
		out.Intersection = mid
		out.Inside = s.push(element{rank: 1, children: []kernel.ElementID{inParts[0], mid}, plane: plane, primordial: primordial})
		out.Outside = s.push(element{rank: 1, children: []kernel.ElementID{mid, outParts[0]}, plane: plane, primordial: primordial})
		return out, nil
	}

	// A rank-k element is bounded by at least k+1 elements.
	if len(intersections) < rank {
		return kernel.CutOutput{}, fmt.Errorf("%w: element %d has %d intersection boundary elements", ErrDegenerateCut, id, len(intersections))
	}
	inter := element{rank: rank - 1, children: intersections}
	if rank == s.ndim {
		p := c.plane
		inter.plane = &p
	}
	out.Intersection = s.push(inter)

	side := func(parts []kernel.ElementID) kernel.ElementID {
		children := append(append([]kernel.ElementID(nil), parts...), out.Intersection)
		return s.push(element{rank: rank, children: children, plane: plane, primordial: primordial})
	}
	out.Inside = side(inParts)
	out.Outside = side(outParts)
	return out, nil
}
