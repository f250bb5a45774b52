// Package symmetry generates finite isometry groups from generators and
// expands seed objects into their orbits under those groups.
package symmetry

import (
	"errors"
	"fmt"

	"github.com/chazu/hypercut/pkg/approx"
	"github.com/chazu/hypercut/pkg/geom"
)

// DefaultMaxOrbitSize bounds orbit enumeration for generators that do not
// form a finite group.
const DefaultMaxOrbitSize = 10000

// ErrOrbitTooLarge is returned when an orbit exceeds the size limit.
var ErrOrbitTooLarge = errors.New("symmetry: orbit too large")

// Element is one member of an orbit along with a transform that produces it
// from the seed.
type Element[T any] struct {
	Transform geom.Motor
	Value     T
}

// Orbit enumerates the orbit of seed under the group generated by gens, in
// breadth-first order starting with the seed itself. Values that are
// approximately equal are visited once. apply returns the image of a value
// under a motor.
func Orbit[T approx.Key](gens []geom.Motor, seed T, apply func(geom.Motor, T) T, limit int) ([]Element[T], error) {
	ndim := 1
	for _, g := range gens {
		ndim = max(ndim, g.NDim())
	}
	if limit <= 0 {
		limit = DefaultMaxOrbitSize
	}

	seen := approx.NewHashMap[T, struct{}]()
	if _, _, err := seen.Insert(seed, struct{}{}); err != nil {
		return nil, err
	}
	out := []Element[T]{{Transform: geom.Ident(ndim), Value: seed}}
	for next := 0; next < len(out); next++ {
		cur := out[next]
		for _, g := range gens {
			v := apply(g, cur.Value)
			if _, ok := seen.Get(v); ok {
				continue
			}
			if len(out) >= limit {
				return nil, fmt.Errorf("%w: more than %d elements", ErrOrbitTooLarge, limit)
			}
			if _, _, err := seen.Insert(v, struct{}{}); err != nil {
				return nil, err
			}
			out = append(out, Element[T]{Transform: g.Mul(cur.Transform), Value: v})
		}
	}
	return out, nil
}

// TransformVector is the natural action of a motor on a vector.
func TransformVector(m geom.Motor, v geom.Vector) geom.Vector {
	return m.TransformVector(v)
}

// Group is a finite group of isometries given by its generators.
type Group struct {
	NDim       int
	Generators []geom.Motor
}

// NewGroup returns the group generated by gens. Every generator is resized to
// ndim.
func NewGroup(ndim int, gens ...geom.Motor) (*Group, error) {
	g := &Group{NDim: ndim}
	for i, m := range gens {
		c, err := m.Canonicalize()
		if err != nil {
			return nil, fmt.Errorf("generator %d: %w", i, err)
		}
		g.Generators = append(g.Generators, c.Resize(ndim))
	}
	return g, nil
}

// Elements enumerates every element of the group, identity first.
func (g *Group) Elements(limit int) ([]geom.Motor, error) {
	orbit, err := Orbit(g.Generators, geom.Ident(g.NDim), func(m, e geom.Motor) geom.Motor {
		return m.Mul(e)
	}, limit)
	if err != nil {
		return nil, err
	}
	out := make([]geom.Motor, len(orbit))
	for i, e := range orbit {
		out[i] = e.Value
	}
	return out, nil
}

// VectorOrbit returns the distinct images of v under the group.
func (g *Group) VectorOrbit(v geom.Vector, limit int) ([]Element[geom.Vector], error) {
	return Orbit(g.Generators, v.Pad(g.NDim), TransformVector, limit)
}

// Chiral returns the orientation-preserving subgroup. A product of two
// reflections is a rotation, so pairing the first generator with each other
// generator spans the subgroup for reflection groups.
func (g *Group) Chiral() *Group {
	out := &Group{NDim: g.NDim}
	var first *geom.Motor
	for i, m := range g.Generators {
		if !m.IsReflection() {
			out.Generators = append(out.Generators, m)
			continue
		}
		if first == nil {
			first = &g.Generators[i]
			continue
		}
		out.Generators = append(out.Generators, first.Mul(m))
	}
	return out
}

// Mirror returns the reflection through the hyperplane perpendicular to
// normal.
func Mirror(ndim int, normal geom.Vector) (geom.Motor, error) {
	return geom.Reflection(ndim, normal)
}

// Hyperoctahedral returns the symmetry group of the ndim-cube, generated by
// the Coxeter mirrors of BC_n: e_i - e_{i+1} for each adjacent pair of axes
// and the last axis e_{n-1}.
func Hyperoctahedral(ndim int) (*Group, error) {
	if ndim < 1 {
		return nil, fmt.Errorf("symmetry: bad dimension %d", ndim)
	}
	var gens []geom.Motor
	for i := 0; i+1 < ndim; i++ {
		m, err := Mirror(ndim, geom.Axis(ndim, i).Sub(geom.Axis(ndim, i+1)))
		if err != nil {
			return nil, err
		}
		gens = append(gens, m)
	}
	m, err := Mirror(ndim, geom.Axis(ndim, ndim-1))
	if err != nil {
		return nil, err
	}
	return NewGroup(ndim, append(gens, m)...)
}
