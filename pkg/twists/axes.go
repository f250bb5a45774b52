// Package twists builds the axis and twist tables of a puzzle: named axes
// keyed by vector, deduplicated twists keyed by axis and transform, inverse
// and multiple generation, and symmetric expansion.
package twists

import (
	"errors"
	"fmt"

	"github.com/chazu/hypercut/pkg/approx"
	"github.com/chazu/hypercut/pkg/geom"
	"github.com/chazu/hypercut/pkg/puzzle"
)

var (
	// ErrZeroAxis is returned for an axis with a zero vector.
	ErrZeroAxis = errors.New("axis vector cannot be zero")
	// ErrAxisTaken is returned when an axis already has the given vector.
	ErrAxisTaken = errors.New("axis vector is already taken")
	// ErrNoAxis is returned when no axis has the given vector.
	ErrNoAxis = errors.New("no axis with vector")
)

// AxisBuilder is a twist axis during construction. Its vector is fixed once
// the axis is created.
type AxisBuilder struct {
	vector geom.Vector
}

// Vector returns the unit vector of the axis.
func (a AxisBuilder) Vector() geom.Vector { return a.vector }

// AxisSystemBuilder is the set of twist axes of a puzzle under construction.
type AxisSystemBuilder struct {
	NDim int

	byID       puzzle.PerID[puzzle.Axis, AxisBuilder]
	vectorToID *approx.HashMap[geom.Vector, puzzle.Axis]
	names      *puzzle.NameBiMap[puzzle.Axis]
	autonames  puzzle.AutoNames
	// Ordering is the user-facing order of the axes.
	Ordering puzzle.CustomOrdering[puzzle.Axis]
}

// NewAxisSystemBuilder returns an empty axis system.
func NewAxisSystemBuilder(ndim int) *AxisSystemBuilder {
	return &AxisSystemBuilder{
		NDim:       ndim,
		vectorToID: approx.NewHashMap[geom.Vector, puzzle.Axis](),
		names:      puzzle.NewNameBiMap[puzzle.Axis](),
	}
}

// Len returns the number of axes.
func (s *AxisSystemBuilder) Len() int { return s.byID.Len() }

// Add adds an axis with the given vector. An empty or taken name is
// replaced by an autoname, with a warning if the name was taken.
func (s *AxisSystemBuilder) Add(vector geom.Vector, name string, warn puzzle.WarnFunc) (puzzle.Axis, error) {
	unit, ok := vector.Pad(s.NDim).Normalize()
	if !ok {
		return 0, ErrZeroAxis
	}
	if _, ok := s.vectorToID.Get(unit); ok {
		return 0, fmt.Errorf("%w: %v", ErrAxisTaken, unit)
	}
	id := puzzle.Axis(s.byID.Len())
	if _, _, err := s.vectorToID.Insert(unit, id); err != nil {
		return 0, fmt.Errorf("axis %v: %w", unit, err)
	}
	if _, err := s.byID.Push(AxisBuilder{vector: unit}); err != nil {
		return 0, err
	}
	if err := s.Ordering.Add(id); err != nil {
		return 0, err
	}
	if err := s.names.SetWithFallback(id, name, &s.autonames, warn); err != nil {
		return 0, err
	}
	return id, nil
}

// Get returns an axis by id.
func (s *AxisSystemBuilder) Get(id puzzle.Axis) (AxisBuilder, error) {
	return s.byID.Get(id)
}

// Name returns the name of an axis.
func (s *AxisSystemBuilder) Name(id puzzle.Axis) string {
	name, _ := s.names.Get(id)
	return name
}

// SetName renames an axis.
func (s *AxisSystemBuilder) SetName(id puzzle.Axis, name string) error {
	if int(id) >= s.Len() {
		return fmt.Errorf("%w: %s", puzzle.ErrIndexOutOfRange, id)
	}
	return s.names.Set(id, name)
}

// AxisFromName returns the axis with the given name.
func (s *AxisSystemBuilder) AxisFromName(name string) (puzzle.Axis, bool) {
	return s.names.ID(name)
}

// VectorToID returns the axis whose vector is parallel to v and points the
// same way.
func (s *AxisSystemBuilder) VectorToID(v geom.Vector) (puzzle.Axis, bool) {
	unit, ok := v.Pad(s.NDim).Normalize()
	if !ok {
		return 0, false
	}
	return s.vectorToID.Get(unit)
}

// AxisFromVector is VectorToID returning ErrNoAxis when nothing matches.
func (s *AxisSystemBuilder) AxisFromVector(v geom.Vector) (puzzle.Axis, error) {
	if id, ok := s.VectorToID(v); ok {
		return id, nil
	}
	return 0, fmt.Errorf("%w %v", ErrNoAxis, v)
}

// AxisSystem is a built, immutable axis system.
type AxisSystem struct {
	Names    []string      `json:"names"`
	Vectors  []geom.Vector `json:"vectors"`
	Ordering []puzzle.Axis `json:"ordering"`

	fromVector *approx.HashMap[geom.Vector, puzzle.Axis]
}

// Len returns the number of axes.
func (a *AxisSystem) Len() int { return len(a.Vectors) }

// AxisFromVector returns the axis with vector v.
func (a *AxisSystem) AxisFromVector(v geom.Vector) (puzzle.Axis, bool) {
	unit, ok := v.Normalize()
	if !ok {
		return 0, false
	}
	return a.fromVector.Get(unit)
}

// Build freezes the axis system.
func (s *AxisSystemBuilder) Build() (*AxisSystem, error) {
	names, err := s.names.Names(s.Len())
	if err != nil {
		return nil, fmt.Errorf("missing axis names: %w", err)
	}
	vectors := puzzle.Map(&s.byID, func(_ puzzle.Axis, a AxisBuilder) geom.Vector { return a.vector })
	return &AxisSystem{
		Names:      names,
		Vectors:    vectors.Items(),
		Ordering:   append([]puzzle.Axis(nil), s.Ordering.IDs()...),
		fromVector: s.vectorToID.Clone(),
	}, nil
}
