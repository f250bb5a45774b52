package twists

import (
	"errors"
	"fmt"

	"github.com/chazu/hypercut/pkg/approx"
	"github.com/chazu/hypercut/pkg/geom"
	"github.com/chazu/hypercut/pkg/puzzle"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const puzzlePrefix = "puzzle:"

// DefaultMaxTwistRepeat bounds multiple generation for a single transform.
const DefaultMaxTwistRepeat = 50

// TwistSystemBuilder is the set of twists of a puzzle under construction.
type TwistSystemBuilder struct {
	ID   string
	Name string

	Axes *AxisSystemBuilder

	byID     puzzle.PerID[puzzle.Twist, TwistBuilder]
	names    *puzzle.NameBiMap[puzzle.Twist]
	dataToID *approx.HashMap[TwistKey, puzzle.Twist]
	// directions maps a direction name to the twist it selects on each axis.
	directions *orderedmap.OrderedMap[string, map[puzzle.Axis]puzzle.Twist]

	// MaxTwistRepeat bounds multiple generation.
	MaxTwistRepeat int

	modified bool
	shared   bool
}

// NewAdHocTwistSystem returns an empty twist system owned by one puzzle.
func NewAdHocTwistSystem(puzzleID string, ndim int) *TwistSystemBuilder {
	return newTwistSystem(puzzlePrefix+puzzleID, ndim, false)
}

// NewSharedTwistSystem returns an empty twist system that may be reused by
// several puzzles.
func NewSharedTwistSystem(id string, ndim int) *TwistSystemBuilder {
	return newTwistSystem(id, ndim, true)
}

func newTwistSystem(id string, ndim int, shared bool) *TwistSystemBuilder {
	return &TwistSystemBuilder{
		ID:             id,
		Axes:           NewAxisSystemBuilder(ndim),
		names:          puzzle.NewNameBiMap[puzzle.Twist](),
		dataToID:       approx.NewHashMap[TwistKey, puzzle.Twist](),
		directions:     orderedmap.New[string, map[puzzle.Axis]puzzle.Twist](),
		MaxTwistRepeat: DefaultMaxTwistRepeat,
		shared:         shared,
	}
}

// Len returns the number of twists.
func (s *TwistSystemBuilder) Len() int { return s.byID.Len() }

// Add adds a twist. A twist that is the identity or duplicates an existing
// twist is returned as a *BadTwist and nothing is added. A malformed
// transform is a hard error.
func (s *TwistSystemBuilder) Add(data TwistBuilder) (puzzle.Twist, *BadTwist, error) {
	s.modified = true

	data, err := data.canonicalize()
	if err != nil {
		return 0, nil, &BadTwist{Kind: BadTransform, Err: err}
	}
	data.Transform = data.Transform.Resize(s.Axes.NDim)
	if data.Transform.IsIdent() {
		return 0, &BadTwist{Kind: Identity}, nil
	}
	key := data.key()
	if id, ok := s.dataToID.Get(key); ok {
		name, ok := s.names.Get(id)
		if !ok {
			name = "?"
		}
		return 0, &BadTwist{Kind: Duplicate, ID: id, Name: name}, nil
	}

	id, err := s.byID.Push(data)
	if err != nil {
		return 0, nil, err
	}
	if _, _, err := s.dataToID.Insert(key, id); err != nil {
		return 0, nil, fmt.Errorf("indexing twist %s: %w", id, err)
	}
	return id, nil, nil
}

// AddNamed adds a twist and names it. A rejected twist is reported to warn
// and ok is false. A name that cannot be assigned is also a warning; the
// twist is kept and autonamed at build time.
func (s *TwistSystemBuilder) AddNamed(data TwistBuilder, name string, warn puzzle.WarnFunc) (id puzzle.Twist, ok bool, err error) {
	id, bad, err := s.Add(data)
	if err != nil {
		return 0, false, err
	}
	if bad != nil {
		warn(bad)
		return 0, false, nil
	}
	if name != "" {
		if err := s.names.Set(id, name); err != nil {
			warn(err)
		}
	}
	return id, true, nil
}

// Get returns a twist by id.
func (s *TwistSystemBuilder) Get(id puzzle.Twist) (TwistBuilder, error) {
	return s.byID.Get(id)
}

// TwistName returns the name of a twist, if it has one.
func (s *TwistSystemBuilder) TwistName(id puzzle.Twist) (string, bool) {
	return s.names.Get(id)
}

// TwistFromName returns the twist with the given name.
func (s *TwistSystemBuilder) TwistFromName(name string) (puzzle.Twist, bool) {
	return s.names.ID(name)
}

// DataToID looks up a twist by axis and transform. The transform is tried as
// given and then in canonical form.
func (s *TwistSystemBuilder) DataToID(axis puzzle.Axis, transform geom.Motor) (puzzle.Twist, bool) {
	if transform.NDim() != s.Axes.NDim {
		transform = transform.Resize(s.Axes.NDim)
	}
	if id, ok := s.dataToID.Get(TwistKey{Axis: axis, Transform: transform}); ok {
		return id, true
	}
	c, err := transform.Canonicalize()
	if err != nil {
		return 0, false
	}
	return s.dataToID.Get(TwistKey{Axis: axis, Transform: c})
}

// Inverse returns the twist on the same axis whose transform reverses id's.
func (s *TwistSystemBuilder) Inverse(id puzzle.Twist) (puzzle.Twist, bool, error) {
	t, err := s.byID.Get(id)
	if err != nil {
		return 0, false, err
	}
	rev := t.reverseKey()
	inv, ok := s.DataToID(rev.Axis, rev.Transform)
	return inv, ok, nil
}

// AddDirection records a named choice of twist per axis. A duplicate name
// is a warning and replaces nothing.
func (s *TwistSystemBuilder) AddDirection(name string, perAxis map[puzzle.Axis]puzzle.Twist, warn puzzle.WarnFunc) error {
	if name == "" {
		return puzzle.ErrEmptyName
	}
	if _, ok := s.directions.Get(name); ok {
		warn(fmt.Errorf("duplicate twist direction %q", name))
		return nil
	}
	for axis, twist := range perAxis {
		if int(axis) >= s.Axes.Len() {
			return fmt.Errorf("twist direction %q: %w: %s", name, puzzle.ErrIndexOutOfRange, axis)
		}
		if int(twist) >= s.Len() {
			return fmt.Errorf("twist direction %q: %w: %s", name, puzzle.ErrIndexOutOfRange, twist)
		}
	}
	s.modified = true
	cp := make(map[puzzle.Axis]puzzle.Twist, len(perAxis))
	for k, v := range perAxis {
		cp[k] = v
	}
	s.directions.Set(name, cp)
	return nil
}

// TwistInfo is one twist of a built twist system.
type TwistInfo struct {
	Axis               puzzle.Axis  `json:"axis"`
	QTM                int          `json:"qtm"`
	Reverse            puzzle.Twist `json:"reverse"`
	IncludeInScrambles bool         `json:"includeInScrambles"`
}

// Direction is a named choice of twist per axis.
type Direction struct {
	Name   string                       `json:"name"`
	Twists map[puzzle.Axis]puzzle.Twist `json:"twists"`
}

// TwistSystem is a built, immutable twist system.
type TwistSystem struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Axes       *AxisSystem  `json:"axes"`
	Names      []string     `json:"names"`
	Twists     []TwistInfo  `json:"twists"`
	Transforms []geom.Motor `json:"-"`
	Directions []Direction  `json:"directions"`

	fromTransform *approx.HashMap[TwistKey, puzzle.Twist]
}

// TwistFromTransform returns the twist with the given axis and transform.
func (s *TwistSystem) TwistFromTransform(axis puzzle.Axis, transform geom.Motor) (puzzle.Twist, bool) {
	c, err := transform.Canonicalize()
	if err != nil {
		return 0, false
	}
	return s.fromTransform.Get(TwistKey{Axis: axis, Transform: c})
}

// Build validates the twist system and freezes it. Unnamed twists are
// autonamed T0, T1, and so on. A twist with no reverse gets an autogenerated
// one.
func (s *TwistSystemBuilder) Build(warn puzzle.WarnFunc) (*TwistSystem, error) {
	if s.shared {
		if s.modified {
			warn(errors.New("shared twist system cannot be modified"))
		}
		if s.Name == "" {
			warn(errors.New("twist system has no name"))
		}
	} else {
		warn(errors.New("using ad-hoc twist system"))
	}
	name := s.Name
	if name == "" {
		name = s.ID
	}

	axes, err := s.Axes.Build()
	if err != nil {
		return nil, err
	}

	names := s.names.Clone()
	next := 0
	for i := 0; i < s.Len(); i++ {
		id := puzzle.Twist(i)
		if _, ok := names.Get(id); ok {
			continue
		}
		for {
			auto := fmt.Sprintf("T%d", next)
			next++
			if _, taken := names.ID(auto); !taken {
				if err := names.Set(id, auto); err != nil {
					return nil, err
				}
				break
			}
		}
	}

	out := &TwistSystem{
		ID:            s.ID,
		Name:          name,
		Axes:          axes,
		fromTransform: s.dataToID.Clone(),
	}
	var err2 error
	s.byID.Each(func(id puzzle.Twist, t TwistBuilder) {
		if err2 != nil {
			return
		}
		if int(t.Axis) >= axes.Len() {
			err2 = fmt.Errorf("twist %s: %w: axis %s", id, puzzle.ErrIndexOutOfRange, t.Axis)
			return
		}
		v := axes.Vectors[t.Axis]
		if !t.Transform.TransformVector(v).ApproxEq(v) {
			n, _ := names.Get(id)
			warn(fmt.Errorf("twist %q does not fix axis vector", n))
		}
		out.Twists = append(out.Twists, TwistInfo{
			Axis:               t.Axis,
			QTM:                t.QTM,
			IncludeInScrambles: t.IncludeInScrambles,
		})
		out.Transforms = append(out.Transforms, t.Transform)
	})
	if err2 != nil {
		return nil, err2
	}

	var missing []puzzle.Twist
	for i, t := range out.Twists {
		rev := TwistKey{Axis: t.Axis, Transform: out.Transforms[i].Reverse()}
		if r, ok := s.DataToID(rev.Axis, rev.Transform); ok {
			out.Twists[i].Reverse = r
		} else {
			missing = append(missing, puzzle.Twist(i))
		}
	}
	if len(missing) > 0 {
		n, _ := names.Get(missing[0])
		warn(fmt.Errorf("some twists (such as %q) have no reverse twist; one was autogenerated for it, but you should include one in the puzzle definition", n))
	}
	for _, id := range missing {
		newID := puzzle.Twist(len(out.Twists))
		t := &out.Twists[id]
		t.Reverse = newID
		transform := out.Transforms[id]
		out.Twists = append(out.Twists, TwistInfo{
			Axis:               t.Axis,
			QTM:                t.QTM,
			Reverse:            id,
			IncludeInScrambles: !transform.IsSelfReverse(),
		})
		out.Transforms = append(out.Transforms, transform.Reverse())
		n, _ := names.Get(id)
		if err := names.Set(newID, fmt.Sprintf("<reverse of %q>", n)); err != nil {
			return nil, err
		}
	}

	if out.Names, err = names.Names(len(out.Twists)); err != nil {
		return nil, fmt.Errorf("missing twist names: %w", err)
	}
	for p := s.directions.Oldest(); p != nil; p = p.Next() {
		out.Directions = append(out.Directions, Direction{Name: p.Key, Twists: p.Value})
	}
	return out, nil
}
