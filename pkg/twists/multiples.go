package twists

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/hypercut/pkg/geom"
	"github.com/chazu/hypercut/pkg/puzzle"
	"github.com/chazu/hypercut/pkg/symmetry"
)

// ErrTooManyRepeats is returned when a twist transform does not return to
// the identity within MaxTwistRepeat steps.
var ErrTooManyRepeats = errors.New("twist transform takes too long to repeat")

// TwistOptions controls how AddWithMultiples names and expands a twist.
// Unset strings take their defaults.
type TwistOptions struct {
	// Prefix defaults to the name of the twist's axis.
	Prefix string
	Name   string
	Suffix string
	// InvName defaults to Name.
	InvName string
	// InvSuffix defaults to Suffix when InvName is set and to "'" otherwise.
	// A nil pointer means unset.
	InvSuffix *string
	// NameFunc names the twist for a multiplier and replaces the other
	// naming options. An empty result leaves the twist unnamed.
	NameFunc func(multiplier int) (string, error)
	// NoNaming leaves every generated twist unnamed.
	NoNaming bool

	// Inverse and Multipliers default to true in 3D only.
	Inverse     *bool
	Multipliers *bool

	// QTM defaults to 1.
	QTM int
}

// twistNamer produces the name of the i-th multiple of a twist.
type twistNamer func(axisName string, multiplier int) (string, error)

func (o *TwistOptions) namer(warn puzzle.WarnFunc) (twistNamer, error) {
	if o.NoNaming {
		for _, f := range []struct {
			name string
			set  bool
		}{
			{"prefix", o.Prefix != ""},
			{"name", o.Name != ""},
			{"suffix", o.Suffix != ""},
			{"inv_name", o.InvName != ""},
			{"inv_suffix", o.InvSuffix != nil},
			{"name_fn", o.NameFunc != nil},
		} {
			if f.set {
				warn(fmt.Errorf("`%s` and `do_naming=false` are mutually exclusive", f.name))
			}
		}
	}
	if o.NameFunc != nil && (o.Name != "" || o.InvName != "") {
		return nil, errors.New("when `name_fn` is specified, `name` and `inv_name` must not be specified")
	}

	switch {
	case o.NameFunc != nil:
		fn := o.NameFunc
		return func(_ string, i int) (string, error) { return fn(i) }, nil
	case o.NoNaming:
		return func(string, int) (string, error) { return "", nil }, nil
	}

	name, suffix := o.Name, o.Suffix
	invName := o.InvName
	invSuffix := "'"
	if invName != "" {
		invSuffix = suffix
	} else {
		invName = name
	}
	if o.InvSuffix != nil {
		invSuffix = *o.InvSuffix
	}
	return func(axisName string, i int) (string, error) {
		prefix := o.Prefix
		if prefix == "" {
			prefix = axisName
		}
		switch {
		case i == 1:
			return prefix + name + suffix, nil
		case i == -1:
			return prefix + invName + invSuffix, nil
		case i >= 2:
			return prefix + name + strconv.Itoa(i) + suffix, nil
		case i <= -2:
			return prefix + invName + strconv.Itoa(-i) + invSuffix, nil
		default:
			return "", errors.New("bad twist multiplier")
		}
	}, nil
}

// AddWithMultiples adds a twist, its inverse and its multiples, expanded
// over the orbit of sym. sym may be nil. It returns the first twist added,
// or ok false if that twist was rejected.
func (s *TwistSystemBuilder) AddWithMultiples(sym *symmetry.Group, axis puzzle.Axis, transform geom.Motor, opts TwistOptions, warn puzzle.WarnFunc) (first puzzle.Twist, ok bool, err error) {
	ndim := s.Axes.NDim
	inverse := ndim == 3
	if opts.Inverse != nil {
		inverse = *opts.Inverse
	}
	multipliers := ndim == 3
	if opts.Multipliers != nil {
		multipliers = *opts.Multipliers
	}
	qtm := opts.QTM
	if qtm == 0 {
		qtm = 1
	}
	if qtm < 1 {
		warn(errors.New("twist has QTM value less than 1"))
	}
	namer, err := opts.namer(warn)
	if err != nil {
		return 0, false, err
	}

	base, err := transform.Canonicalize()
	if err != nil {
		return 0, false, err
	}
	base = base.Resize(ndim)

	add := func(t geom.Motor, q, mult int, scrambles bool) (puzzle.Twist, bool, error) {
		tb := TwistBuilder{Axis: axis, Transform: t, QTM: q, IncludeInScrambles: scrambles}
		return s.AddSymmetric(sym, tb, func(a puzzle.Axis) (string, error) {
			return namer(s.Axes.Name(a), mult)
		}, warn)
	}

	if first, ok, err = add(base, qtm, 1, true); err != nil {
		return 0, false, err
	}
	if inverse {
		if _, _, err := add(base.Reverse(), qtm, -1, !base.IsSelfReverse()); err != nil {
			return 0, false, err
		}
	}
	if !multipliers {
		return first, ok, nil
	}

	prev := base
	for i := 2; ; i++ {
		if i > s.MaxTwistRepeat {
			return 0, false, fmt.Errorf("%w! exceeded maximum of %d", ErrTooManyRepeats, s.MaxTwistRepeat)
		}
		t := prev.Mul(base)
		if inverse {
			if prev.IsSelfReverse() || t.IsEquivalentTo(prev.Reverse()) {
				break
			}
		} else if t.IsIdent() {
			break
		}
		prev = t

		if _, _, err := add(prev, qtm*i, i, true); err != nil {
			return 0, false, err
		}
		if inverse {
			if _, _, err := add(prev.Reverse(), qtm*i, -i, !prev.IsSelfReverse()); err != nil {
				return 0, false, err
			}
		}
	}
	return first, ok, nil
}

// AddSymmetric adds data and every image of it under sym, naming each by its
// axis. An image whose axis vector has no axis is skipped with a warning. It
// returns the twist added for data itself.
func (s *TwistSystemBuilder) AddSymmetric(sym *symmetry.Group, data TwistBuilder, name func(puzzle.Axis) (string, error), warn puzzle.WarnFunc) (puzzle.Twist, bool, error) {
	if sym == nil {
		n, err := name(data.Axis)
		if err != nil {
			return 0, false, err
		}
		return s.addNamedChecked(data, n, warn)
	}

	ax, err := s.Axes.Get(data.Axis)
	if err != nil {
		return 0, false, err
	}
	orbit, err := symmetry.Orbit(sym.Generators, geometricTwistKey{
		axisVector: ax.Vector(),
		transform:  data.Transform,
	}, func(m geom.Motor, k geometricTwistKey) geometricTwistKey {
		return k.transformBy(m)
	}, 0)
	if err != nil {
		return 0, false, err
	}

	var (
		first   puzzle.Twist
		firstOK bool
	)
	for i, e := range orbit {
		a, err := s.Axes.AxisFromVector(e.Value.axisVector)
		if err != nil {
			warn(err)
			continue
		}
		n, err := name(a)
		if err != nil {
			return 0, false, err
		}
		d := data
		d.Axis = a
		d.Transform = e.Value.transform
		id, ok, err := s.addNamedChecked(d, n, warn)
		if err != nil {
			return 0, false, err
		}
		if i == 0 {
			first, firstOK = id, ok
		}
	}
	return first, firstOK, nil
}

// addNamedChecked is AddNamed with a warning for names containing the
// orbit separator.
func (s *TwistSystemBuilder) addNamedChecked(data TwistBuilder, name string, warn puzzle.WarnFunc) (puzzle.Twist, bool, error) {
	if strings.Contains(name, "|") {
		warn(fmt.Errorf("twist name %q contains '|'; this is probably a mistake", name))
	}
	return s.AddNamed(data, name, warn)
}

// geometricTwistKey is a twist by axis vector rather than axis id, so that it
// can be moved by a symmetry.
type geometricTwistKey struct {
	axisVector geom.Vector
	transform  geom.Motor
}

// AppendFloats implements approx.Key.
func (k geometricTwistKey) AppendFloats(dst []float64) []float64 {
	return k.transform.AppendFloats(k.axisVector.AppendFloats(dst))
}

// transformBy moves the twist by m. A reflection reverses the direction of
// the twist.
func (k geometricTwistKey) transformBy(m geom.Motor) geometricTwistKey {
	t := m.TransformMotor(k.transform)
	if m.IsReflection() {
		t = t.Reverse()
	}
	if c, err := t.Canonicalize(); err == nil {
		t = c
	}
	return geometricTwistKey{axisVector: m.TransformVector(k.axisVector), transform: t}
}
