package twists

import (
	"fmt"

	"github.com/chazu/hypercut/pkg/geom"
	"github.com/chazu/hypercut/pkg/puzzle"
)

// TwistBuilder is a twist during construction.
type TwistBuilder struct {
	Axis      puzzle.Axis
	Transform geom.Motor
	// QTM is the twist's weight in the quarter-turn metric.
	QTM                int
	IncludeInScrambles bool
}

// canonicalize returns the twist with its transform in canonical form.
func (t TwistBuilder) canonicalize() (TwistBuilder, error) {
	c, err := t.Transform.Canonicalize()
	if err != nil {
		return t, err
	}
	t.Transform = c
	return t, nil
}

func (t TwistBuilder) key() TwistKey {
	return TwistKey{Axis: t.Axis, Transform: t.Transform}
}

func (t TwistBuilder) reverseKey() TwistKey {
	return TwistKey{Axis: t.Axis, Transform: t.Transform.Reverse()}
}

// TwistKey identifies a twist by its axis and transform, up to float
// tolerance.
type TwistKey struct {
	Axis      puzzle.Axis
	Transform geom.Motor
}

// AppendFloats implements approx.Key.
func (k TwistKey) AppendFloats(dst []float64) []float64 {
	return k.Transform.AppendFloats(append(dst, float64(k.Axis)))
}

// BadTwistKind says why a twist was rejected.
type BadTwistKind int

const (
	// Identity means the twist does nothing.
	Identity BadTwistKind = iota
	// Duplicate means an identical twist already exists.
	Duplicate
	// BadTransform means the transform is not a valid isometry.
	BadTransform
)

// BadTwist is a twist that was rejected without failing the build.
type BadTwist struct {
	Kind BadTwistKind
	// ID and Name identify the existing twist for Duplicate.
	ID   puzzle.Twist
	Name string
	// Err is the cause of a BadTransform.
	Err error
}

// Unwrap exposes the cause of a malformed transform, which wraps
// geom.ErrBadTransform.
func (b *BadTwist) Unwrap() error {
	if b.Kind != BadTransform {
		return nil
	}
	if b.Err != nil {
		return b.Err
	}
	return geom.ErrBadTransform
}

func (b *BadTwist) Error() string {
	switch b.Kind {
	case Identity:
		return "twist transform cannot be identity"
	case Duplicate:
		return fmt.Sprintf("identical twist already exists with ID %d and name %q", b.ID, b.Name)
	default:
		if b.Err != nil {
			return "bad twist transform: " + b.Err.Error()
		}
		return "bad twist transform"
	}
}
