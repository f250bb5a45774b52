package geom

import (
	"errors"
	"fmt"

	"github.com/chazu/hypercut/pkg/approx"
)

// ErrZeroNormal is returned when constructing a hyperplane from a zero vector.
var ErrZeroNormal = errors.New("hyperplane normal cannot be zero")

// Side classifies a point relative to a hyperplane.
type Side int

const (
	Inside  Side = iota // strictly below the hyperplane
	Outside             // strictly above the hyperplane
	Flush               // on the hyperplane, within epsilon
)

func (s Side) String() string {
	switch s {
	case Inside:
		return "inside"
	case Outside:
		return "outside"
	case Flush:
		return "flush"
	default:
		return "unknown"
	}
}

// Hyperplane is the set of points p with Normal·p = Distance. Normal is always
// unit length. Points with Normal·p < Distance are inside.
type Hyperplane struct {
	Normal   Vector  `json:"normal"`
	Distance float64 `json:"distance"`
}

// NewHyperplane returns the hyperplane with the given normal direction and
// signed distance from the origin. The normal is normalized.
func NewHyperplane(normal Vector, distance float64) (Hyperplane, error) {
	unit, ok := normal.Normalize()
	if !ok {
		return Hyperplane{}, ErrZeroNormal
	}
	return Hyperplane{Normal: unit, Distance: distance}, nil
}

// HyperplaneThrough returns the hyperplane with the given normal passing
// through point p.
func HyperplaneThrough(normal Vector, p Point) (Hyperplane, error) {
	unit, ok := normal.Normalize()
	if !ok {
		return Hyperplane{}, ErrZeroNormal
	}
	return Hyperplane{Normal: unit, Distance: unit.Dot(p)}, nil
}

// SignedDistance returns the distance from the hyperplane to p; negative
// values are inside.
func (h Hyperplane) SignedDistance(p Point) float64 {
	return h.Normal.Dot(p) - h.Distance
}

// WhichSide classifies p relative to the hyperplane.
func (h Hyperplane) WhichSide(p Point) Side {
	d := h.SignedDistance(p)
	switch {
	case approx.Zero(d):
		return Flush
	case d < 0:
		return Inside
	default:
		return Outside
	}
}

// Flip returns the same hyperplane with inside and outside swapped.
func (h Hyperplane) Flip() Hyperplane {
	return Hyperplane{Normal: h.Normal.Neg(), Distance: -h.Distance}
}

// ApproxEq reports whether two hyperplanes are approximately the same
// oriented hyperplane.
func (h Hyperplane) ApproxEq(o Hyperplane) bool {
	return approx.Eq(h.Distance, o.Distance) && h.Normal.ApproxEq(o.Normal)
}

// AppendFloats implements approx.Key.
func (h Hyperplane) AppendFloats(dst []float64) []float64 {
	start := len(dst)
	dst = h.Normal.AppendFloats(dst)
	// Separate the variable-length normal from the distance.
	return append(dst, float64(len(dst)-start), h.Distance)
}

func (h Hyperplane) String() string {
	return fmt.Sprintf("plane(n=%s, d=%g)", h.Normal, h.Distance)
}
