// Package geom provides the N-dimensional math used by the puzzle kernel:
// vectors, hyperplanes, isometries ("motors") and running centroids.
//
// Vectors of different lengths interoperate; missing trailing components are
// treated as zero.
package geom

import (
	"fmt"
	"strings"

	"github.com/chazu/hypercut/pkg/approx"
	"gonum.org/v1/gonum/floats"
)

// Vector is an N-dimensional vector.
type Vector []float64

// Point is a position in N-dimensional space.
type Point = Vector

// Zero returns the zero vector with n components.
func Zero(n int) Vector {
	return make(Vector, n)
}

// Axis returns the unit vector along axis i in n dimensions.
func Axis(n, i int) Vector {
	v := Zero(max(n, i+1))
	v[i] = 1
	return v
}

// NDim returns the number of stored components.
func (v Vector) NDim() int { return len(v) }

// At returns component i, or zero if v has fewer components.
func (v Vector) At(i int) float64 {
	if i < len(v) {
		return v[i]
	}
	return 0
}

// Pad returns a copy of v with exactly n components.
func (v Vector) Pad(n int) Vector {
	out := make(Vector, n)
	copy(out, v)
	return out
}

// Clone returns a copy of v.
func (v Vector) Clone() Vector {
	return append(Vector(nil), v...)
}

func pair(a, b Vector) (Vector, Vector) {
	n := max(len(a), len(b))
	return a.Pad(n), b.Pad(n)
}

// Add returns a + b.
func (v Vector) Add(o Vector) Vector {
	a, b := pair(v, o)
	floats.Add(a, b)
	return a
}

// Sub returns a - b.
func (v Vector) Sub(o Vector) Vector {
	a, b := pair(v, o)
	floats.Sub(a, b)
	return a
}

// Scale returns s * v.
func (v Vector) Scale(s float64) Vector {
	out := v.Clone()
	floats.Scale(s, out)
	return out
}

// Neg returns -v.
func (v Vector) Neg() Vector {
	return v.Scale(-1)
}

// Dot returns the dot product of v and o.
func (v Vector) Dot(o Vector) float64 {
	a, b := pair(v, o)
	return floats.Dot(a, b)
}

// Norm returns the Euclidean length of v.
func (v Vector) Norm() float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Norm(v, 2)
}

// Normalize returns v scaled to unit length, or false if v is zero.
func (v Vector) Normalize() (Vector, bool) {
	n := v.Norm()
	if approx.Zero(n) {
		return nil, false
	}
	return v.Scale(1 / n), true
}

// ApproxEq reports whether v and o are approximately equal.
func (v Vector) ApproxEq(o Vector) bool {
	return approx.SlicesEq(v, o)
}

// IsZero reports whether every component is approximately zero.
func (v Vector) IsZero() bool {
	for _, x := range v {
		if !approx.Zero(x) {
			return false
		}
	}
	return true
}

// Lerp returns v + (o - v) * t.
func (v Vector) Lerp(o Vector, t float64) Vector {
	return v.Add(o.Sub(v).Scale(t))
}

// AppendFloats implements approx.Key. Trailing zeros are trimmed so that
// vectors that differ only in padding hash identically.
func (v Vector) AppendFloats(dst []float64) []float64 {
	n := len(v)
	for n > 0 && approx.Zero(v[n-1]) {
		n--
	}
	return append(dst, v[:n]...)
}

func (v Vector) String() string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%g", x)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
