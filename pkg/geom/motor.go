package geom

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/hypercut/pkg/approx"
	"gonum.org/v1/gonum/mat"
)

// ErrBadTransform is returned for matrices that are not orthogonal isometries.
var ErrBadTransform = errors.New("bad transform")

// Motor is an isometry of N-dimensional space that fixes the origin, stored
// as an orthogonal matrix. A motor with negative determinant is a reflection
// (orientation-reversing).
//
// The matrix form has no sign ambiguity, so a motor and its "180 degree
// equivalent" always share one representation.
type Motor struct {
	m *mat.Dense
}

// Ident returns the identity motor in n dimensions.
func Ident(n int) Motor {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return Motor{m: m}
}

// MotorFromRows builds a motor from row vectors. It returns ErrBadTransform
// if the matrix is not square and orthogonal.
func MotorFromRows(rows [][]float64) (Motor, error) {
	n := len(rows)
	if n == 0 {
		return Motor{}, fmt.Errorf("%w: no rows", ErrBadTransform)
	}
	m := mat.NewDense(n, n, nil)
	for i, row := range rows {
		if len(row) != n {
			return Motor{}, fmt.Errorf("%w: row %d has %d entries, want %d", ErrBadTransform, i, len(row), n)
		}
		m.SetRow(i, row)
	}
	return Motor{m: m}.Canonicalize()
}

// Reflection returns the reflection through the hyperplane through the origin
// perpendicular to normal, in n dimensions.
func Reflection(n int, normal Vector) (Motor, error) {
	unit, ok := normal.Normalize()
	if !ok {
		return Motor{}, ErrZeroNormal
	}
	unit = unit.Pad(n)
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := -2 * unit[i] * unit[j]
			if i == j {
				v++
			}
			m.Set(i, j, v)
		}
	}
	return Motor{m: m}, nil
}

// RotationFromTo returns the rotation in the plane of from and to that takes
// the direction of from to the direction of to. It is the composition of two
// reflections.
func RotationFromTo(n int, from, to Vector) (Motor, error) {
	u, ok := from.Normalize()
	if !ok {
		return Motor{}, ErrZeroNormal
	}
	v, ok := to.Normalize()
	if !ok {
		return Motor{}, ErrZeroNormal
	}
	if u.Add(v).IsZero() {
		return Motor{}, fmt.Errorf("rotation between opposite vectors is ambiguous")
	}
	first, err := Reflection(n, u)
	if err != nil {
		return Motor{}, err
	}
	second, err := Reflection(n, u.Add(v))
	if err != nil {
		return Motor{}, err
	}
	return second.Mul(first), nil
}

// Rotation returns the rotation by angle (radians) in the plane spanned by u
// and v, turning u toward v.
func Rotation(n int, u, v Vector, angle float64) (Motor, error) {
	e1, ok := u.Normalize()
	if !ok {
		return Motor{}, ErrZeroNormal
	}
	e2, ok := v.Sub(e1.Scale(e1.Dot(v))).Normalize()
	if !ok {
		return Motor{}, fmt.Errorf("rotation plane vectors are parallel")
	}
	e1, e2 = e1.Pad(n), e2.Pad(n)
	s, c := math.Sincos(angle)
	m := Ident(n).m
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d := s*(e2[i]*e1[j]-e1[i]*e2[j]) + (c-1)*(e1[i]*e1[j]+e2[i]*e2[j])
			m.Set(i, j, m.At(i, j)+d)
		}
	}
	return Motor{m: m}, nil
}

// NDim returns the dimension of the space the motor acts on.
func (m Motor) NDim() int {
	if m.m == nil {
		return 0
	}
	r, _ := m.m.Dims()
	return r
}

// At returns the matrix entry at row i, column j.
func (m Motor) At(i, j int) float64 {
	return m.m.At(i, j)
}

// Mul returns the composition m∘o: o is applied first, then m.
func (m Motor) Mul(o Motor) Motor {
	a, b := m.resized(o)
	var out mat.Dense
	out.Mul(a.m, b.m)
	return Motor{m: &out}
}

// resized pads both motors with identity to a common dimension.
func (m Motor) resized(o Motor) (Motor, Motor) {
	n := max(m.NDim(), o.NDim())
	return m.Resize(n), o.Resize(n)
}

// Resize returns the motor acting on n dimensions, extended with identity on
// the new axes. Shrinking drops trailing axes.
func (m Motor) Resize(n int) Motor {
	if m.NDim() == n {
		return m
	}
	out := Ident(n)
	k := min(n, m.NDim())
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			out.m.Set(i, j, m.m.At(i, j))
		}
	}
	return out
}

// Reverse returns the inverse transform.
func (m Motor) Reverse() Motor {
	return Motor{m: mat.DenseCopyOf(m.m.T())}
}

// IsReflection reports whether the motor reverses orientation.
func (m Motor) IsReflection() bool {
	return mat.Det(m.m) < 0
}

// IsIdent reports whether the motor is approximately the identity.
func (m Motor) IsIdent() bool {
	return m.ApproxEq(Ident(m.NDim()))
}

// IsSelfReverse reports whether applying the motor twice gives the identity.
func (m Motor) IsSelfReverse() bool {
	return m.ApproxEq(m.Reverse())
}

// ApproxEq reports whether two motors are approximately the same transform.
func (m Motor) ApproxEq(o Motor) bool {
	a, b := m.resized(o)
	return mat.EqualApprox(a.m, b.m, approx.Epsilon)
}

// IsEquivalentTo reports whether two motors have the same effect on space.
func (m Motor) IsEquivalentTo(o Motor) bool {
	return m.ApproxEq(o)
}

// TransformVector applies the motor to a vector. Components beyond the
// motor's dimension are left unchanged.
func (m Motor) TransformVector(v Vector) Vector {
	n := m.NDim()
	in := v.Pad(max(n, len(v)))
	var out mat.VecDense
	out.MulVec(m.m, mat.NewVecDense(n, in[:n]))
	res := in.Clone()
	copy(res, out.RawVector().Data)
	return res
}

// TransformPoint applies the motor to a point.
func (m Motor) TransformPoint(p Point) Point {
	return m.TransformVector(p)
}

// TransformMotor conjugates o by m, giving the transform that acts on
// m-transformed space the way o acts on the original space.
func (m Motor) TransformMotor(o Motor) Motor {
	return m.Mul(o).Mul(m.Reverse())
}

// TransformHyperplane applies the motor to a hyperplane.
func (m Motor) TransformHyperplane(h Hyperplane) Hyperplane {
	return Hyperplane{Normal: m.TransformVector(h.Normal), Distance: h.Distance}
}

// Canonicalize checks that the matrix is orthogonal and snaps entries that
// are within epsilon of 0 or ±1, so that equivalent motors produced by
// different computations hash the same way.
func (m Motor) Canonicalize() (Motor, error) {
	if m.m == nil {
		return Motor{}, fmt.Errorf("%w: empty matrix", ErrBadTransform)
	}
	n := m.NDim()
	var prod mat.Dense
	prod.Mul(m.m, m.m.T())
	if !mat.EqualApprox(&prod, Ident(n).m, 1e-4) {
		return Motor{}, fmt.Errorf("%w: %dx%d matrix is not orthogonal", ErrBadTransform, n, n)
	}
	out := mat.DenseCopyOf(m.m)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x := out.At(i, j)
			switch {
			case approx.Zero(x):
				x = 0
			case approx.Eq(x, 1):
				x = 1
			case approx.Eq(x, -1):
				x = -1
			}
			out.Set(i, j, x)
		}
	}
	return Motor{m: out}, nil
}

// AppendFloats implements approx.Key.
func (m Motor) AppendFloats(dst []float64) []float64 {
	n := m.NDim()
	dst = append(dst, float64(n))
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			dst = append(dst, m.m.At(i, j))
		}
	}
	return dst
}

func (m Motor) String() string {
	return fmt.Sprintf("motor%v", mat.Formatted(m.m, mat.Squeeze()))
}
