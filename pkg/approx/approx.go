// Package approx provides tolerance-aware float comparison and a hash map
// keyed by floating-point data. Floats are interned to small integer ids so
// that values within Epsilon of each other hash identically.
package approx

import "math"

// Epsilon is the absolute tolerance used for all geometric comparisons.
const Epsilon = 1e-6

// Eq reports whether a and b are within Epsilon of each other.
func Eq(a, b float64) bool {
	return math.Abs(a-b) <= Epsilon
}

// Zero reports whether x is within Epsilon of zero.
func Zero(x float64) bool {
	return math.Abs(x) <= Epsilon
}

// SlicesEq reports whether two float slices are elementwise approximately
// equal. Missing trailing entries are treated as zero.
func SlicesEq(a, b []float64) bool {
	n := max(len(a), len(b))
	for i := 0; i < n; i++ {
		if !Eq(at(a, i), at(b, i)) {
			return false
		}
	}
	return true
}

func at(s []float64, i int) float64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}
