package puzzle

import (
	"github.com/bits-and-blooms/bitset"
)

// PieceSet is a set of piece ids. Iteration is in ascending id order.
// The zero value is an empty set.
type PieceSet struct {
	bits bitset.BitSet
}

// NewPieceSet returns a set containing the given pieces.
func NewPieceSet(pieces ...Piece) *PieceSet {
	s := &PieceSet{}
	for _, p := range pieces {
		s.Insert(p)
	}
	return s
}

// Insert adds p to the set.
func (s *PieceSet) Insert(p Piece) { s.bits.Set(uint(p)) }

// Remove deletes p from the set.
func (s *PieceSet) Remove(p Piece) { s.bits.Clear(uint(p)) }

// Contains reports whether p is in the set.
func (s *PieceSet) Contains(p Piece) bool { return s.bits.Test(uint(p)) }

// Len returns the number of pieces in the set.
func (s *PieceSet) Len() int { return int(s.bits.Count()) }

// IsEmpty reports whether the set has no pieces.
func (s *PieceSet) IsEmpty() bool { return s.bits.None() }

// Pieces returns the members in ascending order.
func (s *PieceSet) Pieces() []Piece {
	out := make([]Piece, 0, s.Len())
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		out = append(out, Piece(i))
	}
	return out
}

// Clone returns an independent copy of the set.
func (s *PieceSet) Clone() *PieceSet {
	out := &PieceSet{}
	s.bits.CopyFull(&out.bits)
	return out
}

// Equal reports whether both sets have the same members.
func (s *PieceSet) Equal(o *PieceSet) bool {
	return s.bits.Count() == o.bits.Count() && s.bits.IntersectionCardinality(&o.bits) == s.bits.Count()
}

// PieceMask is a fixed-length bitset over the pieces of a built puzzle.
type PieceMask struct {
	bits *bitset.BitSet
	n    int
}

// NewPieceMask returns an empty mask over n pieces.
func NewPieceMask(n int) PieceMask {
	return PieceMask{bits: bitset.New(uint(n)), n: n}
}

// PieceMaskOf returns a mask over n pieces with the given pieces set.
func PieceMaskOf(n int, pieces ...Piece) PieceMask {
	m := NewPieceMask(n)
	for _, p := range pieces {
		m.Set(p)
	}
	return m
}

// Len returns the number of pieces the mask covers.
func (m PieceMask) Len() int { return m.n }

// Set marks p. Pieces beyond the mask length are ignored.
func (m PieceMask) Set(p Piece) {
	if int(p) < m.n {
		m.bits.Set(uint(p))
	}
}

// Contains reports whether p is marked.
func (m PieceMask) Contains(p Piece) bool { return m.bits.Test(uint(p)) }

// Count returns the number of marked pieces.
func (m PieceMask) Count() int { return int(m.bits.Count()) }

// Or marks every piece marked in o.
func (m PieceMask) Or(o PieceMask) { m.bits.InPlaceUnion(o.bits) }

// IsSuperset reports whether every piece marked in o is marked in m.
func (m PieceMask) IsSuperset(o PieceMask) bool { return m.bits.IsSuperSet(o.bits) }

// Clone returns an independent copy of the mask.
func (m PieceMask) Clone() PieceMask { return PieceMask{bits: m.bits.Clone(), n: m.n} }

// Pieces returns the marked pieces in ascending order.
func (m PieceMask) Pieces() []Piece {
	out := make([]Piece, 0, m.Count())
	for i, ok := m.bits.NextSet(0); ok; i, ok = m.bits.NextSet(i + 1) {
		out = append(out, Piece(i))
	}
	return out
}

func (m PieceMask) String() string { return m.bits.String() }
