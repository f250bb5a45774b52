// Package puzzle holds the id types, arenas and small collections shared by
// the shape and twist builders. Every relationship between pieces, stickers,
// axes and twists is an integer id into a flat per-kind collection.
package puzzle

import (
	"fmt"
	"math"
)

// Piece identifies a piece, in construction order.
type Piece uint32

// Sticker identifies a sticker in a built shape.
type Sticker uint32

// Color identifies a sticker color.
type Color uint32

// Internal is the color of facets that have no sticker. It sorts after every
// real color.
const Internal Color = math.MaxUint32

// IsInternal reports whether c is the internal sentinel.
func (c Color) IsInternal() bool { return c == Internal }

func (c Color) String() string {
	if c.IsInternal() {
		return "internal"
	}
	return fmt.Sprintf("color#%d", uint32(c))
}

// PieceType identifies a piece type.
type PieceType uint32

// Axis identifies a twist axis.
type Axis uint32

// Twist identifies a twist.
type Twist uint32

// Surface identifies a surface: a hyperplane shared by stickers of any piece.
type Surface uint32

func (p Piece) String() string     { return fmt.Sprintf("piece#%d", uint32(p)) }
func (s Sticker) String() string   { return fmt.Sprintf("sticker#%d", uint32(s)) }
func (t PieceType) String() string { return fmt.Sprintf("piecetype#%d", uint32(t)) }
func (a Axis) String() string      { return fmt.Sprintf("axis#%d", uint32(a)) }
func (t Twist) String() string     { return fmt.Sprintf("twist#%d", uint32(t)) }
func (s Surface) String() string   { return fmt.Sprintf("surface#%d", uint32(s)) }
