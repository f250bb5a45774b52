package shape

import (
	"github.com/chazu/hypercut/pkg/geom"
	"github.com/chazu/hypercut/pkg/kernel"
	"github.com/chazu/hypercut/pkg/puzzle"
)

// PieceBuilder is one convex region during construction. A piece with a
// non-empty CutResult is defunct and is never active. A piece removed whole
// by a carve is inactive with an empty CutResult.
type PieceBuilder struct {
	Polytope kernel.PolytopeID
	// Stickers maps each colored facet of the piece to its color. Facets
	// without an entry are internal.
	Stickers  map[kernel.FacetID]puzzle.Color
	PieceType *puzzle.PieceType
	// CutResult holds the pieces this one was cut into.
	CutResult *puzzle.PieceSet

	interior geom.Point
}

func newPieceBuilder(polytope kernel.PolytopeID, stickers map[kernel.FacetID]puzzle.Color) *PieceBuilder {
	if stickers == nil {
		stickers = make(map[kernel.FacetID]puzzle.Color)
	}
	return &PieceBuilder{
		Polytope:  polytope,
		Stickers:  stickers,
		CutResult: puzzle.NewPieceSet(),
	}
}

// StickerColor returns the color of a facet of the piece.
func (p *PieceBuilder) StickerColor(f kernel.FacetID) puzzle.Color {
	if c, ok := p.Stickers[f]; ok {
		return c
	}
	return puzzle.Internal
}

// IsDefunct reports whether the piece has been cut.
func (p *PieceBuilder) IsDefunct() bool { return !p.CutResult.IsEmpty() }

// InteriorPoint returns the average of the piece's vertices. It is computed
// once and cached.
func (p *PieceBuilder) InteriorPoint(space kernel.Space) (geom.Point, error) {
	if p.interior != nil {
		return p.interior, nil
	}
	c, err := space.Centroid(p.Polytope)
	if err != nil {
		return nil, err
	}
	p.interior = c.Center()
	return p.interior, nil
}
