// Package shape builds the pieces and stickers of a puzzle by cutting a
// primordial cube with hyperplanes, tags the pieces with types and assembles
// the renderable mesh.
package shape

import (
	"errors"
	"fmt"

	"github.com/chazu/hypercut/pkg/geom"
	"github.com/chazu/hypercut/pkg/kernel"
	"github.com/chazu/hypercut/pkg/puzzle"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrFlushCut is returned when a cut lies exactly on a targeted piece.
var ErrFlushCut = errors.New("piece is flush with cut")

// DefaultPrimordialCubeRadius is large enough to contain any puzzle.
const DefaultPrimordialCubeRadius = 1000.0

// ShapeBuilder is the soup of pieces being constructed. It is not safe for
// concurrent use; see builder.Puzzle.
type ShapeBuilder struct {
	space kernel.Space

	pieces puzzle.PerID[puzzle.Piece, *PieceBuilder]
	// active holds the pieces that are neither cut nor removed.
	active *puzzle.PieceSet

	// RemoveInternals drops new pieces that have no stickers and do not
	// touch the primordial cube.
	RemoveInternals bool

	pieceTypes       puzzle.PerID[puzzle.PieceType, PieceTypeBuilder]
	pieceTypesByName map[string]puzzle.PieceType
	// pieceTypeDisplays maps piece type names and categories to display
	// names, in the order they were given.
	pieceTypeDisplays *orderedmap.OrderedMap[string, string]
	overwritten       []overwrittenPieceType

	Colors *ColorSystemBuilder
}

type overwrittenPieceType struct {
	piece puzzle.Piece
	old   puzzle.PieceType
}

// NewEmpty returns a shape builder with no pieces.
func NewEmpty(puzzleID string, space kernel.Space) *ShapeBuilder {
	return &ShapeBuilder{
		space:             space,
		active:            puzzle.NewPieceSet(),
		RemoveInternals:   true,
		pieceTypesByName:  make(map[string]puzzle.PieceType),
		pieceTypeDisplays: orderedmap.New[string, string](),
		Colors:            NewAdHocColorSystem(puzzleID),
	}
}

// NewWithPrimordialCube returns a shape builder with a single active piece:
// the primordial cube of the given radius.
func NewWithPrimordialCube(puzzleID string, space kernel.Space, radius float64) (*ShapeBuilder, error) {
	b := NewEmpty(puzzleID, space)
	cube, err := space.AddPrimordialCube(radius)
	if err != nil {
		return nil, fmt.Errorf("adding primordial cube: %w", err)
	}
	root, err := b.pieces.Push(newPieceBuilder(cube, nil))
	if err != nil {
		return nil, err
	}
	b.active.Insert(root)
	return b, nil
}

// NDim returns the dimension of the underlying space.
func (b *ShapeBuilder) NDim() int { return b.space.NDim() }

// Space returns the underlying space.
func (b *ShapeBuilder) Space() kernel.Space { return b.space }

// Piece returns a piece by id, defunct or not.
func (b *ShapeBuilder) Piece(id puzzle.Piece) (*PieceBuilder, error) {
	return b.pieces.Get(id)
}

// PieceCount returns the number of pieces ever created.
func (b *ShapeBuilder) PieceCount() int { return b.pieces.Len() }

// ActivePieces returns a copy of the active piece set.
func (b *ShapeBuilder) ActivePieces() *puzzle.PieceSet { return b.active.Clone() }

// Carve cuts each piece by plane and discards the parts outside it. A nil
// piece set means all active pieces. New facets get insideColor, if given.
func (b *ShapeBuilder) Carve(pieces *puzzle.PieceSet, plane geom.Hyperplane, insideColor *puzzle.Color) error {
	return b.cutAndDeactivatePieces(b.space.NewCut(plane), true, pieces, insideColor, nil)
}

// Slice cuts each piece by plane and keeps both parts. A nil piece set means
// all active pieces.
func (b *ShapeBuilder) Slice(pieces *puzzle.PieceSet, plane geom.Hyperplane, insideColor, outsideColor *puzzle.Color) error {
	return b.cutAndDeactivatePieces(b.space.NewCut(plane), false, pieces, insideColor, outsideColor)
}

// pieceCut is the planned outcome of cutting one piece.
type pieceCut struct {
	old             puzzle.Piece
	inside, outside kernel.PolytopeID
	insideStickers  map[kernel.FacetID]puzzle.Color
	outsideStickers map[kernel.FacetID]puzzle.Color
}

// cutAndDeactivatePieces plans every cut first and only then modifies the
// builder, so a flush cut on any piece leaves all pieces untouched.
func (b *ShapeBuilder) cutAndDeactivatePieces(cut kernel.Cut, carve bool, pieces *puzzle.PieceSet, insideColor, outsideColor *puzzle.Color) error {
	var targets *puzzle.PieceSet
	if pieces == nil {
		targets = b.active.Clone()
	} else {
		targets = b.UpdatePieceSet(pieces)
	}

	var plans []pieceCut
	for _, old := range targets.Pieces() {
		piece, err := b.pieces.Get(old)
		if err != nil {
			return err
		}
		plan, changed, err := planCut(cut, piece, carve, insideColor, outsideColor)
		if err != nil {
			return fmt.Errorf("cutting %s: %w", old, err)
		}
		if changed {
			plan.old = old
			plans = append(plans, plan)
		}
	}

	for _, plan := range plans {
		inside, err := b.addOptPiece(plan.inside, plan.insideStickers)
		if err != nil {
			return err
		}
		outside, err := b.addOptPiece(plan.outside, plan.outsideStickers)
		if err != nil {
			return err
		}
		old, err := b.pieces.Get(plan.old)
		if err != nil {
			return err
		}
		b.active.Remove(plan.old)
		for _, p := range []*puzzle.Piece{inside, outside} {
			if p != nil {
				b.active.Insert(*p)
				old.CutResult.Insert(*p)
			}
		}
	}
	return nil
}

func planCut(cut kernel.Cut, piece *PieceBuilder, carve bool, insideColor, outsideColor *puzzle.Color) (pieceCut, bool, error) {
	plan := pieceCut{
		insideStickers:  make(map[kernel.FacetID]puzzle.Color),
		outsideStickers: make(map[kernel.FacetID]puzzle.Color),
	}

	out, err := cut.Cut(piece.Polytope)
	if err != nil {
		return plan, false, err
	}
	if out.Flush {
		return plan, false, ErrFlushCut
	}
	if carve {
		// A piece entirely outside the plane is removed with no children.
		out.Outside = kernel.None
	}
	if out.IsUnchangedFrom(piece.Polytope) {
		return plan, false, nil
	}
	plan.inside, plan.outside = out.Inside, out.Outside
	if out.Intersection.Valid() {
		if insideColor != nil {
			plan.insideStickers[out.Intersection] = *insideColor
		}
		if outsideColor != nil {
			plan.outsideStickers[out.Intersection] = *outsideColor
		}
	}

	for facet, color := range piece.Stickers {
		so, err := cut.Cut(facet)
		if err != nil {
			return plan, false, fmt.Errorf("cutting sticker: %w", err)
		}
		if so.Flush {
			plan.insideStickers[facet] = colorOr(insideColor, color)
			plan.outsideStickers[facet] = colorOr(outsideColor, color)
			continue
		}
		if so.Inside.Valid() {
			plan.insideStickers[so.Inside] = color
		}
		if so.Outside.Valid() {
			plan.outsideStickers[so.Outside] = color
		}
	}
	return plan, true, nil
}

func colorOr(c *puzzle.Color, fallback puzzle.Color) puzzle.Color {
	if c != nil {
		return *c
	}
	return fallback
}

func (b *ShapeBuilder) addOptPiece(polytope kernel.PolytopeID, stickers map[kernel.FacetID]puzzle.Color) (*puzzle.Piece, error) {
	if !polytope.Valid() {
		return nil, nil
	}
	if b.RemoveInternals && len(stickers) == 0 {
		primordial, err := b.space.HasPrimordialFacet(polytope)
		if err != nil {
			return nil, err
		}
		if !primordial {
			return nil, nil
		}
	}
	id, err := b.pieces.Push(newPieceBuilder(polytope, stickers))
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// UpdatePieceSet resolves a piece set taken at any earlier point to the
// currently active pieces, replacing each defunct piece with its cut result.
// Removed pieces are dropped.
func (b *ShapeBuilder) UpdatePieceSet(set *puzzle.PieceSet) *puzzle.PieceSet {
	out := puzzle.NewPieceSet()
	queue := set.Pieces()
	for len(queue) > 0 {
		p := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if b.active.Contains(p) {
			out.Insert(p)
			continue
		}
		if piece, err := b.pieces.Get(p); err == nil {
			queue = append(queue, piece.CutResult.Pieces()...)
		}
	}
	return out
}

// PieceTypes returns the piece types registered so far.
func (b *ShapeBuilder) PieceTypes() []PieceTypeBuilder { return b.pieceTypes.Items() }

// PieceTypeFromName returns the piece type with the given name.
func (b *ShapeBuilder) PieceTypeFromName(name string) (puzzle.PieceType, bool) {
	id, ok := b.pieceTypesByName[name]
	return id, ok
}

// GetOrAddPieceType returns the piece type with the given name, creating it
// if needed. A display name may be given once per name; a different display
// name for the same type is an error.
func (b *ShapeBuilder) GetOrAddPieceType(name string, display string) (puzzle.PieceType, error) {
	if err := validatePieceTypeName(name); err != nil {
		return 0, err
	}
	if display != "" {
		if old, ok := b.pieceTypeDisplays.Get(name); ok && old != display {
			return 0, fmt.Errorf("conflicting display names for piece type %q: %q and %q", name, old, display)
		}
		b.pieceTypeDisplays.Set(name, display)
	}
	if id, ok := b.pieceTypesByName[name]; ok {
		return id, nil
	}
	id, err := b.pieceTypes.Push(PieceTypeBuilder{Name: name})
	if err != nil {
		return 0, err
	}
	b.pieceTypesByName[name] = id
	return id, nil
}

// SetPieceTypeDisplay sets the display name of a piece type category such as
// "edge" in "edge/left".
func (b *ShapeBuilder) SetPieceTypeDisplay(path, display string) error {
	if err := validatePieceTypeName(path); err != nil {
		return err
	}
	b.pieceTypeDisplays.Set(path, display)
	return nil
}

// ActivePiecesInRegion returns the active pieces whose interior point
// satisfies hasPoint.
func (b *ShapeBuilder) ActivePiecesInRegion(hasPoint func(geom.Point) bool) ([]puzzle.Piece, error) {
	var out []puzzle.Piece
	for _, id := range b.active.Pieces() {
		piece, err := b.pieces.Get(id)
		if err != nil {
			return nil, err
		}
		p, err := piece.InteriorPoint(b.space)
		if err != nil {
			return nil, err
		}
		if hasPoint(p) {
			out = append(out, id)
		}
	}
	return out, nil
}

// MarkPieceByRegion assigns a piece type to every active piece whose
// interior point satisfies hasPoint. A bad name or a match count other than
// one is a warning.
func (b *ShapeBuilder) MarkPieceByRegion(name, display string, hasPoint func(geom.Point) bool, warn puzzle.WarnFunc) error {
	pieceType, err := b.GetOrAddPieceType(name, display)
	if err != nil {
		warn(err)
		return nil
	}
	matches, err := b.ActivePiecesInRegion(hasPoint)
	if err != nil {
		return err
	}
	for _, p := range matches {
		if err := b.MarkPiece(p, pieceType); err != nil {
			return err
		}
	}
	if len(matches) != 1 {
		warn(fmt.Errorf("%d pieces were marked with type %s", len(matches), name))
	}
	return nil
}

// MarkPiece sets the type of a piece, remembering any type it replaces.
func (b *ShapeBuilder) MarkPiece(id puzzle.Piece, pieceType puzzle.PieceType) error {
	piece, err := b.pieces.Get(id)
	if err != nil {
		return err
	}
	if piece.PieceType != nil {
		b.overwritten = append(b.overwritten, overwrittenPieceType{piece: id, old: *piece.PieceType})
	}
	t := pieceType
	piece.PieceType = &t
	return nil
}

// MarkUntypedPieces gives the default type to every active piece without
// one.
func (b *ShapeBuilder) MarkUntypedPieces() error {
	untyped := b.untypedPieces()
	if len(untyped) == 0 {
		return nil
	}
	if _, ok := b.pieceTypeDisplays.Get(defaultPieceTypeName); !ok {
		b.pieceTypeDisplays.Set(defaultPieceTypeName, defaultPieceTypeDisplay)
	}
	def, err := b.GetOrAddPieceType(defaultPieceTypeName, "")
	if err != nil {
		return err
	}
	for _, p := range untyped {
		if err := b.MarkPiece(p, def); err != nil {
			return err
		}
	}
	return nil
}

// DeleteUntypedPieces removes every active piece without a type.
func (b *ShapeBuilder) DeleteUntypedPieces(warn puzzle.WarnFunc) {
	untyped := b.untypedPieces()
	if len(untyped) == 0 {
		warn(errors.New("no untyped pieces"))
	}
	for _, p := range untyped {
		b.active.Remove(p)
	}
}

func (b *ShapeBuilder) untypedPieces() []puzzle.Piece {
	var out []puzzle.Piece
	for _, id := range b.active.Pieces() {
		if piece, err := b.pieces.Get(id); err == nil && piece.PieceType == nil {
			out = append(out, id)
		}
	}
	return out
}
