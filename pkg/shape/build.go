package shape

import (
	"errors"
	"fmt"
	"sort"

	"github.com/chazu/hypercut/pkg/approx"
	"github.com/chazu/hypercut/pkg/geom"
	"github.com/chazu/hypercut/pkg/kernel"
	"github.com/chazu/hypercut/pkg/puzzle"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
)

// PieceInfo is one piece of a built shape.
type PieceInfo struct {
	Stickers  []puzzle.Sticker `json:"stickers"`
	PieceType puzzle.PieceType `json:"pieceType"`
}

// StickerInfo is one sticker of a built shape.
type StickerInfo struct {
	Piece puzzle.Piece `json:"piece"`
	Color puzzle.Color `json:"color"`
}

// BuildOutput is the immutable result of ShapeBuilder.Build.
type BuildOutput struct {
	Mesh *kernel.Mesh

	Pieces   *puzzle.PerID[puzzle.Piece, PieceInfo]
	Stickers *puzzle.PerID[puzzle.Sticker, StickerInfo]
	// StickerPlanes holds the plane of each sticker, with its piece inside.
	StickerPlanes []geom.Hyperplane

	PieceTypes         *puzzle.PerID[puzzle.PieceType, PieceTypeInfo]
	PieceTypeHierarchy *PieceTypeHierarchy
	PieceTypeMasks     map[string]puzzle.PieceMask

	Colors *ColorSystem
}

type stickerData struct {
	facet kernel.FacetID
	plane geom.Hyperplane
	color puzzle.Color
}

type surfaceData struct {
	centroid geom.Centroid
	normal   geom.Vector
}

// Build assembles the mesh and piece tables from the active pieces.
func (b *ShapeBuilder) Build(warn puzzle.WarnFunc) (*BuildOutput, error) {
	ndim := b.space.NDim()
	colors, err := b.Colors.Build(warn)
	if err != nil {
		return nil, fmt.Errorf("building color system: %w", err)
	}

	mesh := kernel.NewMesh(ndim)
	mesh.ColorCount = len(colors.Colors)
	out := &BuildOutput{
		Mesh:       mesh,
		Pieces:     &puzzle.PerID[puzzle.Piece, PieceInfo]{},
		Stickers:   &puzzle.PerID[puzzle.Sticker, StickerInfo]{},
		PieceTypes: &puzzle.PerID[puzzle.PieceType, PieceTypeInfo]{},
		Colors:     colors,
	}

	if len(b.overwritten) > 0 {
		warn(fmt.Errorf("%d piece types overwritten", len(b.overwritten)))
	}

	active := b.active.Pieces()
	typeIDs, err := b.renumberPieceTypes(active, out.PieceTypes)
	if err != nil {
		return nil, err
	}

	surfaceIDs := approx.NewHashMap[geom.Hyperplane, puzzle.Surface]()
	var surfaces []surfaceData

	for _, oldID := range active {
		piece, err := b.pieces.Get(oldID)
		if err != nil {
			return nil, err
		}
		if piece.PieceType == nil {
			warn(fmt.Errorf("piece %s has no piece type", oldID))
			continue
		}
		c, err := b.space.Centroid(piece.Polytope)
		if err != nil {
			return nil, err
		}
		centroid := c.Center()

		stickers, err := b.pieceStickers(piece, centroid)
		if err != nil {
			return nil, err
		}
		colored := lo.FilterMap(stickers, func(s stickerData, _ int) (kernel.FacetID, bool) {
			return s.facet, !s.color.IsInternal()
		})
		shrink, err := stickerShrinkVectors(b.space, piece.Polytope, colored, centroid)
		if err != nil {
			return nil, fmt.Errorf("computing sticker shrink vectors: %w", err)
		}

		pieceID, err := out.Pieces.Push(PieceInfo{PieceType: typeIDs[*piece.PieceType]})
		if err != nil {
			return nil, err
		}
		info, _ := out.Pieces.Ptr(pieceID)

		var internalsStart *kernel.RangeTriple
		for _, s := range stickers {
			if !s.color.IsInternal() {
				stickerID, err := out.Stickers.Push(StickerInfo{Piece: pieceID, Color: s.color})
				if err != nil {
					return nil, err
				}
				info.Stickers = append(info.Stickers, stickerID)
				out.StickerPlanes = append(out.StickerPlanes, s.plane)
			}

			surfaceID, _, err := surfaceIDs.GetOrInsert(s.plane, func() (puzzle.Surface, error) {
				surfaces = append(surfaces, surfaceData{normal: s.plane.Normal})
				return puzzle.Surface(len(surfaces) - 1), nil
			})
			if err != nil {
				return nil, err
			}
			fc, err := b.space.Centroid(s.facet)
			if err != nil {
				return nil, err
			}
			surfaces[surfaceID].centroid.Add(fc)

			if s.color.IsInternal() && internalsStart == nil {
				start := meshCursor(mesh)
				internalsStart = &start
			}
			ranges, err := buildShapePolygons(b.space, mesh, shrink, s.facet, centroid, pieceID, surfaceID)
			if err != nil {
				return nil, err
			}
			if !s.color.IsInternal() {
				mesh.AddSticker(ranges)
			}
		}

		end := meshCursor(mesh)
		internals := end
		if internalsStart != nil {
			internals = *internalsStart
		}
		mesh.AddPiece(centroid, kernel.RangeTriple{
			Polygons:  kernel.Range{Start: internals.Polygons.Start, End: end.Polygons.Start},
			Triangles: kernel.Range{Start: internals.Triangles.Start, End: end.Triangles.Start},
			Edges:     kernel.Range{Start: internals.Edges.Start, End: end.Edges.Start},
		})
	}

	for i, s := range surfaces {
		id := mesh.AddSurface(s.centroid.Center(), s.normal)
		if int(id) != i {
			return nil, fmt.Errorf("surface %d was added as %d", i, id)
		}
	}

	out.PieceTypeHierarchy = buildPieceTypeHierarchy(out.PieceTypes, b.pieceTypeDisplays, warn)
	out.PieceTypeMasks = buildPieceTypeMasks(out.Pieces, out.PieceTypes)
	return out, nil
}

// renumberPieceTypes gives the piece types used by active pieces new dense
// ids, in order of their old ids.
func (b *ShapeBuilder) renumberPieceTypes(active []puzzle.Piece, types *puzzle.PerID[puzzle.PieceType, PieceTypeInfo]) (map[puzzle.PieceType]puzzle.PieceType, error) {
	var used []puzzle.PieceType
	for _, id := range active {
		if piece, err := b.pieces.Get(id); err == nil && piece.PieceType != nil {
			used = append(used, *piece.PieceType)
		}
	}
	used = lo.Uniq(used)
	sort.Slice(used, func(i, j int) bool { return used[i] < used[j] })

	ids := make(map[puzzle.PieceType]puzzle.PieceType, len(used))
	for _, old := range used {
		pt, err := b.pieceTypes.Get(old)
		if err != nil {
			return nil, err
		}
		display, ok := b.pieceTypeDisplays.Get(pt.Name)
		if !ok {
			display = pt.Name
		}
		if ids[old], err = types.Push(PieceTypeInfo{Name: pt.Name, Display: display}); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// pieceStickers returns the facets of a piece with the piece inside each plane,
// sorted by color then facet so internal stickers come last.
func (b *ShapeBuilder) pieceStickers(piece *PieceBuilder, centroid geom.Point) ([]stickerData, error) {
	facets, err := b.space.Facets(piece.Polytope)
	if err != nil {
		return nil, err
	}
	var out []stickerData
	for _, f := range facets {
		color := piece.StickerColor(f)
		// Internal faces are only drawn in 3D.
		if b.space.NDim() >= 4 && color.IsInternal() {
			continue
		}
		plane, err := b.space.Hyperplane(f)
		if err != nil {
			return nil, err
		}
		if plane.WhichSide(centroid) == geom.Outside {
			plane = plane.Flip()
		}
		out = append(out, stickerData{facet: f, plane: plane, color: color})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].color != out[j].color {
			return out[i].color < out[j].color
		}
		return out[i].facet < out[j].facet
	})
	return out, nil
}

// meshCursor returns empty ranges at the current end of the mesh buffers.
func meshCursor(m *kernel.Mesh) kernel.RangeTriple {
	p := uint32(m.PolygonCount)
	t := uint32(m.TriangleCount())
	e := uint32(m.EdgeCount())
	return kernel.RangeTriple{
		Polygons:  kernel.Range{Start: p, End: p},
		Triangles: kernel.Range{Start: t, End: t},
		Edges:     kernel.Range{Start: e, End: e},
	}
}

func buildShapePolygons(space kernel.Space, mesh *kernel.Mesh, shrink map[kernel.VertexID]geom.Vector, facet kernel.FacetID, pieceCentroid geom.Point, pieceID puzzle.Piece, surfaceID puzzle.Surface) (kernel.RangeTriple, error) {
	r := meshCursor(mesh)

	polygons, err := space.Polygons(facet)
	if err != nil {
		return r, err
	}
	for _, polygon := range polygons {
		polygonID, err := mesh.NextPolygonID()
		if err != nil {
			return r, err
		}
		tris, err := space.Triangles(polygon)
		if err != nil {
			return r, err
		}
		basis, err := space.TangentVectors(polygon)
		if err != nil {
			return r, err
		}

		// Tangent vectors face away from the piece in 3D.
		var normal v3.Vec
		if space.NDim() == 3 {
			init, err := space.ArbitraryVertex(polygon)
			if err != nil {
				return r, err
			}
			initPos, err := space.VertexPos(init)
			if err != nil {
				return r, err
			}
			normal = toVec3(basis[0]).Cross(toVec3(basis[1]))
			if normal.Dot(toVec3(initPos.Sub(pieceCentroid))) < 0 {
				normal = v3.Vec{X: -normal.X, Y: -normal.Y, Z: -normal.Z}
				basis[0], basis[1] = basis[1], basis[0]
			}
		}

		vertexIDs := make(map[kernel.VertexID]uint32)
		newVertex := func(old kernel.VertexID) (uint32, error) {
			if id, ok := vertexIDs[old]; ok {
				return id, nil
			}
			pos, err := space.VertexPos(old)
			if err != nil {
				return 0, err
			}
			sv, ok := shrink[old]
			if !ok {
				return 0, errors.New("missing sticker shrink vector for vertex")
			}
			id, err := mesh.AddVertex(kernel.VertexData{
				Position:     pos,
				UTangent:     basis[0],
				VTangent:     basis[1],
				ShrinkVector: sv,
				Piece:        uint32(pieceID),
				Surface:      uint32(surfaceID),
				Polygon:      polygonID,
			})
			if err != nil {
				return 0, err
			}
			vertexIDs[old] = id
			return id, nil
		}

		for _, tri := range tris {
			var ids [3]uint32
			for i, old := range tri {
				if ids[i], err = newVertex(old); err != nil {
					return r, err
				}
			}
			if space.NDim() == 3 {
				var t sdf.Triangle3
				for i, old := range tri {
					pos, _ := space.VertexPos(old)
					t[i] = toVec3(pos)
				}
				if t.Normal().Dot(normal) < 0 {
					ids[0], ids[1] = ids[1], ids[0]
				}
			}
			mesh.Triangles = append(mesh.Triangles, ids)
		}

		edges, err := space.EdgeEndpoints(polygon)
		if err != nil {
			return r, err
		}
		for _, e := range edges {
			a, ok := vertexIDs[e[0]]
			b, ok2 := vertexIDs[e[1]]
			if !ok || !ok2 {
				return r, errors.New("missing vertex for polygon edge")
			}
			mesh.Edges = append(mesh.Edges, [2]uint32{a, b})
		}
	}

	end := meshCursor(mesh)
	r.Polygons.End = end.Polygons.Start
	r.Triangles.End = end.Triangles.Start
	r.Edges.End = end.Edges.Start
	return r, nil
}

func toVec3(v geom.Vector) v3.Vec {
	return v3.Vec{X: v.At(0), Y: v.At(1), Z: v.At(2)}
}
