package shape

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/hypercut/pkg/geom"
	"github.com/chazu/hypercut/pkg/kernel"
	"github.com/chazu/hypercut/pkg/puzzle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSlicedCube(t *testing.T) *BuildOutput {
	t.Helper()
	b := slicedCube(t)
	require.NoError(t, b.MarkUntypedPieces())
	out, err := b.Build(puzzle.IgnoreWarnings)
	require.NoError(t, err)
	return out
}

func TestBuildEightCorners(t *testing.T) {
	out := buildSlicedCube(t)
	mesh := out.Mesh

	assert.Equal(t, 8, out.Pieces.Len())
	assert.Equal(t, 24, out.Stickers.Len())
	assert.Len(t, out.StickerPlanes, 24)
	assert.Equal(t, 8, mesh.PieceCount)
	assert.Equal(t, 24, mesh.StickerCount)
	assert.Equal(t, 6, mesh.ColorCount)

	// Each octant has three colored and three internal square faces.
	assert.Equal(t, 8*6, mesh.PolygonCount)
	assert.Equal(t, 8*6*2, mesh.TriangleCount())
	assert.Equal(t, 8*6*4, mesh.EdgeCount())
	assert.Equal(t, 8*6*4, mesh.VertexCount())
	// Six outer faces and both sides of three inner planes.
	assert.Equal(t, 12, mesh.SurfaceCount)

	colorUse := make(map[puzzle.Color]int)
	out.Pieces.Each(func(p puzzle.Piece, info PieceInfo) {
		assert.Len(t, info.Stickers, 3, "piece %s", p)
		for _, s := range info.Stickers {
			st, err := out.Stickers.Get(s)
			require.NoError(t, err)
			assert.Equal(t, p, st.Piece)
			assert.False(t, st.Color.IsInternal())
			colorUse[st.Color]++
		}
		assert.Equal(t, 3, mesh.PieceInternalRanges[p].Polygons.Len())
	})
	assert.Len(t, colorUse, 6)
	for c, n := range colorUse {
		assert.Equal(t, 4, n, "color %s", c)
	}

	require.Equal(t, 1, out.PieceTypes.Len())
	pt, err := out.PieceTypes.Get(0)
	require.NoError(t, err)
	assert.Equal(t, PieceTypeInfo{Name: "piece", Display: "Piece"}, pt)
	assert.Equal(t, 8, out.PieceTypeMasks["piece"].Count())
}

func TestBuildRangesPartitionEachPiece(t *testing.T) {
	out := buildSlicedCube(t)
	mesh := out.Mesh

	var polygons, triangles, edges uint32
	step := func(r kernel.RangeTriple) {
		assert.Equal(t, polygons, r.Polygons.Start)
		assert.Equal(t, triangles, r.Triangles.Start)
		assert.Equal(t, edges, r.Edges.Start)
		polygons, triangles, edges = r.Polygons.End, r.Triangles.End, r.Edges.End
	}
	out.Pieces.Each(func(p puzzle.Piece, info PieceInfo) {
		for _, s := range info.Stickers {
			step(mesh.StickerRanges[s])
		}
		step(mesh.PieceInternalRanges[p])
	})
	assert.Equal(t, uint32(mesh.PolygonCount), polygons)
	assert.Equal(t, uint32(mesh.TriangleCount()), triangles)
	assert.Equal(t, uint32(mesh.EdgeCount()), edges)
}

func TestBuildTrianglesFaceOutward(t *testing.T) {
	out := buildSlicedCube(t)
	mesh := out.Mesh

	centroid := func(p uint32) geom.Point {
		c := mesh.PieceCentroids[int(p)*3 : int(p)*3+3]
		return geom.Point{float64(c[0]), float64(c[1]), float64(c[2])}
	}
	for i, tri := range mesh.Triangles {
		var pos [3]geom.Point
		for j, v := range tri {
			p, err := mesh.VertexPosition(v)
			require.NoError(t, err)
			pos[j] = p
		}
		e1, e2 := pos[1].Sub(pos[0]), pos[2].Sub(pos[0])
		normal := geom.Vector{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}
		away := pos[0].Sub(centroid(mesh.PieceIDs[tri[0]]))
		assert.Greater(t, normal.Dot(away), 0.0, "triangle %d", i)
	}
}

func TestBuildShrinkVectorsPointAtOuterCorner(t *testing.T) {
	out := buildSlicedCube(t)
	mesh := out.Mesh

	for v := 0; v < mesh.VertexCount(); v++ {
		pos, err := mesh.VertexPosition(uint32(v))
		require.NoError(t, err)
		shrink, err := mesh.ShrinkVector(uint32(v))
		require.NoError(t, err)

		// Every octant shrinks toward its corner of the cube.
		target := pos.Add(shrink)
		for i := range target {
			assert.InDelta(t, 1, math.Abs(target[i]), 1e-6, "vertex %d", v)
		}
	}
}

func TestShrinkVectorsWithoutCommonElement(t *testing.T) {
	// Opposite faces of a slab share no element, so each vertex shrinks
	// toward the centroid of its own face.
	b := newShape(t, 3, 10)
	top, err := b.Colors.Add()
	require.NoError(t, err)
	bottom, err := b.Colors.Add()
	require.NoError(t, err)
	require.NoError(t, b.Carve(nil, axisPlane(t, 3, 1, 1, 1), &top))
	require.NoError(t, b.Carve(nil, axisPlane(t, 3, 1, -1, 1), &bottom))

	piece, err := b.Piece(b.ActivePieces().Pieces()[0])
	require.NoError(t, err)
	var colored []kernel.FacetID
	for f := range piece.Stickers {
		colored = append(colored, f)
	}
	c, err := b.Space().Centroid(piece.Polytope)
	require.NoError(t, err)

	shrink, err := stickerShrinkVectors(b.Space(), piece.Polytope, colored, c.Center())
	require.NoError(t, err)
	require.Len(t, shrink, 8)
	for v, sv := range shrink {
		pos, err := b.Space().VertexPos(v)
		require.NoError(t, err)
		target := pos.Add(sv)
		assert.InDelta(t, 0, target[0], 1e-9)
		assert.InDelta(t, pos[1], target[1], 1e-9)
		assert.InDelta(t, 0, target[2], 1e-9)
	}
}

func TestBuildDropsInternalStickersIn4D(t *testing.T) {
	b := newShape(t, 4, 1)
	c, err := b.Colors.GetOrAddWithName("X", puzzle.IgnoreWarnings)
	require.NoError(t, err)
	require.NoError(t, b.Carve(nil, axisPlane(t, 4, 0, 1, 0.5), &c))
	require.NoError(t, b.MarkUntypedPieces())

	out, err := b.Build(puzzle.IgnoreWarnings)
	require.NoError(t, err)
	mesh := out.Mesh
	assert.Equal(t, 1, mesh.PieceCount)
	assert.Equal(t, 1, mesh.StickerCount)
	// The sticker is a cube: six square polygons.
	assert.Equal(t, 6, mesh.PolygonCount)
	assert.Equal(t, 0, mesh.PieceInternalRanges[0].Polygons.Len())
	assert.Equal(t, uint32(mesh.PolygonCount), mesh.PieceInternalRanges[0].Polygons.Start)
	assert.Len(t, mesh.PieceCentroids, 4)
}

func TestBuildSkipsUntypedPieces(t *testing.T) {
	b := slicedCube(t)
	_, err := b.GetOrAddPieceType("corner", "Corner")
	require.NoError(t, err)
	require.NoError(t, b.MarkPieceByRegion("corner", "", func(p geom.Point) bool {
		return p[0] > 0 && p[1] > 0 && p[2] > 0
	}, puzzle.IgnoreWarnings))

	var warnings []error
	out, err := b.Build(puzzle.CollectWarnings(&warnings))
	require.NoError(t, err)
	assert.Equal(t, 1, out.Pieces.Len())
	assert.Equal(t, 3, out.Stickers.Len())

	var untyped int
	for _, w := range warnings {
		if strings.Contains(w.Error(), "has no piece type") {
			untyped++
		}
	}
	assert.Equal(t, 7, untyped)
}

func TestBuildPieceTypeMasks(t *testing.T) {
	b := slicedCube(t)
	require.NoError(t, b.SetPieceTypeDisplay("corner", "Corner"))
	warn := puzzle.IgnoreWarnings
	require.NoError(t, b.MarkPieceByRegion("corner/top", "Top", func(p geom.Point) bool { return p[1] > 0 }, warn))
	require.NoError(t, b.MarkPieceByRegion("corner/bottom", "Bottom", func(p geom.Point) bool { return p[1] < 0 }, warn))
	// Re-marking records an overwrite.
	require.NoError(t, b.MarkPieceByRegion("corner/top", "", func(p geom.Point) bool {
		return p[0] > 0 && p[1] > 0 && p[2] > 0
	}, warn))

	var warnings []error
	out, err := b.Build(puzzle.CollectWarnings(&warnings))
	require.NoError(t, err)

	var overwritten bool
	for _, w := range warnings {
		assert.NotContains(t, w.Error(), "no display name")
		if w.Error() == "1 piece types overwritten" {
			overwritten = true
		}
	}
	assert.True(t, overwritten)

	masks := out.PieceTypeMasks
	require.Contains(t, masks, "corner")
	assert.Equal(t, 4, masks["corner/top"].Count())
	assert.Equal(t, 4, masks["corner/bottom"].Count())
	assert.Equal(t, 8, masks["corner"].Count())
	for _, name := range []string{"corner/top", "corner/bottom"} {
		for _, prefix := range PathPrefixes(name) {
			assert.True(t, masks[prefix].IsSuperset(masks[name]), "%s ⊇ %s", prefix, name)
		}
	}

	node, ok := out.PieceTypeHierarchy.Get("corner")
	require.True(t, ok)
	assert.False(t, node.IsType())
	assert.Equal(t, "Corner", node.Display)
	leaf, ok := out.PieceTypeHierarchy.Get("corner/top")
	require.True(t, ok)
	assert.True(t, leaf.IsType())
	assert.Equal(t, "Top", leaf.Display)
	assert.True(t, node.Sub.Types.Test(uint(leaf.Type)))
}
