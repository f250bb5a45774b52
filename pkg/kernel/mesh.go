package kernel

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/hypercut/pkg/geom"
)

// Range is a half-open range [Start, End) of indices into one of the mesh
// buffers.
type Range struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

// Len returns the number of indices in the range.
func (r Range) Len() int { return int(r.End) - int(r.Start) }

// RangeTriple holds the polygon, triangle and edge ranges of one sticker or
// one piece's internal geometry.
type RangeTriple struct {
	Polygons  Range `json:"polygons"`
	Triangles Range `json:"triangles"`
	Edges     Range `json:"edges"`
}

// VertexData is one vertex to be appended to a mesh.
type VertexData struct {
	Position geom.Point
	// UTangent and VTangent are orthonormal and lie in the vertex's polygon.
	UTangent geom.Vector
	VTangent geom.Vector
	// ShrinkVector points from the vertex to its sticker-shrink target.
	ShrinkVector geom.Vector
	Piece        uint32
	Surface      uint32
	Polygon      uint32
}

// Mesh is the renderable output of a built puzzle shape. All per-vertex
// vector data is stored flat, NDim float32s per vertex.
type Mesh struct {
	NDim       int `json:"ndim"`
	ColorCount int `json:"colorCount"`

	PolygonCount int `json:"polygonCount"`
	StickerCount int `json:"stickerCount"`
	PieceCount   int `json:"pieceCount"`
	SurfaceCount int `json:"surfaceCount"`

	Positions     []float32 `json:"positions"`
	UTangents     []float32 `json:"uTangents"`
	VTangents     []float32 `json:"vTangents"`
	ShrinkVectors []float32 `json:"shrinkVectors"`
	PieceIDs      []uint32  `json:"pieceIds"`
	SurfaceIDs    []uint32  `json:"surfaceIds"`
	PolygonIDs    []uint32  `json:"polygonIds"`

	PieceCentroids   []float32 `json:"pieceCentroids"`
	SurfaceCentroids []float32 `json:"surfaceCentroids"`
	SurfaceNormals   []float32 `json:"surfaceNormals"`

	Triangles [][3]uint32 `json:"triangles"`
	Edges     [][2]uint32 `json:"edges"`

	// StickerRanges is indexed by sticker id.
	StickerRanges []RangeTriple `json:"stickerRanges"`
	// PieceInternalRanges is indexed by piece id and covers the piece's
	// internal-colored geometry, which always follows its stickers.
	PieceInternalRanges []RangeTriple `json:"pieceInternalRanges"`
}

// NewMesh returns an empty mesh for an ndim-dimensional puzzle.
func NewMesh(ndim int) *Mesh {
	return &Mesh{NDim: ndim}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.PieceIDs)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles)
}

// EdgeCount returns the number of edges.
func (m *Mesh) EdgeCount() int {
	return len(m.Edges)
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return m.VertexCount() == 0
}

// AddVertex appends a vertex and returns its index.
func (m *Mesh) AddVertex(v VertexData) (uint32, error) {
	if m.VertexCount() >= math.MaxUint32 {
		return 0, errors.New("mesh: too many vertices")
	}
	id := uint32(m.VertexCount())
	m.Positions = appendFloat32(m.Positions, m.NDim, v.Position)
	m.UTangents = appendFloat32(m.UTangents, m.NDim, v.UTangent)
	m.VTangents = appendFloat32(m.VTangents, m.NDim, v.VTangent)
	m.ShrinkVectors = appendFloat32(m.ShrinkVectors, m.NDim, v.ShrinkVector)
	m.PieceIDs = append(m.PieceIDs, v.Piece)
	m.SurfaceIDs = append(m.SurfaceIDs, v.Surface)
	m.PolygonIDs = append(m.PolygonIDs, v.Polygon)
	return id, nil
}

// NextPolygonID allocates a polygon id.
func (m *Mesh) NextPolygonID() (uint32, error) {
	if m.PolygonCount >= math.MaxUint32 {
		return 0, errors.New("mesh: too many polygons")
	}
	id := uint32(m.PolygonCount)
	m.PolygonCount++
	return id, nil
}

// AddSticker records the ranges of the next sticker.
func (m *Mesh) AddSticker(r RangeTriple) {
	m.StickerCount++
	m.StickerRanges = append(m.StickerRanges, r)
}

// AddPiece records the centroid and internal-geometry ranges of the next
// piece.
func (m *Mesh) AddPiece(centroid geom.Point, internals RangeTriple) {
	m.PieceCount++
	m.PieceCentroids = appendFloat32(m.PieceCentroids, m.NDim, centroid)
	m.PieceInternalRanges = append(m.PieceInternalRanges, internals)
}

// AddSurface appends a surface and returns its id.
func (m *Mesh) AddSurface(centroid geom.Point, normal geom.Vector) uint32 {
	id := uint32(m.SurfaceCount)
	m.SurfaceCount++
	m.SurfaceCentroids = appendFloat32(m.SurfaceCentroids, m.NDim, centroid)
	m.SurfaceNormals = appendFloat32(m.SurfaceNormals, m.NDim, normal)
	return id
}

// VertexPosition returns the position of vertex i.
func (m *Mesh) VertexPosition(i uint32) (geom.Point, error) {
	return m.vertexVector(m.Positions, i)
}

// ShrinkVector returns the sticker-shrink vector of vertex i.
func (m *Mesh) ShrinkVector(i uint32) (geom.Vector, error) {
	return m.vertexVector(m.ShrinkVectors, i)
}

func (m *Mesh) vertexVector(buf []float32, i uint32) (geom.Vector, error) {
	if int(i) >= m.VertexCount() {
		return nil, fmt.Errorf("mesh: vertex %d out of range (%d vertices)", i, m.VertexCount())
	}
	start := int(i) * m.NDim
	out := make(geom.Vector, m.NDim)
	for j := range out {
		out[j] = float64(buf[start+j])
	}
	return out, nil
}

func appendFloat32(dst []float32, ndim int, v geom.Vector) []float32 {
	for i := 0; i < ndim; i++ {
		dst = append(dst, float32(v.At(i)))
	}
	return dst
}
