// Package kernel defines the abstract polytope space the puzzle builders
// are written against. Implementations (flat) own all geometry; builders
// hold element ids and ask the space for geometric queries. The kernel
// abstraction allows swapping backends without changing the builders.
package kernel

import (
	"errors"
	"math"

	"github.com/chazu/hypercut/pkg/geom"
)

// ElementID references any element (vertex, edge, polygon, ..., polytope)
// in a Space.
type ElementID uint32

// None is the absent element.
const None ElementID = math.MaxUint32

// Valid reports whether id refers to an element.
func (id ElementID) Valid() bool { return id != None }

// PolytopeID, FacetID and VertexID name the rank an id is expected to have.
// They are aliases so that conversion is free; rank is checked by the space.
type (
	PolytopeID = ElementID
	FacetID    = ElementID
	VertexID   = ElementID
)

// ErrMissingElement is returned when an id does not refer to an element of
// the expected rank. It always indicates an internal inconsistency.
var ErrMissingElement = errors.New("kernel: missing element")

// CutOutput is the result of cutting one element by a hyperplane.
//
// When Flush is set, the element lies entirely in the cutting hyperplane and
// the other fields are None. Otherwise Inside and Outside are the parts of the
// element on each side (either may be None), and Intersection is the
// element's cross-section with the hyperplane, one rank lower, if any.
type CutOutput struct {
	Flush        bool
	Inside       ElementID
	Outside      ElementID
	Intersection ElementID
}

// IsUnchangedFrom reports whether the cut left id whole on one side without
// producing a cross-section.
func (o CutOutput) IsUnchangedFrom(id ElementID) bool {
	if o.Flush || o.Intersection.Valid() {
		return false
	}
	return (o.Inside == id && !o.Outside.Valid()) || (o.Outside == id && !o.Inside.Valid())
}

// Cut cuts elements of a space by a single hyperplane. Results are cached so
// that shared boundary elements are split exactly once and every caller sees
// the same resulting ids.
type Cut interface {
	Plane() geom.Hyperplane
	Cut(id ElementID) (CutOutput, error)
}

// Space is an arena of convex polytopes and their boundary elements.
type Space interface {
	// NDim returns the dimension of the space.
	NDim() int

	// AddPrimordialCube adds an axis-aligned cube of the given radius whose
	// facets are marked primordial and returns it.
	AddPrimordialCube(radius float64) (PolytopeID, error)

	// Rank returns the rank of an element (0 for vertices).
	Rank(id ElementID) (int, error)
	// Boundary returns the elements one rank lower that bound id.
	Boundary(id ElementID) ([]ElementID, error)
	// Facets returns the boundary of a full-rank polytope.
	Facets(p PolytopeID) ([]FacetID, error)
	// Subelements returns id and every element in its boundary closure.
	Subelements(id ElementID) ([]ElementID, error)
	// Vertices returns the distinct vertices of id, in a stable order.
	Vertices(id ElementID) ([]VertexID, error)
	// VertexPos returns the position of a vertex.
	VertexPos(v VertexID) (geom.Point, error)
	// ArbitraryVertex returns some vertex of id.
	ArbitraryVertex(id ElementID) (VertexID, error)

	// Hyperplane returns the hyperplane containing a facet.
	Hyperplane(f FacetID) (geom.Hyperplane, error)
	// HasPrimordialFacet reports whether any facet of p came from the
	// primordial cube.
	HasPrimordialFacet(p PolytopeID) (bool, error)

	// Centroid returns the centroid of an element.
	Centroid(id ElementID) (geom.Centroid, error)
	// CombinedCentroid merges the centroids of a set of elements. It
	// returns false if the set is empty.
	CombinedCentroid(ids []ElementID) (geom.Centroid, bool, error)

	// Polygons returns the rank-2 elements in the closure of id.
	Polygons(id ElementID) ([]ElementID, error)
	// Triangles triangulates a polygon.
	Triangles(polygon ElementID) ([][3]VertexID, error)
	// TangentVectors returns an orthonormal basis for a polygon's plane.
	TangentVectors(polygon ElementID) ([2]geom.Vector, error)
	// EdgeEndpoints returns the endpoints of each edge of a polygon.
	EdgeEndpoints(polygon ElementID) ([][2]VertexID, error)

	// NewCut begins a cut by plane.
	NewCut(plane geom.Hyperplane) Cut
}
