package shape

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/chazu/hypercut/pkg/geom"
	"github.com/chazu/hypercut/pkg/kernel"
)

// surfaceSet is the set of sticker facets, by index, that contain an
// element.
type surfaceSet = *bitset.BitSet

// stickerShrinkVectors returns, for every vertex of the piece, the vector
// from the vertex to the point it moves toward when stickers are shrunk.
func stickerShrinkVectors(space kernel.Space, polytope kernel.PolytopeID, coloredFacets []kernel.FacetID, pieceCentroid geom.Point) (map[kernel.VertexID]geom.Vector, error) {
	n := uint(len(coloredFacets))
	sets := make(map[kernel.ElementID]surfaceSet)
	byRank := make(map[int][]kernel.ElementID)
	for i, f := range coloredFacets {
		subs, err := space.Subelements(f)
		if err != nil {
			return nil, err
		}
		for _, e := range subs {
			set, ok := sets[e]
			if !ok {
				set = bitset.New(n)
				sets[e] = set
				rank, err := space.Rank(e)
				if err != nil {
					return nil, err
				}
				byRank[rank] = append(byRank[rank], e)
			}
			set.Set(uint(i))
		}
	}

	vertices, err := space.Vertices(polytope)
	if err != nil {
		return nil, err
	}
	targets := make(map[kernel.VertexID]geom.Point, len(vertices))
	maxRank := space.NDim() - 1

	// An element shared by every sticker is the one target for the whole
	// piece.
	if n > 0 {
		for r := maxRank; r >= 0; r-- {
			var common []kernel.ElementID
			for _, e := range byRank[r] {
				if sets[e].Count() == n {
					common = append(common, e)
				}
			}
			c, ok, err := space.CombinedCentroid(common)
			if err != nil {
				return nil, err
			}
			if ok {
				for _, v := range vertices {
					targets[v] = c.Center()
				}
				return shrinkVectors(space, targets)
			}
		}
	}

	bySet := make(map[string]geom.Point)
	for _, v := range vertices {
		set, ok := sets[v]
		if !ok {
			targets[v] = pieceCentroid
			continue
		}
		key := set.String()
		if t, ok := bySet[key]; ok {
			targets[v] = t
			continue
		}
		t := pieceCentroid
		for r := maxRank; r >= 0; r-- {
			var supersets []kernel.ElementID
			for _, e := range byRank[r] {
				if sets[e].IsSuperSet(set) {
					supersets = append(supersets, e)
				}
			}
			c, ok, err := space.CombinedCentroid(supersets)
			if err != nil {
				return nil, err
			}
			if ok {
				t = c.Center()
				break
			}
		}
		bySet[key] = t
		targets[v] = t
	}
	return shrinkVectors(space, targets)
}

func shrinkVectors(space kernel.Space, targets map[kernel.VertexID]geom.Point) (map[kernel.VertexID]geom.Vector, error) {
	out := make(map[kernel.VertexID]geom.Vector, len(targets))
	for v, t := range targets {
		pos, err := space.VertexPos(v)
		if err != nil {
			return nil, err
		}
		out[v] = t.Sub(pos)
	}
	return out, nil
}
