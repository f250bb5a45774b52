package shape

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/hypercut/pkg/geom"
	"github.com/chazu/hypercut/pkg/puzzle"
	"github.com/samber/lo"
)

// disjointSet is a union-find over dense indices with path compression.
type disjointSet struct {
	parent []int
	rank   []int
}

func newDisjointSet(n int) *disjointSet {
	d := &disjointSet{parent: make([]int, n), rank: make([]int, n)}
	for i := range d.parent {
		d.parent[i] = i
	}
	return d
}

func (d *disjointSet) find(i int) int {
	for d.parent[i] != i {
		d.parent[i] = d.parent[d.parent[i]]
		i = d.parent[i]
	}
	return i
}

func (d *disjointSet) union(a, b int) {
	ra, rb := d.find(a), d.find(b)
	if ra == rb {
		return
	}
	switch {
	case d.rank[ra] < d.rank[rb]:
		d.parent[ra] = rb
	case d.rank[ra] > d.rank[rb]:
		d.parent[rb] = ra
	default:
		d.parent[rb] = ra
		d.rank[ra]++
	}
}

// sets returns the members of each set, ordered by smallest member.
func (d *disjointSet) sets() [][]int {
	byRoot := make(map[int][]int)
	var roots []int
	for i := range d.parent {
		r := d.find(i)
		if _, ok := byRoot[r]; !ok {
			roots = append(roots, r)
		}
		byRoot[r] = append(byRoot[r], i)
	}
	out := make([][]int, len(roots))
	for i, r := range roots {
		out[i] = byRoot[r]
	}
	return out
}

// UnifyPieceTypes joins pieces whose interior points are mapped onto each
// other by one of the transforms, then spreads any piece type within each
// group to the untyped members. A group with several types is a warning; the
// lowest type id wins.
func (b *ShapeBuilder) UnifyPieceTypes(transforms []geom.Motor, warn puzzle.WarnFunc) error {
	active := b.active.Pieces()
	points := make([]geom.Point, len(active))
	for i, id := range active {
		piece, err := b.pieces.Get(id)
		if err != nil {
			return err
		}
		if points[i], err = piece.InteriorPoint(b.space); err != nil {
			return err
		}
	}

	ds := newDisjointSet(len(active))
	for _, t := range transforms {
		for i, p := range points {
			q := t.TransformPoint(p)
			for j := range points {
				if i != j && q.ApproxEq(points[j]) {
					ds.union(i, j)
				}
			}
		}
	}

	for _, set := range ds.sets() {
		var types []puzzle.PieceType
		for _, i := range set {
			piece, _ := b.pieces.Get(active[i])
			if piece.PieceType != nil {
				types = append(types, *piece.PieceType)
			}
		}
		types = lo.Uniq(types)
		sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
		if len(types) == 0 {
			continue
		}
		if len(types) > 1 {
			names := lo.Map(types, func(t puzzle.PieceType, _ int) string {
				if info, err := b.pieceTypes.Get(t); err == nil {
					return info.Name
				}
				return t.String()
			})
			warn(fmt.Errorf("%d pieces are assigned multiple piece types: %s", len(set), strings.Join(names, ", ")))
		}
		for _, i := range set {
			piece, _ := b.pieces.Get(active[i])
			if piece.PieceType == nil {
				t := types[0]
				piece.PieceType = &t
			}
		}
	}
	return nil
}
