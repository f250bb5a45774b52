package tessellate_test

import (
	"testing"

	"github.com/chazu/hypercut/pkg/geom"
	"github.com/chazu/hypercut/pkg/tessellate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// squareEdges returns the edges of a square with vertices 0..3 in shuffled
// order and orientation.
func squareEdges() [][2]int {
	return [][2]int{{0, 1}, {2, 3}, {2, 1}, {3, 0}}
}

func TestOrderLoop(t *testing.T) {
	loop, err := tessellate.OrderLoop(squareEdges())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, loop)
}

func TestOrderLoopRejectsBadPolygons(t *testing.T) {
	tests := []struct {
		name  string
		edges [][2]int
	}{
		{"too few edges", [][2]int{{0, 1}, {1, 2}}},
		{"open chain", [][2]int{{0, 1}, {1, 2}, {2, 3}}},
		{"two triangles", [][2]int{{0, 1}, {1, 2}, {2, 0}, {3, 4}, {4, 5}, {5, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tessellate.OrderLoop(tt.edges)
			assert.ErrorIs(t, err, tessellate.ErrOpenLoop)
		})
	}
}

func TestFan(t *testing.T) {
	tests := []struct {
		name string
		loop []int
		want [][3]int
	}{
		{"degenerate", []int{0, 1}, nil},
		{"triangle", []int{0, 1, 2}, [][3]int{{0, 1, 2}}},
		{"pentagon", []int{0, 1, 2, 3, 4}, [][3]int{{0, 1, 2}, {0, 2, 3}, {0, 3, 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tessellate.Fan(tt.loop))
		})
	}
}

func TestTangentBasisIsOrthonormal(t *testing.T) {
	// Square in the plane x+y=1 of 4D space.
	loop := []geom.Point{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 1, 0, 2},
		{1, 0, 0, 2},
	}
	basis, err := tessellate.TangentBasis(loop)
	require.NoError(t, err)

	u, v := basis[0], basis[1]
	assert.InDelta(t, 1, u.Norm(), 1e-9)
	assert.InDelta(t, 1, v.Norm(), 1e-9)
	assert.InDelta(t, 0, u.Dot(v), 1e-9)
	assert.True(t, v.ApproxEq(geom.Vector{0, 0, 0, 1}))
}

func TestTangentBasisCollinear(t *testing.T) {
	_, err := tessellate.TangentBasis([]geom.Point{{0, 0}, {1, 0}, {2, 0}})
	assert.Error(t, err)
}
