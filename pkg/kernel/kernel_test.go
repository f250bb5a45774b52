package kernel

import (
	"testing"

	"github.com/chazu/hypercut/pkg/geom"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name  string
		verts int
		want  int
	}{
		{"empty", 0, 0},
		{"one vertex", 1, 1},
		{"four vertices", 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMesh(3)
			for i := 0; i < tt.verts; i++ {
				if _, err := m.AddVertex(VertexData{Position: geom.Point{float64(i), 0, 0}}); err != nil {
					t.Fatalf("AddVertex: %v", err)
				}
			}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
			if got := len(m.Positions); got != 3*tt.want {
				t.Errorf("len(Positions) = %d, want %d", got, 3*tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := NewMesh(4)
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		m := NewMesh(4)
		if _, err := m.AddVertex(VertexData{Position: geom.Point{1, 2, 3, 4}}); err != nil {
			t.Fatalf("AddVertex: %v", err)
		}
		if m.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

func TestMeshVertexPositionPadsAndTruncates(t *testing.T) {
	m := NewMesh(3)
	id0, _ := m.AddVertex(VertexData{Position: geom.Point{1, 2}})
	id1, _ := m.AddVertex(VertexData{Position: geom.Point{1, 2, 3, 4}})

	got, err := m.VertexPosition(id0)
	if err != nil {
		t.Fatalf("VertexPosition: %v", err)
	}
	if !got.ApproxEq(geom.Point{1, 2, 0}) {
		t.Errorf("vertex 0 = %v, want (1, 2, 0)", got)
	}
	got, _ = m.VertexPosition(id1)
	if !got.ApproxEq(geom.Point{1, 2, 3}) {
		t.Errorf("vertex 1 = %v, want (1, 2, 3)", got)
	}
	if _, err := m.VertexPosition(2); err == nil {
		t.Error("VertexPosition(2) succeeded on a 2-vertex mesh")
	}
}

func TestMeshSurfacesAndPolygons(t *testing.T) {
	m := NewMesh(3)
	for want := uint32(0); want < 3; want++ {
		if got := m.AddSurface(geom.Point{0, 0, 1}, geom.Vector{0, 0, 1}); got != want {
			t.Errorf("AddSurface() = %d, want %d", got, want)
		}
		got, err := m.NextPolygonID()
		if err != nil || got != want {
			t.Errorf("NextPolygonID() = %d, %v, want %d", got, err, want)
		}
	}
	if len(m.SurfaceNormals) != 9 {
		t.Errorf("len(SurfaceNormals) = %d, want 9", len(m.SurfaceNormals))
	}
}

func TestCutOutputIsUnchangedFrom(t *testing.T) {
	const id ElementID = 7
	tests := []struct {
		name string
		out  CutOutput
		want bool
	}{
		{"inside", CutOutput{Inside: id, Outside: None, Intersection: None}, true},
		{"outside", CutOutput{Inside: None, Outside: id, Intersection: None}, true},
		{"touching", CutOutput{Inside: id, Outside: None, Intersection: 9}, false},
		{"split", CutOutput{Inside: 8, Outside: 9, Intersection: 10}, false},
		{"flush", CutOutput{Flush: true, Inside: None, Outside: None, Intersection: None}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.out.IsUnchangedFrom(id); got != tt.want {
				t.Errorf("IsUnchangedFrom() = %v, want %v", got, tt.want)
			}
		})
	}
}
