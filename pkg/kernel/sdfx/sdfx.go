// Package sdfx exports built 3D puzzle meshes through the
// github.com/deadsy/sdfx CAD library.
package sdfx

import (
	"errors"
	"fmt"

	"github.com/chazu/hypercut/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrNot3D is returned for meshes of any dimension other than 3.
var ErrNot3D = errors.New("sdfx: only 3D meshes can be exported")

// Triangles returns the sticker triangles of a 3D mesh, unshrunk. Internal
// faces are left out.
func Triangles(m *kernel.Mesh) ([]*sdf.Triangle3, error) {
	if m.NDim != 3 {
		return nil, fmt.Errorf("%w (got %dD)", ErrNot3D, m.NDim)
	}
	var out []*sdf.Triangle3
	for i, r := range m.StickerRanges {
		if int(r.Triangles.End) > m.TriangleCount() {
			return nil, fmt.Errorf("sdfx: sticker %d: triangle range %d..%d out of bounds", i, r.Triangles.Start, r.Triangles.End)
		}
		for _, tri := range m.Triangles[r.Triangles.Start:r.Triangles.End] {
			t, err := triangle(m, tri)
			if err != nil {
				return nil, fmt.Errorf("sdfx: sticker %d: %w", i, err)
			}
			out = append(out, t)
		}
	}
	return out, nil
}

func triangle(m *kernel.Mesh, tri [3]uint32) (*sdf.Triangle3, error) {
	var t sdf.Triangle3
	for i, v := range tri {
		pos, err := m.VertexPosition(v)
		if err != nil {
			return nil, err
		}
		t[i] = v3.Vec{X: pos.At(0), Y: pos.At(1), Z: pos.At(2)}
	}
	return &t, nil
}

// BoundingBox returns the box around the given triangles.
func BoundingBox(tris []*sdf.Triangle3) sdf.Box3 {
	if len(tris) == 0 {
		return sdf.Box3{}
	}
	box := sdf.Box3{Min: tris[0][0], Max: tris[0][0]}
	for _, t := range tris {
		for _, v := range t {
			box = box.Include(v)
		}
	}
	return box
}

// SaveSTL writes the sticker triangles of a 3D mesh to a binary STL file.
func SaveSTL(path string, m *kernel.Mesh) error {
	tris, err := Triangles(m)
	if err != nil {
		return err
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("sdfx: writing %s: %w", path, err)
	}
	return nil
}
