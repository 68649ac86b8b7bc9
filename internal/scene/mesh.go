package scene

import "github.com/Faultbox/pmviewer/pkg/math"

// TriMesh is an indexed triangle list.
type TriMesh struct {
	Vertices     []Vertex
	Indices      []uint32
	HasTexCoords bool
}

// AddPolygon appends a convex polygon and fan-triangulates it:
// (v0,v1,v2), (v0,v2,v3), ... Fewer than three vertices add no triangles.
func (m *TriMesh) AddPolygon(vs []Vertex) {
	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, vs...)
	for i := 2; i < len(vs); i++ {
		m.Indices = append(m.Indices, base, base+uint32(i-1), base+uint32(i))
	}
}

// AddStrip appends a triangle strip, flipping every other triangle so all
// faces keep the winding of the first.
func (m *TriMesh) AddStrip(vs []Vertex) {
	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, vs...)
	for i := 2; i < len(vs); i++ {
		a, b, c := base+uint32(i-2), base+uint32(i-1), base+uint32(i)
		if i%2 == 1 {
			a, b = b, a
		}
		m.Indices = append(m.Indices, a, b, c)
	}
}

// TriangleCount returns the number of triangles.
func (m *TriMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Bounds returns the local-space bounds of the vertices.
func (m *TriMesh) Bounds() AABB {
	b := EmptyAABB()
	for i := range m.Vertices {
		b.Extend(math.FromArray(m.Vertices[i].Position))
	}
	return b
}
