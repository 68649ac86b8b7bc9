// Package debug provides debug overlays and screenshots for the viewer.
package debug

import "github.com/Faultbox/pmviewer/internal/scene"

// BoxVertexCount is the number of line vertices BoxLines returns for a
// non-empty box (12 edges, 2 endpoints each).
const BoxVertexCount = 24

// BoxLines returns line-list vertices, [x, y, z] each, for the edges of b
// grown by padding on every side. An empty box yields no vertices.
func BoxLines(b scene.AABB, padding float32) []float32 {
	if b.Empty() {
		return nil
	}
	minX, minY, minZ := b.Min.X-padding, b.Min.Y-padding, b.Min.Z-padding
	maxX, maxY, maxZ := b.Max.X+padding, b.Max.Y+padding, b.Max.Z+padding

	return []float32{
		// Bottom face
		minX, minY, minZ, maxX, minY, minZ,
		maxX, minY, minZ, maxX, minY, maxZ,
		maxX, minY, maxZ, minX, minY, maxZ,
		minX, minY, maxZ, minX, minY, minZ,
		// Top face
		minX, maxY, minZ, maxX, maxY, minZ,
		maxX, maxY, minZ, maxX, maxY, maxZ,
		maxX, maxY, maxZ, minX, maxY, maxZ,
		minX, maxY, maxZ, minX, maxY, minZ,
		// Vertical edges
		minX, minY, minZ, minX, maxY, minZ,
		maxX, minY, minZ, maxX, maxY, minZ,
		maxX, minY, maxZ, maxX, maxY, maxZ,
		minX, minY, maxZ, minX, maxY, maxZ,
	}
}
