package renderer

import (
	"sort"

	"github.com/Faultbox/pmviewer/internal/scene"
	"github.com/Faultbox/pmviewer/pkg/math"
	"github.com/Faultbox/pmviewer/pkg/pixbuf"
)

// Vertex layout: position(3) normal(3) color(4) texcoord(2).
const (
	floatsPerVertex = 12
	vertexStride    = floatsPerVertex * 4
	offsetNormal    = 3 * 4
	offsetColor     = 6 * 4
	offsetTexCoord  = 10 * 4
)

// interleave packs mesh vertices for a single VBO. Colors are normalized
// to 0..1.
func interleave(m *scene.TriMesh) []float32 {
	out := make([]float32, 0, len(m.Vertices)*floatsPerVertex)
	for _, v := range m.Vertices {
		out = append(out,
			v.Position[0], v.Position[1], v.Position[2],
			v.Normal[0], v.Normal[1], v.Normal[2],
			float32(v.Color[0])/255, float32(v.Color[1])/255, float32(v.Color[2])/255, float32(v.Color[3])/255,
			v.TexCoord[0], v.TexCoord[1],
		)
	}
	return out
}

// drawOrder returns the visible, non-empty geometries in draw order:
// opaque and alpha-tested first in scene order, then alpha-blended
// geometry back to front as seen from eye.
func drawOrder(geometries []*scene.Geometry, eye math.Vec3) []*scene.Geometry {
	var solid, blended []*scene.Geometry
	for _, g := range geometries {
		if !g.Visible || g.Mesh.TriangleCount() == 0 {
			continue
		}
		if g.Blend == scene.BlendAlpha {
			blended = append(blended, g)
		} else {
			solid = append(solid, g)
		}
	}

	dist := make(map[*scene.Geometry]float32, len(blended))
	for _, g := range blended {
		center := g.Mesh.Bounds().Transform(g.Node.WorldMatrix()).Center()
		dist[g] = center.Distance(eye)
	}
	sort.SliceStable(blended, func(i, j int) bool {
		return dist[blended[i]] > dist[blended[j]]
	})
	return append(solid, blended...)
}

// subtreeGeometries returns the geometries attached to n and its
// descendants, in preorder.
func subtreeGeometries(n *scene.Node) []*scene.Geometry {
	var out []*scene.Geometry
	stack := []*scene.Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur.Geometries()...)
		children := cur.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return out
}

// texturePixels returns tightly packed RGBA bytes for upload. RGBA8 images
// already have that layout and are passed through without a copy.
func texturePixels(img *pixbuf.Image) []byte {
	if img.Format() == pixbuf.RGBA8 {
		return img.Pix()
	}
	return img.ToNRGBA().Pix
}
