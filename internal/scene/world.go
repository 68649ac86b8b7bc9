package scene

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/pmviewer/pkg/formats"
	"github.com/Faultbox/pmviewer/pkg/math"
	"github.com/Faultbox/pmviewer/pkg/pixbuf"
)

// WorldTransformOrder lists the node fields composed into a world mesh
// transform, outermost first.
var WorldTransformOrder = []struct {
	Kind  TransformKind
	Field func(n *formats.PMWNode) [3]float32
}{
	{Translate, func(n *formats.PMWNode) [3]float32 { return n.Translation }},
	{Scale, func(n *formats.PMWNode) [3]float32 { return n.Scale }},
	{Translate, func(n *formats.PMWNode) [3]float32 { return n.PivotB }},
	{Translate, func(n *formats.PMWNode) [3]float32 { return n.PivotA }},
}

// BuildWorld reconstructs the scene graph of a world. Every world node
// becomes a transform-free node that mirrors the hierarchy; a node with
// geometry gets one extra leaf child carrying its transform and mesh, so
// a node's transform never reaches its descendants.
func BuildWorld(pmw *formats.PMW, textures []*pixbuf.Image, opts Options) (*Scene, error) {
	opts = opts.normalized()
	b := &builder{
		scene:    New(pmw.Info.Version),
		log:      opts.Logger,
		textures: textures,
	}
	b.scene.Resources.Textures = textures

	nodes := make([]*Node, len(pmw.Nodes))
	parents := make([]*Node, len(pmw.Nodes))
	depths := make([]int, len(pmw.Nodes))

	// IDs are preorder positions, so a node's parent and previous sibling
	// always come first.
	for i := range pmw.Nodes {
		wn := &pmw.Nodes[i]

		parent, depth := b.scene.Root, 1
		switch {
		case wn.ParentID >= 0:
			parent, depth = nodes[wn.ParentID], depths[wn.ParentID]+1
		case wn.PrevID >= 0:
			parent, depth = parents[wn.PrevID], depths[wn.PrevID]
		}
		if depth > opts.MaxDepth {
			return nil, fmt.Errorf("%w: %d at node %d", ErrSceneTooDeep, opts.MaxDepth, i)
		}

		node := parent.AddChild(wn.Name)
		nodes[i], parents[i], depths[i] = node, parent, depth

		if wn.MeshID < 0 || wn.MeshCount == 0 {
			continue
		}
		if err := b.worldGeometry(pmw, wn, node); err != nil {
			return nil, fmt.Errorf("node %d (%s): %w", i, wn.Name, err)
		}
	}

	b.scene.Update()
	return b.scene, nil
}

func (b *builder) worldGeometry(pmw *formats.PMW, wn *formats.PMWNode, node *Node) error {
	if wn.MeshID >= len(pmw.Meshes) {
		return fmt.Errorf("%w: mesh %d (have %d)", formats.ErrIndexOutOfRange, wn.MeshID, len(pmw.Meshes))
	}
	mesh := &pmw.Meshes[wn.MeshID]

	leaf := node.AddChild(wn.Name + "#mesh")
	for _, op := range WorldTransformOrder {
		leaf.AddTransform(op.Kind, math.FromArray(op.Field(wn)))
	}

	color := [4]uint8{255, 255, 255, 255}
	texture := -1
	if mat := pmw.Material(wn.MaterialAddr); mat != nil {
		color = mat.Color
		texture = b.texture(int(mat.TextureID), mat.Name)
	} else if wn.MaterialAddr != 0 {
		b.warn("unknown material", zap.String("node", wn.Name), zap.Uint32("addr", wn.MaterialAddr))
	}

	tm := &TriMesh{HasTexCoords: texture >= 0}
	var vs []Vertex
	for pi := range mesh.Polygons {
		vs = vs[:0]
		for _, pv := range mesh.Polygons[pi].Vertices {
			if int(pv.VertexID) >= len(pmw.Vertices) {
				return fmt.Errorf("%w: polygon %d vertex %d (have %d)", formats.ErrIndexOutOfRange, pi, pv.VertexID, len(pmw.Vertices))
			}
			p := pmw.Vertices[pv.VertexID]
			// no texture coordinate table is known; project onto XY
			vs = append(vs, Vertex{Position: p, Color: color, TexCoord: [2]float32{p[0], p[1]}})
		}
		tm.AddStrip(vs)
	}

	b.scene.Attach(leaf, &Geometry{
		Name:         wn.Name,
		Mesh:         tm,
		Texture:      texture,
		Blend:        BlendOpaque,
		Cull:         CullNone,
		Env:          EnvModulate,
		LinearFilter: true,
		Visible:      true,
	})
	return nil
}
