package scene

import (
	"errors"
	"fmt"

	"github.com/Faultbox/pmviewer/pkg/math"
	"github.com/Faultbox/pmviewer/pkg/pixbuf"
)

// ErrTransformIndex is returned when a node has no transform at the given index.
var ErrTransformIndex = errors.New("transform index out of range")

// TransformKind identifies one elementary transform.
type TransformKind int

const (
	Translate TransformKind = iota
	Scale
	RotateXYZ // degrees; applied to a vector as Z, then Y, then X
	RotateZYX // degrees; applied to a vector as X, then Y, then Z
)

func (k TransformKind) String() string {
	switch k {
	case Translate:
		return "translate"
	case Scale:
		return "scale"
	case RotateXYZ:
		return "rotate-xyz"
	case RotateZYX:
		return "rotate-zyx"
	}
	return fmt.Sprintf("TransformKind(%d)", int(k))
}

// Transform is one entry of a node's ordered transform list.
type Transform struct {
	Kind TransformKind
	Vec  math.Vec3
}

// Matrix returns the transform as a matrix.
func (t Transform) Matrix() math.Mat4 {
	switch t.Kind {
	case Translate:
		return math.Translate(t.Vec.X, t.Vec.Y, t.Vec.Z)
	case Scale:
		return math.Scale(t.Vec.X, t.Vec.Y, t.Vec.Z)
	case RotateXYZ:
		return math.EulerXYZ(t.Vec)
	case RotateZYX:
		return math.EulerZYX(t.Vec)
	}
	return math.Identity()
}

// Node is a scene graph node. Its world matrix is
// parentWorld * T1 * T2 * ... over its transform list.
type Node struct {
	Name string

	parent     *Node
	children   []*Node
	transforms []Transform
	geometries []*Geometry

	world math.Mat4
	dirty bool
}

func newNode(name string, parent *Node) *Node {
	return &Node{Name: name, parent: parent, world: math.Identity(), dirty: true}
}

// AddChild creates a child node appended after the existing children.
func (n *Node) AddChild(name string) *Node {
	c := newNode(name, n)
	n.children = append(n.children, c)
	return c
}

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child nodes in insertion order.
func (n *Node) Children() []*Node { return n.children }

// Geometries returns the drawables attached to the node.
func (n *Node) Geometries() []*Geometry { return n.geometries }

// Transforms returns the ordered transform list.
func (n *Node) Transforms() []Transform { return n.transforms }

// AddTransform appends a transform and returns its index.
func (n *Node) AddTransform(kind TransformKind, v math.Vec3) int {
	n.transforms = append(n.transforms, Transform{Kind: kind, Vec: v})
	n.dirty = true
	return len(n.transforms) - 1
}

// SetTransform replaces the vector of transform i.
func (n *Node) SetTransform(i int, v math.Vec3) error {
	if i < 0 || i >= len(n.transforms) {
		return fmt.Errorf("%w: %d of %d", ErrTransformIndex, i, len(n.transforms))
	}
	n.transforms[i].Vec = v
	n.dirty = true
	return nil
}

// UpdateTransform adds delta to the vector of transform i.
func (n *Node) UpdateTransform(i int, delta math.Vec3) error {
	if i < 0 || i >= len(n.transforms) {
		return fmt.Errorf("%w: %d of %d", ErrTransformIndex, i, len(n.transforms))
	}
	n.transforms[i].Vec = n.transforms[i].Vec.Add(delta)
	n.dirty = true
	return nil
}

// Dirty reports whether the node's own transforms changed since the last
// update. Descendants of a dirty node are stale too.
func (n *Node) Dirty() bool { return n.dirty }

// WorldMatrix returns the cached world matrix, valid after Scene.Update.
func (n *Node) WorldMatrix() math.Mat4 { return n.world }

func (n *Node) localMatrix(parentWorld math.Mat4) math.Mat4 {
	m := parentWorld
	for _, t := range n.transforms {
		m = m.Mul(t.Matrix())
	}
	return m
}

// Resources owns everything the nodes of a scene point at.
type Resources struct {
	Meshes     []*TriMesh
	Geometries []*Geometry
	Textures   []*pixbuf.Image
}

// Scene is a reconstructed scene graph. The root is a synthetic identity
// node.
type Scene struct {
	Name      string
	Root      *Node
	Resources Resources
	Warnings  []string
}

// New returns an empty scene.
func New(name string) *Scene {
	return &Scene{Name: name, Root: newNode("root", nil)}
}

// Attach adds a geometry to node n and records it in the scene resources.
func (s *Scene) Attach(n *Node, g *Geometry) {
	g.Node = n
	n.geometries = append(n.geometries, g)
	s.Resources.Meshes = append(s.Resources.Meshes, g.Mesh)
	s.Resources.Geometries = append(s.Resources.Geometries, g)
}

// Update recomputes stale world matrices. A dirty root recomputes the whole
// tree; otherwise only subtrees under dirty nodes are rebuilt, starting from
// their parent's cached matrix. Clean siblings are left untouched.
func (s *Scene) Update() {
	if s.Root.dirty {
		recompute(s.Root, math.Identity())
		return
	}

	stack := []*Node{s.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range n.children {
			if c.dirty {
				recompute(c, n.world)
			} else {
				stack = append(stack, c)
			}
		}
	}
}

func recompute(n *Node, parentWorld math.Mat4) {
	type item struct {
		node   *Node
		parent math.Mat4
	}
	stack := []item{{n, parentWorld}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		it.node.world = it.node.localMatrix(it.parent)
		it.node.dirty = false
		for _, c := range it.node.children {
			stack = append(stack, item{c, it.node.world})
		}
	}
}

// Walk visits every node in preorder. Returning false from fn skips the
// node's subtree.
func (s *Scene) Walk(fn func(n *Node, depth int) bool) {
	type item struct {
		node  *Node
		depth int
	}
	stack := []item{{s.Root, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(it.node, it.depth) {
			continue
		}
		for i := len(it.node.children) - 1; i >= 0; i-- {
			stack = append(stack, item{it.node.children[i], it.depth + 1})
		}
	}
}

// NodeCount returns the number of nodes including the root.
func (s *Scene) NodeCount() int {
	count := 0
	s.Walk(func(*Node, int) bool {
		count++
		return true
	})
	return count
}

// Bounds returns the world-space bounds of every visible geometry. Call
// Update first.
func (s *Scene) Bounds() AABB {
	b := EmptyAABB()
	for _, g := range s.Resources.Geometries {
		if !g.Visible {
			continue
		}
		b = b.Union(g.Mesh.Bounds().Transform(g.Node.WorldMatrix()))
	}
	return b
}

// TriangleCount returns the total triangle count over all geometries.
func (s *Scene) TriangleCount() int {
	n := 0
	for _, m := range s.Resources.Meshes {
		n += m.TriangleCount()
	}
	return n
}
