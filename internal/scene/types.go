// Package scene rebuilds renderable scene graphs from parsed model and
// world containers.
//
// A Scene owns its meshes, geometries and textures through Resources; nodes
// hold non-owning pointers into it. World matrices are cached per node and
// recomputed lazily by Scene.Update.
package scene

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/pmviewer/pkg/math"
)

// Vertex is one fully expanded mesh vertex.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	Color    [4]uint8
	TexCoord [2]float32
}

// BlendMode selects how a geometry is composited.
type BlendMode int

const (
	BlendOpaque BlendMode = iota
	BlendAlphaTest
	BlendAlpha
)

func (b BlendMode) String() string {
	switch b {
	case BlendOpaque:
		return "opaque"
	case BlendAlphaTest:
		return "alpha-test"
	case BlendAlpha:
		return "alpha-blend"
	}
	return "unknown"
}

// CullMode selects face culling.
type CullMode int

const (
	CullNone CullMode = iota
	CullBack
)

func (c CullMode) String() string {
	if c == CullBack {
		return "back"
	}
	return "none"
}

// EnvMode selects how texels combine with vertex colors.
type EnvMode int

const (
	EnvReplace EnvMode = iota
	EnvModulate
)

func (e EnvMode) String() string {
	if e == EnvModulate {
		return "modulate"
	}
	return "replace"
}

// Geometry is a drawable: one mesh plus its render state, attached to a node.
type Geometry struct {
	Name           string
	Mesh           *TriMesh
	Node           *Node
	Texture        int // index into Resources.Textures, -1 when untextured
	Blend          BlendMode
	AlphaThreshold float32 // used with BlendAlphaTest
	Cull           CullMode
	Env            EnvMode
	LinearFilter   bool
	Visible        bool
}

// Textured reports whether the geometry samples a texture.
func (g *Geometry) Textured() bool {
	return g.Texture >= 0
}

// AABB is an axis-aligned bounding box. The zero value is not empty; use
// EmptyAABB to start an accumulation.
type AABB struct {
	Min math.Vec3
	Max math.Vec3
}

// EmptyAABB returns a box that contains nothing.
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: math.Vec3{X: inf, Y: inf, Z: inf},
		Max: math.Vec3{X: -inf, Y: -inf, Z: -inf},
	}
}

// Empty reports whether the box contains no point.
func (b AABB) Empty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Extend grows the box to contain p.
func (b *AABB) Extend(p math.Vec3) {
	b.Min = b.Min.Min(p)
	b.Max = b.Max.Max(p)
}

// Union returns the smallest box containing both boxes.
func (b AABB) Union(o AABB) AABB {
	if o.Empty() {
		return b
	}
	if b.Empty() {
		return o
	}
	return AABB{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

// Center returns the midpoint of the box.
func (b AABB) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the extent of the box along each axis.
func (b AABB) Size() math.Vec3 {
	if b.Empty() {
		return math.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Transform returns the box enclosing all eight corners of b under m.
func (b AABB) Transform(m math.Mat4) AABB {
	if b.Empty() {
		return b
	}
	out := EmptyAABB()
	for i := 0; i < 8; i++ {
		c := b.Min
		if i&1 != 0 {
			c.X = b.Max.X
		}
		if i&2 != 0 {
			c.Y = b.Max.Y
		}
		if i&4 != 0 {
			c.Z = b.Max.Z
		}
		out.Extend(m.TransformVec3(c))
	}
	return out
}
