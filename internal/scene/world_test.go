package scene

import (
	"errors"
	"strings"
	"testing"

	"github.com/Faultbox/pmviewer/pkg/formats"
	"github.com/Faultbox/pmviewer/pkg/formats/formatstest"
	"github.com/Faultbox/pmviewer/pkg/math"
	"github.com/Faultbox/pmviewer/pkg/pixbuf"
)

var unit = [3]float32{1, 1, 1}

// testWorld is world -> {a -> {a1}, b}. a and a1 carry strips, b carries a
// single triangle with an untextured material.
func testWorld() *formatstest.World {
	a1 := &formatstest.WorldNode{
		Name: "a1", Type: "mesh", Scale: unit, Translation: [3]float32{0, 5, 0}, Material: 0,
		Mesh: &formatstest.WorldMesh{ElementMask: 0x3, Strips: [][]uint16{{0, 1, 2}}},
	}
	a := &formatstest.WorldNode{
		Name: "a", Type: "mesh", Scale: [3]float32{2, 2, 2}, Translation: [3]float32{1, 0, 0},
		PivotA: [3]float32{0, 0, 2}, Material: 0,
		Mesh:     &formatstest.WorldMesh{ElementMask: 0x3, Strips: [][]uint16{{0, 1, 2, 3}}},
		Children: []*formatstest.WorldNode{a1},
	}
	b := &formatstest.WorldNode{
		Name: "b", Type: "mesh", Scale: unit, Material: 1,
		Mesh: &formatstest.WorldMesh{ElementMask: 0x3, Strips: [][]uint16{{1, 2, 3}}},
	}
	return &formatstest.World{
		Version: "ver1.02",
		Vertices: [][3]int16{
			{0, 0, 0}, {100, 0, 0}, {0, 100, 0}, {100, 100, 0},
		},
		Materials: []formatstest.WorldMaterial{
			{Name: "stone", Color: [4]uint8{10, 20, 30, 255}, TextureID: 0},
			{Name: "flat", Color: [4]uint8{1, 2, 3, 4}, TextureID: -1},
		},
		TextureNames: []string{"stone"},
		Root: &formatstest.WorldNode{
			Name: "world", Type: "null", Scale: unit, Material: -1,
			Children: []*formatstest.WorldNode{a, b},
		},
	}
}

func parseWorld(t *testing.T, data []byte) *formats.PMW {
	t.Helper()
	pmw, err := formats.ParsePMW(data, formats.PMWOptions{})
	if err != nil {
		t.Fatalf("ParsePMW: %v", err)
	}
	return pmw
}

func findNode(s *Scene, name string) *Node {
	var found *Node
	s.Walk(func(n *Node, _ int) bool {
		if n.Name == name {
			found = n
		}
		return found == nil
	})
	return found
}

func TestBuildWorld(t *testing.T) {
	data, _ := testWorld().Build()
	tex := pixbuf.New(2, 2, pixbuf.RGBA8)
	s, err := BuildWorld(parseWorld(t, data), []*pixbuf.Image{tex}, DefaultOptions())
	if err != nil {
		t.Fatalf("BuildWorld: %v", err)
	}

	if s.Name != "ver1.02" {
		t.Errorf("Name = %q", s.Name)
	}
	// synthetic root, world, a, a#mesh, a1, a1#mesh, b, b#mesh
	if s.NodeCount() != 8 {
		t.Errorf("NodeCount = %d, want 8", s.NodeCount())
	}
	if len(s.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", s.Warnings)
	}

	world := s.Root.Children()[0]
	if world.Name != "world" || len(world.Children()) != 2 {
		t.Fatalf("world node %q has %d children, want 2", world.Name, len(world.Children()))
	}
	if world.Children()[0].Name != "a" || world.Children()[1].Name != "b" {
		t.Errorf("children = %q, %q", world.Children()[0].Name, world.Children()[1].Name)
	}

	a := world.Children()[0]
	if len(a.Transforms()) != 0 || len(a.Geometries()) != 0 {
		t.Error("hierarchy nodes should carry neither transforms nor geometry")
	}

	leaf := findNode(s, "a#mesh")
	if leaf == nil || leaf.Parent() != a {
		t.Fatal("a#mesh should be a child of a")
	}
	// T(1,0,0) S(2) T(pivot a): origin at (1, 0, 4)
	if got := translation(leaf.WorldMatrix()); got != (math.Vec3{X: 1, Z: 4}) {
		t.Errorf("a#mesh origin = %v, want (1, 0, 4)", got)
	}

	g := leaf.Geometries()[0]
	if g.Mesh.TriangleCount() != 2 {
		t.Errorf("a strip triangles = %d, want 2", g.Mesh.TriangleCount())
	}
	if g.Texture != 0 || !g.Mesh.HasTexCoords {
		t.Errorf("a texture = %d, texcoords %v", g.Texture, g.Mesh.HasTexCoords)
	}
	if g.Mesh.Vertices[0].Color != [4]uint8{10, 20, 30, 255} {
		t.Errorf("a color = %v", g.Mesh.Vertices[0].Color)
	}
	for _, v := range g.Mesh.Vertices {
		if v.TexCoord[0] != v.Position[0] || v.TexCoord[1] != v.Position[1] {
			t.Errorf("texcoord %v should be the XY projection of %v", v.TexCoord, v.Position)
		}
	}
	if g.Blend != BlendOpaque || g.Cull != CullNone || g.Env != EnvModulate || !g.LinearFilter || !g.Visible {
		t.Errorf("render state = %s %s %s", g.Blend, g.Cull, g.Env)
	}

	bg := findNode(s, "b#mesh").Geometries()[0]
	if bg.Textured() || bg.Mesh.Vertices[0].Color != [4]uint8{1, 2, 3, 4} {
		t.Errorf("b = texture %d color %v", bg.Texture, bg.Mesh.Vertices[0].Color)
	}
	if s.TriangleCount() != 4 {
		t.Errorf("TriangleCount = %d, want 4", s.TriangleCount())
	}
}

func TestBuildWorldTransformsNotInherited(t *testing.T) {
	data, _ := testWorld().Build()
	s, err := BuildWorld(parseWorld(t, data), nil, DefaultOptions())
	if err != nil {
		t.Fatalf("BuildWorld: %v", err)
	}

	a1 := findNode(s, "a1")
	if a1 == nil || a1.Parent().Name != "a" {
		t.Fatal("a1 should stay a child of a")
	}
	if a1.WorldMatrix() != math.Identity() {
		t.Errorf("a1 world = %v, want identity", a1.WorldMatrix())
	}
	if got := translation(findNode(s, "a1#mesh").WorldMatrix()); got != (math.Vec3{Y: 5}) {
		t.Errorf("a1#mesh origin = %v, want (0, 5, 0)", got)
	}
}

func TestBuildWorldWarnings(t *testing.T) {
	data, addrs := testWorld().Build()
	// b's material points at nothing
	formatstest.PatchU32(data, addrs[3], 96, 4)

	s, err := BuildWorld(parseWorld(t, data), nil, DefaultOptions())
	if err != nil {
		t.Fatalf("BuildWorld: %v", err)
	}
	if len(s.Warnings) != 3 {
		t.Fatalf("warnings = %v, want two missing textures and one unknown material", s.Warnings)
	}
	var unknown int
	for _, w := range s.Warnings {
		if strings.HasPrefix(w, "unknown material") {
			unknown++
		}
	}
	if unknown != 1 {
		t.Errorf("warnings = %v", s.Warnings)
	}

	bg := findNode(s, "b#mesh").Geometries()[0]
	if bg.Mesh.Vertices[0].Color != [4]uint8{255, 255, 255, 255} {
		t.Errorf("unknown material should leave white, got %v", bg.Mesh.Vertices[0].Color)
	}
}

func TestBuildWorldErrors(t *testing.T) {
	t.Run("too deep", func(t *testing.T) {
		data, _ := testWorld().Build()
		_, err := BuildWorld(parseWorld(t, data), nil, Options{MaxDepth: 2})
		if !errors.Is(err, ErrSceneTooDeep) {
			t.Errorf("expected ErrSceneTooDeep, got %v", err)
		}
	})

	t.Run("vertex out of range", func(t *testing.T) {
		w := testWorld()
		w.Root.Children[1].Mesh.Strips = [][]uint16{{0, 1, 9}}
		data, _ := w.Build()
		_, err := BuildWorld(parseWorld(t, data), nil, DefaultOptions())
		if !errors.Is(err, formats.ErrIndexOutOfRange) {
			t.Errorf("expected ErrIndexOutOfRange, got %v", err)
		}
	})
}

func TestBuildWorldEmpty(t *testing.T) {
	w := testWorld()
	w.Root = nil
	data, _ := w.Build()
	s, err := BuildWorld(parseWorld(t, data), nil, Options{})
	if err != nil {
		t.Fatalf("BuildWorld: %v", err)
	}
	if s.NodeCount() != 1 {
		t.Errorf("NodeCount = %d, want the lone root", s.NodeCount())
	}
}
