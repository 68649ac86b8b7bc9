package renderer

import (
	"testing"

	"github.com/Faultbox/pmviewer/internal/scene"
	"github.com/Faultbox/pmviewer/pkg/math"
	"github.com/Faultbox/pmviewer/pkg/pixbuf"
)

func TestInterleave(t *testing.T) {
	m := &scene.TriMesh{}
	m.AddPolygon([]scene.Vertex{
		{Position: [3]float32{1, 2, 3}, Normal: [3]float32{0, 0, 1}, Color: [4]uint8{255, 0, 51, 255}, TexCoord: [2]float32{0.5, 1}},
		{},
		{},
	})

	v := interleave(m)
	if len(v) != 3*floatsPerVertex {
		t.Fatalf("got %d floats, want %d", len(v), 3*floatsPerVertex)
	}
	want := []float32{1, 2, 3, 0, 0, 1, 1, 0, 0.2, 1, 0.5, 1}
	for i, w := range want {
		if v[i] != w {
			t.Errorf("float %d = %g, want %g", i, v[i], w)
		}
	}
	if offsetTexCoord/4 != 10 || vertexStride != floatsPerVertex*4 {
		t.Error("attribute offsets do not match the packing")
	}
}

func TestDrawOrder(t *testing.T) {
	s := scene.New("order")
	tri := func() *scene.TriMesh {
		m := &scene.TriMesh{}
		m.AddPolygon(make([]scene.Vertex, 3))
		return m
	}
	add := func(name string, z float32, blend scene.BlendMode, visible bool) *scene.Geometry {
		n := s.Root.AddChild(name)
		n.AddTransform(scene.Translate, math.Vec3{Z: z})
		g := &scene.Geometry{Name: name, Mesh: tri(), Blend: blend, Visible: visible, Texture: -1}
		s.Attach(n, g)
		return g
	}

	nearGlass := add("near glass", 1, scene.BlendAlpha, true)
	wall := add("wall", 0, scene.BlendOpaque, true)
	farGlass := add("far glass", -5, scene.BlendAlpha, true)
	add("hidden", 0, scene.BlendOpaque, false)
	leaves := add("leaves", 0, scene.BlendAlphaTest, true)
	empty := &scene.Geometry{Name: "empty", Mesh: &scene.TriMesh{}, Visible: true}
	s.Attach(s.Root, empty)
	s.Update()

	got := drawOrder(s.Resources.Geometries, math.Vec3{Z: 10})
	want := []*scene.Geometry{wall, leaves, farGlass, nearGlass}
	if len(got) != len(want) {
		t.Fatalf("got %d geometries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d = %s, want %s", i, got[i].Name, want[i].Name)
		}
	}
}

func TestSubtreeGeometries(t *testing.T) {
	s := scene.New("tree")
	mesh := &scene.TriMesh{}
	a := s.Root.AddChild("a")
	a1 := a.AddChild("a1")
	b := s.Root.AddChild("b")
	ga := &scene.Geometry{Name: "ga", Mesh: mesh}
	ga1 := &scene.Geometry{Name: "ga1", Mesh: mesh}
	gb := &scene.Geometry{Name: "gb", Mesh: mesh}
	s.Attach(a1, ga1)
	s.Attach(a, ga)
	s.Attach(b, gb)

	got := subtreeGeometries(a)
	if len(got) != 2 || got[0] != ga || got[1] != ga1 {
		t.Errorf("subtree of a = %v, want [ga ga1]", got)
	}
	if got := subtreeGeometries(s.Root); len(got) != 3 {
		t.Errorf("subtree of root has %d geometries, want 3", len(got))
	}
}

func TestTexturePixels(t *testing.T) {
	rgba := pixbuf.New(2, 1, pixbuf.RGBA8)
	rgba.Set(1, 0, pixbuf.Color{R: 10, G: 20, B: 30, A: 40})
	got := texturePixels(rgba)
	if &got[0] != &rgba.Pix()[0] {
		t.Error("RGBA8 pixels should be uploaded without a copy")
	}
	if want := []byte{0, 0, 0, 0, 10, 20, 30, 40}; string(got) != string(want) {
		t.Errorf("rgba pixels = %v, want %v", got, want)
	}

	lum := pixbuf.New(2, 1, pixbuf.LUM8)
	lum.Set(0, 0, pixbuf.Color{R: 90, G: 90, B: 90, A: 255})
	got = texturePixels(lum)
	if len(got) != 2*4 {
		t.Fatalf("lum pixels len = %d, want 8", len(got))
	}
	if got[0] != got[1] || got[1] != got[2] || got[3] != 255 || got[7] != 255 {
		t.Errorf("lum pixels = %v, want grey opaque", got)
	}
}
