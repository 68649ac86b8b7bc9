package formats_test

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/Faultbox/pmviewer/pkg/formats"
	"github.com/Faultbox/pmviewer/pkg/formats/formatstest"
)

// sampleWorld is root -> {a -> {a1}, b}, with a textured material on a and
// a single strip mesh on a1.
func sampleWorld() *formatstest.World {
	a1 := &formatstest.WorldNode{
		Name:     "a1",
		Type:     "mesh",
		Scale:    [3]float32{1, 1, 1},
		Material: -1,
		Mesh: &formatstest.WorldMesh{
			ElementMask: 0x3,
			Strips:      [][]uint16{{0, 1, 2, 3}},
		},
	}
	a := &formatstest.WorldNode{
		Name:        "a",
		Type:        "group",
		Scale:       [3]float32{2, 2, 2},
		Translation: [3]float32{1, 2, 3},
		Material:    0,
		Children:    []*formatstest.WorldNode{a1},
	}
	b := &formatstest.WorldNode{Name: "b", Type: "group", Scale: [3]float32{1, 1, 1}, Material: 1}
	root := &formatstest.WorldNode{
		Name:     "root",
		Type:     "root",
		Scale:    [3]float32{1, 1, 1},
		Material: -1,
		Children: []*formatstest.WorldNode{a, b},
	}

	return &formatstest.World{
		Version:  "ver1.02",
		Vertices: [][3]int16{{0, 0, 0}, {100, 0, 0}, {0, 100, 0}, {100, 100, -250}},
		Materials: []formatstest.WorldMaterial{
			{Name: "stone", Color: [4]uint8{1, 2, 3, 4}, TextureID: 2},
			{Name: "flat", Color: [4]uint8{255, 255, 255, 255}, TextureID: -1},
		},
		TextureNames: []string{"tex0", "tex1", "tex2"},
		Root:         root,
	}
}

func TestParsePMW_Tables(t *testing.T) {
	data, _ := sampleWorld().Build()
	pmw, err := formats.ParsePMW(data, formats.PMWOptions{})
	if err != nil {
		t.Fatalf("ParsePMW: %v", err)
	}

	if pmw.Info.Version != "ver1.02" || pmw.Info.Date != "2009/01/01" {
		t.Errorf("info = %+v", pmw.Info)
	}
	if len(pmw.Tables) != 8 || pmw.Tables[formats.PMWTableMaterial].Name != "material" {
		t.Errorf("tables = %+v", pmw.Tables)
	}
	if len(pmw.TextureNames) != 3 || pmw.TextureNames[2] != "tex2" {
		t.Errorf("texture names = %v", pmw.TextureNames)
	}
	if len(pmw.MaterialNames) != 2 || pmw.MaterialNames[0].Name != "stone" {
		t.Errorf("material names = %+v", pmw.MaterialNames)
	}
}

func TestParsePMW_Vertices(t *testing.T) {
	data, _ := sampleWorld().Build()
	pmw, err := formats.ParsePMW(data, formats.PMWOptions{})
	if err != nil {
		t.Fatalf("ParsePMW: %v", err)
	}

	if len(pmw.Vertices) != 4 {
		t.Fatalf("vertex count = %d, want 4", len(pmw.Vertices))
	}
	want := [3]float32{1, 1, -2.5}
	for i := range want {
		if math.Abs(float64(pmw.Vertices[3][i]-want[i])) > 1e-5 {
			t.Errorf("vertex 3 = %v, want %v", pmw.Vertices[3], want)
			break
		}
	}
}

func TestParsePMW_Nodes(t *testing.T) {
	data, addrs := sampleWorld().Build()
	pmw, err := formats.ParsePMW(data, formats.PMWOptions{})
	if err != nil {
		t.Fatalf("ParsePMW: %v", err)
	}

	// preorder: root, a, a1, b
	wantNames := []string{"root", "a", "a1", "b"}
	if len(pmw.Nodes) != len(wantNames) {
		t.Fatalf("node count = %d, want %d", len(pmw.Nodes), len(wantNames))
	}
	for i, n := range pmw.Nodes {
		if n.ID != i || n.Name != wantNames[i] || n.Addr != addrs[i] {
			t.Errorf("node %d = id %d %q @%#x, want %q @%#x", i, n.ID, n.Name, n.Addr, wantNames[i], addrs[i])
		}
	}

	links := []struct {
		id                            int
		parent, child, next, previous int
	}{
		{0, -1, 1, -1, -1},
		{1, 0, 2, 3, -1},
		{2, 1, -1, -1, -1},
		{3, -1, -1, -1, 1},
	}
	for _, l := range links {
		n := pmw.Nodes[l.id]
		got := [4]int{n.ParentID, n.ChildID, n.NextID, n.PrevID}
		want := [4]int{l.parent, l.child, l.next, l.previous}
		if got != want {
			t.Errorf("node %q links (parent, child, next, prev) = %v, want %v", n.Name, got, want)
		}
	}

	a := pmw.Nodes[1]
	if a.Scale != [3]float32{2, 2, 2} || a.Translation != [3]float32{1, 2, 3} {
		t.Errorf("node a transform = %v %v", a.Scale, a.Translation)
	}
	if pmw.Root() != &pmw.Nodes[0] {
		t.Error("Root should return the first node")
	}
}

func TestParsePMW_Materials(t *testing.T) {
	data, _ := sampleWorld().Build()
	pmw, err := formats.ParsePMW(data, formats.PMWOptions{})
	if err != nil {
		t.Fatalf("ParsePMW: %v", err)
	}

	tests := []struct {
		node      int
		wantName  string
		wantTexID int32
		wantColor [4]uint8
	}{
		{1, "stone", 2, [4]uint8{1, 2, 3, 4}},
		{3, "flat", -1, [4]uint8{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		node := pmw.Nodes[tt.node]
		mat := pmw.Material(node.MaterialAddr)
		if mat == nil {
			t.Errorf("node %q has no material", node.Name)
			continue
		}
		if mat.Name != tt.wantName || mat.TextureID != tt.wantTexID || mat.Color != tt.wantColor {
			t.Errorf("node %q material = %+v", node.Name, mat)
		}
	}

	if pmw.Material(pmw.Nodes[0].MaterialAddr) != nil {
		t.Error("root should have no material")
	}
}

func TestParsePMW_Meshes(t *testing.T) {
	data, _ := sampleWorld().Build()
	pmw, err := formats.ParsePMW(data, formats.PMWOptions{})
	if err != nil {
		t.Fatalf("ParsePMW: %v", err)
	}

	if len(pmw.Meshes) != 1 {
		t.Fatalf("mesh count = %d, want 1", len(pmw.Meshes))
	}
	if pmw.Nodes[2].MeshID != 0 || pmw.Nodes[0].MeshID != -1 {
		t.Errorf("mesh IDs = %d, %d", pmw.Nodes[2].MeshID, pmw.Nodes[0].MeshID)
	}

	mesh := pmw.Meshes[0]
	if mesh.VertexStride() != 4 {
		t.Errorf("stride = %d, want 4", mesh.VertexStride())
	}
	if len(mesh.Polygons) != 1 || len(mesh.Data) != 1 {
		t.Fatalf("polygons = %d, data = %d", len(mesh.Polygons), len(mesh.Data))
	}
	var ids []uint16
	for _, v := range mesh.Polygons[0].Vertices {
		ids = append(ids, v.VertexID)
	}
	if fmt.Sprint(ids) != "[0 1 2 3]" {
		t.Errorf("strip vertex IDs = %v", ids)
	}
	if len(mesh.Data[0].Data) != 3+4*4 {
		t.Errorf("raw data length = %d", len(mesh.Data[0].Data))
	}
}

func TestParsePMW_Cycle(t *testing.T) {
	data, addrs := sampleWorld().Build()
	// a1's child link points back at a
	formatstest.PatchU32(data, addrs[2], 12, addrs[1])

	_, err := formats.ParsePMW(data, formats.PMWOptions{})
	if !errors.Is(err, formats.ErrWorldCycle) {
		t.Errorf("expected ErrWorldCycle, got %v", err)
	}
}

func TestParsePMW_NodeLimit(t *testing.T) {
	data, _ := sampleWorld().Build()

	if _, err := formats.ParsePMW(data, formats.PMWOptions{MaxNodes: 3}); !errors.Is(err, formats.ErrTooManyNodes) {
		t.Errorf("expected ErrTooManyNodes, got %v", err)
	}
	if _, err := formats.ParsePMW(data, formats.PMWOptions{MaxNodes: 4}); err != nil {
		t.Errorf("limit equal to node count should pass: %v", err)
	}
}

func TestParsePMW_Errors(t *testing.T) {
	valid, addrs := sampleWorld().Build()

	badNode := append([]byte(nil), valid...)
	formatstest.PatchU32(badNode, addrs[0], 16, uint32(len(valid)))

	badTables := append([]byte(nil), valid...)
	binary.BigEndian.PutUint32(badTables[12:], 1<<20)

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", nil, formats.ErrTruncatedPMWData},
		{"descriptor only", make([]byte, 32), formats.ErrTruncatedPMWData},
		{"dangling sibling", badNode, formats.ErrTruncatedPMWData},
		{"table count overflow", badTables, formats.ErrTruncatedPMWData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := formats.ParsePMW(tt.data, formats.PMWOptions{}); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParsePMW_EmptyGraph(t *testing.T) {
	w := sampleWorld()
	w.Root = nil
	data, _ := w.Build()

	pmw, err := formats.ParsePMW(data, formats.PMWOptions{})
	if err != nil {
		t.Fatalf("ParsePMW: %v", err)
	}
	if pmw.Root() != nil || len(pmw.Meshes) != 0 {
		t.Errorf("expected empty graph, got %d nodes", len(pmw.Nodes))
	}
}
