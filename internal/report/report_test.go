package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Faultbox/pmviewer/internal/scene"
	"github.com/Faultbox/pmviewer/pkg/formats"
	"github.com/Faultbox/pmviewer/pkg/formats/formatstest"
)

var errWrite = errors.New("disk full")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errWrite }

func triangle(t *testing.T) *formats.PMM {
	t.Helper()
	pmm, err := formats.ParsePMM(formatstest.Triangle().Bytes())
	if err != nil {
		t.Fatalf("ParsePMM: %v", err)
	}
	return pmm
}

func world(t *testing.T) *formats.PMW {
	t.Helper()
	w := &formatstest.World{
		Version:      "ver1.02",
		Vertices:     [][3]int16{{0, 0, 0}, {100, 0, 0}, {0, 100, 0}},
		Materials:    []formatstest.WorldMaterial{{Name: "grass", Color: [4]uint8{0, 255, 0, 255}, TextureID: 0}},
		TextureNames: []string{"grass_tex"},
		Root: &formatstest.WorldNode{
			Name: "field", Type: "mesh", Scale: [3]float32{1, 1, 1}, Material: 0,
			Mesh: &formatstest.WorldMesh{ElementMask: 0x3, Strips: [][]uint16{{0, 1, 2}}},
		},
	}
	data, _ := w.Build()
	pmw, err := formats.ParsePMW(data, formats.PMWOptions{})
	if err != nil {
		t.Fatalf("ParsePMW: %v", err)
	}
	return pmw
}

func TestWriteModel(t *testing.T) {
	tpl, err := formats.ParseTPL(formatstest.BuildTPL(formatstest.SolidRGB565(0)))
	if err != nil {
		t.Fatalf("ParseTPL: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteModel(&buf, triangle(t), tpl); err != nil {
		t.Fatalf("WriteModel: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Header", "Model file:", "model",
		"Scene Graph", "Scene Objects", "tri", "Meshes", "Textures", "Animations",
		"(1, 0, 0)", // second vertex
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestWriteModelWithoutTextures(t *testing.T) {
	b := formatstest.Triangle()
	b.AddTexture(3, "stone")
	pmm, err := formats.ParsePMM(b.Bytes())
	if err != nil {
		t.Fatalf("ParsePMM: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteModel(&buf, pmm, nil); err != nil {
		t.Fatalf("WriteModel: %v", err)
	}
	if !strings.Contains(buf.String(), "stone") {
		t.Error("texture records should be listed without a container")
	}
}

func TestWriteWorld(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorld(&buf, world(t), nil); err != nil {
		t.Fatalf("WriteWorld: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"ver1.02", "Materials", "grass", "grass_tex", "field", "Meshes"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestWriteScene(t *testing.T) {
	s, err := scene.BuildModel(triangle(t), nil, scene.DefaultOptions())
	if err != nil {
		t.Fatalf("BuildModel: %v", err)
	}
	s.Warnings = append(s.Warnings, "unknown culling mode mode=2")

	var buf bytes.Buffer
	if err := WriteScene(&buf, s); err != nil {
		t.Fatalf("WriteScene: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"1 triangles", "rotate-zyx", "tri/0: 1 tris", "Bounds:", "warning: unknown culling mode"} {
		if !strings.Contains(out, want) {
			t.Errorf("scene dump missing %q:\n%s", want, out)
		}
	}
}

func TestWriteErrors(t *testing.T) {
	if err := WriteModel(failingWriter{}, triangle(t), nil); !errors.Is(err, errWrite) {
		t.Errorf("WriteModel: expected write error, got %v", err)
	}
	if err := WriteWorld(failingWriter{}, world(t), nil); !errors.Is(err, errWrite) {
		t.Errorf("WriteWorld: expected write error, got %v", err)
	}
}
