package export

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/webp"

	"github.com/Faultbox/pmviewer/internal/scene"
	"github.com/Faultbox/pmviewer/pkg/formats"
	"github.com/Faultbox/pmviewer/pkg/formats/formatstest"
	"github.com/Faultbox/pmviewer/pkg/math"
	"github.com/Faultbox/pmviewer/pkg/pixbuf"
)

func checker(w, h int) *pixbuf.Image {
	img := pixbuf.New(w, h, pixbuf.RGBA8)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, pixbuf.Color{R: 255, A: 255})
			} else {
				img.Set(x, y, pixbuf.Color{B: 255, A: 128})
			}
		}
	}
	return img
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"png", PNG},
		{".webp", WebP},
		{"TGA", TGA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.name)
			if err != nil {
				t.Fatalf("ParseFormat: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := ParseFormat("bmp"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestEncodeDecode(t *testing.T) {
	src := checker(4, 4)
	decoders := map[Format]func(*bytes.Reader) (image.Image, error){
		PNG:  func(r *bytes.Reader) (image.Image, error) { return png.Decode(r) },
		WebP: func(r *bytes.Reader) (image.Image, error) { return webp.Decode(r) },
		TGA:  func(r *bytes.Reader) (image.Image, error) { return tga.Decode(r) },
	}

	for f, decode := range decoders {
		t.Run(f.String(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, src, f); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			img, err := decode(bytes.NewReader(buf.Bytes()))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 4 {
				t.Fatalf("bounds = %v", img.Bounds())
			}
			if r, g, b, a := img.At(0, 0).RGBA(); r>>8 != 255 || g != 0 || b != 0 || a>>8 != 255 {
				t.Errorf("pixel (0,0) = %d %d %d %d, want opaque red", r>>8, g>>8, b>>8, a>>8)
			}
		})
	}
}

func TestSaveImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tex_0.png")
	if err := SaveImage(path, checker(2, 2), PNG); err != nil {
		t.Fatalf("SaveImage: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("saved file is not a PNG: %v", err)
	}
}

func TestThumbnail(t *testing.T) {
	tests := []struct {
		name         string
		w, h, size   int
		wantW, wantH int
	}{
		{"wide", 256, 64, 128, 128, 32},
		{"tall", 32, 128, 64, 16, 64},
		{"square", 64, 64, 16, 16, 16},
		{"already small", 8, 4, 16, 8, 4},
		{"thin", 512, 1, 64, 64, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Thumbnail(checker(tt.w, tt.h), tt.size)
			if got.Bounds().Dx() != tt.wantW || got.Bounds().Dy() != tt.wantH {
				t.Errorf("thumbnail = %dx%d, want %dx%d", got.Bounds().Dx(), got.Bounds().Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestThumbnailCopiesSmallImages(t *testing.T) {
	src := checker(2, 2)
	got := Thumbnail(src, 16)
	if c := got.NRGBAAt(1, 0); c.B != 255 || c.A != 128 {
		t.Errorf("pixel (1,0) = %+v, want half-transparent blue", c)
	}
}

func TestWriteOBJModel(t *testing.T) {
	pmm, err := formats.ParsePMM(formatstest.Triangle().Bytes())
	if err != nil {
		t.Fatalf("ParsePMM: %v", err)
	}
	s, err := scene.BuildModel(pmm, nil, scene.DefaultOptions())
	if err != nil {
		t.Fatalf("BuildModel: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteOBJ(&buf, s, ""); err != nil {
		t.Fatalf("WriteOBJ: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"o tri/0_0", "v 1 0 0", "v 0 1 0", "f 1//1 2//2 3//3"} {
		if !strings.Contains(out, want) {
			t.Errorf("OBJ missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "mtllib") || strings.Contains(out, "vt ") {
		t.Errorf("untextured OBJ should not reference materials:\n%s", out)
	}
}

// texturedScene returns two translated quads sharing texture 2, and one
// hidden triangle.
func texturedScene() *scene.Scene {
	s := scene.New("test")
	quad := func() *scene.TriMesh {
		m := &scene.TriMesh{HasTexCoords: true}
		m.AddPolygon([]scene.Vertex{
			{Position: [3]float32{0, 0, 0}, TexCoord: [2]float32{0, 0}},
			{Position: [3]float32{1, 0, 0}, TexCoord: [2]float32{1, 0}},
			{Position: [3]float32{1, 1, 0}, TexCoord: [2]float32{1, 1}},
			{Position: [3]float32{0, 1, 0}, TexCoord: [2]float32{0, 1}},
		})
		return m
	}

	a := s.Root.AddChild("a")
	a.AddTransform(scene.Translate, math.Vec3{X: 10})
	s.Attach(a, &scene.Geometry{Name: "a", Mesh: quad(), Texture: 2, Visible: true})
	b := s.Root.AddChild("b")
	s.Attach(b, &scene.Geometry{Name: "b", Mesh: quad(), Texture: 2, Visible: true})

	hidden := &scene.TriMesh{}
	hidden.AddPolygon(make([]scene.Vertex, 3))
	s.Attach(b, &scene.Geometry{Name: "hidden", Mesh: hidden, Texture: 5, Visible: false})

	s.Update()
	return s
}

func TestWriteOBJTextured(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOBJ(&buf, texturedScene(), "scene.mtl"); err != nil {
		t.Fatalf("WriteOBJ: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"mtllib scene.mtl",
		"usemtl tex2",
		"v 11 1 0", // translated corner of a
		"vt 1 1",   // T flipped
		"f 1/1/1 2/2/2 3/3/3",
		"f 5/5/5 6/6/6 7/7/7", // b indexes after a's four vertices
	} {
		if !strings.Contains(out, want) {
			t.Errorf("OBJ missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Error("hidden geometry should not be written")
	}
}

func TestWriteMTL(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMTL(&buf, texturedScene(), func(i int) string { return "tex_" + string(rune('0'+i)) + ".png" })
	if err != nil {
		t.Fatalf("WriteMTL: %v", err)
	}

	out := buf.String()
	if strings.Count(out, "newmtl") != 1 {
		t.Errorf("shared texture should produce one material:\n%s", out)
	}
	if !strings.Contains(out, "map_Kd tex_2.png") {
		t.Errorf("material should map the texture file:\n%s", out)
	}
}
