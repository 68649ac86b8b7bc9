// Package report writes human-readable dumps of parsed containers and
// reconstructed scenes.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/Faultbox/pmviewer/internal/scene"
	"github.com/Faultbox/pmviewer/pkg/formats"
)

const ruleWidth = 120

// section writes a titled, tab-aligned table. Rows are tab separated.
type section struct {
	w   io.Writer
	err error
}

func (s *section) printf(format string, args ...any) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, args...)
}

func (s *section) table(title string, header string, rows func(add func(format string, args ...any))) {
	s.printf("%s\n%s\n\n", title, strings.Repeat("-", ruleWidth))
	if s.err != nil {
		return
	}

	tw := tabwriter.NewWriter(s.w, 0, 0, 2, ' ', 0)
	if header != "" {
		fmt.Fprintln(tw, header)
	}
	rows(func(format string, args ...any) {
		fmt.Fprintf(tw, format+"\n", args...)
	})
	if err := tw.Flush(); err != nil {
		s.err = err
		return
	}
	s.printf("\n\n")
}

func vec3(v [3]float32) string {
	return fmt.Sprintf("(%g, %g, %g)", v[0], v[1], v[2])
}

// WriteModel dumps the header and every materialized block of a model.
// tpl may be nil.
func WriteModel(w io.Writer, pmm *formats.PMM, tpl *formats.TPL) error {
	s := &section{w: w}
	h := &pmm.Header

	s.table("Header", "", func(add func(string, ...any)) {
		add("Model file:\t%s", h.ModelFile)
		add("Texture file:\t%s", h.TextureFile)
		add("Date:\t%s", h.Date)
		add("Animation offset:\t%#x", h.AnimationOffset)
		add("Bounds:\t%s - %s", vec3(h.BBoxMin), vec3(h.BBoxMax))
	})

	s.table("Blocks", "#\tBlock\tCount\tOffset", func(add func(string, ...any)) {
		for k := formats.BlockKind(0); k < formats.NumBlocks; k++ {
			b := h.Blocks[k]
			add("%d\t%s\t%d\t%#x", int(k)+1, k, b.Count, b.Offset)
		}
	})

	s.table("Scene Graph", "#\tName\tNext\tChild\tObject\tVisibility\tTransform\tJoint", func(add func(string, ...any)) {
		for i, r := range pmm.SceneGraph {
			add("%d\t%s\t%d\t%d\t%d\t%d\t%d\t%d", i, r.Name, r.Next, r.Child, r.ObjectIndex, r.VisibilityIdx, r.TransformIndex, r.Joint)
		}
	})

	s.table("Scene Object Visibility", "#\tVisible", func(add func(string, ...any)) {
		for i, v := range pmm.Visibility {
			add("%d\t%d", i, v)
		}
	})

	s.table("Scene Object Transforms", "#\tTriples", func(add func(string, ...any)) {
		for i := 0; i+formats.TransformGroupSize <= len(pmm.Transforms); i += formats.TransformGroupSize {
			g := pmm.Transforms[i : i+formats.TransformGroupSize]
			triples := make([]string, 0, 8)
			for j := 0; j < len(g); j += 3 {
				triples = append(triples, vec3([3]float32{g[j], g[j+1], g[j+2]}))
			}
			add("%d\t%s", i, strings.Join(triples, " "))
		}
	})

	s.table("Scene Objects", "#\tName\tVertices\tNormals\tColors\tTexCoords\tMeshes\tBlend\tCull", func(add func(string, ...any)) {
		for i, o := range pmm.SceneObjects {
			add("%d\t%s\t%d+%d\t%d+%d\t%d+%d\t%d+%d\t%d+%d\t%d\t%d", i, o.Name,
				o.VertexIndex, o.VertexCount, o.NormalIndex, o.NormalCount,
				o.ColorIndex, o.ColorCount, o.TexCoordIndex, o.TexCoordCount,
				o.MeshIndex, o.MeshCount, o.Blending, o.Culling)
		}
	})

	s.table("Meshes", "#\tTextureMap\tPolygons\tPolyVertex\tPolyNormal\tPolyColor\tPolyTexCoord", func(add func(string, ...any)) {
		for i, m := range pmm.Meshes {
			add("%d\t%d\t%d+%d\t%d\t%d\t%d\t%d", i, m.TextureMapIndex, m.PolygonIndex, m.PolygonCount,
				m.PolyVertexBase, m.PolyNormalBase, m.PolyColorBase, m.PolyTexCoordBase)
		}
	})

	s.table("Block 19", "#\tValues", func(add func(string, ...any)) {
		for i, v := range pmm.Block19 {
			add("%d\t%v", i, v)
		}
	})

	s.table("Texture Maps", "#\tTexture\tEnvMode", func(add func(string, ...any)) {
		for i, m := range pmm.TextureMaps {
			add("%d\t%d\t%d", i, m.TextureIndex, m.EnvMode)
		}
	})

	s.table("Textures", "#\tName\tTPL\tSize\tFormat\tWrap\tFilter", func(add func(string, ...any)) {
		for i, t := range pmm.Textures {
			if tpl == nil || int(t.TPLIndex) >= tpl.Len() {
				add("%d\t%s\t%d\t-\t-\t-\t-", i, t.Name, t.TPLIndex)
				continue
			}
			tt := &tpl.Textures[t.TPLIndex]
			add("%d\t%s\t%d\t%dx%d\t%s\t%s/%s\t%d/%d", i, t.Name, t.TPLIndex,
				tt.Width, tt.Height, tt.Format, tt.WrapS, tt.WrapT, tt.MinFilter, tt.MagFilter)
		}
	})

	s.table("Polygons", "#\tPolyVertex\tCorners", func(add func(string, ...any)) {
		for i, p := range pmm.Polygons {
			add("%d\t%d\t%d", i, p.PolyVertexIndex, p.VertexCount)
		}
	})

	s.table("Vertex Coordinates", "#\tIndex\tPosition", func(add func(string, ...any)) {
		for i, idx := range pmm.PolyVertices {
			add("%d\t%d\t%s", i, idx, lookup(pmm.Vertices, idx, vec3))
		}
	})

	s.table("Vertex Normals", "#\tIndex\tNormal", func(add func(string, ...any)) {
		for i, idx := range pmm.PolyNormals {
			add("%d\t%d\t%s", i, idx, lookup(pmm.Normals, idx, vec3))
		}
	})

	s.table("Vertex Colors", "#\tIndex\tRGBA", func(add func(string, ...any)) {
		for i, idx := range pmm.PolyColors {
			add("%d\t%d\t%s", i, idx, lookup(pmm.Colors, idx, func(c [4]uint8) string { return fmt.Sprint(c) }))
		}
	})

	s.table("Vertex Texture Coordinates", "#\tIndex\tST", func(add func(string, ...any)) {
		for i, idx := range pmm.PolyTexCoords {
			add("%d\t%d\t%s", i, idx, lookup(pmm.TexCoords, idx, func(st [2]float32) string {
				return fmt.Sprintf("(%g, %g)", st[0], st[1])
			}))
		}
	})

	s.table("Animations", "#\tName\tOffset", func(add func(string, ...any)) {
		for i, a := range pmm.Animations {
			add("%d\t%s\t%#x", i, a.Name, a.DataOffset)
		}
	})

	return s.err
}

// lookup formats s[idx], the raw entry a poly-map index points at. The
// object base is not applied, so the value is only indicative.
func lookup[T any](s []T, idx uint32, format func(T) string) string {
	if int(idx) >= len(s) {
		return "-"
	}
	return format(s[idx])
}

// WriteWorld dumps the tables, materials, scene graph and meshes of a
// world. tpl may be nil.
func WriteWorld(w io.Writer, pmw *formats.PMW, tpl *formats.TPL) error {
	s := &section{w: w}

	s.table("Header", "", func(add func(string, ...any)) {
		d := pmw.Descriptor
		add("Master index:\t%#x", d.MasterIndex)
		add("Index count:\t%d", d.IndexCount)
		add("Table count:\t%d", d.TableCount)
	})

	s.table("Tables", "#\tName\tAddress", func(add func(string, ...any)) {
		for i, t := range pmw.Tables {
			add("%d\t%s\t%#x", i, t.Name, t.Addr)
		}
	})

	s.table("Information Table", "", func(add func(string, ...any)) {
		in := pmw.Info
		add("Version:\t%s", in.Version)
		add("Scene root:\t%#x", in.SceneRoot)
		add("Strings:\t%s / %s", in.Str1, in.Str2)
		add("Date:\t%s", in.Date)
	})

	s.table("Texture Name Table", "#\tName\tDecoded", func(add func(string, ...any)) {
		for i, n := range pmw.TextureNames {
			size := "-"
			if tpl != nil && i < tpl.Len() {
				size = fmt.Sprintf("%dx%d %s", tpl.Textures[i].Width, tpl.Textures[i].Height, tpl.Textures[i].Format)
			}
			add("%d\t%s\t%s", i, n, size)
		}
	})

	s.table("VCD Table", "", func(add func(string, ...any)) {
		add("Vertices:\t%#x (%d)", pmw.VCD.VertexAddr, len(pmw.Vertices))
		add("Colors:\t%#x", pmw.VCD.ColorAddr)
	})

	addrs := make([]uint32, 0, len(pmw.Materials))
	for a := range pmw.Materials {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	s.table("Materials", "Address\tName\tColor\tParams\tTexture", func(add func(string, ...any)) {
		for _, a := range addrs {
			m := pmw.Materials[a]
			add("%#x\t%s\t%v\t%v\t%d", m.Addr, m.Name, m.Color, m.Params, m.TextureID)
		}
	})

	s.table("Scene Graph", "#\tName\tType\tParent\tChild\tNext\tPrev\tMesh\tMaterial\tTranslation\tScale", func(add func(string, ...any)) {
		for _, n := range pmw.Nodes {
			add("%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%#x\t%s\t%s", n.ID, n.Name, n.Type,
				n.ParentID, n.ChildID, n.NextID, n.PrevID, n.MeshID, n.MaterialAddr,
				vec3(n.Translation), vec3(n.Scale))
		}
	})

	s.table("Meshes", "#\tAddress\tPolygons\tElementMask\tStride", func(add func(string, ...any)) {
		for _, m := range pmw.Meshes {
			add("%d\t%#x\t%d\t%#x\t%d", m.ID, m.Addr, m.PolyCount, m.ElementMask, m.VertexStride())
		}
	})

	return s.err
}

// WriteScene prints the reconstructed node tree with transform and
// geometry summaries, followed by any reconstruction warnings.
func WriteScene(w io.Writer, s *scene.Scene) error {
	sec := &section{w: w}
	sec.printf("Scene %s: %d nodes, %d triangles\n", s.Name, s.NodeCount(), s.TriangleCount())

	s.Walk(func(n *scene.Node, depth int) bool {
		indent := strings.Repeat("  ", depth)
		sec.printf("%s%s\n", indent, n.Name)
		for _, t := range n.Transforms() {
			sec.printf("%s  %s %s\n", indent, t.Kind, vec3(t.Vec.Array()))
		}
		for _, g := range n.Geometries() {
			sec.printf("%s  * %s: %d tris, texture %d, %s, cull %s, visible %v\n", indent,
				g.Name, g.Mesh.TriangleCount(), g.Texture, g.Blend, g.Cull, g.Visible)
		}
		return sec.err == nil
	})

	if b := s.Bounds(); !b.Empty() {
		sec.printf("Bounds: %s - %s\n", vec3(b.Min.Array()), vec3(b.Max.Array()))
	}
	for _, warning := range s.Warnings {
		sec.printf("warning: %s\n", warning)
	}
	return sec.err
}
