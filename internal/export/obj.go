package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Faultbox/pmviewer/internal/scene"
)

// MaterialName is the OBJ material used for geometry sampling texture i.
func MaterialName(texture int) string {
	return fmt.Sprintf("tex%d", texture)
}

// WriteOBJ writes every visible geometry of s as a world-space OBJ object.
// Textured geometry references MaterialName(texture) from mtllib when
// mtllib is not empty.
func WriteOBJ(w io.Writer, s *scene.Scene, mtllib string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s: %d triangles\n", s.Name, s.TriangleCount())
	if mtllib != "" {
		fmt.Fprintf(bw, "mtllib %s\n", mtllib)
	}

	// OBJ indices are 1-based and global across objects
	base := 1
	for i, g := range s.Resources.Geometries {
		if !g.Visible || g.Mesh.TriangleCount() == 0 {
			continue
		}
		world := g.Node.WorldMatrix()
		normals := world.NormalMatrix()

		fmt.Fprintf(bw, "o %s_%d\n", g.Name, i)
		if mtllib != "" && g.Textured() {
			fmt.Fprintf(bw, "usemtl %s\n", MaterialName(g.Texture))
		}
		for _, v := range g.Mesh.Vertices {
			p := world.TransformPoint(v.Position)
			fmt.Fprintf(bw, "v %g %g %g\n", p[0], p[1], p[2])
		}
		for _, v := range g.Mesh.Vertices {
			n := normals.TransformDirection(v.Normal)
			fmt.Fprintf(bw, "vn %g %g %g\n", n[0], n[1], n[2])
		}
		if g.Mesh.HasTexCoords {
			// flip T: GX samples with the origin at the top
			for _, v := range g.Mesh.Vertices {
				fmt.Fprintf(bw, "vt %g %g\n", v.TexCoord[0], 1-v.TexCoord[1])
			}
		}

		idx := g.Mesh.Indices
		for t := 0; t+2 < len(idx); t += 3 {
			a, b, c := base+int(idx[t]), base+int(idx[t+1]), base+int(idx[t+2])
			if g.Mesh.HasTexCoords {
				fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
			} else {
				fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
			}
		}
		base += len(g.Mesh.Vertices)
	}
	return bw.Flush()
}

// WriteMTL writes one material per texture index used by visible
// geometry, mapping it to the file name returned by textureFile.
func WriteMTL(w io.Writer, s *scene.Scene, textureFile func(texture int) string) error {
	bw := bufio.NewWriter(w)
	seen := make(map[int]bool)
	for _, g := range s.Resources.Geometries {
		if !g.Visible || !g.Textured() || seen[g.Texture] {
			continue
		}
		seen[g.Texture] = true
		fmt.Fprintf(bw, "newmtl %s\nKd 1 1 1\nmap_Kd %s\n\n", MaterialName(g.Texture), textureFile(g.Texture))
	}
	return bw.Flush()
}
