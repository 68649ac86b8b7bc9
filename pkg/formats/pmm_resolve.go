package formats

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned when a record index points outside its block.
var ErrIndexOutOfRange = errors.New("index out of range")

// TransformGroupSize is the number of floats describing one node transform.
const TransformGroupSize = 24

// Corner is one fully resolved polygon corner.
type Corner struct {
	Position    [3]float32
	Normal      [3]float32
	Color       [4]uint8
	TexCoord    [2]float32
	HasTexCoord bool
}

func checkIndex(what string, idx, n int) error {
	if idx < 0 || idx >= n {
		return fmt.Errorf("%w: %s %d (have %d)", ErrIndexOutOfRange, what, idx, n)
	}
	return nil
}

// lookup resolves the two-level indirection used by every per-corner
// attribute: the mesh base plus polygon start plus corner selects an entry
// in a poly-map block, and that entry is added to the object's base.
func lookup(what string, polyMap []uint32, mapIdx, objBase, n int) (int, error) {
	if err := checkIndex("poly "+what, mapIdx, len(polyMap)); err != nil {
		return 0, err
	}
	idx := objBase + int(polyMap[mapIdx])
	if err := checkIndex(what, idx, n); err != nil {
		return 0, err
	}
	return idx, nil
}

// ResolveCorner returns the attributes of corner c of poly, a polygon of
// mesh, which belongs to obj. Texture coordinates are only resolved for
// textured meshes.
func (pmm *PMM) ResolveCorner(obj *SceneObject, mesh *Mesh, poly *Polygon, c int) (Corner, error) {
	var out Corner
	rel := int(poly.PolyVertexIndex) + c

	vi, err := lookup("vertex", pmm.PolyVertices, int(mesh.PolyVertexBase)+rel, int(obj.VertexIndex), len(pmm.Vertices))
	if err != nil {
		return out, err
	}
	out.Position = pmm.Vertices[vi]

	ni, err := lookup("normal", pmm.PolyNormals, int(mesh.PolyNormalBase)+rel, int(obj.NormalIndex), len(pmm.Normals))
	if err != nil {
		return out, err
	}
	out.Normal = pmm.Normals[ni]

	ci, err := lookup("color", pmm.PolyColors, int(mesh.PolyColorBase)+rel, int(obj.ColorIndex), len(pmm.Colors))
	if err != nil {
		return out, err
	}
	out.Color = pmm.Colors[ci]

	if mesh.Textured() {
		ti, err := lookup("texcoord", pmm.PolyTexCoords, int(mesh.PolyTexCoordBase)+rel, int(obj.TexCoordIndex), len(pmm.TexCoords))
		if err != nil {
			return out, err
		}
		out.TexCoord = pmm.TexCoords[ti]
		out.HasTexCoord = true
	}

	return out, nil
}

// MeshesOf returns the meshes owned by obj.
func (pmm *PMM) MeshesOf(obj *SceneObject) ([]Mesh, error) {
	return span("mesh", pmm.Meshes, int(obj.MeshIndex), int(obj.MeshCount))
}

// PolygonsOf returns the polygons of mesh.
func (pmm *PMM) PolygonsOf(mesh *Mesh) ([]Polygon, error) {
	return span("polygon", pmm.Polygons, int(mesh.PolygonIndex), int(mesh.PolygonCount))
}

func span[T any](what string, s []T, start, count int) ([]T, error) {
	if count == 0 {
		return nil, nil
	}
	if start < 0 || count < 0 || start > len(s) || count > len(s)-start {
		return nil, fmt.Errorf("%w: %s range [%d,+%d) (have %d)", ErrIndexOutOfRange, what, start, count, len(s))
	}
	return s[start : start+count], nil
}

// TextureRef is the texture sampled by a mesh.
type TextureRef struct {
	TPLIndex int // -1 when the mesh is untextured
	EnvMode  uint32
	Name     string
}

// ResolveTexture follows mesh -> texture map -> texture record -> TPL index.
func (pmm *PMM) ResolveTexture(mesh *Mesh) (TextureRef, error) {
	if !mesh.Textured() {
		return TextureRef{TPLIndex: -1}, nil
	}
	mi := int(mesh.TextureMapIndex)
	if err := checkIndex("texture map", mi, len(pmm.TextureMaps)); err != nil {
		return TextureRef{TPLIndex: -1}, err
	}
	tm := pmm.TextureMaps[mi]
	ti := int(tm.TextureIndex)
	if err := checkIndex("texture", ti, len(pmm.Textures)); err != nil {
		return TextureRef{TPLIndex: -1}, err
	}
	tex := pmm.Textures[ti]
	return TextureRef{TPLIndex: int(tex.TPLIndex), EnvMode: tm.EnvMode, Name: tex.Name}, nil
}

// TransformGroup returns the 24 transform floats starting at start.
func (pmm *PMM) TransformGroup(start int) ([TransformGroupSize]float32, error) {
	var g [TransformGroupSize]float32
	if start < 0 || start > len(pmm.Transforms)-TransformGroupSize {
		return g, fmt.Errorf("%w: transform group at %d (have %d floats)", ErrIndexOutOfRange, start, len(pmm.Transforms))
	}
	copy(g[:], pmm.Transforms[start:])
	return g, nil
}

// SceneObjectOf returns the object attached to rec, or nil when it has none.
func (pmm *PMM) SceneObjectOf(rec *SceneGraphRecord) (*SceneObject, error) {
	if rec.ObjectIndex < 0 {
		return nil, nil
	}
	if err := checkIndex("scene object", int(rec.ObjectIndex), len(pmm.SceneObjects)); err != nil {
		return nil, err
	}
	return &pmm.SceneObjects[rec.ObjectIndex], nil
}

// Visible reports whether rec's geometry should be drawn. A record without
// a visibility entry is visible.
func (pmm *PMM) Visible(rec *SceneGraphRecord) (bool, error) {
	if rec.VisibilityIdx < 0 {
		return true, nil
	}
	if err := checkIndex("visibility", int(rec.VisibilityIdx), len(pmm.Visibility)); err != nil {
		return false, err
	}
	return pmm.Visibility[rec.VisibilityIdx] != 0, nil
}
