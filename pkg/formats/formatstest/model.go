// Package formatstest builds synthetic model, world and texture containers
// for tests.
package formatstest

import (
	"encoding/binary"
	"math"

	"github.com/Faultbox/pmviewer/pkg/formats"
)

// ModelBuilder assembles a model container block by block.
type ModelBuilder struct {
	ModelFile   string
	TextureFile string
	Date        string
	BBoxMin     [3]float32
	BBoxMax     [3]float32

	records [formats.NumBlocks][][]byte
}

// NewModelBuilder returns an empty builder.
func NewModelBuilder() *ModelBuilder {
	return &ModelBuilder{ModelFile: "model", TextureFile: "model"}
}

// Add appends a raw record to block k and returns its index.
func (b *ModelBuilder) Add(k formats.BlockKind, rec []byte) int {
	b.records[k] = append(b.records[k], rec)
	return len(b.records[k]) - 1
}

// Count returns the number of records in block k.
func (b *ModelBuilder) Count(k formats.BlockKind) int {
	return len(b.records[k])
}

// AddVertex appends a position.
func (b *ModelBuilder) AddVertex(x, y, z float32) int {
	return b.Add(formats.BlockVertex, F32s(x, y, z))
}

// AddNormal appends a normal.
func (b *ModelBuilder) AddNormal(x, y, z float32) int {
	return b.Add(formats.BlockNormal, F32s(x, y, z))
}

// AddColor appends a vertex color.
func (b *ModelBuilder) AddColor(r, g, bl, a uint8) int {
	return b.Add(formats.BlockColor, []byte{r, g, bl, a})
}

// AddTexCoord appends a texture coordinate.
func (b *ModelBuilder) AddTexCoord(s, t float32) int {
	return b.Add(formats.BlockTexCoord, F32s(s, t))
}

// AddCorner appends one entry to each of the four poly-map blocks.
func (b *ModelBuilder) AddCorner(vertex, normal, color, texCoord uint32) {
	b.Add(formats.BlockPolyVertex, U32s(vertex))
	b.Add(formats.BlockPolyNormal, U32s(normal))
	b.Add(formats.BlockPolyColor, U32s(color))
	b.Add(formats.BlockPolyTexCoord, U32s(texCoord))
}

// AddPolygon appends a polygon record.
func (b *ModelBuilder) AddPolygon(polyVertexIndex, vertexCount uint32) int {
	return b.Add(formats.BlockPolygon, U32s(polyVertexIndex, vertexCount))
}

// AddTextureMap appends a texture map record.
func (b *ModelBuilder) AddTextureMap(textureIndex, envMode uint32) int {
	return b.Add(formats.BlockTextureMap, U32s(textureIndex, envMode))
}

// AddTexture appends a texture record.
func (b *ModelBuilder) AddTexture(tplIndex uint32, name string) int {
	rec := make([]byte, formats.BlockTexture.RecordSize())
	binary.BigEndian.PutUint32(rec[4:], tplIndex)
	copy(rec[12:63], name)
	return b.Add(formats.BlockTexture, rec)
}

// AddMesh appends a mesh record.
func (b *ModelBuilder) AddMesh(m formats.Mesh) int {
	rec := make([]byte, formats.BlockMesh.RecordSize())
	putS32(rec, 16, m.TextureMapIndex)
	putS32(rec, 56, m.PolygonIndex)
	putS32(rec, 60, m.PolygonCount)
	putS32(rec, 64, m.PolyVertexBase)
	putS32(rec, 68, m.PolyNormalBase)
	putS32(rec, 72, m.PolyColorBase)
	putS32(rec, 76, m.PolyTexCoordBase)
	return b.Add(formats.BlockMesh, rec)
}

// AddSceneObject appends a scene object record.
func (b *ModelBuilder) AddSceneObject(o formats.SceneObject) int {
	rec := make([]byte, formats.BlockSceneObject.RecordSize())
	copy(rec[:63], o.Name)
	putS32(rec, 64, o.VertexIndex)
	putS32(rec, 68, o.VertexCount)
	putS32(rec, 72, o.NormalIndex)
	putS32(rec, 76, o.NormalCount)
	putS32(rec, 80, o.ColorIndex)
	putS32(rec, 84, o.ColorCount)
	putS32(rec, 88, o.TexCoordIndex)
	putS32(rec, 92, o.TexCoordCount)
	putS32(rec, 152, o.MeshIndex)
	putS32(rec, 156, o.MeshCount)
	binary.BigEndian.PutUint32(rec[160:], o.Blending)
	binary.BigEndian.PutUint32(rec[164:], o.Culling)
	return b.Add(formats.BlockSceneObject, rec)
}

// AddSceneGraph appends a scene graph record.
func (b *ModelBuilder) AddSceneGraph(r formats.SceneGraphRecord) int {
	rec := make([]byte, formats.BlockSceneGraph.RecordSize())
	copy(rec[:63], r.Name)
	putS32(rec, 64, r.Next)
	putS32(rec, 68, r.Child)
	putS32(rec, 72, r.ObjectIndex)
	putS32(rec, 76, r.VisibilityIdx)
	putS32(rec, 80, r.TransformIndex)
	putS32(rec, 84, r.Joint)
	return b.Add(formats.BlockSceneGraph, rec)
}

// AddVisibility appends a visibility flag.
func (b *ModelBuilder) AddVisibility(v int8) int {
	return b.Add(formats.BlockSceneObjectVisibility, []byte{byte(v)})
}

// AddTransformGroup appends 24 transform floats and returns the index of
// the first.
func (b *ModelBuilder) AddTransformGroup(g [formats.TransformGroupSize]float32) int {
	start := b.Count(formats.BlockSceneObjectTransform)
	for _, v := range g {
		b.Add(formats.BlockSceneObjectTransform, F32s(v))
	}
	return start
}

// AddAnimation appends an animation table entry.
func (b *ModelBuilder) AddAnimation(name string, dataOffset uint32) int {
	rec := make([]byte, formats.BlockAnimation.RecordSize())
	copy(rec[:59], name)
	binary.BigEndian.PutUint32(rec[60:], dataOffset)
	return b.Add(formats.BlockAnimation, rec)
}

// Bytes lays out the header followed by every non-empty block.
func (b *ModelBuilder) Bytes() []byte {
	out := make([]byte, formats.PMMHeaderSize)
	copy(out[4:67], b.ModelFile)
	copy(out[68:131], b.TextureFile)
	copy(out[132:195], b.Date)
	for i := 0; i < 3; i++ {
		binary.BigEndian.PutUint32(out[208+i*4:], math.Float32bits(b.BBoxMin[i]))
		binary.BigEndian.PutUint32(out[220+i*4:], math.Float32bits(b.BBoxMax[i]))
	}

	for k, recs := range b.records {
		binary.BigEndian.PutUint32(out[232+k*4:], uint32(len(recs)))
		if len(recs) == 0 {
			continue
		}
		binary.BigEndian.PutUint32(out[332+k*4:], uint32(len(out)))
		for _, rec := range recs {
			out = append(out, rec...)
		}
		// keep the next block 4-byte aligned
		for len(out)%4 != 0 {
			out = append(out, 0)
		}
	}
	return out
}

// IdentityTransform returns a transform group whose reconstructed matrix is
// the identity: unit scale and everything else zero.
func IdentityTransform() [formats.TransformGroupSize]float32 {
	var g [formats.TransformGroupSize]float32
	g[3], g[4], g[5] = 1, 1, 1
	return g
}

// Triangle returns a builder holding the smallest complete model: one scene
// graph record with one object, one untextured mesh and one triangle.
func Triangle() *ModelBuilder {
	b := NewModelBuilder()
	b.AddVertex(0, 0, 0)
	b.AddVertex(1, 0, 0)
	b.AddVertex(0, 1, 0)
	b.AddNormal(0, 0, 1)
	b.AddColor(255, 255, 255, 255)
	for i := uint32(0); i < 3; i++ {
		b.AddCorner(i, 0, 0, 0)
	}
	b.AddPolygon(0, 3)
	b.AddMesh(formats.Mesh{TextureMapIndex: -1, PolygonIndex: 0, PolygonCount: 1})
	b.AddSceneObject(formats.SceneObject{Name: "tri", MeshIndex: 0, MeshCount: 1, Blending: 1, Culling: 1})
	b.AddVisibility(1)
	t := b.AddTransformGroup(IdentityTransform())
	b.AddSceneGraph(formats.SceneGraphRecord{
		Name: "root", Next: -1, Child: -1, ObjectIndex: 0, VisibilityIdx: 0, TransformIndex: int32(t), Joint: -1,
	})
	return b
}

// U32s encodes big-endian uint32 values.
func U32s(vals ...uint32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint32(out[i*4:], v)
	}
	return out
}

// F32s encodes big-endian float32 values.
func F32s(vals ...float32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func putS32(b []byte, off int, v int32) {
	binary.BigEndian.PutUint32(b[off:], uint32(v))
}
