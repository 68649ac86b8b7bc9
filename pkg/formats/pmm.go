// PMM model container parser.
//
// A model file is a 432-byte header followed by 25 typed blocks of
// fixed-size records. The header holds a record count and an absolute
// offset for every block; records reference each other by index.
package formats

import (
	"errors"
	"fmt"

	"github.com/Faultbox/pmviewer/pkg/bin"
)

// PMM format errors.
var (
	ErrTruncatedPMMData = errors.New("truncated PMM data")
	ErrBlockOutOfRange  = errors.New("PMM block exceeds file size")
)

// PMMHeaderSize is the size of the fixed model header.
const PMMHeaderSize = 432

// BlockKind identifies one of the model blocks, in header order.
type BlockKind int

const (
	BlockSceneObject BlockKind = iota
	BlockPolygon
	BlockVertex
	BlockPolyVertex
	BlockNormal
	BlockPolyNormal
	BlockColor
	BlockPolyColor
	BlockPolyTexCoord
	BlockUnknown11
	BlockUnknown12
	BlockUnknown13
	BlockUnknown14
	BlockUnknown15
	BlockUnknown16
	BlockUnknown17
	BlockTexCoord
	Block19
	BlockTextureMap
	BlockTexture
	BlockMesh
	BlockSceneObjectVisibility
	BlockSceneObjectTransform
	BlockSceneGraph
	BlockAnimation

	NumBlocks
)

// Record sizes in bytes. Zero means the layout is unknown and the block is
// not materialized.
var blockRecordSizes = [NumBlocks]int{
	BlockSceneObject:           168,
	BlockPolygon:               8,
	BlockVertex:                12,
	BlockPolyVertex:            4,
	BlockNormal:                12,
	BlockPolyNormal:            4,
	BlockColor:                 4,
	BlockPolyColor:             4,
	BlockPolyTexCoord:          4,
	BlockTexCoord:              8,
	Block19:                    24,
	BlockTextureMap:            8,
	BlockTexture:               64,
	BlockMesh:                  108,
	BlockSceneObjectVisibility: 1,
	BlockSceneObjectTransform:  4,
	BlockSceneGraph:            88,
	BlockAnimation:             64,
}

var blockNames = [NumBlocks]string{
	"SceneObject", "Polygon", "Vertex", "PolyVertex", "Normal", "PolyNormal",
	"Color", "PolyColor", "PolyTexCoord",
	"Unknown11", "Unknown12", "Unknown13", "Unknown14", "Unknown15", "Unknown16", "Unknown17",
	"TexCoord", "Block19", "TextureMap", "Texture", "Mesh",
	"SceneObjectVisibility", "SceneObjectTransform", "SceneGraph", "Animation",
}

// RecordSize returns the record size of the block, or 0 if unknown.
func (k BlockKind) RecordSize() int {
	if k < 0 || k >= NumBlocks {
		return 0
	}
	return blockRecordSizes[k]
}

func (k BlockKind) String() string {
	if k < 0 || k >= NumBlocks {
		return fmt.Sprintf("Block(%d)", int(k))
	}
	return blockNames[k]
}

// BlockInfo is the header entry for one block.
type BlockInfo struct {
	Count  uint32
	Offset uint32
}

// PMMHeader is the fixed model header.
type PMMHeader struct {
	AnimationOffset uint32
	ModelFile       string
	TextureFile     string
	Date            string
	Unknown         [3]uint32
	BBoxMin         [3]float32
	BBoxMax         [3]float32
	Blocks          [NumBlocks]BlockInfo
}

// SceneObject describes the geometry attached to a scene graph record.
// The index fields are bases added to per-corner indices.
type SceneObject struct {
	Name          string
	VertexIndex   int32
	VertexCount   int32
	NormalIndex   int32
	NormalCount   int32
	ColorIndex    int32
	ColorCount    int32
	TexCoordIndex int32
	TexCoordCount int32
	Unknown       [14]int32
	MeshIndex     int32
	MeshCount     int32
	Blending      uint32
	Culling       uint32
}

// Polygon is a run of corners in the PolyVertex block (relative to the
// owning mesh's base).
type Polygon struct {
	PolyVertexIndex uint32
	VertexCount     uint32
}

// TextureMap binds a texture record to an environment mode.
type TextureMap struct {
	TextureIndex uint32
	EnvMode      uint32
}

// PMMTexture names a texture in the sibling TPL container.
type PMMTexture struct {
	Unknown00 uint32
	TPLIndex  uint32
	Unknown08 uint32
	Name      string
}

// Mesh is a group of polygons sharing material state.
type Mesh struct {
	Unknown00        [4]uint32
	TextureMapIndex  int32 // -1 when untextured
	Unknown14        [9]uint32
	PolygonIndex     int32
	PolygonCount     int32
	PolyVertexBase   int32
	PolyNormalBase   int32
	PolyColorBase    int32
	PolyTexCoordBase int32
	Unknown50        [7]uint32
}

// Textured reports whether the mesh samples a texture.
func (m *Mesh) Textured() bool {
	return m.TextureMapIndex != -1
}

// SceneGraphRecord is one node of the flat scene graph. Negative links
// mean none.
type SceneGraphRecord struct {
	Name           string
	Next           int32
	Child          int32
	ObjectIndex    int32
	VisibilityIdx  int32
	TransformIndex int32
	Joint          int32
}

// Animation is an animation table entry. Playback is not supported; the
// records are kept for inspection.
type Animation struct {
	Name       string
	DataOffset uint32
}

// PMM is a parsed model container.
type PMM struct {
	Header PMMHeader

	SceneObjects  []SceneObject
	Polygons      []Polygon
	Vertices      [][3]float32
	PolyVertices  []uint32
	Normals       [][3]float32
	PolyNormals   []uint32
	Colors        [][4]uint8
	PolyColors    []uint32
	PolyTexCoords []uint32
	TexCoords     [][2]float32
	Block19       [][6]float32
	TextureMaps   []TextureMap
	Textures      []PMMTexture
	Meshes        []Mesh
	Visibility    []int8
	Transforms    []float32
	SceneGraph    []SceneGraphRecord
	Animations    []Animation
}

// ParsePMM parses model data from a byte slice.
func ParsePMM(data []byte) (*PMM, error) {
	if len(data) < PMMHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrTruncatedPMMData, len(data), PMMHeaderSize)
	}

	pmm := &PMM{Header: parsePMMHeader(data)}

	if err := pmm.Header.Validate(len(data)); err != nil {
		return nil, err
	}

	if err := pmm.parseBlocks(data); err != nil {
		return nil, err
	}

	return pmm, nil
}

func parsePMMHeader(data []byte) PMMHeader {
	r := bin.NewReader(data, 0)
	h := PMMHeader{
		AnimationOffset: r.U32(0),
		ModelFile:       r.String(4, 64),
		TextureFile:     r.String(68, 64),
		Date:            r.String(132, 64),
		Unknown:         [3]uint32{r.U32(196), r.U32(200), r.U32(204)},
		BBoxMin:         r.Vec3(208),
		BBoxMax:         r.Vec3(220),
	}
	for i := range h.Blocks {
		h.Blocks[i].Count = r.U32(232 + i*4)
		h.Blocks[i].Offset = r.U32(332 + i*4)
	}
	return h
}

// Validate checks that every block with a known record size fits in a
// file of fileSize bytes.
func (h *PMMHeader) Validate(fileSize int) error {
	for k := BlockKind(0); k < NumBlocks; k++ {
		size := k.RecordSize()
		if size == 0 {
			continue
		}
		b := h.Blocks[k]
		end := uint64(b.Offset) + uint64(b.Count)*uint64(size)
		if end > uint64(fileSize) {
			return fmt.Errorf("%w: %s block at %d with %d records of %d bytes ends at %d (file %d)",
				ErrBlockOutOfRange, k, b.Offset, b.Count, size, end, fileSize)
		}
	}
	return nil
}

// eachRecord calls fn with a reader anchored at every record of block k.
func (pmm *PMM) eachRecord(data []byte, k BlockKind, fn func(i int, r *bin.Reader)) error {
	b := pmm.Header.Blocks[k]
	size := k.RecordSize()
	for i := 0; i < int(b.Count); i++ {
		r := bin.NewReader(data, int(b.Offset)+i*size)
		fn(i, r)
		if err := r.Err(); err != nil {
			return fmt.Errorf("%s record %d: %w", k, i, err)
		}
	}
	return nil
}

func (pmm *PMM) count(k BlockKind) int {
	return int(pmm.Header.Blocks[k].Count)
}

func (pmm *PMM) parseBlocks(data []byte) error {
	pmm.SceneObjects = make([]SceneObject, pmm.count(BlockSceneObject))
	pmm.Polygons = make([]Polygon, pmm.count(BlockPolygon))
	pmm.Vertices = make([][3]float32, pmm.count(BlockVertex))
	pmm.PolyVertices = make([]uint32, pmm.count(BlockPolyVertex))
	pmm.Normals = make([][3]float32, pmm.count(BlockNormal))
	pmm.PolyNormals = make([]uint32, pmm.count(BlockPolyNormal))
	pmm.Colors = make([][4]uint8, pmm.count(BlockColor))
	pmm.PolyColors = make([]uint32, pmm.count(BlockPolyColor))
	pmm.PolyTexCoords = make([]uint32, pmm.count(BlockPolyTexCoord))
	pmm.TexCoords = make([][2]float32, pmm.count(BlockTexCoord))
	pmm.Block19 = make([][6]float32, pmm.count(Block19))
	pmm.TextureMaps = make([]TextureMap, pmm.count(BlockTextureMap))
	pmm.Textures = make([]PMMTexture, pmm.count(BlockTexture))
	pmm.Meshes = make([]Mesh, pmm.count(BlockMesh))
	pmm.Visibility = make([]int8, pmm.count(BlockSceneObjectVisibility))
	pmm.Transforms = make([]float32, pmm.count(BlockSceneObjectTransform))
	pmm.SceneGraph = make([]SceneGraphRecord, pmm.count(BlockSceneGraph))
	pmm.Animations = make([]Animation, pmm.count(BlockAnimation))

	readers := []struct {
		kind BlockKind
		fn   func(i int, r *bin.Reader)
	}{
		{BlockSceneObject, func(i int, r *bin.Reader) { pmm.SceneObjects[i] = readSceneObject(r) }},
		{BlockPolygon, func(i int, r *bin.Reader) {
			pmm.Polygons[i] = Polygon{PolyVertexIndex: r.U32(0), VertexCount: r.U32(4)}
		}},
		{BlockVertex, func(i int, r *bin.Reader) { pmm.Vertices[i] = r.Vec3(0) }},
		{BlockPolyVertex, func(i int, r *bin.Reader) { pmm.PolyVertices[i] = r.U32(0) }},
		{BlockNormal, func(i int, r *bin.Reader) { pmm.Normals[i] = r.Vec3(0) }},
		{BlockPolyNormal, func(i int, r *bin.Reader) { pmm.PolyNormals[i] = r.U32(0) }},
		{BlockColor, func(i int, r *bin.Reader) {
			pmm.Colors[i] = [4]uint8{r.U8(0), r.U8(1), r.U8(2), r.U8(3)}
		}},
		{BlockPolyColor, func(i int, r *bin.Reader) { pmm.PolyColors[i] = r.U32(0) }},
		{BlockPolyTexCoord, func(i int, r *bin.Reader) { pmm.PolyTexCoords[i] = r.U32(0) }},
		{BlockTexCoord, func(i int, r *bin.Reader) { pmm.TexCoords[i] = [2]float32{r.F32(0), r.F32(4)} }},
		{Block19, func(i int, r *bin.Reader) {
			for j := range pmm.Block19[i] {
				pmm.Block19[i][j] = r.F32(j * 4)
			}
		}},
		{BlockTextureMap, func(i int, r *bin.Reader) {
			pmm.TextureMaps[i] = TextureMap{TextureIndex: r.U32(0), EnvMode: r.U32(4)}
		}},
		{BlockTexture, func(i int, r *bin.Reader) {
			pmm.Textures[i] = PMMTexture{
				Unknown00: r.U32(0),
				TPLIndex:  r.U32(4),
				Unknown08: r.U32(8),
				Name:      r.String(12, 52),
			}
		}},
		{BlockMesh, func(i int, r *bin.Reader) { pmm.Meshes[i] = readMesh(r) }},
		{BlockSceneObjectVisibility, func(i int, r *bin.Reader) { pmm.Visibility[i] = r.S8(0) }},
		{BlockSceneObjectTransform, func(i int, r *bin.Reader) { pmm.Transforms[i] = r.F32(0) }},
		{BlockSceneGraph, func(i int, r *bin.Reader) {
			pmm.SceneGraph[i] = SceneGraphRecord{
				Name:           r.String(0, 64),
				Next:           r.S32(64),
				Child:          r.S32(68),
				ObjectIndex:    r.S32(72),
				VisibilityIdx:  r.S32(76),
				TransformIndex: r.S32(80),
				Joint:          r.S32(84),
			}
		}},
		{BlockAnimation, func(i int, r *bin.Reader) {
			pmm.Animations[i] = Animation{Name: r.String(0, 60), DataOffset: r.U32(60)}
		}},
	}

	for _, rd := range readers {
		if err := pmm.eachRecord(data, rd.kind, rd.fn); err != nil {
			return err
		}
	}
	return nil
}

func readSceneObject(r *bin.Reader) SceneObject {
	obj := SceneObject{
		Name:          r.String(0, 64),
		VertexIndex:   r.S32(64),
		VertexCount:   r.S32(68),
		NormalIndex:   r.S32(72),
		NormalCount:   r.S32(76),
		ColorIndex:    r.S32(80),
		ColorCount:    r.S32(84),
		TexCoordIndex: r.S32(88),
		TexCoordCount: r.S32(92),
		MeshIndex:     r.S32(152),
		MeshCount:     r.S32(156),
		Blending:      r.U32(160),
		Culling:       r.U32(164),
	}
	for i := range obj.Unknown {
		obj.Unknown[i] = r.S32(96 + i*4)
	}
	return obj
}

func readMesh(r *bin.Reader) Mesh {
	m := Mesh{
		TextureMapIndex:  r.S32(16),
		PolygonIndex:     r.S32(56),
		PolygonCount:     r.S32(60),
		PolyVertexBase:   r.S32(64),
		PolyNormalBase:   r.S32(68),
		PolyColorBase:    r.S32(72),
		PolyTexCoordBase: r.S32(76),
	}
	for i := range m.Unknown00 {
		m.Unknown00[i] = r.U32(i * 4)
	}
	for i := range m.Unknown14 {
		m.Unknown14[i] = r.U32(20 + i*4)
	}
	for i := range m.Unknown50 {
		m.Unknown50[i] = r.U32(80 + i*4)
	}
	return m
}

// RootRecord returns the index of the default scene graph root: the last
// record. It returns -1 for a model without a scene graph.
func (pmm *PMM) RootRecord() int {
	return len(pmm.SceneGraph) - 1
}
