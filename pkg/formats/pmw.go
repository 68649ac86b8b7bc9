// PMW world container parser.
//
// A world file starts with a 32-byte descriptor; every address after that
// is relative to the byte following the descriptor. A master index leads to
// a table of (address, name offset) pairs, and the tables themselves hold
// pointers to materials, vertex data and a linked scene graph.
package formats

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/Faultbox/pmviewer/pkg/bin"
)

// PMW format errors.
var (
	ErrTruncatedPMWData = errors.New("truncated PMW data")
	ErrWorldCycle       = errors.New("PMW scene graph revisits a node")
	ErrTooManyNodes     = errors.New("PMW scene graph exceeds node limit")
)

const (
	pmwDescriptorSize = 32
	pmwNodeSize       = 104
	pmwStringMax      = 64

	// DefaultMaxWorldNodes bounds the scene graph walk.
	DefaultMaxWorldNodes = 65536

	// PMWVertexScale converts fixed-point vertex coordinates to world units.
	PMWVertexScale = 0.01
)

// Table slots in the master table.
const (
	PMWTableInfo     = 3
	PMWTableMaterial = 5
	PMWTableTexture  = 6
	PMWTableVCD      = 7
)

// PMWDescriptor is the 32-byte file prologue.
type PMWDescriptor struct {
	MasterIndex uint32
	IndexCount  uint32
	TableCount  uint32
}

// PMWTableEntry is one slot of the master table.
type PMWTableEntry struct {
	Addr       uint32
	NameOffset uint32
	Name       string
}

// PMWInfo is the information table.
type PMWInfo struct {
	Addr      uint32
	Version   string
	SceneRoot uint32
	Str1      string
	Str2      string
	Date      string
}

// PMWMaterialEntry is a material name table entry.
type PMWMaterialEntry struct {
	Name string
	Addr uint32
}

// PMWMaterial is a material record.
type PMWMaterial struct {
	Addr        uint32
	Name        string
	Color       [4]uint8
	Params      [4]uint8
	TextureAddr uint32
	TextureID   int32 // index into the sibling TPL, -1 when untextured
}

// PMWVCD is the vertex component descriptor table.
type PMWVCD struct {
	Addr       uint32
	VertexAddr uint32
	Unknown04  uint32
	Unknown08  uint32
	ColorAddr  uint32
}

// PMWPolyVertex is one polygon corner.
type PMWPolyVertex struct {
	VertexID   uint16
	TexCoordID uint16
}

// PMWPolygon is a triangle strip.
type PMWPolygon struct {
	Addr      uint32
	Unknown00 uint16
	Vertices  []PMWPolyVertex
}

// PMWMeshData is a raw display list chunk.
type PMWMeshData struct {
	Addr     uint32
	DataAddr uint32
	Length   uint32
	Data     []byte
}

// PMWMesh is the geometry attached to a scene node.
type PMWMesh struct {
	ID          int
	Addr        uint32
	Unknown00   uint32
	PolyCount   uint32
	ElementMask uint32
	Unknown0C   uint32
	Polygons    []PMWPolygon
	Data        []PMWMeshData
}

// VertexStride returns the byte size of one polygon corner: two bytes per
// component enabled in the low eight bits of the element mask.
func (m *PMWMesh) VertexStride() int {
	return 2 * bits.OnesCount8(uint8(m.ElementMask))
}

// PMWNode is one scene graph node. IDs are positions in PMW.Nodes and are
// -1 when the link is absent.
type PMWNode struct {
	ID   int
	Addr uint32

	Name string
	Type string

	ParentAddr uint32
	ChildAddr  uint32
	NextAddr   uint32
	PrevAddr   uint32

	Scale       [3]float32
	Rotation    [3]float32
	Translation [3]float32
	PivotA      [3]float32
	PivotB      [3]float32

	Unknown54    uint32
	Unknown58    uint32
	MeshCount    uint32
	MaterialAddr uint32
	MeshAddr     uint32

	ParentID int
	ChildID  int
	NextID   int
	PrevID   int
	MeshID   int
}

// PMWOptions controls world parsing.
type PMWOptions struct {
	MaxNodes int // DefaultMaxWorldNodes when zero
}

// PMW is a parsed world container.
type PMW struct {
	Descriptor    PMWDescriptor
	Tables        []PMWTableEntry
	Info          PMWInfo
	MaterialNames []PMWMaterialEntry
	Materials     map[uint32]*PMWMaterial
	TextureNames  []string
	VCD           PMWVCD
	Vertices      [][3]float32
	Nodes         []PMWNode
	Meshes        []PMWMesh
}

// ParsePMW parses world data from a byte slice.
func ParsePMW(data []byte, opts PMWOptions) (*PMW, error) {
	if len(data) < pmwDescriptorSize {
		return nil, fmt.Errorf("%w: %d bytes, descriptor needs %d", ErrTruncatedPMWData, len(data), pmwDescriptorSize)
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxWorldNodes
	}

	d := bin.NewReader(data, 0)
	pmw := &PMW{
		Descriptor: PMWDescriptor{
			MasterIndex: d.U32(4),
			IndexCount:  d.U32(8),
			TableCount:  d.U32(12),
		},
		Materials: make(map[uint32]*PMWMaterial),
	}

	buf := data[pmwDescriptorSize:]

	steps := []struct {
		name string
		fn   func([]byte) error
	}{
		{"tables", pmw.parseTables},
		{"info table", pmw.parseInfo},
		{"material table", pmw.parseMaterials},
		{"texture table", pmw.parseTextureNames},
		{"vcd table", pmw.parseVCD},
		{"scene graph", func(b []byte) error { return pmw.parseNodes(b, opts.MaxNodes) }},
		{"meshes", pmw.parseMeshes},
	}
	for _, s := range steps {
		if err := s.fn(buf); err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
	}

	return pmw, nil
}

func truncated(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrTruncatedPMWData, err)
}

func (pmw *PMW) tableBase() int {
	return int(pmw.Descriptor.MasterIndex) + 4*int(pmw.Descriptor.IndexCount)
}

func (pmw *PMW) parseTables(buf []byte) error {
	base := pmw.tableBase()
	count := int(pmw.Descriptor.TableCount)
	if count < 0 || base < 0 || count > (len(buf)-base)/8 {
		return fmt.Errorf("%w: %d tables at %d", ErrTruncatedPMWData, count, base)
	}
	if count <= PMWTableVCD {
		return fmt.Errorf("%w: %d tables, need at least %d", ErrTruncatedPMWData, count, PMWTableVCD+1)
	}

	stringBase := base + count*8
	r := bin.NewReader(buf, base)
	pmw.Tables = make([]PMWTableEntry, count)
	for i := range pmw.Tables {
		e := PMWTableEntry{Addr: r.U32(i * 8), NameOffset: r.U32(i*8 + 4)}
		if name, err := bin.String(buf, stringBase+int(e.NameOffset), pmwStringMax); err == nil {
			e.Name = name
		}
		pmw.Tables[i] = e
	}
	return truncated(r.Err())
}

func (pmw *PMW) parseInfo(buf []byte) error {
	addr := pmw.Tables[PMWTableInfo].Addr
	r := bin.NewReader(buf, int(addr))
	pmw.Info = PMWInfo{
		Addr:      addr,
		SceneRoot: r.U32(4),
	}
	verAddr, str1Addr, str2Addr, dateAddr := r.U32(0), r.U32(8), r.U32(12), r.U32(16)
	if err := r.Err(); err != nil {
		return truncated(err)
	}

	s := r.At(0)
	pmw.Info.Version = s.String(int(verAddr), pmwStringMax)
	pmw.Info.Str1 = s.String(int(str1Addr), pmwStringMax)
	pmw.Info.Str2 = s.String(int(str2Addr), pmwStringMax)
	pmw.Info.Date = s.String(int(dateAddr), pmwStringMax)
	return truncated(s.Err())
}

func (pmw *PMW) parseMaterials(buf []byte) error {
	addr := int(pmw.Tables[PMWTableMaterial].Addr)
	r := bin.NewReader(buf, addr)
	count := int(r.U32(0))
	if err := r.Err(); err != nil {
		return truncated(err)
	}
	if count > (len(buf)-addr-4)/8 {
		return fmt.Errorf("%w: %d materials at %d", ErrTruncatedPMWData, count, addr)
	}

	s := r.At(0)
	pmw.MaterialNames = make([]PMWMaterialEntry, count)
	for i := range pmw.MaterialNames {
		nameAddr := r.U32(4 + i*8)
		pmw.MaterialNames[i] = PMWMaterialEntry{
			Name: s.String(int(nameAddr), pmwStringMax),
			Addr: r.U32(8 + i*8),
		}
	}
	if err := firstErr(r.Err(), s.Err()); err != nil {
		return truncated(err)
	}

	for i, e := range pmw.MaterialNames {
		mat, err := readPMWMaterial(buf, e.Addr)
		if err != nil {
			return fmt.Errorf("material %d: %w", i, err)
		}
		pmw.Materials[e.Addr] = mat
	}
	return nil
}

func readPMWMaterial(buf []byte, addr uint32) (*PMWMaterial, error) {
	r := bin.NewReader(buf, int(addr))
	mat := &PMWMaterial{
		Addr:        addr,
		Color:       [4]uint8{r.U8(4), r.U8(5), r.U8(6), r.U8(7)},
		Params:      [4]uint8{r.U8(8), r.U8(9), r.U8(10), r.U8(11)},
		TextureAddr: r.U32(12),
		TextureID:   -1,
	}
	nameAddr := r.U32(0)
	if err := r.Err(); err != nil {
		return nil, truncated(err)
	}

	s := r.At(0)
	mat.Name = s.String(int(nameAddr), pmwStringMax)
	if mat.TextureAddr > 0 {
		sub := s.S32(int(mat.TextureAddr))
		mat.TextureID = (sub - 0x14) / 16
	}
	return mat, truncated(s.Err())
}

func (pmw *PMW) parseTextureNames(buf []byte) error {
	addr := int(pmw.Tables[PMWTableTexture].Addr)
	r := bin.NewReader(buf, addr)
	count := int(r.U32(0))
	if err := r.Err(); err != nil {
		return truncated(err)
	}
	if count > (len(buf)-addr-4)/4 {
		return fmt.Errorf("%w: %d texture names at %d", ErrTruncatedPMWData, count, addr)
	}

	s := r.At(0)
	pmw.TextureNames = make([]string, count)
	for i := range pmw.TextureNames {
		pmw.TextureNames[i] = s.String(int(r.U32(4+i*4)), pmwStringMax)
	}
	return truncated(firstErr(r.Err(), s.Err()))
}

func (pmw *PMW) parseVCD(buf []byte) error {
	addr := pmw.Tables[PMWTableVCD].Addr
	r := bin.NewReader(buf, int(addr))
	pmw.VCD = PMWVCD{
		Addr:       addr,
		VertexAddr: r.U32(0),
		Unknown04:  r.U32(4),
		Unknown08:  r.U32(8),
		ColorAddr:  r.U32(12),
	}
	if err := r.Err(); err != nil {
		return truncated(err)
	}

	v := r.At(int(pmw.VCD.VertexAddr))
	count := int(v.U32(0))
	if err := v.Err(); err != nil {
		return truncated(err)
	}
	if count > (len(buf)-int(pmw.VCD.VertexAddr)-4)/6 {
		return fmt.Errorf("%w: %d vertices at %d", ErrTruncatedPMWData, count, pmw.VCD.VertexAddr)
	}

	pmw.Vertices = make([][3]float32, count)
	for i := range pmw.Vertices {
		off := 4 + i*6
		pmw.Vertices[i] = [3]float32{
			float32(v.S16(off)) * PMWVertexScale,
			float32(v.S16(off+2)) * PMWVertexScale,
			float32(v.S16(off+4)) * PMWVertexScale,
		}
	}
	return truncated(v.Err())
}

// nodeVisit is a pending scene graph node: its address and the node that
// links to it, either as parent (child link) or as previous sibling.
type nodeVisit struct {
	addr     uint32
	parentID int
	prevID   int
}

// parseNodes walks the scene graph depth first, child before next sibling,
// assigning IDs in visit order.
func (pmw *PMW) parseNodes(buf []byte, maxNodes int) error {
	root := pmw.Info.SceneRoot
	if root == 0 {
		return nil
	}

	visited := make(map[uint32]bool)
	stack := []nodeVisit{{addr: root, parentID: -1, prevID: -1}}

	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[v.addr] {
			return fmt.Errorf("%w: node at %#x", ErrWorldCycle, v.addr)
		}
		visited[v.addr] = true
		if len(pmw.Nodes) >= maxNodes {
			return fmt.Errorf("%w: %d", ErrTooManyNodes, maxNodes)
		}

		node, err := readPMWNode(buf, v.addr)
		if err != nil {
			return fmt.Errorf("node at %#x: %w", v.addr, err)
		}
		node.ID = len(pmw.Nodes)
		if v.parentID != -1 {
			node.ParentID = v.parentID
			pmw.Nodes[v.parentID].ChildID = node.ID
		}
		if v.prevID != -1 {
			node.PrevID = v.prevID
			pmw.Nodes[v.prevID].NextID = node.ID
		}
		pmw.Nodes = append(pmw.Nodes, node)

		if node.NextAddr != 0 {
			stack = append(stack, nodeVisit{addr: node.NextAddr, parentID: -1, prevID: node.ID})
		}
		if node.ChildAddr != 0 {
			stack = append(stack, nodeVisit{addr: node.ChildAddr, parentID: node.ID, prevID: -1})
		}
	}
	return nil
}

func readPMWNode(buf []byte, addr uint32) (PMWNode, error) {
	r := bin.NewReader(buf, int(addr))
	n := PMWNode{
		Addr:         addr,
		ParentAddr:   r.U32(8),
		ChildAddr:    r.U32(12),
		NextAddr:     r.U32(16),
		PrevAddr:     r.U32(20),
		Scale:        r.Vec3(24),
		Rotation:     r.Vec3(36),
		Translation:  r.Vec3(48),
		PivotA:       r.Vec3(60),
		PivotB:       r.Vec3(72),
		Unknown54:    r.U32(84),
		Unknown58:    r.U32(88),
		MeshCount:    r.U32(92),
		MaterialAddr: r.U32(96),
		MeshAddr:     r.U32(100),
		ParentID:     -1,
		ChildID:      -1,
		NextID:       -1,
		PrevID:       -1,
		MeshID:       -1,
	}
	nameAddr, typeAddr := r.U32(0), r.U32(4)
	if err := r.Err(); err != nil {
		return n, truncated(err)
	}

	s := r.At(0)
	n.Name = s.String(int(nameAddr), pmwStringMax)
	n.Type = s.String(int(typeAddr), pmwStringMax)
	return n, truncated(s.Err())
}

func (pmw *PMW) parseMeshes(buf []byte) error {
	for i := range pmw.Nodes {
		node := &pmw.Nodes[i]
		if node.MeshAddr == 0 {
			continue
		}
		mesh, err := readPMWMesh(buf, node.MeshAddr)
		if err != nil {
			return fmt.Errorf("mesh of node %d: %w", node.ID, err)
		}
		mesh.ID = len(pmw.Meshes)
		node.MeshID = mesh.ID
		pmw.Meshes = append(pmw.Meshes, mesh)
	}
	return nil
}

func readPMWMesh(buf []byte, addr uint32) (PMWMesh, error) {
	r := bin.NewReader(buf, int(addr))
	m := PMWMesh{
		Addr:        addr,
		Unknown00:   r.U32(0),
		PolyCount:   r.U32(4),
		ElementMask: r.U32(8),
		Unknown0C:   r.U32(12),
	}
	if err := r.Err(); err != nil {
		return m, truncated(err)
	}
	count := int(m.PolyCount)
	if count > (len(buf)-int(addr)-16)/8 {
		return m, fmt.Errorf("%w: %d polygons at %#x", ErrTruncatedPMWData, count, addr)
	}

	stride := m.VertexStride()
	m.Polygons = make([]PMWPolygon, count)
	m.Data = make([]PMWMeshData, count)
	for j := 0; j < count; j++ {
		pairAddr := addr + 16 + uint32(j*8)
		polyAddr := r.U32(16 + j*8)
		length := r.U32(20 + j*8)

		poly, err := readPMWPolygon(buf, polyAddr, stride)
		if err != nil {
			return m, fmt.Errorf("polygon %d: %w", j, err)
		}
		m.Polygons[j] = poly

		raw, err := bin.Bytes(buf, int(polyAddr), int(length))
		if err != nil {
			return m, fmt.Errorf("mesh data %d: %w", j, truncated(err))
		}
		m.Data[j] = PMWMeshData{Addr: pairAddr, DataAddr: polyAddr, Length: length, Data: raw}
	}
	return m, truncated(r.Err())
}

func readPMWPolygon(buf []byte, addr uint32, stride int) (PMWPolygon, error) {
	r := bin.NewReader(buf, int(addr))
	p := PMWPolygon{
		Addr:      addr,
		Unknown00: r.U16(0),
	}
	count := int(r.U8(2))
	p.Vertices = make([]PMWPolyVertex, count)
	for i := range p.Vertices {
		off := 3 + i*stride
		p.Vertices[i].VertexID = r.U16(off)
		if stride >= 4 {
			p.Vertices[i].TexCoordID = r.U16(off + 2)
		}
	}
	return p, truncated(r.Err())
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Material returns the material at addr, or nil.
func (pmw *PMW) Material(addr uint32) *PMWMaterial {
	return pmw.Materials[addr]
}

// Root returns the first scene graph node, or nil for an empty graph.
func (pmw *PMW) Root() *PMWNode {
	if len(pmw.Nodes) == 0 {
		return nil
	}
	return &pmw.Nodes[0]
}
