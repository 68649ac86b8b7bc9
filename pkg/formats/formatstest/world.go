package formatstest

import (
	"encoding/binary"
	"math"
)

// WorldMaterial is a material to embed in a synthetic world.
type WorldMaterial struct {
	Name      string
	Color     [4]uint8
	TextureID int // -1 for none
}

// WorldMesh is a node's geometry: one vertex ID list per triangle strip.
type WorldMesh struct {
	ElementMask uint32
	Strips      [][]uint16
}

// WorldNode is a scene graph node to embed in a synthetic world.
type WorldNode struct {
	Name        string
	Type        string
	Scale       [3]float32
	Translation [3]float32
	PivotA      [3]float32
	PivotB      [3]float32
	Material    int // index into World.Materials, -1 for none
	Mesh        *WorldMesh
	Children    []*WorldNode
}

// World describes a synthetic world container.
type World struct {
	Version      string
	Vertices     [][3]int16
	Materials    []WorldMaterial
	TextureNames []string
	Root         *WorldNode
}

type worldWriter struct {
	buf []byte
}

// alloc reserves n zeroed bytes, 4-byte aligned, and returns their address.
func (w *worldWriter) alloc(n int) uint32 {
	for len(w.buf)%4 != 0 {
		w.buf = append(w.buf, 0)
	}
	addr := len(w.buf)
	w.buf = append(w.buf, make([]byte, n)...)
	return uint32(addr)
}

func (w *worldWriter) str(s string) uint32 {
	addr := w.alloc(len(s) + 1)
	copy(w.buf[addr:], s)
	return addr
}

func (w *worldWriter) u32(addr uint32, off int, v uint32) {
	binary.BigEndian.PutUint32(w.buf[int(addr)+off:], v)
}

func (w *worldWriter) f32(addr uint32, off int, v float32) {
	w.u32(addr, off, math.Float32bits(v))
}

func (w *worldWriter) vec3(addr uint32, off int, v [3]float32) {
	for i := range v {
		w.f32(addr, off+i*4, v[i])
	}
}

// Build lays out the world and returns the file bytes together with the
// buffer-relative address of every node in preorder.
func (wd *World) Build() ([]byte, []uint32) {
	// address 0 means "none", so the buffer starts with padding
	w := &worldWriter{buf: make([]byte, 16)}

	const tableCount = 8
	master := w.alloc(4)
	tableBase := master + 4 // one index entry
	w.alloc(tableCount * 8)
	stringBase := w.alloc(0)

	names := []string{"info", "material", "texture", "vcd"}
	nameOffs := make([]uint32, len(names))
	for i, n := range names {
		nameOffs[i] = w.str(n) - stringBase
	}

	// info table
	info := w.alloc(20)
	w.u32(info, 0, w.str(wd.Version))
	w.u32(info, 8, w.str("s1"))
	w.u32(info, 12, w.str("s2"))
	w.u32(info, 16, w.str("2009/01/01"))

	// materials
	matTable := w.alloc(4 + 8*len(wd.Materials))
	w.u32(matTable, 0, uint32(len(wd.Materials)))
	matAddrs := make([]uint32, len(wd.Materials))
	for i, m := range wd.Materials {
		addr := w.alloc(16)
		matAddrs[i] = addr
		w.u32(addr, 0, w.str(m.Name))
		copy(w.buf[addr+4:], m.Color[:])
		if m.TextureID >= 0 {
			sub := w.alloc(4)
			w.u32(sub, 0, uint32(0x14+16*m.TextureID))
			w.u32(addr, 12, sub)
		}
		w.u32(matTable, 4+i*8, w.str(m.Name))
		w.u32(matTable, 8+i*8, addr)
	}

	// texture names
	texTable := w.alloc(4 + 4*len(wd.TextureNames))
	w.u32(texTable, 0, uint32(len(wd.TextureNames)))
	for i, n := range wd.TextureNames {
		w.u32(texTable, 4+i*4, w.str(n))
	}

	// vertex data
	vcd := w.alloc(16)
	verts := w.alloc(4 + 6*len(wd.Vertices))
	w.u32(vcd, 0, verts)
	w.u32(verts, 0, uint32(len(wd.Vertices)))
	for i, v := range wd.Vertices {
		for j := range v {
			binary.BigEndian.PutUint16(w.buf[int(verts)+4+i*6+j*2:], uint16(v[j]))
		}
	}

	// master table slots
	slots := map[int]struct{ addr, name uint32 }{
		3: {info, nameOffs[0]},
		5: {matTable, nameOffs[1]},
		6: {texTable, nameOffs[2]},
		7: {vcd, nameOffs[3]},
	}
	for slot, s := range slots {
		w.u32(tableBase, slot*8, s.addr)
		w.u32(tableBase, slot*8+4, s.name)
	}

	// scene graph: reserve nodes in preorder, then fill links
	var order []*WorldNode
	addrs := map[*WorldNode]uint32{}
	var reserve func(n *WorldNode)
	reserve = func(n *WorldNode) {
		addrs[n] = w.alloc(104)
		order = append(order, n)
		for _, c := range n.Children {
			reserve(c)
		}
	}
	if wd.Root != nil {
		reserve(wd.Root)
		w.u32(info, 4, addrs[wd.Root])
	}

	var link func(n, parent *WorldNode)
	link = func(n, parent *WorldNode) {
		a := addrs[n]
		w.u32(a, 0, w.str(n.Name))
		w.u32(a, 4, w.str(n.Type))
		if parent != nil {
			w.u32(a, 8, addrs[parent])
		}
		for i, c := range n.Children {
			if i == 0 {
				w.u32(a, 12, addrs[c])
			}
			ca := addrs[c]
			if i+1 < len(n.Children) {
				w.u32(ca, 16, addrs[n.Children[i+1]])
			}
			if i > 0 {
				w.u32(ca, 20, addrs[n.Children[i-1]])
			}
			link(c, n)
		}
		w.vec3(a, 24, n.Scale)
		w.vec3(a, 48, n.Translation)
		w.vec3(a, 60, n.PivotA)
		w.vec3(a, 72, n.PivotB)
		if n.Material >= 0 && n.Material < len(matAddrs) {
			w.u32(a, 96, matAddrs[n.Material])
		}
		if n.Mesh != nil {
			w.u32(a, 92, 1)
			w.u32(a, 100, w.mesh(n.Mesh))
		}
	}
	if wd.Root != nil {
		link(wd.Root, nil)
	}

	nodeAddrs := make([]uint32, len(order))
	for i, n := range order {
		nodeAddrs[i] = addrs[n]
	}

	desc := make([]byte, 32)
	binary.BigEndian.PutUint32(desc[4:], master)
	binary.BigEndian.PutUint32(desc[8:], 1)
	binary.BigEndian.PutUint32(desc[12:], tableCount)

	return append(desc, w.buf...), nodeAddrs
}

func (w *worldWriter) mesh(m *WorldMesh) uint32 {
	stride := 0
	for i := 0; i < 8; i++ {
		if m.ElementMask&(1<<i) != 0 {
			stride += 2
		}
	}

	addr := w.alloc(16 + 8*len(m.Strips))
	w.u32(addr, 4, uint32(len(m.Strips)))
	w.u32(addr, 8, m.ElementMask)
	for j, strip := range m.Strips {
		size := 3 + stride*len(strip)
		p := w.alloc(size)
		w.buf[p+2] = byte(len(strip))
		for i, id := range strip {
			binary.BigEndian.PutUint16(w.buf[int(p)+3+i*stride:], id)
		}
		w.u32(addr, 16+j*8, p)
		w.u32(addr, 20+j*8, uint32(size))
	}
	return addr
}

// PatchU32 overwrites a big-endian word at a buffer-relative address of a
// built world file.
func PatchU32(data []byte, addr uint32, off int, v uint32) {
	binary.BigEndian.PutUint32(data[32+int(addr)+off:], v)
}
