package renderer

import (
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/gopxl/mainthread/v2"

	"github.com/Faultbox/pmviewer/internal/scene"
	"github.com/Faultbox/pmviewer/pkg/pixbuf"
)

// gpuMesh is an uploaded TriMesh.
type gpuMesh struct {
	vao, vbo, ebo uint32
	indexCount    int32
}

type meshHandles struct {
	vao, vbo, ebo uint32
}

func deleteMesh(h meshHandles) {
	mainthread.CallNonBlock(func() {
		gl.DeleteVertexArrays(1, &h.vao)
		gl.DeleteBuffers(1, &h.vbo)
		gl.DeleteBuffers(1, &h.ebo)
	})
}

func uploadMesh(m *scene.TriMesh) *gpuMesh {
	g := &gpuMesh{indexCount: int32(len(m.Indices))}
	vertices := interleave(m)

	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, vertexStride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, vertexStride, offsetNormal)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 4, gl.FLOAT, false, vertexStride, offsetColor)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointerWithOffset(3, 2, gl.FLOAT, false, vertexStride, offsetTexCoord)
	gl.EnableVertexAttribArray(3)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, gl.Ptr(m.Indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	runtime.AddCleanup(g, deleteMesh, meshHandles{g.vao, g.vbo, g.ebo})
	return g
}

// gpuTexture is an uploaded RGBA texture.
type gpuTexture struct {
	id uint32
}

func deleteTexture(id uint32) {
	mainthread.CallNonBlock(func() {
		gl.DeleteTextures(1, &id)
	})
}

func newTexture(width, height int, pix []byte) *gpuTexture {
	t := &gpuTexture{}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	runtime.AddCleanup(t, deleteTexture, t.id)
	return t
}

func uploadTexture(img *pixbuf.Image) *gpuTexture {
	return newTexture(img.Width(), img.Height(), texturePixels(img))
}

// bind binds the texture to unit 0 with the filter of the geometry.
func (t *gpuTexture) bind(linear bool) {
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	minFilter, magFilter := int32(gl.NEAREST_MIPMAP_NEAREST), int32(gl.NEAREST)
	if linear {
		minFilter, magFilter = gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, magFilter)
}

// lineBuffer is a dynamic position-only VBO for debug lines.
type lineBuffer struct {
	vao, vbo uint32
	count    int32
}

func deleteLines(h meshHandles) {
	mainthread.CallNonBlock(func() {
		gl.DeleteVertexArrays(1, &h.vao)
		gl.DeleteBuffers(1, &h.vbo)
	})
}

func newLineBuffer() *lineBuffer {
	l := &lineBuffer{}
	gl.GenVertexArrays(1, &l.vao)
	gl.BindVertexArray(l.vao)
	gl.GenBuffers(1, &l.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, l.vbo)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)
	runtime.AddCleanup(l, deleteLines, meshHandles{vao: l.vao, vbo: l.vbo})
	return l
}

func (l *lineBuffer) set(vertices []float32) {
	l.count = int32(len(vertices) / 3)
	if l.count == 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, l.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.DYNAMIC_DRAW)
}
