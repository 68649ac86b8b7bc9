// Package renderer draws reconstructed scenes with OpenGL. All methods must
// run on the thread that owns the GL context.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/pmviewer/internal/engine/camera"
	"github.com/Faultbox/pmviewer/internal/engine/debug"
	"github.com/Faultbox/pmviewer/internal/engine/lighting"
	"github.com/Faultbox/pmviewer/internal/engine/shader"
	"github.com/Faultbox/pmviewer/internal/logger"
	"github.com/Faultbox/pmviewer/internal/scene"
	"github.com/Faultbox/pmviewer/pkg/math"
)

// Options control one frame.
type Options struct {
	Wireframe  bool
	ShowBounds bool
	Lighting   bool

	// Sun points towards a fixed light; nil lights from the camera.
	Sun *math.Vec3

	// Subtree limits drawing to the geometries under one node; nil draws
	// the whole scene.
	Subtree *scene.Node
}

// Renderer holds the GPU copies of one scene.
type Renderer struct {
	width, height int
	background    [3]float32

	program *shader.Program
	lines   *shader.Program

	scene    *scene.Scene
	meshes   map[*scene.TriMesh]*gpuMesh
	textures []*gpuTexture
	bounds   *lineBuffer

	log *zap.Logger
}

// New initializes OpenGL and compiles the shaders. It must be called after
// the GL context is created.
func New(width, height int, background [3]float32) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r := &Renderer{
		width:      width,
		height:     height,
		background: background,
		log:        logger.Named("renderer"),
	}
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	var err error
	if r.program, err = shader.New(sceneVertexShader, sceneFragmentShader); err != nil {
		return nil, fmt.Errorf("scene shader: %w", err)
	}
	if r.lines, err = shader.New(lineVertexShader, lineFragmentShader); err != nil {
		return nil, fmt.Errorf("line shader: %w", err)
	}
	r.bounds = newLineBuffer()

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.FrontFace(gl.CCW)
	gl.Viewport(0, 0, int32(width), int32(height))
	return r, nil
}

// Load uploads the meshes and textures of s, replacing any previous scene.
// Released GPU objects are deleted once garbage collected.
func (r *Renderer) Load(s *scene.Scene) {
	r.scene = s
	r.meshes = make(map[*scene.TriMesh]*gpuMesh, len(s.Resources.Meshes))
	for _, m := range s.Resources.Meshes {
		if m.TriangleCount() > 0 {
			r.meshes[m] = uploadMesh(m)
		}
	}

	r.textures = make([]*gpuTexture, len(s.Resources.Textures))
	for i, img := range s.Resources.Textures {
		if img != nil && img.Width() > 0 && img.Height() > 0 {
			r.textures[i] = uploadTexture(img)
		}
	}

	r.log.Info("scene uploaded",
		zap.String("scene", s.Name),
		zap.Int("meshes", len(r.meshes)),
		zap.Int("textures", len(r.textures)),
		zap.Int("triangles", s.TriangleCount()),
	)
}

// Resize updates the viewport.
func (r *Renderer) Resize(width, height int) {
	r.width, r.height = width, height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

func (r *Renderer) aspect() float32 {
	if r.height == 0 {
		return 1
	}
	return float32(r.width) / float32(r.height)
}

// Draw renders the loaded scene from cam. World matrices must be current.
func (r *Renderer) Draw(cam *camera.OrbitCamera, opts Options) {
	gl.ClearColor(r.background[0], r.background[1], r.background[2], 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	if r.scene == nil {
		return
	}

	viewProj := cam.ProjectionMatrix(r.aspect()).Mul(cam.ViewMatrix())
	light := lighting.Headlight(cam.Position(), cam.Center)
	if opts.Sun != nil {
		light = opts.Sun.Neg().Normalize()
	}

	if opts.Wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	}

	r.program.Use()
	gl.ActiveTexture(gl.TEXTURE0)
	gl.Uniform1i(r.program.Uniform("uTexture"), 0)
	gl.Uniform1i(r.program.Uniform("uLighting"), boolToInt(opts.Lighting && !opts.Wireframe))
	gl.Uniform3f(r.program.Uniform("uLightDir"), light.X, light.Y, light.Z)

	geometries := r.scene.Resources.Geometries
	if opts.Subtree != nil {
		geometries = subtreeGeometries(opts.Subtree)
	}
	for _, g := range drawOrder(geometries, cam.Position()) {
		r.drawGeometry(g, viewProj)
	}

	gl.BindVertexArray(0)
	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)

	if opts.ShowBounds {
		r.drawBounds(geometries, viewProj)
	}
}

func (r *Renderer) drawGeometry(g *scene.Geometry, viewProj math.Mat4) {
	mesh := r.meshes[g.Mesh]
	if mesh == nil {
		return
	}

	world := g.Node.WorldMatrix()
	mvp := viewProj.Mul(world)
	normal := world.NormalMatrix()
	gl.UniformMatrix4fv(r.program.Uniform("uMVP"), 1, false, mvp.Ptr())
	gl.UniformMatrix4fv(r.program.Uniform("uNormal"), 1, false, normal.Ptr())

	var tex *gpuTexture
	if g.Textured() && g.Texture < len(r.textures) {
		tex = r.textures[g.Texture]
	}
	gl.Uniform1i(r.program.Uniform("uTextured"), boolToInt(tex != nil))
	if tex != nil {
		tex.bind(g.LinearFilter)
	}
	gl.Uniform1i(r.program.Uniform("uModulate"), boolToInt(g.Env == scene.EnvModulate))

	gl.Uniform1i(r.program.Uniform("uAlphaTest"), boolToInt(g.Blend == scene.BlendAlphaTest))
	gl.Uniform1f(r.program.Uniform("uAlphaThreshold"), g.AlphaThreshold)
	switch g.Blend {
	case scene.BlendAlpha:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		gl.DepthMask(false)
	default:
		gl.Disable(gl.BLEND)
		gl.DepthMask(true)
	}

	if g.Cull == scene.CullBack {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	} else {
		gl.Disable(gl.CULL_FACE)
	}

	gl.BindVertexArray(mesh.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, mesh.indexCount, gl.UNSIGNED_INT, 0)
}

func (r *Renderer) drawBounds(geometries []*scene.Geometry, viewProj math.Mat4) {
	var vertices []float32
	for _, g := range geometries {
		if g.Visible {
			vertices = append(vertices, debug.BoxLines(g.Mesh.Bounds().Transform(g.Node.WorldMatrix()), 0)...)
		}
	}
	r.bounds.set(vertices)
	if r.bounds.count == 0 {
		return
	}

	r.lines.Use()
	gl.UniformMatrix4fv(r.lines.Uniform("uMVP"), 1, false, viewProj.Ptr())
	gl.Uniform4f(r.lines.Uniform("uColor"), 1, 0.8, 0.2, 1)
	gl.Disable(gl.CULL_FACE)
	gl.BindVertexArray(r.bounds.vao)
	gl.DrawArrays(gl.LINES, 0, r.bounds.count)
	gl.BindVertexArray(0)
}

// ReadPixels returns the RGBA contents of the back buffer, bottom row
// first.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	pixels := make([]byte, r.width*r.height*4)
	if len(pixels) == 0 {
		return pixels, r.width, r.height
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(r.width), int32(r.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, r.width, r.height
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
