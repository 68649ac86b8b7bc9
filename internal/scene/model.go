package scene

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Faultbox/pmviewer/pkg/formats"
	"github.com/Faultbox/pmviewer/pkg/math"
	"github.com/Faultbox/pmviewer/pkg/pixbuf"
)

// Scene build errors.
var (
	ErrSceneCycle   = errors.New("scene graph record visited twice")
	ErrSceneTooDeep = errors.New("scene graph exceeds maximum depth")
)

// DefaultMaxDepth bounds the nesting of reconstructed nodes.
const DefaultMaxDepth = 256

// Options controls scene reconstruction.
type Options struct {
	Logger *zap.Logger // zap.NewNop() when nil

	// RootRecord selects the model scene graph record to start from.
	// Nil or negative picks the last record.
	RootRecord *int

	MaxDepth int // DefaultMaxDepth when zero
}

// DefaultOptions starts from the last record with the default depth limit.
func DefaultOptions() Options {
	return Options{MaxDepth: DefaultMaxDepth}
}

// RootAt returns a RootRecord value selecting record i.
func RootAt(i int) *int {
	return &i
}

func (o Options) normalized() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	return o
}

// ModelTransformOrder is the op list applied to every model node. Slot i
// is floats [3i, 3i+3) of the node's transform group; Factor scales the
// slot vector.
var ModelTransformOrder = []struct {
	Kind   TransformKind
	Slot   int
	Factor float32
}{
	{Translate, 0, 1},
	{Translate, 6, 1},
	{Scale, 1, 1},
	{Translate, 7, -1},
	{RotateZYX, 3, 1},
	{Translate, 4, 1},
	{RotateZYX, 2, 2},
	{Translate, 5, -1},
}

// Blend mode thresholds for the alpha-tested blend codes.
const (
	alphaTestStrict = 0.995
	alphaTestHalf   = 0.5
)

type builder struct {
	scene    *Scene
	log      *zap.Logger
	textures []*pixbuf.Image
}

func (b *builder) warn(msg string, fields ...zap.Field) {
	b.log.Warn(msg, fields...)

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteString(msg)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, enc.Fields[k])
	}
	b.scene.Warnings = append(b.scene.Warnings, sb.String())
}

// texture returns the resource index for a TPL index, or -1.
func (b *builder) texture(tplIndex int, owner string) int {
	if tplIndex < 0 {
		return -1
	}
	if tplIndex >= len(b.textures) || b.textures[tplIndex] == nil {
		b.warn("missing texture", zap.String("owner", owner), zap.Int("tpl_index", tplIndex))
		return -1
	}
	return tplIndex
}

// BuildModel reconstructs the scene graph of a model. textures are the
// decoded images of the sibling TPL, indexed by TPL index; missing entries
// leave geometry untextured with a warning.
func BuildModel(pmm *formats.PMM, textures []*pixbuf.Image, opts Options) (*Scene, error) {
	opts = opts.normalized()
	b := &builder{
		scene:    New(pmm.Header.ModelFile),
		log:      opts.Logger,
		textures: textures,
	}
	b.scene.Resources.Textures = textures

	if len(pmm.SceneGraph) == 0 {
		b.scene.Update()
		return b.scene, nil
	}

	start := pmm.RootRecord()
	if opts.RootRecord != nil && *opts.RootRecord >= 0 {
		start = *opts.RootRecord
	}
	if start >= len(pmm.SceneGraph) {
		return nil, fmt.Errorf("%w: root record %d (have %d)", formats.ErrIndexOutOfRange, start, len(pmm.SceneGraph))
	}

	type visit struct {
		record int
		parent *Node
		depth  int
	}
	visited := make(map[int]bool)
	stack := []visit{{start, b.scene.Root, 1}}

	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if v.record < 0 || v.record >= len(pmm.SceneGraph) {
			return nil, fmt.Errorf("%w: scene graph record %d (have %d)", formats.ErrIndexOutOfRange, v.record, len(pmm.SceneGraph))
		}
		if visited[v.record] {
			return nil, fmt.Errorf("%w: record %d", ErrSceneCycle, v.record)
		}
		if v.depth > opts.MaxDepth {
			return nil, fmt.Errorf("%w: %d at record %d", ErrSceneTooDeep, opts.MaxDepth, v.record)
		}
		visited[v.record] = true

		rec := &pmm.SceneGraph[v.record]
		node := v.parent.AddChild(rec.Name)
		if err := b.modelTransforms(pmm, rec, node); err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", v.record, rec.Name, err)
		}
		if err := b.modelGeometry(pmm, rec, node); err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", v.record, rec.Name, err)
		}

		// next is pushed first so the child subtree is built before the
		// sibling, keeping children in file order
		if rec.Next >= 0 {
			stack = append(stack, visit{int(rec.Next), v.parent, v.depth})
		}
		if rec.Child >= 0 {
			stack = append(stack, visit{int(rec.Child), node, v.depth + 1})
		}
	}

	b.scene.Update()
	return b.scene, nil
}

func (b *builder) modelTransforms(pmm *formats.PMM, rec *formats.SceneGraphRecord, node *Node) error {
	g, err := pmm.TransformGroup(int(rec.TransformIndex))
	if err != nil {
		return err
	}
	for _, op := range ModelTransformOrder {
		v := math.Vec3{X: g[op.Slot*3], Y: g[op.Slot*3+1], Z: g[op.Slot*3+2]}
		node.AddTransform(op.Kind, v.Scale(op.Factor))
	}
	return nil
}

func (b *builder) modelGeometry(pmm *formats.PMM, rec *formats.SceneGraphRecord, node *Node) error {
	obj, err := pmm.SceneObjectOf(rec)
	if err != nil || obj == nil {
		return err
	}
	visible, err := pmm.Visible(rec)
	if err != nil {
		return err
	}
	meshes, err := pmm.MeshesOf(obj)
	if err != nil {
		return err
	}

	blend, threshold := b.blendMode(obj)
	cull := b.cullMode(obj)

	for mi := range meshes {
		mesh := &meshes[mi]
		tm, err := b.modelMesh(pmm, obj, mesh)
		if err != nil {
			return fmt.Errorf("mesh %d: %w", mi, err)
		}
		ref, err := pmm.ResolveTexture(mesh)
		if err != nil {
			return fmt.Errorf("mesh %d: %w", mi, err)
		}

		g := &Geometry{
			Name:           fmt.Sprintf("%s/%d", obj.Name, mi),
			Mesh:           tm,
			Texture:        b.texture(ref.TPLIndex, obj.Name),
			Blend:          blend,
			AlphaThreshold: threshold,
			Cull:           cull,
			Visible:        visible,
		}
		if mesh.Textured() {
			g.Env, g.LinearFilter = b.envMode(ref.EnvMode, obj.Name)
		}
		b.scene.Attach(node, g)
	}
	return nil
}

func (b *builder) modelMesh(pmm *formats.PMM, obj *formats.SceneObject, mesh *formats.Mesh) (*TriMesh, error) {
	polys, err := pmm.PolygonsOf(mesh)
	if err != nil {
		return nil, err
	}
	tm := &TriMesh{HasTexCoords: mesh.Textured()}
	var vs []Vertex
	for pi := range polys {
		poly := &polys[pi]
		vs = vs[:0]
		for c := 0; c < int(poly.VertexCount); c++ {
			corner, err := pmm.ResolveCorner(obj, mesh, poly, c)
			if err != nil {
				return nil, fmt.Errorf("polygon %d corner %d: %w", pi, c, err)
			}
			vs = append(vs, Vertex{
				Position: corner.Position,
				Normal:   corner.Normal,
				Color:    corner.Color,
				TexCoord: corner.TexCoord,
			})
		}
		tm.AddPolygon(vs)
	}
	return tm, nil
}

func (b *builder) blendMode(obj *formats.SceneObject) (BlendMode, float32) {
	switch obj.Blending {
	case 0:
		return BlendAlphaTest, alphaTestStrict
	case 1:
		return BlendOpaque, 0
	case 2:
		return BlendAlphaTest, alphaTestHalf
	case 3:
		return BlendAlpha, 0
	}
	b.warn("unknown blending mode", zap.String("object", obj.Name), zap.Int64("mode", int64(obj.Blending)))
	return BlendOpaque, 0
}

func (b *builder) cullMode(obj *formats.SceneObject) CullMode {
	switch obj.Culling {
	case 1:
		return CullBack
	case 3:
		return CullNone
	}
	b.warn("unknown culling mode", zap.String("object", obj.Name), zap.Int64("mode", int64(obj.Culling)))
	return CullNone
}

func (b *builder) envMode(mode uint32, owner string) (EnvMode, bool) {
	switch mode {
	case 0:
		return EnvReplace, false
	case 3:
		return EnvModulate, true
	}
	b.warn("unknown texture env mode", zap.String("object", owner), zap.Int64("mode", int64(mode)))
	return EnvModulate, true
}
