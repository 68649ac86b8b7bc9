package assets

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/pmviewer/internal/report"
	"github.com/Faultbox/pmviewer/internal/scene"
	"github.com/Faultbox/pmviewer/pkg/formats"
	"github.com/Faultbox/pmviewer/pkg/pixbuf"
)

// ErrUnknownFormat is returned by Load for files that are neither a model
// nor a world.
var ErrUnknownFormat = errors.New("unrecognized container")

// Options controls a Loader.
type Options struct {
	Logger *zap.Logger // zap.NewNop() when nil

	Scene scene.Options
	World formats.PMWOptions

	// OptionalTextures turns a missing texture container into a warning;
	// the scene is then built untextured.
	OptionalTextures bool

	// WriteInfo writes a report next to every loaded file.
	WriteInfo bool

	Workers int // parallel texture decoders, GOMAXPROCS when zero
}

// TextureSet is a decoded texture container.
type TextureSet struct {
	Path      string
	TPL       *formats.TPL    // nil when textures were optional and missing
	Images    []*pixbuf.Image // indexed by texture; nil entries failed to decode
	DecodeErr error           // per-texture decode failures, combined
}

// Model is a loaded model with its textures and scene.
type Model struct {
	Path     string
	PMM      *formats.PMM
	Textures *TextureSet
	Scene    *scene.Scene
}

// World is a loaded world with its textures and scene.
type World struct {
	Path     string
	PMW      *formats.PMW
	Textures *TextureSet
	Scene    *scene.Scene
}

// Asset is the result of Load: exactly one of Model and World is set.
type Asset struct {
	Kind  Kind
	Model *Model
	World *World
}

// Scene returns the reconstructed scene of either kind.
func (a *Asset) Scene() *scene.Scene {
	if a.Model != nil {
		return a.Model.Scene
	}
	return a.World.Scene
}

// Loader reads containers from disk. Decoded textures are cached across
// loads.
type Loader struct {
	opts  Options
	log   *zap.Logger
	cache *Cache
}

// NewLoader creates a loader.
func NewLoader(opts Options) *Loader {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Scene.Logger == nil {
		opts.Scene.Logger = opts.Logger.Named("scene")
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Loader{
		opts:  opts,
		log:   opts.Logger,
		cache: NewCache(),
	}
}

// Cache returns the decoded texture cache.
func (l *Loader) Cache() *Cache {
	return l.cache
}

// Close drops cached textures.
func (l *Loader) Close() {
	l.cache.Clear()
}

func readFile(op, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileAccessError{Op: op, Path: path, Err: err}
	}
	return data, nil
}

// Load detects the container type of path and loads it as a model or a
// world.
func (l *Loader) Load(path string) (*Asset, error) {
	data, err := readFile("open file", path)
	if err != nil {
		return nil, err
	}

	switch kind := Detect(data); kind {
	case KindModel:
		m, err := l.loadModel(path, data)
		if err != nil {
			return nil, err
		}
		return &Asset{Kind: kind, Model: m}, nil
	case KindWorld:
		w, err := l.loadWorld(path, data)
		if err != nil {
			return nil, err
		}
		return &Asset{Kind: kind, World: w}, nil
	default:
		return nil, fmt.Errorf("%w: %s is a %s file", ErrUnknownFormat, path, kind)
	}
}

// LoadModel loads a model, its sibling texture container and its scene.
func (l *Loader) LoadModel(path string) (*Model, error) {
	data, err := readFile("open model file", path)
	if err != nil {
		return nil, err
	}
	return l.loadModel(path, data)
}

func (l *Loader) loadModel(path string, data []byte) (*Model, error) {
	pmm, err := formats.ParsePMM(data)
	if err != nil {
		return nil, fmt.Errorf("parsing model file '%s': %w", path, err)
	}

	m := &Model{Path: path, PMM: pmm}
	m.Textures, err = l.Textures(ModelTexturePath(path, pmm))
	if err != nil {
		return nil, err
	}

	if l.opts.WriteInfo {
		if err := writeInfo(path, func(w io.Writer) error { return report.WriteModel(w, pmm, m.Textures.TPL) }); err != nil {
			return nil, err
		}
	}

	m.Scene, err = scene.BuildModel(pmm, m.Textures.Images, l.opts.Scene)
	if err != nil {
		return nil, fmt.Errorf("building scene of '%s': %w", path, err)
	}

	l.log.Info("model loaded",
		zap.String("path", path),
		zap.Int("nodes", m.Scene.NodeCount()),
		zap.Int("triangles", m.Scene.TriangleCount()),
		zap.Int("textures", len(m.Textures.Images)),
		zap.Int("warnings", len(m.Scene.Warnings)))
	return m, nil
}

// LoadWorld loads a world, the "t" texture container next to it and its
// scene.
func (l *Loader) LoadWorld(path string) (*World, error) {
	data, err := readFile("open world file", path)
	if err != nil {
		return nil, err
	}
	return l.loadWorld(path, data)
}

func (l *Loader) loadWorld(path string, data []byte) (*World, error) {
	pmw, err := formats.ParsePMW(data, l.opts.World)
	if err != nil {
		return nil, fmt.Errorf("parsing world file '%s': %w", path, err)
	}

	w := &World{Path: path, PMW: pmw}
	w.Textures, err = l.Textures(WorldTexturePath(path))
	if err != nil {
		return nil, err
	}

	if l.opts.WriteInfo {
		if err := writeInfo(path, func(iw io.Writer) error { return report.WriteWorld(iw, pmw, w.Textures.TPL) }); err != nil {
			return nil, err
		}
	}

	w.Scene, err = scene.BuildWorld(pmw, w.Textures.Images, l.opts.Scene)
	if err != nil {
		return nil, fmt.Errorf("building scene of '%s': %w", path, err)
	}

	l.log.Info("world loaded",
		zap.String("path", path),
		zap.Int("nodes", len(pmw.Nodes)),
		zap.Int("triangles", w.Scene.TriangleCount()),
		zap.Int("textures", len(w.Textures.Images)))
	return w, nil
}

// Textures reads and decodes the texture container at path. A texture
// that fails to decode is left nil and its error is collected in
// DecodeErr; only an unreadable or malformed container fails the call.
func (l *Loader) Textures(path string) (*TextureSet, error) {
	set := &TextureSet{Path: path}

	data, err := readFile("open texture file", path)
	if err != nil {
		if l.opts.OptionalTextures {
			l.log.Warn("textures unavailable", zap.Error(err))
			return set, nil
		}
		return nil, err
	}

	set.TPL, err = formats.ParseTPL(data)
	if err != nil {
		return nil, fmt.Errorf("parsing texture file '%s': %w", path, err)
	}

	set.Images, set.DecodeErr = l.decode(path, set.TPL)
	for _, e := range multierr.Errors(set.DecodeErr) {
		l.log.Warn("texture decode failed", zap.String("path", path), zap.Error(e))
	}
	return set, nil
}

func (l *Loader) decode(path string, tpl *formats.TPL) ([]*pixbuf.Image, error) {
	images := make([]*pixbuf.Image, tpl.Len())
	errs := make([]error, tpl.Len())

	var g errgroup.Group
	g.SetLimit(l.opts.Workers)
	for i := range images {
		g.Go(func() error {
			if img, ok := l.cache.Get(path, i); ok {
				images[i] = img
				return nil
			}
			img, err := tpl.Decode(i)
			if err != nil {
				errs[i] = err
				return nil
			}
			l.cache.Set(path, i, img)
			images[i] = img
			return nil
		})
	}
	// Workers never fail the group; per-texture errors are kept in errs so
	// one bad texture does not hide the others.
	err := g.Wait()
	return images, multierr.Append(err, multierr.Combine(errs...))
}

func writeInfo(path string, write func(io.Writer) error) error {
	infoPath := InfoPath(path)
	f, err := os.Create(infoPath)
	if err != nil {
		return &FileAccessError{Op: "open info file", Path: infoPath, Err: err}
	}
	bw := bufio.NewWriter(f)
	if err := multierr.Combine(write(bw), bw.Flush(), f.Close()); err != nil {
		return fmt.Errorf("writing info file '%s': %w", infoPath, err)
	}
	return nil
}
