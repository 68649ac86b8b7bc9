package main

import (
	"fmt"

	"github.com/gopxl/mainthread/v2"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/pmviewer/internal/config"
	"github.com/Faultbox/pmviewer/internal/engine/camera"
	"github.com/Faultbox/pmviewer/internal/engine/debug"
	"github.com/Faultbox/pmviewer/internal/engine/input"
	"github.com/Faultbox/pmviewer/internal/engine/lighting"
	"github.com/Faultbox/pmviewer/internal/engine/picking"
	"github.com/Faultbox/pmviewer/internal/engine/renderer"
	"github.com/Faultbox/pmviewer/internal/engine/window"
	"github.com/Faultbox/pmviewer/internal/export"
	"github.com/Faultbox/pmviewer/internal/logger"
	"github.com/Faultbox/pmviewer/internal/scene"
	"github.com/Faultbox/pmviewer/pkg/math"
)

// viewer owns the window and GPU state. Window, input and renderer calls
// run on the main thread through mainthread.
type viewer struct {
	cfg   *config.Config
	state *AppState
	scene *scene.Scene

	win   *window.Window
	in    *input.Input
	cam   *camera.OrbitCamera
	rend  *renderer.Renderer
	shots *debug.ScreenshotCapture
	sun   *math.Vec3

	log *zap.Logger
}

func newViewer(cfg *config.Config, s *scene.Scene) (*viewer, error) {
	format, err := export.ParseFormat(cfg.Export.Format)
	if err != nil {
		return nil, err
	}

	v := &viewer{
		cfg:   cfg,
		scene: s,
		state: &AppState{
			Wireframe:  cfg.Viewer.Wireframe,
			ShowBounds: cfg.Viewer.ShowBounds,
			Lighting:   true,
		},
		in:    input.New(),
		cam:   camera.NewOrbitCamera(cfg.Viewer.FOV),
		shots: debug.NewScreenshotCapture(cfg.Export.Dir, "pmviewer", format),
		log:   logger.Named("viewer"),
	}
	v.cam.DragSensitivity = math.Radians(cfg.Viewer.MouseSensitivity)
	if cfg.Viewer.Sun {
		sun := lighting.SunDirection(cfg.Viewer.SunLongitude, cfg.Viewer.SunLatitude)
		v.sun = &sun
	}

	err = mainthread.CallErr(func() error {
		var err error
		if v.win, err = window.New("pmviewer - "+s.Name, cfg.Graphics); err != nil {
			return err
		}
		w, h := v.win.Size()
		if v.rend, err = renderer.New(w, h, cfg.Graphics.Background); err != nil {
			v.win.Close()
			return err
		}
		v.rend.Load(s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating viewer: %w", err)
	}

	v.fit()
	return v, nil
}

func (v *viewer) close() {
	mainthread.Call(v.win.Close)
}

// fit points the camera at the drawn part of the scene.
func (v *viewer) fit() {
	bounds := v.scene.Bounds()
	if n := v.state.Selected(v.scene); n != nil {
		bounds = subtreeBounds(n)
	}
	v.cam.FitToBounds(bounds)
	if v.cfg.Viewer.CameraDistance > 0 {
		v.cam.Distance = v.cfg.Viewer.CameraDistance
	}
}

func subtreeBounds(n *scene.Node) scene.AABB {
	b := scene.EmptyAABB()
	for _, g := range n.Geometries() {
		if g.Visible {
			b = b.Union(g.Mesh.Bounds().Transform(g.Node.WorldMatrix()))
		}
	}
	for _, c := range n.Children() {
		b = b.Union(subtreeBounds(c))
	}
	return b
}

// loop runs frames until the window closes.
func (v *viewer) loop() error {
	var frameMS uint64
	if v.cfg.Graphics.FPSLimit > 0 {
		frameMS = uint64(1000 / v.cfg.Graphics.FPSLimit)
	}

	quit := false
	for !quit {
		mainthread.Call(func() {
			start := window.Ticks()
			quit = v.frame()
			if elapsed := window.Ticks() - start; frameMS > 0 && elapsed < frameMS {
				window.Delay(uint32(frameMS - elapsed))
			}
		})
	}
	v.log.Info("viewer closed", zap.Uint64("frames", v.state.Frame))
	return nil
}

// frame handles input, draws and presents one frame. It reports whether
// the viewer should quit.
func (v *viewer) frame() bool {
	if v.in.Update() || v.in.IsKeyPressed(sdl.SCANCODE_ESCAPE) {
		return true
	}
	v.handleInput()

	v.scene.Update()
	v.rend.Draw(v.cam, renderer.Options{
		Wireframe:  v.state.Wireframe,
		ShowBounds: v.state.ShowBounds,
		Lighting:   v.state.Lighting,
		Sun:        v.sun,
		Subtree:    v.state.Selected(v.scene),
	})

	if v.in.IsKeyPressed(sdl.SCANCODE_F12) {
		v.screenshot()
	}

	v.win.SwapBuffers()
	v.state.Frame++
	return false
}

func (v *viewer) handleInput() {
	if w, h, ok := v.in.Resized(); ok {
		v.rend.Resize(w, h)
	}

	title := false
	switch {
	case v.in.IsKeyPressed(sdl.SCANCODE_TAB):
		v.state.Cycle(len(v.scene.Root.Children()))
		v.fit()
		title = true
	case v.in.IsKeyPressed(sdl.SCANCODE_0):
		v.state.ShowAll()
		v.fit()
		title = true
	}
	if v.in.IsKeyPressed(sdl.SCANCODE_W) {
		v.state.Wireframe = !v.state.Wireframe
		title = true
	}
	if v.in.IsKeyPressed(sdl.SCANCODE_B) {
		v.state.ShowBounds = !v.state.ShowBounds
	}
	if v.in.IsKeyPressed(sdl.SCANCODE_L) {
		v.state.Lighting = !v.state.Lighting
	}
	if v.in.IsKeyPressed(sdl.SCANCODE_F) {
		v.fit()
	}
	if title {
		v.win.SetTitle(v.state.Title(v.scene))
	}

	dx, dy := v.in.MouseDelta()
	switch {
	case v.in.ButtonHeld(sdl.BUTTON_LEFT):
		v.cam.HandleDrag(float32(dx), float32(dy))
	case v.in.ButtonHeld(sdl.BUTTON_RIGHT):
		v.cam.HandlePan(float32(dx), float32(dy))
	}
	if steps := v.in.Wheel(); steps != 0 {
		v.cam.HandleZoom(float32(steps))
	}
	if x, y, ok := v.in.ButtonPressed(sdl.BUTTON_MIDDLE); ok {
		v.pick(x, y)
	}
}

// pick selects the top-level node owning the geometry under the cursor.
func (v *viewer) pick(x, y int) {
	w, h := v.win.PointSize()
	if w == 0 || h == 0 {
		return
	}
	viewProj := v.cam.ProjectionMatrix(float32(w) / float32(h)).Mul(v.cam.ViewMatrix())
	ray := picking.ScreenToRay(float32(x), float32(y), float32(w), float32(h), viewProj.Inverse())

	hit, ok := picking.Pick(ray, v.scene.Resources.Geometries)
	if !ok {
		return
	}
	v.log.Info("picked", zap.String("geometry", hit.Geometry.Name), zap.Float32("distance", hit.Distance))
	if v.state.SelectAncestor(v.scene, hit.Geometry.Node) {
		v.fit()
		v.win.SetTitle(v.state.Title(v.scene))
	}
}

func (v *viewer) screenshot() {
	pixels, w, h := v.rend.ReadPixels()
	name, err := v.shots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		v.log.Error("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("file", name))
}
