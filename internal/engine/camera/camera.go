// Package camera provides the orbit camera of the viewer.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/pmviewer/internal/scene"
	"github.com/Faultbox/pmviewer/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center math.Vec3

	// Spherical coordinates
	Distance float32
	Pitch    float32 // radians, positive looks down
	Yaw      float32 // radians

	// Projection
	FOV  float32 // vertical, degrees
	Near float32
	Far  float32

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32 // radians per pixel
	ZoomSensitivity float32 // fraction of the distance per wheel step
}

// NewOrbitCamera creates an orbit camera with a vertical field of view of
// fov degrees.
func NewOrbitCamera(fov float32) *OrbitCamera {
	return &OrbitCamera{
		Distance:        10,
		Pitch:           0.4,
		FOV:             fov,
		Near:            0.1,
		Far:             1000,
		MinDistance:     0.01,
		MaxDistance:     1e6,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the eye position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	sinP, cosP := math32.Sincos(c.Pitch)
	sinY, cosY := math32.Sincos(c.Yaw)
	return c.Center.Add(math.Vec3{
		X: c.Distance * cosP * sinY,
		Y: c.Distance * sinP,
		Z: c.Distance * cosP * cosY,
	})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Y: 1})
}

// ProjectionMatrix returns the perspective projection for aspect.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) math.Mat4 {
	return math.Perspective(math.Radians(c.FOV), aspect, c.Near, c.Far)
}

// HandleDrag rotates the camera by a mouse drag delta in pixels.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch = clamp(c.Pitch+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom moves the eye towards the center by wheel steps.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// HandlePan shifts the center in the view plane by a drag delta in
// pixels. Speed scales with distance.
func (c *OrbitCamera) HandlePan(deltaX, deltaY float32) {
	speed := c.Distance * c.DragSensitivity * 0.2
	sinY, cosY := math32.Sincos(c.Yaw)
	right := math.Vec3{X: cosY, Z: -sinY}
	c.Center = c.Center.Add(right.Scale(-deltaX * speed))
	c.Center.Y += deltaY * speed
}

// FitToBounds centers the camera on b and backs off until the bounding
// sphere fills the vertical field of view. An empty box resets the center
// to the origin.
func (c *OrbitCamera) FitToBounds(b scene.AABB) {
	if b.Empty() {
		c.Center = math.Vec3{}
		return
	}
	c.Center = b.Center()

	radius := b.Size().Length() / 2
	if radius == 0 {
		radius = 1
	}
	c.Distance = clamp(radius/math32.Sin(math.Radians(c.FOV)/2), c.MinDistance, c.MaxDistance)
	c.Near = c.Distance / 1000
	c.Far = c.Distance + radius*4
	c.Pitch = 0.4
	c.Yaw = 0
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}
