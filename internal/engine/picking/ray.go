// Package picking casts rays from the cursor into the scene.
package picking

import (
	gomath "math"

	"github.com/Faultbox/pmviewer/internal/scene"
	"github.com/Faultbox/pmviewer/pkg/math"
)

// Ray is a half-line in world space.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // normalized
}

// ScreenToRay converts window pixel coordinates to a world-space ray.
// invViewProj is the inverse of projection * view.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj math.Mat4) Ray {
	ndcX := 2*screenX/viewportW - 1
	ndcY := 1 - 2*screenY/viewportH

	near := invViewProj.TransformVec3(math.Vec3{X: ndcX, Y: ndcY, Z: -1})
	far := invViewProj.TransformVec3(math.Vec3{X: ndcX, Y: ndcY, Z: 1})
	return Ray{Origin: near, Direction: far.Sub(near).Normalize()}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// IntersectAABB returns the distance to the first hit with box. A ray
// starting inside the box reports the exit distance.
func (r Ray) IntersectAABB(box scene.AABB) (t float32, hit bool) {
	if box.Empty() {
		return 0, false
	}
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)

	origin := r.Origin.Array()
	dir := r.Direction.Array()
	lo := box.Min.Array()
	hi := box.Max.Array()
	for axis := 0; axis < 3; axis++ {
		if dir[axis] == 0 {
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return 0, false
			}
			continue
		}
		t1 := (lo[axis] - origin[axis]) / dir[axis]
		t2 := (hi[axis] - origin[axis]) / dir[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// Hit is the result of a successful Pick.
type Hit struct {
	Geometry *scene.Geometry
	Distance float32
}

// Pick returns the visible geometry whose world bounds the ray enters
// first. World matrices must be current.
func Pick(r Ray, geometries []*scene.Geometry) (Hit, bool) {
	var best Hit
	found := false
	for _, g := range geometries {
		if !g.Visible || g.Mesh == nil {
			continue
		}
		t, ok := r.IntersectAABB(g.Mesh.Bounds().Transform(g.Node.WorldMatrix()))
		if ok && (!found || t < best.Distance) {
			best = Hit{Geometry: g, Distance: t}
			found = true
		}
	}
	return best, found
}
