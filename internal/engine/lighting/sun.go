// Package lighting computes light directions for the scene shader.
package lighting

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/pmviewer/pkg/math"
)

// SunDirection converts longitude/latitude in degrees to a unit vector
// pointing towards the light. Longitude turns around +Y starting at +Z;
// latitude is the elevation above the XZ plane.
func SunDirection(longitude, latitude float32) math.Vec3 {
	lon := math.Radians(longitude)
	lat := math.Radians(latitude)
	return math.Vec3{
		X: math32.Cos(lat) * math32.Sin(lon),
		Y: math32.Sin(lat),
		Z: math32.Cos(lat) * math32.Cos(lon),
	}
}

// Headlight returns the direction light travels for a light at the eye
// looking at center.
func Headlight(eye, center math.Vec3) math.Vec3 {
	return center.Sub(eye).Normalize()
}
