package lighting

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/pmviewer/pkg/math"
)

func near(a, b float32) bool {
	return gomath.Abs(float64(a-b)) < 1e-5
}

func TestSunDirection(t *testing.T) {
	tests := []struct {
		lon, lat float32
		want     math.Vec3
	}{
		{0, 0, math.Vec3{Z: 1}},
		{90, 0, math.Vec3{X: 1}},
		{0, 90, math.Vec3{Y: 1}},
		{180, 0, math.Vec3{Z: -1}},
	}
	for _, tt := range tests {
		got := SunDirection(tt.lon, tt.lat)
		if !near(got.X, tt.want.X) || !near(got.Y, tt.want.Y) || !near(got.Z, tt.want.Z) {
			t.Errorf("SunDirection(%v, %v) = %+v, want %+v", tt.lon, tt.lat, got, tt.want)
		}
		if !near(got.Length(), 1) {
			t.Errorf("SunDirection(%v, %v) not normalized", tt.lon, tt.lat)
		}
	}
}

func TestHeadlight(t *testing.T) {
	got := Headlight(math.Vec3{Z: 10}, math.Vec3{})
	if !near(got.Z, -1) || !near(got.X, 0) || !near(got.Y, 0) {
		t.Errorf("Headlight = %+v, want -Z", got)
	}
}
