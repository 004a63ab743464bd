package quadtree

import (
	"github.com/go-gl/mathgl/mgl64"
	"math"
)

// ScreenSpaceSize is the area of the tile's projected footprint in
// normalized device coordinates, where the full viewport is 4.
// Each projected coordinate is clamped to [-1, 1] so corners far outside the
// frustum, or behind the camera, cannot inflate or invert the area.
// Corners behind the camera (w <= 0) are not divided; they saturate to the
// [-1, 1] edge on the side their x and y point away from.
// Corners are ordered lower-left, lower-right, upper-left, upper-right.
func ScreenSpaceSize(corners [4]mgl64.Vec3, viewProjection mgl64.Mat4) float64 {
	var ndc [4][2]float64
	for i, c := range corners {
		ndc[i] = projectClamped(c, viewProjection)
	}
	ll, lr, ul, ur := ndc[0], ndc[1], ndc[2], ndc[3]
	return triangleArea(ll, lr, ul) + triangleArea(ul, lr, ur)
}

// ProjectNDC transforms p by viewProjection and applies the perspective divide.
// ok is false when the point is on or behind the camera plane.
func ProjectNDC(p mgl64.Vec3, viewProjection mgl64.Mat4) (ndc mgl64.Vec3, ok bool) {
	clip := viewProjection.Mul4x1(p.Vec4(1))
	w := clip.W()
	if w <= 0 {
		return mgl64.Vec3{}, false
	}
	return mgl64.Vec3{clip.X() / w, clip.Y() / w, clip.Z() / w}, true
}

func projectClamped(p mgl64.Vec3, viewProjection mgl64.Mat4) [2]float64 {
	clip := viewProjection.Mul4x1(p.Vec4(1))
	x, y, w := clip.X(), clip.Y(), clip.W()
	if w <= 0 {
		// Behind the camera x/w and y/w carry the flipped sign and blow up as
		// w approaches zero; saturate to the boundary they would clamp to.
		return [2]float64{outwards(-x), outwards(-y)}
	}
	return [2]float64{clamp(x/w, -1, 1), clamp(y/w, -1, 1)}
}

func outwards(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}

func triangleArea(a, b, c [2]float64) float64 {
	return 0.5 * math.Abs(a[0]*(b[1]-c[1])+b[0]*(c[1]-a[1])+c[0]*(a[1]-b[1]))
}
