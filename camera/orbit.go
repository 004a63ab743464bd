// Package camera produces the view-projection matrix the quad-tree is measured and drawn with.
package camera

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rotblauer/globe/cartography"
	"github.com/rotblauer/globe/params"
	"math"
)

// Orbit circles the globe at a distance, always looking at its centre.
// The globe is rotated by Pitch about X after Yaw about Y; the camera then
// sits Altitude meters above the equatorial radius on +Z, looking down -Z.
type Orbit struct {
	config *params.CameraConfig

	Pitch    float64
	Yaw      float64
	Roll     float64
	Altitude float64
}

func NewOrbit(config *params.CameraConfig) *Orbit {
	if config == nil {
		config = params.DefaultCameraConfig()
	}
	o := &Orbit{config: config, Altitude: config.Altitude}
	o.LookAt(config.Lat, config.Lon)
	return o
}

// LookAt rotates the globe so the given location is straight below the camera.
func (o *Orbit) LookAt(lat, lon float64) {
	o.Pitch = mgl64.DegToRad(lat)
	o.Yaw = -math.Pi/2 - mgl64.DegToRad(lon)
}

// Target returns the lat/lon currently below the camera, in degrees.
func (o *Orbit) Target() (lat, lon float64) {
	lat = mgl64.RadToDeg(o.Pitch)
	lon = mgl64.RadToDeg(-math.Pi/2 - o.Yaw)
	lon = math.Mod(lon+540, 360) - 180
	return lat, lon
}

func (o *Orbit) Model() mgl64.Mat4 {
	return mgl64.HomogRotate3DX(o.Pitch).Mul4(mgl64.HomogRotate3DY(o.Yaw))
}

func (o *Orbit) View() mgl64.Mat4 {
	distance := cartography.SemiMajorAxis + o.Altitude
	return mgl64.HomogRotate3DZ(o.Roll).Mul4(mgl64.Translate3D(0, 0, -distance))
}

func (o *Orbit) Projection(aspect float64) mgl64.Mat4 {
	near := math.Min(500, math.Max(1, o.Altitude/2))
	far := cartography.SemiMajorAxis * 10
	return mgl64.Perspective(o.config.FovY, aspect, near, far)
}

// ViewProjection is projection * view * model.
func (o *Orbit) ViewProjection(aspect float64) mgl64.Mat4 {
	return o.Projection(aspect).Mul4(o.View()).Mul4(o.Model())
}

// Scroll zooms exponentially; positive delta moves closer.
func (o *Orbit) Scroll(delta float64) {
	factor := 1 - delta*o.config.ScrollSpeed
	factor = math.Max(0.1, math.Min(10, factor))
	o.Altitude = clamp(o.Altitude*factor*factor, o.config.MinAltitude, o.config.MaxAltitude)
}

// Drag rotates the globe by a pointer movement in pixels.
// Rotation slows as the camera nears the surface.
func (o *Orbit) Drag(dx, dy float64) {
	scale := o.config.DragSpeed * o.Altitude / cartography.SemiMajorAxis
	o.Yaw += dx * scale
	o.Pitch = clamp(o.Pitch+dy*scale, -math.Pi/2, math.Pi/2)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
