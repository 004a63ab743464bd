package camera

import (
	"github.com/rotblauer/globe/cartography"
	"github.com/rotblauer/globe/params"
	"math"
	"testing"
)

func TestOrbit_LookAt(t *testing.T) {
	cases := []struct {
		lat, lon float64
	}{
		{0, 0},
		{0, 90},
		{0, -179},
		{45, 10},
		{-60, -120},
		{80, 170},
	}
	for _, c := range cases {
		o := NewOrbit(nil)
		o.LookAt(c.lat, c.lon)
		vp := o.ViewProjection(1)
		p := cartography.GeodeticToECEF(c.lat, c.lon, 0)
		clip := vp.Mul4x1(p.Vec4(1))
		if clip.W() <= 0 {
			t.Fatalf("%v,%v: target is behind the camera (w=%v)", c.lat, c.lon, clip.W())
		}
		x, y := clip.X()/clip.W(), clip.Y()/clip.W()
		// Geodetic and geocentric latitude differ slightly, so allow a small offset.
		if math.Abs(x) > 0.01 || math.Abs(y) > 0.01 {
			t.Errorf("%v,%v: target projects to (%v, %v), want centre", c.lat, c.lon, x, y)
		}

		// Clip w is view depth.
		anti := cartography.GeodeticToECEF(-c.lat, c.lon+180, 0)
		aclip := vp.Mul4x1(anti.Vec4(1))
		if aclip.W() <= clip.W() {
			t.Errorf("%v,%v: antipode is nearer than target", c.lat, c.lon)
		}
	}
}

func TestOrbit_Target(t *testing.T) {
	o := NewOrbit(nil)
	o.LookAt(33.5, -97.25)
	lat, lon := o.Target()
	if math.Abs(lat-33.5) > 1e-9 || math.Abs(lon+97.25) > 1e-9 {
		t.Fatalf("target = %v,%v", lat, lon)
	}
}

func TestOrbit_Scroll(t *testing.T) {
	config := params.DefaultCameraConfig()
	o := NewOrbit(config)
	start := o.Altitude

	o.Scroll(1)
	if o.Altitude >= start {
		t.Fatalf("scroll in did not lower altitude: %v >= %v", o.Altitude, start)
	}
	want := start * math.Pow(1-config.ScrollSpeed, 2)
	if math.Abs(o.Altitude-want) > 1e-6 {
		t.Errorf("altitude = %v, want %v", o.Altitude, want)
	}

	for i := 0; i < 10000; i++ {
		o.Scroll(10)
	}
	if o.Altitude != config.MinAltitude {
		t.Errorf("altitude = %v, want clamp at %v", o.Altitude, config.MinAltitude)
	}
	for i := 0; i < 10000; i++ {
		o.Scroll(-10)
	}
	if o.Altitude != config.MaxAltitude {
		t.Errorf("altitude = %v, want clamp at %v", o.Altitude, config.MaxAltitude)
	}
}

func TestOrbit_Drag(t *testing.T) {
	o := NewOrbit(nil)
	yaw := o.Yaw
	o.Drag(100, 0)
	if o.Yaw <= yaw {
		t.Errorf("yaw did not increase: %v", o.Yaw)
	}
	o.Drag(0, 1e9)
	if o.Pitch != math.Pi/2 {
		t.Errorf("pitch = %v, want clamp at pi/2", o.Pitch)
	}
	o.Drag(0, -1e9)
	if o.Pitch != -math.Pi/2 {
		t.Errorf("pitch = %v, want clamp at -pi/2", o.Pitch)
	}
}
