package params

import "math"

type WindowConfig struct {
	Title  string
	Width  int
	Height int
	TPS    int
}

func DefaultWindowConfig() *WindowConfig {
	return &WindowConfig{
		Title:  "globe",
		Width:  1280,
		Height: 800,
		TPS:    60,
	}
}

type CameraConfig struct {
	// FovY is the vertical field of view in radians.
	FovY float64

	// Altitude is the initial camera height above the equatorial radius, in meters.
	Altitude    float64
	MinAltitude float64
	MaxAltitude float64

	// ScrollSpeed scales wheel deltas; zoom is exponential in it.
	ScrollSpeed float64

	// DragSpeed converts dragged pixels to radians at an altitude of one Earth radius.
	DragSpeed float64

	// Lat, Lon is the initial look-at location in degrees.
	Lat float64
	Lon float64
}

func DefaultCameraConfig() *CameraConfig {
	return &CameraConfig{
		FovY:        math.Pi / 2,
		Altitude:    2 * 6378137.0,
		MinAltitude: 100,
		MaxAltitude: 4e7,
		ScrollSpeed: 0.05,
		DragSpeed:   1.0 / 500,
		Lat:         0,
		Lon:         0,
	}
}
