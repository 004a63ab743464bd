package metrics

import "time"

// FrameSample is one rendered frame as recorded by the headless runner.
type FrameSample struct {
	Time     time.Time
	Frame    uint64
	Duration time.Duration

	Visited     int
	Drawn       int
	DrawnLoaded int
	MaxZoom     int
	Nodes       int
	Panics      int

	Altitude float64
	Lat      float64
	Lon      float64
}
