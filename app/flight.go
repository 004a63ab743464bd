package app

import (
	"context"
	"errors"
	"fmt"
	"github.com/rotblauer/globe/metrics"
	"math"
	"time"
)

// Flight moves the camera from FromAltitude to ToAltitude over Frames frames,
// geometrically, panning PanDegrees of longitude per frame.
type Flight struct {
	Frames       int
	FromAltitude float64
	ToAltitude   float64
	Lat, Lon     float64
	PanDegrees   float64
	Aspect       float64

	// Settle waits up to this long before each frame for pending textures.
	// Zero renders whatever has arrived.
	Settle time.Duration
}

func DefaultFlight() *Flight {
	return &Flight{
		Frames:       600,
		FromAltitude: 2e7,
		ToAltitude:   2e3,
		Aspect:       16.0 / 10,
		Settle:       5 * time.Second,
	}
}

func (f *Flight) Validate() error {
	if f.Frames < 1 {
		return fmt.Errorf("flight needs at least one frame, got %d", f.Frames)
	}
	if f.FromAltitude <= 0 || f.ToAltitude <= 0 {
		return fmt.Errorf("flight altitudes must be positive, got %v and %v", f.FromAltitude, f.ToAltitude)
	}
	if f.Aspect <= 0 {
		return fmt.Errorf("aspect %v must be positive", f.Aspect)
	}
	return nil
}

// Altitude is the camera altitude at frame i.
func (f *Flight) Altitude(i int) float64 {
	if f.Frames == 1 {
		return f.FromAltitude
	}
	t := float64(i) / float64(f.Frames-1)
	return f.FromAltitude * math.Pow(f.ToAltitude/f.FromAltitude, t)
}

// Fly renders the flight and returns a sample per frame. On cancellation the
// samples so far are returned with ctx's error.
func (e *Engine) Fly(ctx context.Context, f *Flight) ([]metrics.FrameSample, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	samples := make([]metrics.FrameSample, 0, f.Frames)
	for i := 0; i < f.Frames; i++ {
		if err := ctx.Err(); err != nil {
			return samples, err
		}
		if f.Settle > 0 {
			settle, cancel := context.WithTimeout(ctx, f.Settle)
			_, err := e.renderer.Settle(settle)
			cancel()
			switch {
			case err == nil:
			case errors.Is(err, context.DeadlineExceeded):
				e.logger.Debug("Frame rendered unsettled", "frame", i, "pending", e.renderer.Pending())
			default:
				return samples, err
			}
		}
		e.Camera.LookAt(f.Lat, f.Lon+f.PanDegrees*float64(i))
		e.Camera.Altitude = f.Altitude(i)

		e.Update()
		stats := e.Render(f.Aspect)
		last := e.LastFrame()
		lat, lon := e.Camera.Target()
		samples = append(samples, metrics.FrameSample{
			Time:        last.Time,
			Frame:       stats.Frame,
			Duration:    last.Duration,
			Visited:     stats.Visited,
			Drawn:       stats.Drawn,
			DrawnLoaded: stats.DrawnLoaded,
			MaxZoom:     stats.MaxDrawnZoom,
			Nodes:       stats.Nodes,
			Panics:      stats.Panics,
			Altitude:    e.Camera.Altitude,
			Lat:         lat,
			Lon:         lon,
		})
	}
	return samples, nil
}
