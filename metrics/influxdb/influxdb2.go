package influxdb

import (
	"fmt"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rotblauer/globe/metrics"
	"github.com/rotblauer/globe/params"
	"sync"
	"time"
)

// Run tags every point of one benchmark run.
type Run struct {
	Name string

	// Fingerprint identifies the engine configuration. Empty omits the tag.
	Fingerprint string
}

// ExportFrameSamples posts frame samples to an InfluxDB Write API.
// The Write API buffers and flushes; the last error encountered is returned.
func ExportFrameSamples(config *params.InfluxConfig, run Run, samples []metrics.FrameSample) error {
	if !config.Enabled() {
		return fmt.Errorf("influxdb export not configured")
	}
	opts := influxdb2.DefaultOptions()
	opts.SetPrecision(time.Millisecond)
	client := influxdb2.NewClientWithOptions(config.URL, config.Token, opts)
	writeAPI := client.WriteAPI(config.Org, config.Bucket)

	// The error channel is unbuffered and must be drained or the writer blocks.
	errorsCh := writeAPI.Errors()
	var err error
	wait := sync.WaitGroup{}
	wait.Add(1)
	go func() {
		defer wait.Done()
		for e := range errorsCh {
			if e != nil {
				err = e
			}
		}
	}()

	for _, s := range samples {
		writeAPI.WritePoint(Point(run, s))
	}
	writeAPI.Flush()
	client.Close()
	wait.Wait()
	return err
}

// Point is the line-protocol point for one frame sample, with sorted tags.
func Point(run Run, s metrics.FrameSample) *write.Point {
	p := influxdb2.NewPointWithMeasurement("frame").
		SetTime(s.Time).
		AddTag("run", run.Name).
		AddField("frame", s.Frame).
		AddField("duration_ms", float64(s.Duration)/float64(time.Millisecond)).
		AddField("visited", s.Visited).
		AddField("drawn", s.Drawn).
		AddField("drawn_loaded", s.DrawnLoaded).
		AddField("max_zoom", s.MaxZoom).
		AddField("nodes", s.Nodes).
		AddField("altitude", s.Altitude).
		AddField("latitude", s.Lat).
		AddField("longitude", s.Lon)
	if run.Fingerprint != "" {
		p.AddTag("config", run.Fingerprint)
	}
	if s.Panics > 0 {
		p.AddField("panics", s.Panics)
	}
	return p.SortTags()
}
