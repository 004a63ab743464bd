/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"github.com/dustin/go-humanize"
	"github.com/rotblauer/globe/app"
	"github.com/rotblauer/globe/common"
	"github.com/rotblauer/globe/metrics/influxdb"
	"github.com/rotblauer/globe/params"
	"github.com/rotblauer/globe/renderer"
	"github.com/spf13/cobra"
	"log"
	"log/slog"
	"time"
)

var optFlight = app.DefaultFlight()
var optInflux bool
var optRun string

// headlessCmd represents the headless command
var headlessCmd = &cobra.Command{
	Use:   "headless",
	Short: "Fly the camera without a window and report frame times",
	Long: `Renders to a recording backend while the camera descends from --from-alt
to --to-alt over --frames frames. Frame samples can be exported to InfluxDB
(INFLUXDB_URL, INFLUXDB_TOKEN, INFLUXDB_ORG, INFLUXDB_BUCKET).`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		config, err := appConfig()
		if err != nil {
			log.Fatalln(err)
		}
		engine, err := app.New(config, &renderer.Recorder{})
		if err != nil {
			log.Fatalln(err)
		}
		defer engine.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			select {
			case <-common.Interrupted():
				slog.Warn("Interrupted, stopping flight")
				cancel()
			case <-ctx.Done():
			}
		}()
		startWebDaemon(ctx, engine)

		optFlight.Lat, optFlight.Lon = config.Camera.Lat, config.Camera.Lon
		start := time.Now()
		samples, err := engine.Fly(ctx, optFlight)
		if err != nil && ctx.Err() == nil {
			log.Fatalln(err)
		}

		summary := engine.FrameTimes().Summary()
		snap := engine.Metrics().Snapshot()
		slog.Info("Flight complete",
			"frames", len(samples),
			"took", time.Since(start).Round(time.Millisecond),
			"mean.ms", common.DecimalToFixed(summary.Mean, 3),
			"p50.ms", common.DecimalToFixed(summary.P50, 3),
			"p95.ms", common.DecimalToFixed(summary.P95, 3),
			"p99.ms", common.DecimalToFixed(summary.P99, 3),
			"max.ms", common.DecimalToFixed(summary.Max, 3),
			"tiles.loaded", humanize.Comma(snap.TilesLoaded),
			"tiles.failed", humanize.Comma(snap.TilesFailed),
			"bytes", humanize.Bytes(uint64(snap.BytesFetched)),
			"config", engine.Fingerprint())

		if !optInflux {
			return
		}
		run := influxdb.Run{Name: optRun, Fingerprint: engine.Fingerprint()}
		if run.Name == "" {
			run.Name = runName()
		}
		if err := influxdb.ExportFrameSamples(params.DefaultInfluxConfig(), run, samples); err != nil {
			log.Fatalln(err)
		}
		slog.Info("Exported frame samples", "run", run.Name, "n", len(samples))
	},
}

func init() {
	rootCmd.AddCommand(headlessCmd)

	flags := headlessCmd.Flags()
	flags.IntVar(&optFlight.Frames, "frames", optFlight.Frames, "Frames to render")
	flags.Float64Var(&optFlight.FromAltitude, "from-alt", optFlight.FromAltitude, "Starting altitude, meters")
	flags.Float64Var(&optFlight.ToAltitude, "to-alt", optFlight.ToAltitude, "Final altitude, meters")
	flags.Float64Var(&optFlight.PanDegrees, "pan", optFlight.PanDegrees, "Degrees of longitude panned per frame")
	flags.Float64Var(&optFlight.Aspect, "aspect", optFlight.Aspect, "Viewport aspect ratio")
	flags.DurationVar(&optFlight.Settle, "settle", optFlight.Settle, "Max wait for pending tiles before each frame, 0 to not wait")
	flags.BoolVar(&optInflux, "influx", false, "Export frame samples to InfluxDB")
	flags.StringVar(&optRun, "run", "", "Run name tag for exported samples (default: start time)")
	flags.StringVar(&optWebdAddress, "webd-address", "", "Serve stats on this address, eg. localhost:3000")
}
