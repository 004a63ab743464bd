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
	"fmt"
	"github.com/rotblauer/globe/app"
	"github.com/rotblauer/globe/cartography"
	"github.com/rotblauer/globe/params"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"math"
	"net/http"
	"path/filepath"
	"time"
)

// addEngineFlags declares the engine, loader and camera flags shared by every command.
func addEngineFlags(fs *pflag.FlagSet) {
	engine := params.DefaultEngineConfig()
	loader := params.DefaultLoaderConfig()
	camera := params.DefaultCameraConfig()

	fs.String("tiles", engine.TileURLTemplate, "Tile URL template with {z}, {x} and {y}")
	fs.String("tilejson", "", "TileJSON document URL; overrides --tiles and caps --max-depth")
	fs.Int("min-depth", engine.MinDepth, "Zoom level populated eagerly at startup")
	fs.Int("max-depth", engine.MaxDepth, "Deepest zoom level")
	fs.Float64("subdivide", engine.SubdivideThreshold, "Screen-space size above which a tile subdivides")
	fs.Float64("coarsen", engine.CoarsenThreshold, "Screen-space size below which children are pruned")
	fs.Int("coarsen-frames", engine.CoarsenFrames, "Consecutive small frames before children are pruned")

	fs.Int("workers", loader.Workers, "Concurrent tile fetches")
	fs.Int("memory-tiles", loader.MemoryCacheSize, "Decoded tiles kept in memory")
	fs.Duration("failure-ttl", loader.FailureTTL, "How long a failed tile is not retried")
	fs.String("user-agent", loader.UserAgent, "User-Agent sent to the tile server")
	fs.Bool("offline", false, "Serve tiles from the store only")
	fs.Bool("no-store", false, "Do not use the disk tile store")

	fs.Float64("lat", camera.Lat, "Initial latitude")
	fs.Float64("lon", camera.Lon, "Initial longitude")
	fs.Float64("alt", camera.Altitude, "Initial altitude, meters")
	fs.Float64("fov", camera.FovY*180/math.Pi, "Vertical field of view, degrees")
}

// appConfig builds the engine configuration from flags, environment and config file.
func appConfig() (*app.Config, error) {
	config := app.DefaultConfig()

	e := config.Engine
	e.TileURLTemplate = viper.GetString("tiles")
	e.MinDepth = viper.GetInt("min-depth")
	e.MaxDepth = viper.GetInt("max-depth")
	e.SubdivideThreshold = viper.GetFloat64("subdivide")
	e.CoarsenThreshold = viper.GetFloat64("coarsen")
	e.CoarsenFrames = viper.GetInt("coarsen-frames")

	l := config.Loader
	l.Workers = viper.GetInt("workers")
	l.MemoryCacheSize = viper.GetInt("memory-tiles")
	l.FailureTTL = viper.GetDuration("failure-ttl")
	l.UserAgent = viper.GetString("user-agent")
	l.Offline = viper.GetBool("offline")
	l.StorePath = filepath.Join(params.DatadirRoot, params.TileDBName)
	if viper.GetBool("no-store") {
		if l.Offline {
			return nil, fmt.Errorf("--offline needs the tile store")
		}
		l.StorePath = ""
	}

	if u := viper.GetString("tilejson"); u != "" {
		ctx, cancel := context.WithTimeout(context.Background(), l.RequestTimeout)
		defer cancel()
		tj, err := cartography.FetchTileJSON(ctx, &http.Client{}, u)
		if err != nil {
			return nil, err
		}
		e.ApplyTileJSON(tj)
	}

	c := config.Camera
	c.Lat = viper.GetFloat64("lat")
	c.Lon = viper.GetFloat64("lon")
	c.Altitude = viper.GetFloat64("alt")
	c.FovY = viper.GetFloat64("fov") * math.Pi / 180

	if err := e.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// runName tags a benchmark run.
func runName() string {
	return time.Now().UTC().Format("20060102T150405Z")
}
