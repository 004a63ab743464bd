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
	"github.com/dustin/go-humanize"
	"github.com/paulmach/orb"
	"github.com/rotblauer/globe/cartography"
	"github.com/rotblauer/globe/common"
	"github.com/rotblauer/globe/metrics"
	"github.com/rotblauer/globe/tiledb"
	"github.com/rotblauer/globe/tileload"
	"github.com/spf13/cobra"
	"log"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

var optBBox string
var optAround string
var optRadiusKm float64
var optMinZoom int
var optMaxZoom int
var optMaxTiles int

// prefetchCmd represents the prefetch command
var prefetchCmd = &cobra.Command{
	Use:   "prefetch",
	Short: "Download tiles for an area into the tile store",
	Long: `Fills the tile store for offline use. The area is either --bbox
minLon,minLat,maxLon,maxLat or a circle --around lat,lon of --radius-km.

	globe prefetch --around 46.87,-113.99 --radius-km 50 --min-zoom 0 --max-zoom 12`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		bound, err := prefetchBound(optBBox, optAround, optRadiusKm)
		if err != nil {
			log.Fatalln(err)
		}
		config, err := appConfig()
		if err != nil {
			log.Fatalln(err)
		}
		if config.Loader.StorePath == "" {
			log.Fatalln("prefetch needs the tile store")
		}
		n := cartography.CoverCount(bound, optMinZoom, optMaxZoom)
		if n > optMaxTiles {
			log.Fatalf("%s tiles exceeds --max-tiles %s", humanize.Comma(int64(n)), humanize.Comma(int64(optMaxTiles)))
		}
		slog.Info("Prefetching", "bound", bound, "zooms", fmt.Sprintf("%d-%d", optMinZoom, optMaxZoom),
			"tiles", humanize.Comma(int64(n)), "store", config.Loader.StorePath)

		store, err := tiledb.Open(config.Loader.StorePath, false)
		if err != nil {
			log.Fatalln(err)
		}
		defer store.Close()
		m := metrics.NewEngine()
		defer m.Stop()
		loader, err := tileload.New(config.Loader, store, m)
		if err != nil {
			log.Fatalln(err)
		}
		defer loader.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			select {
			case <-common.Interrupted():
				slog.Warn("Interrupted, stopping prefetch")
				cancel()
			case <-ctx.Done():
			}
		}()
		ticker := metrics.NewTickLogger(m, 5*time.Second)
		defer ticker.Stop()

		keys := make(chan cartography.TileKey)
		go func() {
			defer close(keys)
			for z := optMinZoom; z <= optMaxZoom; z++ {
				ok := cartography.Cover(bound, z, func(k cartography.TileKey) bool {
					select {
					case keys <- k:
						return true
					case <-ctx.Done():
						return false
					}
				})
				if !ok {
					return
				}
			}
		}()

		start := time.Now()
		stats, err := loader.Prefetch(ctx, config.Engine.TileURLTemplate, config.Loader.Workers, keys)
		if stats != nil {
			slog.Info("Prefetch done",
				"took", time.Since(start).Round(time.Millisecond),
				"seen", humanize.Comma(stats.Queued),
				"skipped", humanize.Comma(stats.Skipped),
				"fetched", humanize.Comma(stats.Fetched),
				"failed", humanize.Comma(stats.Failed),
				"bytes", humanize.Bytes(uint64(stats.Bytes)))
		}
		if err != nil && ctx.Err() == nil {
			log.Fatalln(err)
		}
	},
}

// prefetchBound resolves --bbox or --around into a lat/lon box.
func prefetchBound(bbox, around string, radiusKm float64) (orb.Bound, error) {
	switch {
	case bbox != "" && around != "":
		return orb.Bound{}, fmt.Errorf("use one of --bbox and --around")
	case bbox != "":
		v, err := parseFloats(bbox, 4)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("--bbox: %w", err)
		}
		if v[1] > v[3] {
			return orb.Bound{}, fmt.Errorf("--bbox: min lat %v above max lat %v", v[1], v[3])
		}
		return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
	case around != "":
		v, err := parseFloats(around, 2)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("--around: %w", err)
		}
		if radiusKm <= 0 {
			return orb.Bound{}, fmt.Errorf("--radius-km must be positive")
		}
		return cartography.CapBound(v[0], v[1], radiusKm), nil
	}
	return orb.Bound{}, fmt.Errorf("one of --bbox or --around is required")
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma separated numbers, got %q", n, s)
	}
	out := make([]float64, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(prefetchCmd)

	flags := prefetchCmd.Flags()
	flags.StringVar(&optBBox, "bbox", "", "minLon,minLat,maxLon,maxLat")
	flags.StringVar(&optAround, "around", "", "lat,lon centre of a circular area")
	flags.Float64Var(&optRadiusKm, "radius-km", 25, "Radius for --around")
	flags.IntVar(&optMinZoom, "min-zoom", 0, "Lowest zoom to fetch")
	flags.IntVar(&optMaxZoom, "max-zoom", 10, "Highest zoom to fetch")
	flags.IntVar(&optMaxTiles, "max-tiles", 100_000, "Refuse areas with more tiles than this")
}
