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
	"github.com/rotblauer/globe/app"
	"github.com/rotblauer/globe/common"
	"github.com/rotblauer/globe/daemon/webd"
	"github.com/rotblauer/globe/metrics"
	"github.com/rotblauer/globe/params"
	"github.com/rotblauer/globe/renderer/window"
	"github.com/rotblauer/globe/rgeo"
	"github.com/spf13/cobra"
	"log"
	"log/slog"
	"time"
)

var optWebdAddress string
var optLogEvery time.Duration
var optPlace bool
var optProvinces bool
var optWidth int
var optHeight int

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the globe in a window",
	Long: `Drag to rotate, scroll to zoom, Q/E to roll and R to reset the roll.
Space toggles the wireframe, O the overlay. Escape quits.`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		config, err := appConfig()
		if err != nil {
			log.Fatalln(err)
		}
		backend := &window.Backend{}
		engine, err := app.New(config, backend)
		if err != nil {
			log.Fatalln(err)
		}
		defer engine.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		startWebDaemon(ctx, engine)

		ticker := metrics.NewTickLogger(engine.Metrics(), optLogEvery)
		defer ticker.Stop()

		var locator *rgeo.Locator
		if optPlace {
			locator, err = rgeo.NewLocator(optProvinces)
			if err != nil {
				log.Fatalln(err)
			}
		}

		wc := params.DefaultWindowConfig()
		wc.Width, wc.Height = optWidth, optHeight
		game := window.NewGame(wc, engine, backend, locator)
		go func() {
			select {
			case <-common.Interrupted():
				slog.Warn("Interrupted")
				game.Quit()
			case <-ctx.Done():
			}
		}()
		if err := game.Run(); err != nil {
			log.Fatalln(err)
		}
		slog.Info("Window closed")
	},
}

// startWebDaemon serves the engine's stats until ctx is done, if --webd-address is set.
func startWebDaemon(ctx context.Context, engine *app.Engine) {
	if optWebdAddress == "" {
		return
	}
	config := params.DefaultWebDaemonConfig()
	config.Address = optWebdAddress
	d := webd.NewWebDaemon(config, engine)
	go func() {
		if err := d.Run(ctx); err != nil {
			slog.Error("Web daemon failed", "error", err)
		}
	}()
}

func init() {
	rootCmd.AddCommand(runCmd)

	defaults := params.DefaultWindowConfig()

	flags := runCmd.Flags()
	flags.StringVar(&optWebdAddress, "webd-address", "", "Serve stats on this address, eg. localhost:3000")
	flags.DurationVar(&optLogEvery, "log-every", 10*time.Second, "Interval between engine log lines")
	flags.BoolVar(&optPlace, "place", true, "Show the place under the camera")
	flags.BoolVar(&optProvinces, "provinces", false, "Name provinces too (slower startup)")
	flags.IntVar(&optWidth, "width", defaults.Width, "Window width")
	flags.IntVar(&optHeight, "height", defaults.Height, "Window height")
}
