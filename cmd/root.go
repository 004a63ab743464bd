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
	"fmt"
	"github.com/rotblauer/globe/params"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "globe",
	Short: "A level-of-detail web map globe",
	Long: `globe streams slippy map tiles onto a 3D globe, picking the zoom level
of every tile from its size on screen.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pFlags := rootCmd.PersistentFlags()
	pFlags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.globe/globe.yaml)")
	pFlags.String("datadir", params.DatadirRoot, "Directory for the tile store")
	pFlags.Int("verbosity", int(slog.LevelInfo), "Log level (-4:debug, 0:info, 4:warn, 8:error)")
	pFlags.Bool("log-json", false, "Log JSON instead of text")
	addEngineFlags(pFlags)

	if err := viper.BindPFlags(pFlags); err != nil {
		panic(err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(params.DatadirRoot)
		viper.SetConfigType("yaml")
		viper.SetConfigName("globe")
	}

	viper.SetEnvPrefix("GLOBE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	if d := viper.GetString("datadir"); d != "" {
		params.DatadirRoot = filepath.Clean(d)
	}
}

// setDefaultSlog installs the default logger from --verbosity and --log-json.
func setDefaultSlog(cmd *cobra.Command, args []string) {
	opts := &slog.HandlerOptions{
		Level: slog.Level(viper.GetInt("verbosity")),
	}
	var handler slog.Handler
	if viper.GetBool("log-json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler).With("cmd", cmd.Name()))
	slog.Debug("Logger configured", "args", args, "datadir", params.DatadirRoot)
}
