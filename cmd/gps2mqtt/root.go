// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/relabs-tech/gps2mqtt/internal/app"
	"github.com/relabs-tech/gps2mqtt/internal/config"
)

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "gps2mqtt",
		Short: "Bridge a NMEA-0183 GPS receiver to MQTT",
		Long: `gps2mqtt reads NMEA sentences from a serial GPS receiver and publishes
each decoded value as a retained message on its own MQTT topic, only when
the value changes. Type q and press enter to stop.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.InitGlobal(cfgFile, cmd.Flags()); err != nil {
				return err
			}
			cfg := config.Get()
			setupLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			if len(cfg.Source) == 0 {
				log.Debug().Msg("no config file found, using defaults")
			}
			for _, src := range cfg.Source {
				log.Debug().Str("file", src).Msg("config loaded")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunBridge(cmd.Context(), config.Get(), cmd.InOrStdin())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default: settings.toml next to the binary, then "+config.SystemConfigPath+")")
	pf.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.String("log-format", "console", "log format (console, json)")
	pf.String("mqtt-host", "localhost", "MQTT broker host")
	pf.Int("mqtt-port", 1883, "MQTT broker port")
	pf.String("mqtt-base-topic", "/GOLF86/GPS/", "prefix for every published topic")

	addBridgeFlags(root.Flags())

	root.AddCommand(newRunCmd(), newReplayCmd(), newConsoleCmd(), newConfigCmd())
	return root
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bridge (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunBridge(cmd.Context(), config.Get(), cmd.InOrStdin())
		},
	}
	addBridgeFlags(cmd.Flags())
	return cmd
}

// addBridgeFlags registers the flags that only matter when reading the
// serial port. Names map to config keys with '-' for '_'.
func addBridgeFlags(fs *pflag.FlagSet) {
	fs.String("port-name", "/dev/ttyACM0", "GPS serial device")
	fs.Int("baud-rate", 9600, "serial baud rate")
	fs.String("serial-driver", "jacobsa", "serial library (jacobsa, tarm)")
	fs.Bool("set-gps-to-10hz", false, "switch u-blox receivers to 10 Hz after opening the port")
	fs.Bool("verify-checksum", false, "drop sentences with a wrong checksum")
	fs.String("monitor-addr", "", "serve status, telemetry and metrics on this address")
	fs.Bool("display-enabled", false, "show the fix on an SSD1306 display")
}

func setupLogger(w io.Writer, level, format string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if format == "json" {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		log.Warn().Str("provided_level", level).Msg("invalid log level, defaulting to info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
