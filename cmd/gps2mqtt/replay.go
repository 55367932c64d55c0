// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/relabs-tech/gps2mqtt/internal/app"
	"github.com/relabs-tech/gps2mqtt/internal/config"
)

func newReplayCmd() *cobra.Command {
	var opts app.ReplayOptions

	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Publish a captured NMEA log as if it came from the receiver",
		Long: `replay feeds every line of FILE (or stdin for "-") through the same
decoder and change filter as the bridge. With --rate the lines are paced,
with --dry-run nothing is sent to the broker.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Path = args[0]
			stats, err := app.RunReplay(cmd.Context(), config.Get(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s lines, %s sentences (%s dropped), %d topics\n",
				humanize.Comma(int64(stats.Lines)),
				humanize.Comma(int64(stats.Sentences)),
				humanize.Comma(int64(stats.Dropped)),
				stats.Topics)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Rate, "rate", 0, "lines per second, 0 for as fast as possible")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "log publishes instead of sending them")
	cmd.Flags().Bool("verify-checksum", false, "drop sentences with a wrong checksum")
	return cmd
}
