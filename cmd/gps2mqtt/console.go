// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"github.com/spf13/cobra"

	"github.com/relabs-tech/gps2mqtt/internal/app"
	"github.com/relabs-tech/gps2mqtt/internal/config"
)

func newConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Print every value the bridge publishes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunConsole(cmd.Context(), config.Get(), cmd.OutOrStdout())
		},
	}
}
