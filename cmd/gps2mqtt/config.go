// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/gps2mqtt/internal/config"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get().Redacted()
			out, err := yaml.Marshal(&cfg)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			w := cmd.OutOrStdout()
			for _, src := range cfg.Source {
				fmt.Fprintf(w, "# from %s\n", src)
			}
			_, err = w.Write(out)
			return err
		},
	}
}
