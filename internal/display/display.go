// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package display shows the current fix on an SSD1306 OLED.
package display

import (
	"context"
	"fmt"
	"image"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/ratelimit"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

// Screen is the drawing surface. *ssd1306.Dev implements it.
type Screen interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// Source provides the last published values.
type Source interface {
	Snapshot() map[string]string
}

type Options struct {
	// Bus is the I²C bus name, empty for the first one found.
	Bus       string
	BaseTopic string
	Refresh   time.Duration
}

// Run opens the display and refreshes it until ctx is done.
func Run(ctx context.Context, opts Options, src Source, logger zerolog.Logger) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}
	bus, err := i2creg.Open(opts.Bus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus %q: %w", opts.Bus, err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer func() {
		if err := dev.Halt(); err != nil {
			logger.Debug().Err(err).Msg("display halt")
		}
	}()
	logger.Info().Str("bus", bus.String()).Msg("display initialized")

	Refresh(ctx, dev, opts, src, logger)
	return nil
}

// Refresh redraws screen from src at most once per opts.Refresh, skipping
// frames whose text did not change.
func Refresh(ctx context.Context, screen Screen, opts Options, src Source, logger zerolog.Logger) {
	rl := ratelimit.New(1, ratelimit.Per(opts.Refresh))
	var shown []string
	for ctx.Err() == nil {
		rl.Take()
		lines := Lines(src.Snapshot(), opts.BaseTopic)
		if slices.Equal(lines, shown) {
			continue
		}
		if err := screen.Draw(screen.Bounds(), Render(lines), image.Point{}); err != nil {
			logger.Warn().Err(err).Msg("display update failed")
			continue
		}
		shown = lines
	}
}
