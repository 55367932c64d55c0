// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/ratelimit"

	"github.com/relabs-tech/gps2mqtt/internal/bridge"
	"github.com/relabs-tech/gps2mqtt/internal/config"
	"github.com/relabs-tech/gps2mqtt/internal/publish"
)

type ReplayOptions struct {
	// Path of the captured NMEA log, "-" for stdin.
	Path string
	// Rate limits replay to this many lines per second; 0 replays at once.
	Rate int
	// DryRun logs publishes instead of sending them.
	DryRun bool
}

type ReplayStats struct {
	Lines     int
	Sentences uint64
	Dropped   uint64
	Topics    int
}

// RunReplay feeds a captured NMEA log through the same pipeline the bridge
// uses. A trailing unterminated sentence is dropped.
func RunReplay(ctx context.Context, cfg *config.Config, opts ReplayOptions) (ReplayStats, error) {
	logger := component("replay")

	var in io.Reader = os.Stdin
	if opts.Path != "-" {
		f, err := os.Open(opts.Path)
		if err != nil {
			return ReplayStats{}, fmt.Errorf("failed to open capture: %w", err)
		}
		defer f.Close()
		in = f
	}

	var sink publish.Sink = publish.LogSink{Logger: component("dry-run")}
	if !opts.DryRun {
		mqttSink, err := publish.DialMQTT(mqttConfig(cfg, ""), component("mqtt"))
		if err != nil {
			return ReplayStats{}, fmt.Errorf("mqtt: %w", err)
		}
		defer mqttSink.Close()
		sink = mqttSink
	}

	cache := publish.NewCache(sink, component("publish"))
	pipeline := newPipeline(cfg, cache)

	logger.Info().Str("path", opts.Path).Int("rate", opts.Rate).Bool("dry_run", opts.DryRun).Msg("replay starting")
	lines, err := Replay(ctx, in, pipeline, opts.Rate)
	stats := ReplayStats{
		Lines:     lines,
		Sentences: pipeline.Sentences(),
		Dropped:   pipeline.Dropped(),
		Topics:    len(cache.Snapshot()),
	}
	if err != nil {
		return stats, err
	}
	logger.Info().
		Int("lines", stats.Lines).
		Uint64("sentences", stats.Sentences).
		Uint64("dropped", stats.Dropped).
		Int("topics", stats.Topics).
		Msg("replay finished")
	return stats, nil
}

// Replay feeds every line of r to p, at most rate lines per second when
// rate is positive. It stops early when ctx is done.
func Replay(ctx context.Context, r io.Reader, p *bridge.Pipeline, rate int) (int, error) {
	var rl ratelimit.Limiter = ratelimit.NewUnlimited()
	if rate > 0 {
		rl = ratelimit.New(rate)
	}

	sc := bufio.NewScanner(r)
	lines := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return lines, nil
		}
		rl.Take()
		p.Feed(strings.TrimSpace(sc.Text()))
		lines++
	}
	if err := sc.Err(); err != nil {
		return lines, fmt.Errorf("failed to read capture: %w", err)
	}
	return lines, nil
}
