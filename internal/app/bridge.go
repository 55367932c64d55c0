// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/relabs-tech/gps2mqtt/internal/config"
	"github.com/relabs-tech/gps2mqtt/internal/display"
	"github.com/relabs-tech/gps2mqtt/internal/monitor"
	"github.com/relabs-tech/gps2mqtt/internal/publish"
	"github.com/relabs-tech/gps2mqtt/internal/shutdown"
	"github.com/relabs-tech/gps2mqtt/internal/supervisor"
)

// RunBridge connects to the broker, opens the GPS serial port and
// publishes every changed value until ctx is done or a "q" line is read
// from input. Failing to reach the broker or to open the port at startup
// is returned as an error.
func RunBridge(ctx context.Context, cfg *config.Config, input io.Reader) error {
	logger := component("bridge")

	sink, err := publish.DialMQTT(mqttConfig(cfg, ""), component("mqtt"))
	if err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	defer sink.Close()

	cache := publish.NewCache(sink, component("publish"))
	pipeline := newPipeline(cfg, cache)

	serial := serialConfig(cfg)
	sup := supervisor.New(serial, pipeline, supervisorOptions(cfg),
		component("supervisor").With().Str("port", serial.String()).Logger())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	defer wg.Wait()

	if input != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			shutdown.WatchInput(ctx, input, cancel, component("shutdown"))
		}()
		logger.Info().Str("command", shutdown.QuitCommand).Msg("type the quit command and press enter to stop")
	}

	if cfg.MonitorAddr != "" {
		mon := monitor.New(cache, sup, pipeline, component("monitor"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := mon.Run(ctx, cfg.MonitorAddr); err != nil {
				logger.Error().Err(err).Msg("monitor stopped")
			}
		}()
	}

	if cfg.DisplayEnabled {
		opts := display.Options{Bus: cfg.DisplayI2CBus, BaseTopic: cfg.MQTTBaseTopic, Refresh: cfg.DisplayRefresh}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := display.Run(ctx, opts, cache, component("display")); err != nil {
				logger.Error().Err(err).Msg("display disabled")
			}
		}()
	}

	logger.Info().
		Str("broker", cfg.Broker()).
		Str("base_topic", cfg.MQTTBaseTopic).
		Bool("verify_checksum", cfg.VerifyChecksum).
		Msg("bridge starting")

	err = sup.Run(ctx)
	cancel()
	if err != nil {
		return err
	}
	logger.Info().
		Uint64("sentences", pipeline.Sentences()).
		Uint64("dropped", pipeline.Dropped()).
		Msg("bridge stopped")
	return nil
}
