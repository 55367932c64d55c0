// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/relabs-tech/gps2mqtt/internal/bridge"
	"github.com/relabs-tech/gps2mqtt/internal/config"
	"github.com/relabs-tech/gps2mqtt/internal/nmea"
	"github.com/relabs-tech/gps2mqtt/internal/publish"
	"github.com/relabs-tech/gps2mqtt/internal/serialport"
	"github.com/relabs-tech/gps2mqtt/internal/supervisor"
)

func component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

func serialConfig(cfg *config.Config) serialport.Config {
	return serialport.Config{
		Port:        cfg.PortName,
		Baud:        cfg.BaudRate,
		Driver:      serialport.Driver(cfg.SerialDriver),
		ReadTimeout: cfg.ReadTimeout,
	}
}

func mqttConfig(cfg *config.Config, clientID string) publish.MQTTConfig {
	if clientID == "" {
		clientID = cfg.MQTTClientID
	}
	return publish.MQTTConfig{
		Broker:         cfg.Broker(),
		ClientID:       clientID,
		Username:       cfg.MQTTUsername,
		Password:       cfg.MQTTPassword,
		ConnectTimeout: cfg.MQTTConnectTimeout,
		PublishTimeout: cfg.MQTTPublishTimeout,
	}
}

func supervisorOptions(cfg *config.Config) supervisor.Options {
	opts := supervisor.DefaultOptions()
	opts.HighRate = cfg.SetGPSTo10Hz
	opts.ShortDelay = cfg.ReconnectDelay
	opts.LongDelay = cfg.LongReconnectDelay
	opts.FailureThreshold = cfg.MaxConsecutiveFailures
	opts.ReadTimeout = cfg.ReadTimeout
	return opts
}

// newPipeline builds assembler, decoder and router on top of cache.
func newPipeline(cfg *config.Config, cache *publish.Cache) *bridge.Pipeline {
	decoder := nmea.NewDecoder(cfg.VerifyChecksum, component("nmea"))
	router := bridge.NewRouter(cache, cfg.MQTTBaseTopic, cfg.DateTopic, cfg.MQTTQoS, component("router"))
	return bridge.NewPipeline(decoder, router, component("pipeline"))
}
