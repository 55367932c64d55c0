// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gps2mqtt/internal/config"
	"github.com/relabs-tech/gps2mqtt/internal/publish"
)

// RunConsole subscribes to everything the bridge publishes and prints it
// to out until ctx is done.
func RunConsole(ctx context.Context, cfg *config.Config, out io.Writer) error {
	logger := component("console")

	clientID := "gps2mqtt-console-" + strings.TrimPrefix(publish.DefaultClientID(), "gps2mqtt-")
	sink, err := publish.DialMQTT(mqttConfig(cfg, clientID), component("mqtt"))
	if err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	defer sink.Close()

	filters := consoleFilters(cfg)
	lines := make(chan string, 64)
	token := sink.Client().SubscribeMultiple(filters, func(_ mqtt.Client, msg mqtt.Message) {
		select {
		case lines <- formatMessage(cfg.MQTTBaseTopic, msg.Topic(), string(msg.Payload())):
		default:
			logger.Warn().Str("topic", msg.Topic()).Msg("console output lagging, message dropped")
		}
	})
	if !token.WaitTimeout(cfg.MQTTConnectTimeout) {
		return fmt.Errorf("subscribe: timed out after %s", cfg.MQTTConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	for f := range filters {
		logger.Info().Str("filter", f).Msg("subscribed")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-lines:
			if _, err := io.WriteString(out, line); err != nil {
				return err
			}
		}
	}
}

func consoleFilters(cfg *config.Config) map[string]byte {
	qos := byte(cfg.MQTTQoS)
	filters := map[string]byte{cfg.MQTTBaseTopic + "#": qos}
	if !strings.HasPrefix(cfg.DateTopic, cfg.MQTTBaseTopic) {
		filters[cfg.DateTopic] = qos
	}
	return filters
}

// formatMessage prints topics under base by their suffix.
func formatMessage(base, topic, payload string) string {
	if suffix, ok := strings.CutPrefix(topic, base); ok && suffix != "" {
		topic = suffix
	}
	return fmt.Sprintf("[%s] %s\n", topic, payload)
}
