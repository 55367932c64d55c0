// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package publish

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MQTTConfig is what the sink needs to reach the broker.
type MQTTConfig struct {
	Broker         string // e.g. tcp://localhost:1883
	ClientID       string // empty means gps2mqtt-<uuid>
	Username       string
	Password       string
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

// MQTTSink publishes through a connected paho client.
type MQTTSink struct {
	client  mqtt.Client
	timeout time.Duration
	logger  zerolog.Logger
}

// DefaultClientID returns a unique client id for this process.
func DefaultClientID() string {
	return "gps2mqtt-" + uuid.NewString()[:8]
}

// DialMQTT connects to the broker. The client reconnects on its own after a
// lost connection; publishes fail while it is down.
func DialMQTT(cfg MQTTConfig, logger zerolog.Logger) (*MQTTSink, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = DefaultClientID()
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Error().Err(err).Msg("MQTT connection lost")
		}).
		SetOnConnectHandler(func(_ mqtt.Client) {
			logger.Info().Str("broker", cfg.Broker).Str("client_id", clientID).Msg("connected to MQTT broker")
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("connect to %s: timed out after %s", cfg.Broker, cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, err)
	}

	return NewMQTTSink(client, cfg.PublishTimeout, logger), nil
}

// NewMQTTSink wraps an already connected client.
func NewMQTTSink(client mqtt.Client, timeout time.Duration, logger zerolog.Logger) *MQTTSink {
	return &MQTTSink{client: client, timeout: timeout, logger: logger}
}

func (s *MQTTSink) Publish(topic string, payload string, qos byte, retained bool) error {
	token := s.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(s.timeout) {
		return errors.New("mqtt publish timed out")
	}
	return token.Error()
}

// Client exposes the paho client, e.g. for subscribing.
func (s *MQTTSink) Client() mqtt.Client {
	return s.client
}

// Close disconnects, waiting up to 250ms for in-flight work.
func (s *MQTTSink) Close() {
	if s.client.IsConnected() {
		s.client.Disconnect(250)
		s.logger.Info().Msg("MQTT client disconnected")
	}
}
