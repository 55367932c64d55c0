// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package publish

import (
	"github.com/rs/zerolog"
)

// Sink is the message bus. Publish blocks until the broker has the message
// or the sink gives up.
type Sink interface {
	Publish(topic string, payload string, qos byte, retained bool) error
}

// LogSink only logs what would have been published.
type LogSink struct {
	Logger zerolog.Logger
}

func (s LogSink) Publish(topic string, payload string, qos byte, retained bool) error {
	s.Logger.Info().Str("topic", topic).Str("payload", payload).Uint8("qos", qos).Bool("retained", retained).Msg("publish")
	return nil
}
