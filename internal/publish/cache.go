// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package publish implements the change-filtered, retained publishing of
// telemetry values to the message bus.
package publish

import (
	"errors"
	"fmt"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/gps2mqtt/internal/metrics"
)

var (
	ErrEmptyInput = errors.New("publish: empty topic or payload")
	ErrInvalidQoS = errors.New("publish: invalid QoS level, must be 0, 1 or 2")
)

// Update is a value that reached the bus.
type Update struct {
	Topic   string    `json:"topic"`
	Payload string    `json:"payload"`
	Time    time.Time `json:"time"`
}

// Cache remembers the last payload successfully published per topic and
// drops publishes that would repeat it. Entries never expire.
type Cache struct {
	sink   Sink
	logger zerolog.Logger

	// mu makes lookup, publish and update one step.
	mu   sync.Mutex
	last cmap.ConcurrentMap[string, string]

	obsMu      sync.RWMutex
	observers  []func(Update)
	lastUpdate time.Time
}

// NewCache returns an empty cache publishing through sink.
func NewCache(sink Sink, logger zerolog.Logger) *Cache {
	return &Cache{
		sink:   sink,
		logger: logger,
		last:   cmap.New[string](),
	}
}

// PublishIfChanged publishes payload as a retained message unless it equals
// the last payload published on topic. The cached value is only updated
// after the sink accepted the message, so a failed value is retried on the
// next call.
func (c *Cache) PublishIfChanged(topic, payload string, qos int) error {
	if topic == "" || payload == "" {
		metrics.Publishes.WithLabelValues("invalid").Inc()
		return ErrEmptyInput
	}
	if qos < 0 || qos > 2 {
		metrics.Publishes.WithLabelValues("invalid").Inc()
		return ErrInvalidQoS
	}

	c.mu.Lock()
	if prev, ok := c.last.Get(topic); ok && prev == payload {
		c.mu.Unlock()
		metrics.Publishes.WithLabelValues("unchanged").Inc()
		c.logger.Debug().Str("topic", topic).Msg("skipping publish, value unchanged")
		return nil
	}

	c.logger.Debug().Str("topic", topic).Str("payload", payload).Msg("publishing changed value")
	if err := c.sink.Publish(topic, payload, byte(qos), true); err != nil {
		c.mu.Unlock()
		metrics.Publishes.WithLabelValues("failed").Inc()
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	c.last.Set(topic, payload)
	c.mu.Unlock()

	metrics.Publishes.WithLabelValues("published").Inc()
	c.notify(Update{Topic: topic, Payload: payload, Time: time.Now()})
	return nil
}

// Last returns the cached payload for topic.
func (c *Cache) Last(topic string) (string, bool) {
	return c.last.Get(topic)
}

// Snapshot copies the whole last-value table. Safe to call from any goroutine.
func (c *Cache) Snapshot() map[string]string {
	return c.last.Items()
}

// OnPublish registers fn to be called after every successful publish.
// fn runs on the publishing goroutine and must not block.
func (c *Cache) OnPublish(fn func(Update)) {
	c.obsMu.Lock()
	c.observers = append(c.observers, fn)
	c.obsMu.Unlock()
}

// LastUpdate is when a value last reached the bus.
func (c *Cache) LastUpdate() time.Time {
	c.obsMu.RLock()
	defer c.obsMu.RUnlock()
	return c.lastUpdate
}

func (c *Cache) notify(u Update) {
	c.obsMu.Lock()
	c.lastUpdate = u.Time
	observers := c.observers
	c.obsMu.Unlock()

	for _, fn := range observers {
		fn(u)
	}
}
