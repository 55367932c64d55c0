// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package metrics holds the Prometheus collectors shared by the bridge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Sentences = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gps2mqtt",
		Name:      "sentences_total",
		Help:      "Complete NMEA sentences seen, by kind.",
	}, []string{"kind"})

	DecodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gps2mqtt",
		Name:      "decode_errors_total",
		Help:      "Sentences dropped by the decoder, by kind.",
	}, []string{"kind"})

	// Publishes counts PublishIfChanged outcomes: published, unchanged, invalid, failed.
	Publishes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gps2mqtt",
		Name:      "publishes_total",
		Help:      "Change-filtered publish calls, by result.",
	}, []string{"result"})

	Reconnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gps2mqtt",
		Name:      "reconnect_attempts_total",
		Help:      "Transport reopen attempts, by result.",
	}, []string{"result"})

	ConnectionState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gps2mqtt",
		Name:      "connection_state",
		Help:      "Supervisor state: 0 disconnected, 1 open, 2 reconnecting.",
	})

	BytesRead = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gps2mqtt",
		Name:      "transport_bytes_read_total",
		Help:      "Bytes read from the transport.",
	})
)
