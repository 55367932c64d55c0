// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bridge

import (
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/relabs-tech/gps2mqtt/internal/metrics"
	"github.com/relabs-tech/gps2mqtt/internal/nmea"
)

// Pipeline feeds raw lines through reassembly, decoding and routing.
// Feed and Reset must be called from a single goroutine.
type Pipeline struct {
	assembler *nmea.Assembler
	decoder   *nmea.Decoder
	router    *Router
	logger    zerolog.Logger

	sentences atomic.Uint64
	dropped   atomic.Uint64
}

// NewPipeline wires decoder and router behind a fresh assembler.
func NewPipeline(decoder *nmea.Decoder, router *Router, logger zerolog.Logger) *Pipeline {
	p := &Pipeline{decoder: decoder, router: router, logger: logger}
	p.assembler = nmea.NewAssembler(p.handle)
	return p
}

// Feed consumes one line read from the transport, terminator stripped.
func (p *Pipeline) Feed(line string) {
	p.assembler.Feed(line)
}

// Reset drops a partially assembled sentence, used after a reconnect.
func (p *Pipeline) Reset() {
	if frag := p.assembler.Pending(); frag != "" {
		p.logger.Debug().Str("fragment", frag).Msg("discarding partial sentence")
	}
	p.assembler.Reset()
}

// Sentences returns the number of complete sentences handled.
func (p *Pipeline) Sentences() uint64 { return p.sentences.Load() }

// Dropped returns the number of sentences the decoder rejected.
func (p *Pipeline) Dropped() uint64 { return p.dropped.Load() }

func (p *Pipeline) handle(sentence string) {
	p.sentences.Add(1)
	kind, report, err := p.decoder.Decode(sentence)
	metrics.Sentences.WithLabelValues(kind.String()).Inc()
	if err != nil {
		p.dropped.Add(1)
		metrics.DecodeErrors.WithLabelValues(kind.String()).Inc()
		ev := p.logger.Warn()
		if errors.Is(err, nmea.ErrMalformed) {
			ev = p.logger.Debug()
		}
		ev.Err(err).Str("sentence", sentence).Msg("sentence dropped")
		return
	}
	if report == nil {
		return
	}
	p.router.Route(report)
}
