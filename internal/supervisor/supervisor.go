// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package supervisor keeps the serial connection alive: it reads lines,
// hands them to the pipeline and reopens the port with backoff when the
// device goes away.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/tevino/abool/v2"

	"github.com/relabs-tech/gps2mqtt/internal/metrics"
	"github.com/relabs-tech/gps2mqtt/internal/serialport"
)

// Opener opens the transport. serialport.Config satisfies it.
type Opener interface {
	Open() (serialport.Port, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func() (serialport.Port, error)

func (f OpenerFunc) Open() (serialport.Port, error) { return f() }

// LineHandler consumes lines read from the port.
type LineHandler interface {
	Feed(line string)
	// Reset discards partial state after the transport was reopened.
	Reset()
}

// State is the connection state.
type State int32

const (
	StateDisconnected State = iota
	StateOpen
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

type Options struct {
	// HighRate sends the 10 Hz rate command after every open.
	HighRate bool
	// ShortDelay is waited before each reopen attempt.
	ShortDelay time.Duration
	// LongDelay replaces ShortDelay once FailureThreshold consecutive
	// attempts failed; the count then starts over.
	LongDelay        time.Duration
	FailureThreshold int
	// IdlePause is waited after a read that timed out without data.
	IdlePause time.Duration
	// ReadTimeout is the port's read timeout. An empty read returning in
	// less than half of it is not a timeout but a hung-up device, which
	// keeps answering reads instantly; HangupReads of those in a row
	// trigger a reconnect. Zero means reads block, so every empty read
	// counts.
	ReadTimeout time.Duration
	HangupReads int
}

func DefaultOptions() Options {
	return Options{
		ShortDelay:       time.Second,
		LongDelay:        10 * time.Second,
		FailureThreshold: 3,
		IdlePause:        10 * time.Millisecond,
		ReadTimeout:      5 * time.Second,
		HangupReads:      3,
	}
}

type Supervisor struct {
	opener  Opener
	handler LineHandler
	opts    Options
	logger  zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	state     atomic.Int32
	failures  atomic.Int32
	connected *abool.AtomicBool
	lastLine  atomic.Int64
}

func New(opener Opener, handler LineHandler, opts Options, logger zerolog.Logger) *Supervisor {
	if opts.FailureThreshold <= 0 {
		opts.FailureThreshold = 1
	}
	if opts.HangupReads <= 0 {
		opts.HangupReads = 1
	}
	return &Supervisor{
		opener:    opener,
		handler:   handler,
		opts:      opts,
		logger:    logger,
		sleep:     sleepContext,
		now:       time.Now,
		connected: abool.New(),
	}
}

// State returns the current connection state.
func (s *Supervisor) State() State { return State(s.state.Load()) }

// Failures returns the number of consecutive failed reopen attempts.
func (s *Supervisor) Failures() int { return int(s.failures.Load()) }

// Connected reports whether the port is open.
func (s *Supervisor) Connected() bool { return s.connected.IsSet() }

// LastLine returns when the last line was read, zero if never.
func (s *Supervisor) LastLine() time.Time {
	ns := s.lastLine.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Run opens the port and reads until ctx is done. Failing to open the port
// the first time is returned as an error; later failures are retried
// forever. Cancellation returns nil.
func (s *Supervisor) Run(ctx context.Context) error {
	port, err := s.open()
	if err != nil {
		s.setState(StateDisconnected)
		return fmt.Errorf("supervisor: initial open: %w", err)
	}
	s.logger.Info().Bool("high_rate", s.opts.HighRate).Msg("serial port open")

	defer func() {
		s.closePort(port)
		s.setState(StateDisconnected)
		s.logger.Info().Msg("serial reader stopped")
	}()

	reader := newLineReader(port, s.now)
	quickEmpty := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := reader.ReadLine()
		if err != nil && isIdle(err) {
			if s.hungUp(reader.lastRead) {
				quickEmpty++
			} else {
				quickEmpty = 0
			}
			if quickEmpty >= s.opts.HangupReads {
				quickEmpty = 0
				err = errHangup
			}
		}

		switch {
		case err == nil:
			quickEmpty = 0
			s.failures.Store(0)
			s.lastLine.Store(time.Now().UnixNano())
			s.handler.Feed(strings.TrimSpace(line))

		case errors.Is(err, errLineTooLong):
			s.logger.Warn().Int("limit", maxLineLength).Msg("discarding unterminated input")

		case isIdle(err):
			if s.opts.IdlePause > 0 {
				if s.sleep(ctx, s.opts.IdlePause) != nil {
					return nil
				}
			}

		case isTimeout(err):
			// retry

		default:
			s.logger.Warn().Err(err).Msg("serial read failed, reconnecting")
			s.closePort(port)
			port = nil
			np, err := s.reconnect(ctx)
			if err != nil {
				return nil
			}
			port = np
			reader = newLineReader(port, s.now)
		}
	}
}

// hungUp reports whether an empty read that took d came back too fast to
// be a read timeout.
func (s *Supervisor) hungUp(d time.Duration) bool {
	if s.opts.ReadTimeout <= 0 {
		return true
	}
	return d < s.opts.ReadTimeout/2
}

// reconnect reopens the port until it succeeds or ctx is done.
func (s *Supervisor) reconnect(ctx context.Context) (serialport.Port, error) {
	s.setState(StateReconnecting)
	s.handler.Reset()

	if err := s.sleep(ctx, s.opts.ShortDelay); err != nil {
		return nil, err
	}
	for {
		port, err := s.open()
		if err == nil {
			metrics.Reconnects.WithLabelValues("success").Inc()
			s.logger.Info().Msg("serial port reopened")
			return port, nil
		}
		metrics.Reconnects.WithLabelValues("failure").Inc()

		n := int(s.failures.Add(1))
		delay := s.opts.ShortDelay
		if n >= s.opts.FailureThreshold {
			delay = s.opts.LongDelay
		}
		s.logger.Warn().Err(err).Int("failures", n).Dur("retry_in", delay).Msg("reopen failed")

		if err := s.sleep(ctx, delay); err != nil {
			return nil, err
		}
		if n >= s.opts.FailureThreshold {
			s.failures.Store(0)
		}
	}
}

func (s *Supervisor) open() (serialport.Port, error) {
	port, err := s.opener.Open()
	if err != nil {
		return nil, err
	}
	if s.opts.HighRate {
		if err := serialport.WriteRate10Hz(port); err != nil {
			s.logger.Warn().Err(err).Msg("could not switch receiver to 10 Hz")
		}
	}
	s.failures.Store(0)
	s.setState(StateOpen)
	return port, nil
}

func (s *Supervisor) closePort(port serialport.Port) {
	if port == nil {
		return
	}
	if err := port.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("closing serial port")
	}
}

func (s *Supervisor) setState(st State) {
	s.state.Store(int32(st))
	s.connected.SetTo(st == StateOpen)
	metrics.ConnectionState.Set(float64(st))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
