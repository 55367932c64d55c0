// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package serialport opens the GPS receiver's serial line through one of
// two drivers and writes receiver configuration frames.
package serialport

import (
	"fmt"
	"io"
	"time"

	jserial "github.com/jacobsa/go-serial/serial"
	tserial "github.com/tarm/serial"
)

// Driver selects the serial library used to open the port.
type Driver string

const (
	DriverJacobsa Driver = "jacobsa"
	DriverTarm    Driver = "tarm"
)

// Port is an open serial line.
type Port = io.ReadWriteCloser

// Config describes the serial line. ReadTimeout bounds a single read; zero
// blocks until data arrives.
type Config struct {
	Port        string
	Baud        int
	Driver      Driver
	ReadTimeout time.Duration
}

// Open opens the port with 8N1 framing.
func (c Config) Open() (Port, error) {
	switch c.Driver {
	case DriverJacobsa, "":
		return openJacobsa(c)
	case DriverTarm:
		return openTarm(c)
	default:
		return nil, fmt.Errorf("serial: unknown driver %q", c.Driver)
	}
}

func (c Config) String() string {
	return fmt.Sprintf("%s@%d (%s)", c.Port, c.Baud, c.driverName())
}

func (c Config) driverName() Driver {
	if c.Driver == "" {
		return DriverJacobsa
	}
	return c.Driver
}

func openJacobsa(c Config) (Port, error) {
	opts := jserial.OpenOptions{
		PortName:              c.Port,
		BaudRate:              uint(c.Baud),
		DataBits:              8,
		StopBits:              1,
		ParityMode:            jserial.PARITY_NONE,
		MinimumReadSize:       1,
		InterCharacterTimeout: 0,
	}
	if c.ReadTimeout > 0 {
		// VTIME semantics: a read returns after the timeout even with no data.
		opts.MinimumReadSize = 0
		opts.InterCharacterTimeout = interCharacterTimeout(c.ReadTimeout)
	}
	p, err := jserial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", c.Port, err)
	}
	return p, nil
}

// interCharacterTimeout rounds d to the 100ms resolution termios supports,
// capped at 25.5s.
func interCharacterTimeout(d time.Duration) uint {
	ms := d.Milliseconds()
	ms = (ms + 99) / 100 * 100
	if ms < 100 {
		ms = 100
	}
	if ms > 25500 {
		ms = 25500
	}
	return uint(ms)
}

func openTarm(c Config) (Port, error) {
	p, err := tserial.OpenPort(&tserial.Config{
		Name:        c.Port,
		Baud:        c.Baud,
		ReadTimeout: c.ReadTimeout,
		Size:        8,
		Parity:      tserial.ParityNone,
		StopBits:    tserial.Stop1,
	})
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", c.Port, err)
	}
	return p, nil
}
