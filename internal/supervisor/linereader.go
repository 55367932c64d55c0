// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package supervisor

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"github.com/relabs-tech/gps2mqtt/internal/metrics"
)

// maxLineLength bounds a line without terminator; longer input is dropped.
const maxLineLength = 4096

var (
	errLineTooLong = errors.New("supervisor: line too long")
	errHangup      = errors.New("supervisor: empty reads before the read timeout, device hung up")
)

// lineReader splits a serial stream on '\n'. Unlike bufio.Reader it keeps
// the partial line when a read times out, so a sentence straddling an idle
// gap is not lost.
type lineReader struct {
	r       io.Reader
	now     func() time.Time
	pending []byte
	chunk   []byte

	// lastRead is how long the most recent Read call took.
	lastRead time.Duration
}

func newLineReader(r io.Reader, now func() time.Time) *lineReader {
	return &lineReader{r: r, now: now, chunk: make([]byte, 512)}
}

// ReadLine returns the next line without its '\n', or the read error.
// io.EOF means the read returned no data; lastRead tells a timeout from a
// hangup.
func (l *lineReader) ReadLine() (string, error) {
	for {
		if i := bytes.IndexByte(l.pending, '\n'); i >= 0 {
			line := string(l.pending[:i])
			l.pending = l.pending[i+1:]
			return line, nil
		}
		if len(l.pending) > maxLineLength {
			l.pending = l.pending[:0]
			return "", errLineTooLong
		}

		start := l.now()
		n, err := l.r.Read(l.chunk)
		l.lastRead = l.now().Sub(start)
		if n > 0 {
			metrics.BytesRead.Add(float64(n))
			l.pending = append(l.pending, l.chunk[:n]...)
			continue
		}
		if err != nil {
			return "", err
		}
		return "", io.EOF
	}
}

// isIdle reports whether err only signals that no data arrived in time.
// Termios read timeouts surface as a zero-byte read, which os.File turns
// into io.EOF.
func isIdle(err error) bool {
	return errors.Is(err, io.EOF)
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
