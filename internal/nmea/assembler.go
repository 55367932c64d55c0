// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import "strings"

// Assembler rebuilds sentences that arrive split over several lines.
// A '$' line starts a new sentence (flushing any pending one) and a '*'
// closes the pending sentence. It is not safe for concurrent use.
type Assembler struct {
	buf  strings.Builder
	emit func(sentence string)
}

// NewAssembler returns an Assembler that passes every complete sentence to emit.
func NewAssembler(emit func(sentence string)) *Assembler {
	return &Assembler{emit: emit}
}

// Feed consumes one line with its terminator already stripped.
func (a *Assembler) Feed(line string) {
	if line == "" {
		return
	}
	if line[0] == '$' {
		a.flush()
	} else if a.buf.Len() == 0 {
		// continuation without a start
		return
	}
	a.buf.WriteString(line)
	if strings.IndexByte(line, '*') >= 0 {
		a.flush()
	}
}

// Pending returns the unterminated fragment currently buffered.
func (a *Assembler) Pending() string {
	return a.buf.String()
}

// Reset drops any unterminated fragment.
func (a *Assembler) Reset() {
	a.buf.Reset()
}

func (a *Assembler) flush() {
	if a.buf.Len() == 0 {
		return
	}
	s := a.buf.String()
	a.buf.Reset()
	a.emit(s)
}
