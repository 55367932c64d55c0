// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package serialport

import (
	"fmt"
	"io"
)

// UBXRate10Hz is a UBX CFG-RATE frame setting a 100ms measurement period,
// one navigation solution per measurement, GPS time reference.
var UBXRate10Hz = []byte{0xB5, 0x62, 0x06, 0x08, 0x06, 0x00, 0x64, 0x00, 0x01, 0x00, 0x01, 0x00, 0x7A, 0x12}

// WriteRate10Hz sends UBXRate10Hz to w.
func WriteRate10Hz(w io.Writer) error {
	n, err := w.Write(UBXRate10Hz)
	if err != nil {
		return fmt.Errorf("serial: write rate command: %w", err)
	}
	if n != len(UBXRate10Hz) {
		return fmt.Errorf("serial: write rate command: short write %d/%d", n, len(UBXRate10Hz))
	}
	return nil
}

// ubxChecksum computes the 8-bit Fletcher checksum over class, id, length
// and payload.
func ubxChecksum(frame []byte) (a, b byte) {
	for _, c := range frame {
		a += c
		b += a
	}
	return a, b
}
