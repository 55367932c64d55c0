// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package nmea reassembles and decodes the NMEA-0183 sentences consumed by
// the bridge. It is deliberately not a general NMEA library: only GGA, RMC,
// VTG, GSA, GLL, GSV and TXT are understood.
package nmea

import (
	"errors"
	"strings"
)

var (
	// ErrMalformed is returned for input that does not start with '$' or has no '*'.
	ErrMalformed = errors.New("nmea: malformed sentence")
	// ErrTooFewFields is returned when a sentence is shorter than its kind requires.
	ErrTooFewFields = errors.New("nmea: too few fields")
	// ErrChecksum is returned in strict mode when the checksum does not match.
	ErrChecksum = errors.New("nmea: checksum mismatch")
)

// Kind is the sentence type, taken from the last three characters of the
// talker+type identifier.
type Kind int

const (
	KindUnknown Kind = iota
	KindGGA
	KindRMC
	KindVTG
	KindGSA
	KindGLL
	KindGSV
	KindTXT
)

var kindsBySuffix = map[string]Kind{
	"GGA": KindGGA,
	"RMC": KindRMC,
	"VTG": KindVTG,
	"GSA": KindGSA,
	"GLL": KindGLL,
	"GSV": KindGSV,
	"TXT": KindTXT,
}

func (k Kind) String() string {
	for suffix, kind := range kindsBySuffix {
		if kind == k {
			return suffix
		}
	}
	return "Unknown"
}

// Classify maps an identifier such as "GNRMC" to its Kind. Only the
// 3-letter type suffix is matched, not any substring: talker prefixes are
// two letters and never contain a type code.
func Classify(id string) Kind {
	if len(id) < 3 {
		return KindUnknown
	}
	if k, ok := kindsBySuffix[id[len(id)-3:]]; ok {
		return k
	}
	return KindUnknown
}

// Sentence is one complete "$...*" span split into fields.
// Fields[0] is the talker+type identifier.
type Sentence struct {
	Raw      string
	Body     string
	Fields   []string
	Checksum string
}

// Parse splits a raw sentence. The checksum is only located, not verified.
func Parse(raw string) (Sentence, error) {
	if !strings.HasPrefix(raw, "$") {
		return Sentence{}, ErrMalformed
	}
	star := strings.IndexByte(raw, '*')
	if star < 0 {
		return Sentence{}, ErrMalformed
	}
	body := raw[1:star]
	return Sentence{
		Raw:      raw,
		Body:     body,
		Fields:   strings.Split(body, ","),
		Checksum: strings.TrimSpace(raw[star+1:]),
	}, nil
}

// ID returns the talker+type identifier, e.g. "GNRMC".
func (s Sentence) ID() string {
	if len(s.Fields) == 0 {
		return ""
	}
	return s.Fields[0]
}

// Kind classifies the sentence by its identifier.
func (s Sentence) Kind() Kind {
	return Classify(s.ID())
}
