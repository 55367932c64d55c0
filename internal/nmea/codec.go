// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import (
	"fmt"
	"strconv"

	"github.com/relabs-tech/gps2mqtt/internal/gps"
)

const (
	latitudeDegreeDigits  = 2
	longitudeDegreeDigits = 3
)

// Latitude decodes a ddmm.mmmm field. Invalid input decodes to 0.
func Latitude(value, hemisphere string) float64 {
	return Coordinate(value, hemisphere, latitudeDegreeDigits)
}

// Longitude decodes a dddmm.mmmm field. Invalid input decodes to 0.
func Longitude(value, hemisphere string) float64 {
	return Coordinate(value, hemisphere, longitudeDegreeDigits)
}

// Coordinate converts a degree-minute value to decimal degrees, negated
// for S and W. Any failure decodes to 0; use ParseCoordinate for the reason.
func Coordinate(value, hemisphere string, degreeDigits int) float64 {
	v, err := ParseCoordinate(value, hemisphere, degreeDigits)
	if err != nil {
		return 0
	}
	return v
}

// ParseCoordinate is Coordinate with the failure reported.
func ParseCoordinate(value, hemisphere string, degreeDigits int) (float64, error) {
	if value == "" || hemisphere == "" {
		return 0, fmt.Errorf("empty coordinate")
	}
	if len(value) <= degreeDigits {
		return 0, fmt.Errorf("coordinate %q shorter than %d degree digits", value, degreeDigits)
	}
	switch hemisphere {
	case "N", "S", "E", "W":
	default:
		return 0, fmt.Errorf("invalid hemisphere %q", hemisphere)
	}

	degrees, err := strconv.ParseFloat(value[:degreeDigits], 64)
	if err != nil {
		return 0, fmt.Errorf("degrees: %w", err)
	}
	minutes, err := strconv.ParseFloat(value[degreeDigits:], 64)
	if err != nil {
		return 0, fmt.Errorf("minutes: %w", err)
	}

	result := degrees + minutes/60.0
	if hemisphere == "S" || hemisphere == "W" {
		result = -result
	}
	return result, nil
}

// Time decodes hhmmss[.ss]. Out-of-range or unparsable groups yield 00:00:00.
func Time(s string) gps.UTCTime {
	if len(s) < 6 {
		return gps.UTCTime{}
	}
	h, m, sec, ok := threeGroups(s)
	if !ok || h > 23 || m > 59 || sec > 59 {
		return gps.UTCTime{}
	}
	return gps.UTCTime{Hour: h, Minute: m, Second: sec}
}

// Date decodes ddmmyy. Anything but exactly six characters, or a day/month
// out of range, yields the zero date.
func Date(s string) gps.Date {
	if len(s) != 6 {
		return gps.Date{}
	}
	d, m, y, ok := threeGroups(s)
	if !ok || d == 0 || d > 31 || m == 0 || m > 12 {
		return gps.Date{}
	}
	return gps.Date{Day: d, Month: m, Year: y}
}

func threeGroups(s string) (a, b, c int, ok bool) {
	var vals [3]int
	for i := range vals {
		n, err := strconv.ParseUint(s[i*2:i*2+2], 10, 8)
		if err != nil {
			return 0, 0, 0, false
		}
		vals[i] = int(n)
	}
	return vals[0], vals[1], vals[2], true
}

// parseUint and parseFloat are the best-effort numeric field readers:
// anything unparsable is zero.
func parseUint(s string) int {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0
	}
	return int(n)
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
