// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gps holds the typed telemetry decoded from NMEA sentences.
package gps

import "fmt"

// Position is a decoded coordinate pair in decimal degrees.
// South and west are negative.
type Position struct {
	Latitude  float64
	Longitude float64
}

// UTCTime is the hh:mm:ss part of an NMEA time field.
// The zero value is also what an invalid field decodes to.
type UTCTime struct {
	Hour   int
	Minute int
	Second int
}

// String formats the time as "HH:MM:SS".
func (t UTCTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Date is a ddmmyy NMEA date. Year keeps its two digits, no century is inferred.
type Date struct {
	Day   int
	Month int
	Year  int
}

// String formats the date as "DD.MM.20YY".
func (d Date) String() string {
	return fmt.Sprintf("%02d.%02d.20%02d", d.Day, d.Month, d.Year)
}

// FixType is the GSA navigation mode.
type FixType int

const (
	FixUnknown FixType = iota
	FixNotAvailable
	Fix2D
	Fix3D
)

// ParseFixType maps the GSA mode field by exact match.
func ParseFixType(s string) FixType {
	switch s {
	case "1":
		return FixNotAvailable
	case "2":
		return Fix2D
	case "3":
		return Fix3D
	default:
		return FixUnknown
	}
}

func (f FixType) String() string {
	switch f {
	case FixNotAvailable:
		return "Not Available"
	case Fix2D:
		return "2D"
	case Fix3D:
		return "3D"
	default:
		return "Unknown"
	}
}

// SatelliteSystem is the constellation a GSV sentence reports on.
type SatelliteSystem int

const (
	SystemUnknown SatelliteSystem = iota
	SystemGPS
	SystemGLONASS
	SystemGalileo
	SystemBeiDou
)

// SystemFromTalker derives the constellation from the 2-character talker prefix.
func SystemFromTalker(talker string) SatelliteSystem {
	if len(talker) < 2 {
		return SystemUnknown
	}
	switch talker[:2] {
	case "GP":
		return SystemGPS
	case "GL":
		return SystemGLONASS
	case "GA":
		return SystemGalileo
	case "BD":
		return SystemBeiDou
	default:
		return SystemUnknown
	}
}

func (s SatelliteSystem) String() string {
	switch s {
	case SystemGPS:
		return "GPS"
	case SystemGLONASS:
		return "GLONASS"
	case SystemGalileo:
		return "Galileo"
	case SystemBeiDou:
		return "BeiDou"
	default:
		return "Unknown"
	}
}

// SatelliteReport is one 4-field satellite group of a GSV sentence.
type SatelliteReport struct {
	PRN       int
	System    SatelliteSystem
	Elevation int
	Azimuth   int
	SNR       int
	InView    bool
}

// String is the payload format published per satellite.
func (s SatelliteReport) String() string {
	return fmt.Sprintf("PRN: %d, Type: %s, Elevation: %d, Azimuth: %d, SNR: %d, In View: %t",
		s.PRN, s.System, s.Elevation, s.Azimuth, s.SNR, s.InView)
}

// TextField is a key=value status item carried by a TXT sentence.
type TextField struct {
	Key   string
	Value string
}
