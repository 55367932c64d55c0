// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

// Report is the decoded content of one sentence. The set of
// implementations is closed: one per supported sentence kind.
type Report interface {
	report()
}

// FixData comes from GGA.
type FixData struct {
	Time     UTCTime
	Position Position
	Quality  int
	Altitude float64
}

// MinimumData comes from RMC.
type MinimumData struct {
	Time     UTCTime
	Status   string
	Position Position
	Speed    float64
	Course   float64
	Date     Date
}

// CourseSpeed comes from VTG.
type CourseSpeed struct {
	Course     float64
	SpeedKnots float64
	SpeedKPH   float64
}

// ActiveSatellites comes from GSA. PRN is the first active satellite slot.
type ActiveSatellites struct {
	FixType FixType
	PRN     int
}

// GeoPosition comes from GLL.
type GeoPosition struct {
	Position Position
	Time     UTCTime
}

// SatellitesInView comes from GSV.
type SatellitesInView struct {
	System     SatelliteSystem
	Count      int
	Satellites []SatelliteReport
}

// Text comes from TXT. Field is nil unless the message carries a known marker.
type Text struct {
	Message string
	Field   *TextField
}

func (FixData) report()          {}
func (MinimumData) report()      {}
func (CourseSpeed) report()      {}
func (ActiveSatellites) report() {}
func (GeoPosition) report()      {}
func (SatellitesInView) report() {}
func (Text) report()             {}
