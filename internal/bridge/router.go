// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package bridge turns decoded GPS reports into individually addressed
// MQTT topics and wires the ingest pipeline together.
package bridge

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/relabs-tech/gps2mqtt/internal/gps"
)

// DefaultDateTopic is absolute, not relative to the base topic.
const DefaultDateTopic = "/GOLF86/GPS/DTE"

// Topic suffixes appended to the base topic.
const (
	SuffixAltitude     = "ALT"
	SuffixQuality      = "QTY"
	SuffixLatitude     = "LAT"
	SuffixLongitude    = "LNG"
	SuffixSpeed        = "SPD"
	SuffixTime         = "TME"
	SuffixCourse       = "CRS"
	SuffixSpeedKnots   = "SPD_KTS"
	SuffixSpeedKPH     = "SPD_KPH"
	SuffixSatCount     = "SAT/GLOBAL/NUM"
	SuffixGLLTime      = "GLL_TME"
	SuffixGLLLatitude  = "GLL_LAT"
	SuffixGLLLongitude = "GLL_LNG"
)

// Publisher is the change-filtered publish operation of publish.Cache.
type Publisher interface {
	PublishIfChanged(topic, payload string, qos int) error
}

// Router maps reports to topics.
type Router struct {
	pub       Publisher
	base      string
	dateTopic string
	qos       int
	logger    zerolog.Logger
}

// NewRouter returns a Router publishing under baseTopic. dateTopic is used
// as-is for the RMC date.
func NewRouter(pub Publisher, baseTopic, dateTopic string, qos int, logger zerolog.Logger) *Router {
	if dateTopic == "" {
		dateTopic = DefaultDateTopic
	}
	return &Router{pub: pub, base: baseTopic, dateTopic: dateTopic, qos: qos, logger: logger}
}

// Route publishes every field of r. A failed publish is logged and the
// remaining fields are still attempted.
func (r *Router) Route(report gps.Report) {
	switch rep := report.(type) {
	case gps.FixData:
		r.publish(SuffixAltitude, formatFloat(rep.Altitude))
		r.publish(SuffixQuality, strconv.Itoa(rep.Quality))

	case gps.MinimumData:
		r.publishAbsolute(r.base+SuffixTime, rep.Time.String())
		r.publishAbsolute(r.dateTopic, rep.Date.String())
		r.publish(SuffixLatitude, formatFloat(rep.Position.Latitude))
		r.publish(SuffixLongitude, formatFloat(rep.Position.Longitude))
		r.publish(SuffixSpeed, formatFloat(rep.Speed))

	case gps.CourseSpeed:
		r.publish(SuffixCourse, formatFloat(rep.Course))
		r.publish(SuffixSpeedKnots, formatFloat(rep.SpeedKnots))
		r.publish(SuffixSpeedKPH, formatFloat(rep.SpeedKPH))

	case gps.ActiveSatellites:
		r.publish(fmt.Sprintf("SAT/VEHICLES/%d/FIX_TYPE", rep.PRN), rep.FixType.String())

	case gps.GeoPosition:
		r.publish(SuffixGLLTime, rep.Time.String())
		r.publish(SuffixGLLLatitude, formatFloat(rep.Position.Latitude))
		r.publish(SuffixGLLLongitude, formatFloat(rep.Position.Longitude))

	case gps.SatellitesInView:
		r.publish(SuffixSatCount, strconv.Itoa(rep.Count))
		for _, sat := range rep.Satellites {
			r.publish(fmt.Sprintf("SAT/VEHICLES/%d", sat.PRN), sat.String())
		}

	case gps.Text:
		if rep.Field != nil {
			r.publish("SAT/GLOBAL/"+rep.Field.Key, rep.Field.Value)
		}

	default:
		r.logger.Warn().Type("report", report).Msg("no route for report")
	}
}

func (r *Router) publish(suffix, payload string) {
	r.publishAbsolute(r.base+suffix, payload)
}

func (r *Router) publishAbsolute(topic, payload string) {
	if err := r.pub.PublishIfChanged(topic, payload, r.qos); err != nil {
		r.logger.Error().Err(err).Str("topic", topic).Msg("publish failed")
	}
}

// formatFloat prints the shortest representation that round-trips,
// without a trailing ".0" for whole numbers.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
