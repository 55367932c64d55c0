// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemFromTalker(t *testing.T) {
	cases := map[string]SatelliteSystem{
		"GPGSV": SystemGPS,
		"GLGSV": SystemGLONASS,
		"GAGSV": SystemGalileo,
		"BDGSV": SystemBeiDou,
		"GNGSV": SystemUnknown,
		"G":     SystemUnknown,
		"":      SystemUnknown,
	}
	for talker, want := range cases {
		assert.Equal(t, want, SystemFromTalker(talker), talker)
	}
	assert.Equal(t, "GLONASS", SystemGLONASS.String())
	assert.Equal(t, "Unknown", SystemUnknown.String())
}

func TestParseFixType(t *testing.T) {
	assert.Equal(t, FixNotAvailable, ParseFixType("1"))
	assert.Equal(t, Fix2D, ParseFixType("2"))
	assert.Equal(t, Fix3D, ParseFixType("3"))
	assert.Equal(t, FixUnknown, ParseFixType("9"))
	assert.Equal(t, FixUnknown, ParseFixType(""))

	assert.Equal(t, "Not Available", FixNotAvailable.String())
	assert.Equal(t, "3D", Fix3D.String())
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "12:35:09", UTCTime{Hour: 12, Minute: 35, Second: 9}.String())
	assert.Equal(t, "00:00:00", UTCTime{}.String())
	assert.Equal(t, "23.03.2094", Date{Day: 23, Month: 3, Year: 94}.String())

	sat := SatelliteReport{PRN: 7, System: SystemGPS, Elevation: 79, Azimuth: 45, SNR: 42, InView: true}
	assert.Equal(t, "PRN: 7, Type: GPS, Elevation: 79, Azimuth: 45, SNR: 42, In View: true", sat.String())
}

func TestValueTypesCarryNoEncodingTags(t *testing.T) {
	for _, v := range []any{Position{}, UTCTime{}, Date{}, SatelliteReport{}, TextField{}} {
		typ := reflect.TypeOf(v)
		for i := 0; i < typ.NumField(); i++ {
			f := typ.Field(i)
			assert.Empty(t, f.Tag, "%s.%s", typ.Name(), f.Name)
		}
	}
}
