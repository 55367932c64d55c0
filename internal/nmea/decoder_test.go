// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import (
	"bytes"
	"testing"

	gonmea "github.com/adrianmo/go-nmea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gps2mqtt/internal/gps"
)

func newTestDecoder(strict bool) *Decoder {
	return NewDecoder(strict, zerolog.Nop())
}

func TestClassify(t *testing.T) {
	cases := map[string]Kind{
		"GPGSV":   KindGSV,
		"GNGGA":   KindGGA,
		"GNRMC":   KindRMC,
		"GNVTG":   KindVTG,
		"GNGSA":   KindGSA,
		"GNGLL":   KindGLL,
		"GNTXT":   KindTXT,
		"INVALID": KindUnknown,
		"GNZDA":   KindUnknown,
		"GG":      KindUnknown,
		"":        KindUnknown,
	}
	for id, want := range cases {
		assert.Equal(t, want, Classify(id), id)
	}
	assert.Equal(t, "RMC", KindRMC.String())
	assert.Equal(t, "Unknown", KindUnknown.String())
}

func TestParse(t *testing.T) {
	s, err := Parse("$GNVTG,054.7,T,034.4,M,005.5,N,010.2,K*48")
	require.NoError(t, err)
	assert.Equal(t, "GNVTG,054.7,T,034.4,M,005.5,N,010.2,K", s.Body)
	assert.Equal(t, "GNVTG", s.ID())
	assert.Equal(t, "48", s.Checksum)
	assert.Len(t, s.Fields, 9)

	for _, bad := range []string{"", "Invalid data", "$GPGGA,Invalid", "GPGGA,1*00"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrMalformed, bad)
	}
}

func TestDecodeGGA(t *testing.T) {
	kind, r, err := newTestDecoder(false).Decode("$GNGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47")
	require.NoError(t, err)
	assert.Equal(t, KindGGA, kind)

	fix, ok := r.(gps.FixData)
	require.True(t, ok)
	assert.Equal(t, 545.4, fix.Altitude)
	assert.Equal(t, 1, fix.Quality)
	assert.Equal(t, gps.UTCTime{Hour: 12, Minute: 35, Second: 19}, fix.Time)
	assert.InDelta(t, 48.1173, fix.Position.Latitude, 1e-9)
	assert.InDelta(t, 11.516666666, fix.Position.Longitude, 1e-8)
}

func TestDecodeRMC(t *testing.T) {
	_, r, err := newTestDecoder(false).Decode("$GNRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A")
	require.NoError(t, err)

	rmc, ok := r.(gps.MinimumData)
	require.True(t, ok)
	assert.Equal(t, gps.UTCTime{Hour: 12, Minute: 35, Second: 19}, rmc.Time)
	assert.Equal(t, gps.Date{Day: 23, Month: 3, Year: 94}, rmc.Date)
	assert.Equal(t, "A", rmc.Status)
	assert.Equal(t, 22.4, rmc.Speed)
	assert.Equal(t, 84.4, rmc.Course)
	assert.InDelta(t, 48.1173, rmc.Position.Latitude, 1e-9)
}

func TestDecodeVTG(t *testing.T) {
	_, r, err := newTestDecoder(false).Decode("$GNVTG,054.7,T,034.4,M,005.5,N,010.2,K*48")
	require.NoError(t, err)
	assert.Equal(t, gps.CourseSpeed{Course: 54.7, SpeedKnots: 5.5, SpeedKPH: 10.2}, r)
}

func TestDecodeGSA(t *testing.T) {
	d := newTestDecoder(false)

	_, r, err := d.Decode("$GNGSA,A,3,04,05,,09,12,,24,,,,,1.8,1.0,1.5*33")
	require.NoError(t, err)
	assert.Equal(t, gps.ActiveSatellites{FixType: gps.Fix3D, PRN: 4}, r)

	_, r, err = d.Decode("$GNGSA,A,9,04,05,,09,12,,24,,,,,1.8,1.0,1.5*33")
	require.NoError(t, err)
	assert.Equal(t, gps.FixUnknown, r.(gps.ActiveSatellites).FixType)

	_, r, err = d.Decode("$GNGSA,,,,,,,,,,,,,,,,,*00")
	require.NoError(t, err)
	assert.Equal(t, gps.ActiveSatellites{FixType: gps.FixUnknown, PRN: 0}, r)
}

func TestDecodeGLL(t *testing.T) {
	d := newTestDecoder(false)

	_, r, err := d.Decode("$GNGLL,4916.45,N,12311.12,W,225444,A*00")
	require.NoError(t, err)
	gll := r.(gps.GeoPosition)
	assert.InDelta(t, 49.274166666, gll.Position.Latitude, 1e-8)
	assert.InDelta(t, -123.185333333, gll.Position.Longitude, 1e-8)
	assert.Equal(t, gps.UTCTime{Hour: 22, Minute: 54, Second: 44}, gll.Time)

	_, r, err = d.Decode("$GNGLL,invalid,N,invalid,W,225444,A*00")
	require.NoError(t, err)
	assert.Equal(t, gps.Position{}, r.(gps.GeoPosition).Position)

	_, r, err = d.Decode("$GNGLL,4916.45,N,12311.12*00")
	assert.ErrorIs(t, err, ErrTooFewFields)
	assert.Nil(t, r)
}

func TestDecodeGSV(t *testing.T) {
	_, r, err := newTestDecoder(false).Decode("$GPGSV,3,1,11,07,79,045,42,08,62,272,43,09,59,138,42,10,57,359,00*70")
	require.NoError(t, err)

	gsv := r.(gps.SatellitesInView)
	assert.Equal(t, gps.SystemGPS, gsv.System)
	assert.Equal(t, 11, gsv.Count)
	require.Len(t, gsv.Satellites, 4)
	assert.Equal(t, gps.SatelliteReport{PRN: 7, System: gps.SystemGPS, Elevation: 79, Azimuth: 45, SNR: 42, InView: true}, gsv.Satellites[0])
	assert.Equal(t, 10, gsv.Satellites[3].PRN)
	assert.False(t, gsv.Satellites[3].InView)
}

func TestDecodeTXT(t *testing.T) {
	d := newTestDecoder(false)

	t.Run("plain text", func(t *testing.T) {
		_, r, err := d.Decode("$GNTXT,01,01,02,u-blox ag - www.u-blox.com*4E")
		require.NoError(t, err)
		assert.Equal(t, gps.Text{Message: "u-blox ag - www.u-blox.com"}, r)
	})

	t.Run("markers", func(t *testing.T) {
		cases := map[string]gps.TextField{
			"$GNTXT,01,01,02,ANTSTATUS=OK*25":       {Key: "ANTSTATUS", Value: "OK"},
			"$GNTXT,01,01,02,PF=3FF*4B":             {Key: "PF", Value: "3FF"},
			"$GNTXT,01,01,02,GNSS OTP=GPS;GLO*22":   {Key: "GNSS_OTP", Value: "GPS;GLO"},
			"$GNTXT,01,01,02,ANT ANTSTATUS=SHORT*0": {Key: "ANTSTATUS", Value: "SHORT"},
		}
		for raw, want := range cases {
			_, r, err := d.Decode(raw)
			require.NoError(t, err, raw)
			txt := r.(gps.Text)
			require.NotNil(t, txt.Field, raw)
			assert.Equal(t, want, *txt.Field, raw)
		}
	})

	t.Run("nuisance discarded", func(t *testing.T) {
		kind, r, err := d.Decode("$GNTXT,01,01,01,txbuf alloc ANTSTATUS=OK*00")
		require.NoError(t, err)
		assert.Equal(t, KindTXT, kind)
		assert.Nil(t, r)
	})

	t.Run("too few fields", func(t *testing.T) {
		_, _, err := d.Decode("$GNTXT,01,01*00")
		assert.ErrorIs(t, err, ErrTooFewFields)
	})
}

func TestDecodeMinimumFields(t *testing.T) {
	d := newTestDecoder(false)
	for _, raw := range []string{
		"$GNGGA,123519,4807.038,N*00",
		"$GNRMC,123519,A*00",
		"$GNVTG,054.7,T*00",
		"$GNGSA,A,3,04*00",
		"$GPGSV,3,1,11*00",
	} {
		_, r, err := d.Decode(raw)
		assert.ErrorIs(t, err, ErrTooFewFields, raw)
		assert.Nil(t, r, raw)
	}
}

func TestDecodeUnknownAndMalformed(t *testing.T) {
	d := newTestDecoder(false)

	kind, r, err := d.Decode("$GNZDA,123519,23,03,1994,00,00*00")
	require.NoError(t, err)
	assert.Equal(t, KindUnknown, kind)
	assert.Nil(t, r)

	_, _, err = d.Decode("GNGGA,no,dollar*00")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeStrictChecksum(t *testing.T) {
	body := "GNVTG,054.7,T,034.4,M,005.5,N,010.2,K"
	good := "$" + body + "*" + gonmea.Checksum(body)

	strict := newTestDecoder(true)
	_, r, err := strict.Decode(good)
	require.NoError(t, err)
	assert.Equal(t, gps.CourseSpeed{Course: 54.7, SpeedKnots: 5.5, SpeedKPH: 10.2}, r)

	_, r, err = strict.Decode("$" + body + "*00")
	assert.ErrorIs(t, err, ErrChecksum)
	assert.Nil(t, r)

	_, r, err = newTestDecoder(false).Decode("$" + body + "*00")
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestDecoderHandlesEveryKnownKind(t *testing.T) {
	d := newTestDecoder(false)
	for _, kind := range []Kind{KindGGA, KindRMC, KindVTG, KindGSA, KindGLL, KindGSV, KindTXT} {
		h, ok := d.handlers[kind]
		require.True(t, ok, kind.String())
		assert.Positive(t, h.minFields, kind.String())
	}
	_, ok := d.handlers[KindUnknown]
	assert.False(t, ok)
}

func TestDecodeLogsCoordinateFailuresWithDecoderContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel).With().Str("component", "nmea").Logger()
	d := NewDecoder(false, logger)

	_, r, err := d.Decode("$GPGGA,123519,48x7.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47")
	require.NoError(t, err)

	fix := r.(gps.FixData)
	assert.Equal(t, 0.0, fix.Position.Latitude)
	assert.InDelta(t, 11.516666666666667, fix.Position.Longitude, 1e-9)
	assert.Contains(t, buf.String(), `"component":"nmea"`)
	assert.Contains(t, buf.String(), "invalid coordinate")
}
