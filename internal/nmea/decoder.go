// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import (
	"fmt"
	"strings"

	gonmea "github.com/adrianmo/go-nmea"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/gps2mqtt/internal/gps"
)

// nuisanceText marks receiver chatter that is dropped before publication.
const nuisanceText = "txbuf alloc"

type textMarker struct {
	marker string
	key    string
}

var textMarkers = []textMarker{
	{marker: "ANTSTATUS=", key: "ANTSTATUS"},
	{marker: "PF=", key: "PF"},
	{marker: "GNSS OTP=", key: "GNSS_OTP"},
}

type handler struct {
	minFields int
	decode    func(d *Decoder, s Sentence) (gps.Report, error)
}

// Decoder turns complete sentences into gps reports.
type Decoder struct {
	strict   bool
	logger   zerolog.Logger
	handlers map[Kind]handler
}

// NewDecoder builds a decoder. With strict set, sentences whose checksum does
// not match their body are rejected; otherwise mismatches are only logged.
func NewDecoder(strict bool, logger zerolog.Logger) *Decoder {
	return &Decoder{
		strict: strict,
		logger: logger,
		handlers: map[Kind]handler{
			KindGGA: {minFields: 10, decode: (*Decoder).decodeGGA},
			KindRMC: {minFields: 10, decode: (*Decoder).decodeRMC},
			KindVTG: {minFields: 9, decode: (*Decoder).decodeVTG},
			KindGSA: {minFields: 17, decode: (*Decoder).decodeGSA},
			KindGLL: {minFields: 7, decode: (*Decoder).decodeGLL},
			KindGSV: {minFields: 8, decode: (*Decoder).decodeGSV},
			// TXT is split at most four ways, so four fields is also the exact
			// logical count.
			KindTXT: {minFields: 4, decode: (*Decoder).decodeTXT},
		},
	}
}

// Decode classifies and decodes one raw sentence. Unknown kinds return a nil
// report and no error. A nil report with a known kind means the sentence was
// deliberately discarded.
func (d *Decoder) Decode(raw string) (Kind, gps.Report, error) {
	s, err := Parse(raw)
	if err != nil {
		return KindUnknown, nil, err
	}
	if err := d.checkChecksum(s); err != nil {
		return s.Kind(), nil, err
	}

	kind := s.Kind()
	h, ok := d.handlers[kind]
	if !ok {
		d.logger.Debug().Str("sentence", s.Body).Msg("unknown sentence type")
		return KindUnknown, nil, nil
	}
	if len(s.Fields) < h.minFields {
		return kind, nil, fmt.Errorf("%w: %s has %d, needs %d", ErrTooFewFields, kind, len(s.Fields), h.minFields)
	}
	r, err := h.decode(d, s)
	return kind, r, err
}

// latitude and longitude decode best-effort, logging failures with the
// decoder's context.
func (d *Decoder) latitude(value, hemisphere string) float64 {
	return d.coordinate(value, hemisphere, latitudeDegreeDigits)
}

func (d *Decoder) longitude(value, hemisphere string) float64 {
	return d.coordinate(value, hemisphere, longitudeDegreeDigits)
}

func (d *Decoder) coordinate(value, hemisphere string, degreeDigits int) float64 {
	v, err := ParseCoordinate(value, hemisphere, degreeDigits)
	if err != nil {
		d.logger.Debug().Err(err).Str("value", value).Str("hemisphere", hemisphere).Msg("invalid coordinate")
		return 0
	}
	return v
}

func (d *Decoder) checkChecksum(s Sentence) error {
	want := gonmea.Checksum(s.Body)
	got := s.Checksum
	if len(got) > 2 {
		got = got[:2]
	}
	if strings.EqualFold(got, want) {
		return nil
	}
	if d.strict {
		return fmt.Errorf("%w: got %q, computed %s", ErrChecksum, got, want)
	}
	d.logger.Debug().Str("sentence", s.Body).Str("got", got).Str("computed", want).Msg("checksum mismatch ignored")
	return nil
}

func (d *Decoder) decodeGGA(s Sentence) (gps.Report, error) {
	p := s.Fields
	return gps.FixData{
		Time:     Time(p[1]),
		Position: gps.Position{Latitude: d.latitude(p[2], p[3]), Longitude: d.longitude(p[4], p[5])},
		Quality:  parseUint(p[6]),
		Altitude: parseFloat(p[9]),
	}, nil
}

func (d *Decoder) decodeRMC(s Sentence) (gps.Report, error) {
	p := s.Fields
	return gps.MinimumData{
		Time:     Time(p[1]),
		Status:   p[2],
		Position: gps.Position{Latitude: d.latitude(p[3], p[4]), Longitude: d.longitude(p[5], p[6])},
		Speed:    parseFloat(p[7]),
		Course:   parseFloat(p[8]),
		Date:     Date(p[9]),
	}, nil
}

func (d *Decoder) decodeVTG(s Sentence) (gps.Report, error) {
	p := s.Fields
	return gps.CourseSpeed{
		Course:     parseFloat(p[1]),
		SpeedKnots: parseFloat(p[5]),
		SpeedKPH:   parseFloat(p[7]),
	}, nil
}

func (d *Decoder) decodeGSA(s Sentence) (gps.Report, error) {
	return gps.ActiveSatellites{
		FixType: gps.ParseFixType(s.Fields[2]),
		PRN:     parseUint(s.Fields[3]),
	}, nil
}

func (d *Decoder) decodeGLL(s Sentence) (gps.Report, error) {
	p := s.Fields
	return gps.GeoPosition{
		Position: gps.Position{Latitude: d.latitude(p[1], p[2]), Longitude: d.longitude(p[3], p[4])},
		Time:     Time(p[5]),
	}, nil
}

// decodeGSV reads the 4-field satellite groups starting at field 4.
func (d *Decoder) decodeGSV(s Sentence) (gps.Report, error) {
	p := s.Fields
	system := gps.SystemFromTalker(s.ID())
	r := gps.SatellitesInView{
		System: system,
		Count:  parseUint(p[3]),
	}
	groups := (len(p) - 4) / 4
	for i := 0; i < groups; i++ {
		g := p[4+i*4 : 8+i*4]
		snr := parseUint(g[3])
		r.Satellites = append(r.Satellites, gps.SatelliteReport{
			PRN:       parseUint(g[0]),
			System:    system,
			Elevation: parseUint(g[1]),
			Azimuth:   parseUint(g[2]),
			SNR:       snr,
			InView:    snr > 0,
		})
	}
	return r, nil
}

// decodeTXT splits "GNTXT,num,total,idx,text" four ways, then drops the
// embedded index from the last part.
func (d *Decoder) decodeTXT(s Sentence) (gps.Report, error) {
	parts := strings.SplitN(s.Body, ",", 4)
	message := parts[3]
	if _, rest, ok := strings.Cut(message, ","); ok {
		message = rest
	}
	if strings.Contains(message, nuisanceText) {
		return nil, nil
	}

	r := gps.Text{Message: message}
	for _, m := range textMarkers {
		if i := strings.Index(message, m.marker); i >= 0 {
			r.Field = &gps.TextField{Key: m.key, Value: message[i+len(m.marker):]}
			break
		}
	}
	return r, nil
}
