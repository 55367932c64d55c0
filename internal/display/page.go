// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"image"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

const (
	width      = 128
	height     = 64
	lineHeight = 13
)

// Lines builds the status page from the last published values. Until a
// position is known it shows a waiting message.
func Lines(snapshot map[string]string, baseTopic string) []string {
	lat, haveLat := number(snapshot, baseTopic+"LAT")
	lng, haveLng := number(snapshot, baseTopic+"LNG")
	if !haveLat || !haveLng {
		return []string{"GPS Position", "Waiting..."}
	}

	latDir := "N"
	if lat < 0 {
		latDir = "S"
		lat = -lat
	}
	lngDir := "E"
	if lng < 0 {
		lngDir = "W"
		lng = -lng
	}

	lines := []string{
		fmt.Sprintf("%.4f%s", lat, latDir),
		fmt.Sprintf("%.4f%s", lng, lngDir),
	}
	if alt, ok := number(snapshot, baseTopic+"ALT"); ok {
		lines = append(lines, fmt.Sprintf("Alt: %.0fm", alt))
	}
	if sats, ok := snapshot[baseTopic+"SAT/GLOBAL/NUM"]; ok {
		lines = append(lines, "Sats: "+sats)
	}
	if t, ok := snapshot[baseTopic+"TME"]; ok {
		lines = append(lines, "UTC "+t)
	}
	return lines
}

// Render draws up to five lines of 7x13 text on a blank frame.
func Render(lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		y := (i+1)*lineHeight - 1
		if y >= height {
			break
		}
		d.Dot = fixed.P(0, y)
		d.DrawString(line)
	}
	return img
}

func number(snapshot map[string]string, topic string) (float64, bool) {
	s, ok := snapshot[topic]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}
