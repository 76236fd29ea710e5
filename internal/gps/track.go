// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gps extracts reference tracks from NMEA logs. A GPS track walked
// alongside an accelerometer recording gives an independent ground-truth
// distance to judge integration drift against.
package gps

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

const earthRadiusM = 6371000

// ReadTrack parses NMEA sentences from r and returns one Fix per valid RMC
// sentence, in log order. Malformed or non-RMC lines are skipped.
func ReadTrack(r io.Reader) ([]Fix, error) {
	var track []Fix

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// noisy receivers emit partial sentences; skip them
			continue
		}

		if sentence.DataType() != nmea.TypeRMC {
			continue
		}
		m := sentence.(nmea.RMC)

		fix := Fix{
			Time:       m.Time.String(),
			Date:       m.Date.String(),
			Latitude:   m.Latitude,
			Longitude:  m.Longitude,
			SpeedKnots: m.Speed,
			CourseDeg:  m.Course,
			Validity:   string(m.Validity),
		}
		if !fix.Valid() {
			continue
		}
		track = append(track, fix)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read NMEA log: %w", err)
	}

	return track, nil
}

// TrackDistance sums the great-circle distance between consecutive fixes,
// in metres.
func TrackDistance(track []Fix) float64 {
	var total float64
	for i := 1; i < len(track); i++ {
		total += haversine(track[i-1], track[i])
	}
	return total
}

// haversine is the great-circle distance between two fixes in metres.
func haversine(a, b Fix) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(h))
}
