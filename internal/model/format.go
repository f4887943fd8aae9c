package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// StatusLevel buckets a utilisation percentage for display.
type StatusLevel string

const (
	LevelNormal   StatusLevel = "normal"
	LevelHigh     StatusLevel = "high"
	LevelCritical StatusLevel = "critical"
)

// Level returns critical at >= 90, high at >= 70, normal otherwise.
func Level(percent float64) StatusLevel {
	switch {
	case percent >= 90:
		return LevelCritical
	case percent >= 70:
		return LevelHigh
	default:
		return LevelNormal
	}
}

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders a byte count in 1024 steps, trimming trailing zeros.
func FormatBytes(bytes uint64, decimals int) string {
	if bytes == 0 {
		return "0 B"
	}
	if decimals < 0 {
		decimals = 0
	}
	v := float64(bytes)
	i := 0
	for v >= 1024 && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s + " " + byteUnits[i]
}

// FormatUptime renders seconds as "1d 2h 3m 4s". Leading zero units are
// dropped; once a larger unit is printed every smaller one follows.
func FormatUptime(seconds uint64) string {
	days := seconds / 86400
	hours := seconds % 86400 / 3600
	minutes := seconds % 3600 / 60
	secs := seconds % 60

	var b strings.Builder
	started := false
	for _, u := range []struct {
		v      uint64
		suffix string
	}{{days, "d"}, {hours, "h"}, {minutes, "m"}} {
		if u.v == 0 && !started {
			continue
		}
		started = true
		fmt.Fprintf(&b, "%d%s ", u.v, u.suffix)
	}
	fmt.Fprintf(&b, "%ds", secs)
	return b.String()
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 { return math.Round(v*10) / 10 }

// Percent returns used/total as a percentage with one decimal, 0 when total is 0.
func Percent(used, total uint64) float64 {
	if total == 0 {
		return 0
	}
	p := math.Round(float64(used)/float64(total)*1000) / 10
	if p > 100 {
		return 100
	}
	return p
}
