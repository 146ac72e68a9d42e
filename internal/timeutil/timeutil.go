// Package timeutil holds the interval primitives every scheduling
// component shares. All interval comparisons in the core go through
// Overlaps / OverlapsAt so endpoint semantics stay in one place.
package timeutil

import (
	"fmt"
	"strconv"
	"time"
)

// MinutesOfDay converts an "HH:MM" clock string to minutes since
// midnight. Callers own the format; malformed input panics.
func MinutesOfDay(clock string) int {
	if len(clock) != 5 || clock[2] != ':' {
		panic(fmt.Sprintf("timeutil: malformed clock string %q", clock))
	}

	h, err := strconv.Atoi(clock[:2])
	if err != nil || h < 0 || h > 23 {
		panic(fmt.Sprintf("timeutil: malformed clock string %q", clock))
	}

	m, err := strconv.Atoi(clock[3:])
	if err != nil || m < 0 || m > 59 {
		panic(fmt.Sprintf("timeutil: malformed clock string %q", clock))
	}

	return h*60 + m
}

// ClockString renders minutes-since-midnight as zero-padded "HH:MM".
// Out-of-range values wrap modulo one day; passing them is the
// caller's responsibility, no clamping happens here.
func ClockString(minutes int) string {
	minutes %= 24 * 60
	if minutes < 0 {
		minutes += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Overlaps reports whether the half-open intervals [startA, endA) and
// [startB, endB) intersect. Touching endpoints do not overlap.
func Overlaps(startA, endA, startB, endB int) bool {
	return startA < endB && startB < endA
}

// OverlapsAt is Overlaps for absolute timestamps, same half-open
// semantics.
func OverlapsAt(startA, endA, startB, endB time.Time) bool {
	return startA.Before(endB) && startB.Before(endA)
}
