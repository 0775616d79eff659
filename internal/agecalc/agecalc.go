// Package agecalc implements the age and age-compatibility rules shared by
// every allocation path. All functions are pure.
package agecalc

import "time"

// Age returns the whole calendar years between birth and asOf: one year is
// subtracted when asOf's month/day precedes the birthday.
func Age(birth, asOf time.Time) int {
	years := asOf.Year() - birth.Year()
	if asOf.Month() < birth.Month() ||
		(asOf.Month() == birth.Month() && asOf.Day() < birth.Day()) {
		years--
	}
	return years
}

// Span returns the minimum and maximum of ages. It panics on an empty slice;
// callers always check for emptiness first.
func Span(ages []int) (min, max int) {
	min, max = ages[0], ages[0]
	for _, a := range ages[1:] {
		if a < min {
			min = a
		}
		if a > max {
			max = a
		}
	}
	return min, max
}

// Compatible reports whether adding candidate to a room whose occupants have
// the given ages keeps the room's age range within maxGap. An empty room is
// always compatible.
func Compatible(existing []int, candidate, maxGap int) bool {
	if len(existing) == 0 {
		return true
	}
	min, max := Span(existing)
	if candidate < min {
		min = candidate
	}
	if candidate > max {
		max = candidate
	}
	return max-min <= maxGap
}

// SpanWith returns the age range that would result from adding candidate to
// the given occupant ages. Used to report the computed range on rejection.
func SpanWith(existing []int, candidate int) (min, max int) {
	min, max = candidate, candidate
	if len(existing) > 0 {
		omin, omax := Span(existing)
		if omin < min {
			min = omin
		}
		if omax > max {
			max = omax
		}
	}
	return min, max
}
