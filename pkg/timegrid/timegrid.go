// Package timegrid derives candidate start times for a booking day.
// All clock values are minutes since midnight; the wire format is "HH:MM".
package timegrid

import (
	"fmt"

	apperrors "bondfleet/pkg/errors"
)

const minutesPerDay = 24 * 60

// ParseClock parses an "HH:MM" clock value into minutes since midnight.
func ParseClock(s string) (int, error) {
	var hours, minutes int
	if _, err := fmt.Sscanf(s, "%2d:%2d", &hours, &minutes); err != nil || len(s) != 5 || s[2] != ':' {
		return 0, apperrors.InvalidInput(fmt.Sprintf("invalid clock value %q, must be HH:MM", s))
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, apperrors.InvalidInput(fmt.Sprintf("invalid clock value %q, must be HH:MM", s))
	}
	return hours*60 + minutes, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Slots generates the ordered start times for a day: spaced granularity
// minutes apart from open, with the last slot leaving room for a full
// duration before close. Pure and deterministic.
func Slots(open, close, granularity, duration int) ([]int, error) {
	if open >= close {
		return nil, apperrors.InvalidRange(fmt.Sprintf(
			"open of day (%s) must be before close of day (%s)",
			FormatClock(open), FormatClock(close),
		))
	}
	if granularity <= 0 {
		return nil, apperrors.InvalidRange(fmt.Sprintf("slot granularity must be positive, got %d", granularity))
	}
	if duration <= 0 {
		return nil, apperrors.InvalidRange(fmt.Sprintf("duration must be positive, got %d", duration))
	}
	if open < 0 || close > minutesPerDay {
		return nil, apperrors.InvalidRange(fmt.Sprintf(
			"day bounds out of range: %s-%s", FormatClock(open), FormatClock(close),
		))
	}

	var slots []int
	for t := open; t+duration <= close; t += granularity {
		slots = append(slots, t)
	}
	return slots, nil
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share any minute.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}
