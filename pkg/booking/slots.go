// Package booking turns a completed appointment draft into a reserved,
// persisted, confirmed appointment, with compensation on partial failure.
package booking

import (
	"strings"
	"time"
)

// Clinic hours used for slot resolution and alternates.
const (
	OpeningHour = 9  // 09:00
	ClosingHour = 18 // last slot starts 17:00
)

// Default hour per time-of-day bucket. Unspecified preferences resolve to
// the afternoon default.
var bucketHours = map[string]int{
	"morning":   10,
	"afternoon": 14,
	"evening":   17,
}

const defaultHour = 14

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ResolveSlot maps a natural-language day/time preference to a concrete
// start time. Resolution is deterministic: morning=10:00, afternoon=14:00,
// evening=17:00, unspecified=14:00; an unknown or empty day means tomorrow;
// weekends roll forward to Monday.
func ResolveSlot(dayPref, timePref string, now time.Time) time.Time {
	day := resolveDay(strings.ToLower(strings.TrimSpace(dayPref)), now)

	hour, ok := bucketHours[strings.ToLower(strings.TrimSpace(timePref))]
	if !ok {
		hour = defaultHour
	}

	slot := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, now.Location())

	// A same-day slot already in the past moves to the next business day.
	if !slot.After(now) {
		slot = nextBusinessDay(slot)
	}
	return slot
}

func resolveDay(pref string, now time.Time) time.Time {
	switch pref {
	case "today":
		return rollOffWeekend(now)
	case "", "tomorrow":
		return rollOffWeekend(now.AddDate(0, 0, 1))
	}

	if wd, ok := weekdays[strings.TrimPrefix(pref, "next ")]; ok {
		d := now.AddDate(0, 0, 1)
		for d.Weekday() != wd {
			d = d.AddDate(0, 0, 1)
		}
		return rollOffWeekend(d)
	}
	return rollOffWeekend(now.AddDate(0, 0, 1))
}

// rollOffWeekend moves Saturday and Sunday to the following Monday; the
// clinic books Monday through Friday.
func rollOffWeekend(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, 2)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	default:
		return d
	}
}

func nextBusinessDay(slot time.Time) time.Time {
	next := rollOffWeekend(slot.AddDate(0, 0, 1))
	return time.Date(next.Year(), next.Month(), next.Day(), slot.Hour(), 0, 0, 0, slot.Location())
}

// CandidateSlots enumerates same-day hourly openings around the requested
// slot, nearest first, then the same hour on following business days. Slots
// at or before now are skipped so a caller booking late in the day is never
// offered a time that has already passed. Used to offer alternates when the
// requested slot is taken.
func CandidateSlots(requested, now time.Time, max int) []time.Time {
	if max <= 0 {
		return nil
	}
	out := make([]time.Time, 0, max)

	// Same day, fanning out from the requested hour.
	for delta := 1; delta < ClosingHour-OpeningHour && len(out) < max; delta++ {
		for _, h := range []int{requested.Hour() + delta, requested.Hour() - delta} {
			if h < OpeningHour || h >= ClosingHour || len(out) >= max {
				continue
			}
			candidate := time.Date(requested.Year(), requested.Month(), requested.Day(), h, 0, 0, 0, requested.Location())
			if !candidate.After(now) {
				continue
			}
			out = append(out, candidate)
		}
	}

	// Following business days at the requested hour.
	day := requested
	for len(out) < max {
		day = nextBusinessDay(day)
		if !day.After(now) {
			continue
		}
		out = append(out, day)
	}
	return out
}

// FormatSlot renders a slot for spoken replies and SMS.
func FormatSlot(t time.Time) string {
	return t.Format("Monday January 2 at 3:04 PM")
}
