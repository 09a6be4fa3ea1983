package booking

import (
	"testing"
	"time"
)

// Wednesday 2026-09-02 09:00 local.
var wednesday = time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)

func TestResolveSlotDefaultHours(t *testing.T) {
	tests := []struct {
		name     string
		day      string
		timePref string
		wantDay  int
		wantHour int
	}{
		{name: "tomorrow afternoon", day: "tomorrow", timePref: "afternoon", wantDay: 3, wantHour: 14},
		{name: "tomorrow morning", day: "tomorrow", timePref: "morning", wantDay: 3, wantHour: 10},
		{name: "tomorrow evening", day: "tomorrow", timePref: "evening", wantDay: 3, wantHour: 17},
		{name: "unspecified time defaults to 14", day: "tomorrow", timePref: "", wantDay: 3, wantHour: 14},
		{name: "unspecified day means tomorrow", day: "", timePref: "morning", wantDay: 3, wantHour: 10},
		{name: "today afternoon", day: "today", timePref: "afternoon", wantDay: 2, wantHour: 14},
		{name: "weekday name", day: "friday", timePref: "morning", wantDay: 4, wantHour: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveSlot(tt.day, tt.timePref, wednesday)
			if got.Day() != tt.wantDay || got.Hour() != tt.wantHour {
				t.Errorf("ResolveSlot(%q, %q) = %v, want day %d hour %d",
					tt.day, tt.timePref, got, tt.wantDay, tt.wantHour)
			}
		})
	}
}

func TestResolveSlotRollsOffWeekend(t *testing.T) {
	// Friday 2026-09-04: "tomorrow" is Saturday, clinic closed, so Monday.
	friday := time.Date(2026, 9, 4, 9, 0, 0, 0, time.UTC)
	got := ResolveSlot("tomorrow", "morning", friday)
	if got.Weekday() != time.Monday {
		t.Fatalf("weekend slot resolved to %v, want Monday", got.Weekday())
	}
	if got.Day() != 7 || got.Hour() != 10 {
		t.Errorf("got %v, want Monday Sep 7 10:00", got)
	}
}

func TestResolveSlotPastSameDayMovesForward(t *testing.T) {
	// 16:00 today: the 14:00 bucket is already gone.
	late := time.Date(2026, 9, 2, 16, 0, 0, 0, time.UTC)
	got := ResolveSlot("today", "afternoon", late)
	if !got.After(late) {
		t.Fatalf("resolved slot %v is in the past", got)
	}
	if got.Hour() != 14 {
		t.Errorf("hour = %d, want 14 preserved on the next day", got.Hour())
	}
}

func TestResolveSlotDeterministic(t *testing.T) {
	a := ResolveSlot("thursday", "evening", wednesday)
	b := ResolveSlot("thursday", "evening", wednesday)
	if !a.Equal(b) {
		t.Fatalf("resolution not deterministic: %v vs %v", a, b)
	}
}

func TestCandidateSlotsNearestFirst(t *testing.T) {
	requested := time.Date(2026, 9, 3, 14, 0, 0, 0, time.UTC)
	got := CandidateSlots(requested, wednesday, 4)
	if len(got) != 4 {
		t.Fatalf("got %d candidates, want 4", len(got))
	}
	if got[0].Hour() != 15 || got[1].Hour() != 13 {
		t.Errorf("nearest candidates = %v, %v; want 15:00 then 13:00", got[0], got[1])
	}
	for _, c := range got {
		if c.Hour() < OpeningHour || c.Hour() >= ClosingHour {
			t.Errorf("candidate %v outside clinic hours", c)
		}
		if c.Weekday() == time.Saturday || c.Weekday() == time.Sunday {
			t.Errorf("candidate %v on a weekend", c)
		}
	}
}

func TestCandidateSlotsSkipPastHours(t *testing.T) {
	// 12:30 on the requested day: earlier same-day hours are gone.
	requested := time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)
	now := time.Date(2026, 9, 2, 12, 30, 0, 0, time.UTC)

	got := CandidateSlots(requested, now, 6)
	if len(got) != 6 {
		t.Fatalf("got %d candidates, want 6", len(got))
	}
	for _, c := range got {
		if !c.After(now) {
			t.Errorf("candidate %v is not after %v", c, now)
		}
	}
	// 13:00 is still offerable; 12:00 and earlier are not.
	var saw13, saw12 bool
	for _, c := range got {
		if c.Day() == 2 && c.Hour() == 13 {
			saw13 = true
		}
		if c.Day() == 2 && c.Hour() <= 12 {
			saw12 = true
		}
	}
	if !saw13 {
		t.Error("13:00 same-day candidate missing")
	}
	if saw12 {
		t.Error("offered a same-day hour already in the past")
	}
}
