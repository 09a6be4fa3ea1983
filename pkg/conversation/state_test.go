package conversation

import (
	"strings"
	"testing"
	"time"
)

func TestObserveFullBookingUtterance(t *testing.T) {
	s := NewState()
	intent := s.Observe("My name is John Smith, phone 555-123-4567, I have a toothache, book me tomorrow afternoon")

	if intent != IntentAppointment {
		t.Fatalf("intent = %v, want APPOINTMENT", intent)
	}
	if s.Stage() != StageBooking {
		t.Fatalf("stage = %v, want BOOKING", s.Stage())
	}

	draft := s.Draft()
	if draft == nil {
		t.Fatal("draft not created despite complete fields")
	}
	if draft.PatientName != "John Smith" || draft.Phone != "5551234567" || draft.Concern != "toothache" {
		t.Errorf("draft = %+v", draft)
	}
	if draft.Day != "tomorrow" || draft.TimeOfDay != "afternoon" {
		t.Errorf("draft scheduling prefs = %q %q", draft.Day, draft.TimeOfDay)
	}
	if draft.Confirmed {
		t.Error("draft confirmed before booking")
	}
}

func TestEmergencyOverridesStage(t *testing.T) {
	s := NewState()
	s.Observe("I want to book a cleaning")
	if s.Stage() != StageBooking {
		t.Fatalf("stage = %v, want BOOKING", s.Stage())
	}

	s.Observe("actually my tooth got knocked out, it's an emergency")
	if s.Stage() != StageEmergency {
		t.Fatalf("stage = %v, want EMERGENCY", s.Stage())
	}
}

func TestStageProgressionCollectsFields(t *testing.T) {
	s := NewState()

	s.Observe("hi, I'd like an appointment")
	if s.Stage() != StageBooking {
		t.Fatalf("stage = %v, want BOOKING", s.Stage())
	}
	if s.Draft() != nil {
		t.Fatal("draft created before required fields present")
	}

	s.Observe("my name is Alice Cooper")
	if s.Draft() != nil {
		t.Fatal("draft created without phone and concern")
	}

	s.Observe("my number is 555-111-2222 and I need a filling")
	if s.Draft() == nil {
		t.Fatal("draft missing after all required fields")
	}
	if s.Stage() != StageClosing {
		t.Fatalf("stage = %v, want CLOSING once booking fields complete", s.Stage())
	}
}

func TestShouldProgressStage(t *testing.T) {
	tests := []struct {
		name  string
		stage Stage
		info  PatientInfo
		text  string
		want  bool
	}{
		{name: "greeting advances on any speech", stage: StageGreeting, text: "hello", want: true},
		{name: "greeting holds on silence", stage: StageGreeting, text: "  ", want: false},
		{name: "discovery advances with concern", stage: StageDiscovery, info: PatientInfo{Concern: "cavity"}, text: "it hurts", want: true},
		{name: "discovery holds without concern", stage: StageDiscovery, text: "hmm", want: false},
		{name: "booking requires name phone concern", stage: StageBooking, info: PatientInfo{Name: "A", Phone: "5551234567"}, text: "x", want: false},
		{name: "booking advances when complete", stage: StageBooking, info: PatientInfo{Name: "A", Phone: "5551234567", Concern: "cavity"}, text: "x", want: true},
		{name: "closing advances on goodbye", stage: StageClosing, text: "ok thanks, bye", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldProgressStage(tt.stage, tt.info, tt.text); got != tt.want {
				t.Errorf("ShouldProgressStage(%v) = %v, want %v", tt.stage, got, tt.want)
			}
		})
	}
}

func TestTranscriptAppendOnly(t *testing.T) {
	clock := time.Unix(2000, 0)
	s := NewStateWithClock(func() time.Time { return clock })

	s.Append(RoleAssistant, "greeting")
	s.Observe("hello")
	s.Observe("I need a cleaning")

	tr := s.Transcript()
	if len(tr) != 3 {
		t.Fatalf("transcript length = %d, want 3", len(tr))
	}
	if tr[0].Role != RoleAssistant || tr[1].Role != RoleCaller {
		t.Errorf("transcript roles wrong: %+v", tr)
	}

	// Mutating the returned copy must not affect internal state.
	tr[0].Text = "mutated"
	if s.Transcript()[0].Text != "greeting" {
		t.Error("transcript copy shares backing storage")
	}
}

func TestConfirmDraftExactlyOnce(t *testing.T) {
	s := NewState()
	s.Observe("my name is John Smith, 555-123-4567, toothache, book me please")

	if !s.ConfirmDraft("apt-1") {
		t.Fatal("first confirm failed")
	}
	if s.ConfirmDraft("apt-2") {
		t.Fatal("second confirm succeeded")
	}
	if got := s.Draft().AppointmentID; got != "apt-1" {
		t.Errorf("appointment id = %q, want apt-1", got)
	}
	if s.Stage() != StageClosing {
		t.Errorf("stage = %v, want CLOSING", s.Stage())
	}
}

func TestConfirmedDraftImmutable(t *testing.T) {
	s := NewState()
	s.Observe("my name is John Smith, 555-123-4567, toothache, book me please")
	s.ConfirmDraft("apt-1")

	s.Observe("actually make it Friday evening")
	if s.Draft().Day == "friday" {
		t.Error("confirmed draft was mutated by later utterance")
	}
}

func TestSummary(t *testing.T) {
	s := NewState()
	s.Observe("my name is John Smith, 555-123-4567, toothache, book me please")
	s.ConfirmDraft("apt-9")

	sum := s.Summary()
	for _, want := range []string{"John Smith", "toothache", "apt-9"} {
		if !strings.Contains(sum, want) {
			t.Errorf("summary %q missing %q", sum, want)
		}
	}
}

func TestDraftReschedulesBeforeConfirmation(t *testing.T) {
	s := NewState()
	s.Observe("My name is John Smith, phone 555-123-4567, I have a toothache, book me tomorrow afternoon")

	d := s.Draft()
	if d == nil || d.Day != "tomorrow" || d.TimeOfDay != "afternoon" {
		t.Fatalf("draft = %+v, want tomorrow afternoon", d)
	}

	// The requested slot was taken and an alternate was offered; accepting
	// it must move the unconfirmed draft, not re-request the same slot.
	s.Observe("friday morning works for me")

	d = s.Draft()
	if d.Day != "friday" || d.TimeOfDay != "morning" {
		t.Fatalf("draft = %+v, want friday morning", d)
	}
	if d.Confirmed {
		t.Fatal("draft confirmed without booking")
	}
}
