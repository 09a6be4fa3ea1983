package conversation

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies the speaker of a transcript turn.
type Role string

const (
	RoleCaller    Role = "caller"
	RoleAssistant Role = "assistant"
)

// Turn is one transcript entry. The transcript is append-only; turns are
// never mutated or removed.
type Turn struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// AppointmentDraft is an in-progress, unconfirmed appointment. Confirmed
// transitions false→true exactly once, after the booking coordinator reports
// success.
type AppointmentDraft struct {
	PatientName   string `json:"patient_name"`
	Phone         string `json:"phone"`
	Email         string `json:"email,omitempty"`
	Concern       string `json:"concern"`
	Day           string `json:"day,omitempty"`
	TimeOfDay     string `json:"time_of_day,omitempty"`
	Confirmed     bool   `json:"confirmed"`
	AppointmentID string `json:"appointment_id,omitempty"`
}

// State is the per-call conversation state. It is owned by the session's
// goroutine and is not safe for concurrent use.
type State struct {
	stage      Stage
	transcript []Turn
	info       PatientInfo
	draft      *AppointmentDraft
	now        func() time.Time
}

// NewState creates conversation state in the greeting stage.
func NewState() *State {
	return &State{stage: StageGreeting, now: time.Now}
}

// NewStateWithClock creates conversation state with an injected clock.
func NewStateWithClock(now func() time.Time) *State {
	s := NewState()
	if now != nil {
		s.now = now
	}
	return s
}

// Stage returns the current stage.
func (s *State) Stage() Stage { return s.stage }

// Info returns a copy of the merged patient fields.
func (s *State) Info() PatientInfo { return s.info }

// Draft returns the current appointment draft, nil until the booking stage
// has the required fields.
func (s *State) Draft() *AppointmentDraft { return s.draft }

// Transcript returns a copy of the transcript.
func (s *State) Transcript() []Turn {
	out := make([]Turn, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Append adds a turn to the transcript.
func (s *State) Append(role Role, text string) {
	s.transcript = append(s.transcript, Turn{Role: role, Text: text, At: s.now()})
}

// Observe ingests one caller utterance: appends it to the transcript,
// classifies intent, merges extracted fields, advances the stage, and
// refreshes the draft. It returns the detected intent.
func (s *State) Observe(text string) Intent {
	s.Append(RoleCaller, text)

	intent := DetectIntent(text)
	ExtractPatientInfo(text, &s.info)

	switch {
	case intent == IntentEmergency:
		s.stage = StageEmergency
	case intent == IntentAppointment && (s.stage == StageGreeting || s.stage == StageDiscovery):
		s.stage = StageBooking
	case ShouldProgressStage(s.stage, s.info, text):
		s.stage = s.stage.next()
	}

	s.refreshDraft()
	return intent
}

func (st Stage) next() Stage {
	switch st {
	case StageGreeting:
		return StageDiscovery
	case StageDiscovery:
		return StageBooking
	case StageBooking:
		return StageClosing
	case StageClosing:
		return StageCompleted
	default:
		return st
	}
}

// ShouldProgressStage is the per-stage progression predicate.
func ShouldProgressStage(stage Stage, info PatientInfo, text string) bool {
	lower := strings.ToLower(text)
	switch stage {
	case StageGreeting:
		// Any caller utterance moves past the greeting.
		return strings.TrimSpace(text) != ""
	case StageDiscovery:
		// Discovery ends once we know why they called.
		return info.Concern != "" || DetectIntent(text) == IntentAppointment
	case StageBooking:
		// Booking needs name, phone, and concern before it can complete.
		return info.BookingComplete()
	case StageClosing:
		return containsAny(lower, []string{"bye", "goodbye", "thank you", "thanks", "that's all", "that is all"})
	default:
		return false
	}
}

// refreshDraft creates or updates the draft from the merged fields once the
// booking-required fields are present. A confirmed draft is immutable.
func (s *State) refreshDraft() {
	if s.draft != nil && s.draft.Confirmed {
		return
	}
	if !s.info.BookingComplete() {
		return
	}
	if s.draft == nil {
		s.draft = &AppointmentDraft{}
	}
	s.draft.PatientName = s.info.Name
	s.draft.Phone = s.info.Phone
	s.draft.Email = s.info.Email
	s.draft.Concern = s.info.Concern
	s.draft.Day = s.info.DayPreference
	s.draft.TimeOfDay = s.info.TimePreference
}

// ConfirmDraft marks the draft confirmed with the booked appointment id.
// It is a no-op if there is no draft or it is already confirmed.
func (s *State) ConfirmDraft(appointmentID string) bool {
	if s.draft == nil || s.draft.Confirmed {
		return false
	}
	s.draft.Confirmed = true
	s.draft.AppointmentID = appointmentID
	s.stage = StageClosing
	return true
}

// Close moves the conversation to its terminal stage.
func (s *State) Close() {
	s.stage = StageCompleted
}

// Summary renders a one-line call summary for the dashboard consumers.
func (s *State) Summary() string {
	name := s.info.Name
	if name == "" {
		name = "unknown caller"
	}
	outcome := "no booking"
	if s.draft != nil && s.draft.Confirmed {
		outcome = fmt.Sprintf("booked appointment %s", s.draft.AppointmentID)
	} else if s.stage == StageEmergency {
		outcome = "emergency referral"
	}
	concern := s.info.Concern
	if concern == "" {
		concern = "unspecified"
	}
	return fmt.Sprintf("%s; concern: %s; %s (%d turns)", name, concern, outcome, len(s.transcript))
}
