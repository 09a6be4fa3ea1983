// Package conversation implements the per-call dialog state machine:
// stages, intent detection, patient field extraction, and the appointment
// draft built from extracted fields.
package conversation

// Stage is the conversation's current phase.
type Stage int

const (
	// StageGreeting is the initial phase before the caller has said anything.
	StageGreeting Stage = iota
	// StageDiscovery is when the caller's reason for calling is being established.
	StageDiscovery
	// StageBooking is when patient fields are collected for an appointment.
	StageBooking
	// StageEmergency overrides every other stage.
	StageEmergency
	// StageClosing is after a booking outcome, wrapping up the call.
	StageClosing
	// StageCompleted is terminal.
	StageCompleted
)

// String returns a human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageGreeting:
		return "GREETING"
	case StageDiscovery:
		return "DISCOVERY"
	case StageBooking:
		return "BOOKING"
	case StageEmergency:
		return "EMERGENCY"
	case StageClosing:
		return "CLOSING"
	case StageCompleted:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the stage ends the conversation.
func (s Stage) Terminal() bool {
	return s == StageCompleted
}
