package conversation

import "strings"

// Intent classifies a caller utterance.
type Intent int

const (
	IntentGeneral Intent = iota
	IntentInquiry
	IntentHumanHandoff
	IntentAppointment
	IntentEmergency
)

// String returns a human-readable intent name.
func (i Intent) String() string {
	switch i {
	case IntentEmergency:
		return "EMERGENCY"
	case IntentAppointment:
		return "APPOINTMENT"
	case IntentHumanHandoff:
		return "HUMAN_HANDOFF"
	case IntentInquiry:
		return "INQUIRY"
	default:
		return "GENERAL"
	}
}

var emergencyKeywords = []string{
	"emergency",
	"severe pain",
	"unbearable",
	"bleeding",
	"knocked out",
	"knocked-out",
	"swollen",
	"swelling",
	"accident",
	"can't breathe",
	"cannot breathe",
	"excruciating",
}

var appointmentKeywords = []string{
	"appointment",
	"book",
	"booking",
	"schedule",
	"reschedule",
	"availability",
	"available",
	"come in",
	"slot",
	"opening",
	"see the dentist",
	"checkup",
	"check-up",
	"cleaning",
}

var handoffKeywords = []string{
	"human",
	"real person",
	"receptionist",
	"front desk",
	"speak to someone",
	"talk to someone",
	"operator",
	"representative",
	"staff member",
}

var inquiryKeywords = []string{
	"hours",
	"open",
	"insurance",
	"cost",
	"price",
	"how much",
	"location",
	"address",
	"parking",
	"directions",
	"accept",
}

// DetectIntent classifies text by fixed priority: emergency beats
// appointment beats human handoff beats inquiry. A transcript matching both
// emergency and appointment keywords classifies as emergency.
func DetectIntent(text string) Intent {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, emergencyKeywords):
		return IntentEmergency
	case containsAny(lower, appointmentKeywords):
		return IntentAppointment
	case containsAny(lower, handoffKeywords):
		return IntentHumanHandoff
	case containsAny(lower, inquiryKeywords):
		return IntentInquiry
	default:
		return IntentGeneral
	}
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
