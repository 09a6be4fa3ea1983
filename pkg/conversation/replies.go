package conversation

import "fmt"

// Canned utterances for the deterministic handlers. Keyword-routed intents
// never go through the dialog model.
const (
	GreetingReply = "Thank you for calling Dentalline. How can I help you today?"

	EmergencyReply = "This sounds like a dental emergency. Please hang up and call 911 if you are in danger, " +
		"or come straight to the clinic. We keep same-day emergency slots open every day."

	HandoffReply = "Of course. I'm transferring you to our front desk now, please hold the line."

	FallbackReply = "I'm sorry, I didn't catch that. Could you say that again?"

	ClosingReply = "Thank you for calling Dentalline. Have a great day!"

	BookingTroubleReply = "I'm sorry, I'm having trouble with our booking system right now. " +
		"Let me take your number and have the front desk call you back to confirm."
)

// PromptForMissing returns the question for the next unset booking field.
// Empty when nothing is missing.
func PromptForMissing(info PatientInfo) string {
	switch info.Missing() {
	case "name":
		return "I'd be happy to book that for you. May I have your full name?"
	case "phone":
		return "And what's the best phone number to reach you?"
	case "concern":
		return "What would you like to come in for?"
	default:
		return ""
	}
}

// BookingConfirmedReply words a successful booking outcome.
func BookingConfirmedReply(name, day, timeOfDay string) string {
	when := day
	if timeOfDay != "" {
		when = fmt.Sprintf("%s %s", day, timeOfDay)
	}
	if when == "" {
		when = "the requested time"
	}
	return fmt.Sprintf("You're all set, %s. We've booked you in for %s and sent a confirmation text. Is there anything else?", name, when)
}

// AlternateSlotsReply offers alternatives when the requested slot is taken.
func AlternateSlotsReply(alternates []string) string {
	if len(alternates) == 0 {
		return "I'm sorry, that time isn't available and I couldn't find an opening nearby. Would another day work for you?"
	}
	if len(alternates) == 1 {
		return fmt.Sprintf("That time is already taken, but I do have %s available. Would that work?", alternates[0])
	}
	return fmt.Sprintf("That time is already taken. The closest openings I have are %s or %s. Would either of those work?",
		alternates[0], alternates[1])
}
