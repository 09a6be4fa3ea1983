package conversation

import (
	"regexp"
	"strings"
)

// PatientInfo holds the fields extracted from caller speech. Identity
// fields merge first-confident-match-wins: once set, never overwritten.
// Scheduling preferences keep the latest confident match instead, so a
// caller accepting an offered alternate actually moves the booking.
type PatientInfo struct {
	Name           string `json:"name,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	Concern        string `json:"concern,omitempty"`
	DayPreference  string `json:"day_preference,omitempty"`
	TimePreference string `json:"time_preference,omitempty"`
}

// BookingComplete reports whether the fields the booking stage requires are
// present.
func (p PatientInfo) BookingComplete() bool {
	return p.Name != "" && p.Phone != "" && p.Concern != ""
}

// Missing returns the first booking-required field that is still unset, in
// collection order. Empty when complete.
func (p PatientInfo) Missing() string {
	switch {
	case p.Name == "":
		return "name"
	case p.Phone == "":
		return "phone"
	case p.Concern == "":
		return "concern"
	default:
		return ""
	}
}

var (
	nameRe  = regexp.MustCompile(`(?:(?i:my name is|my name's|this is|i am|i'm)\s+)([A-Z][a-zA-Z'\-]+(?:\s+[A-Z][a-zA-Z'\-]+){0,2})`)
	phoneRe = regexp.MustCompile(`\+?1?[\s.\-]?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`)
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	timeRe  = regexp.MustCompile(`(?i)\b(morning|afternoon|evening)\b`)
	dayRe   = regexp.MustCompile(`(?i)\b(today|tomorrow|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	digits  = regexp.MustCompile(`\D`)
)

// Concerns are matched longest phrase first so "wisdom tooth" wins over "tooth".
var concernKeywords = []string{
	"root canal",
	"wisdom tooth",
	"wisdom teeth",
	"broken tooth",
	"chipped tooth",
	"bleeding gums",
	"teeth whitening",
	"whitening",
	"toothache",
	"tooth ache",
	"cleaning",
	"checkup",
	"check-up",
	"cavity",
	"crown",
	"filling",
	"extraction",
	"braces",
	"invisalign",
	"dentures",
	"sensitivity",
	"sensitive teeth",
	"gum pain",
	"jaw pain",
	"tooth pain",
	"pain",
}

// ExtractPatientInfo applies the per-field extractors to text and merges the
// results into info. Extractors are independent; a field already set is left
// alone, so re-applying identical text is a no-op.
func ExtractPatientInfo(text string, info *PatientInfo) {
	if info == nil {
		return
	}

	if info.Name == "" {
		if m := nameRe.FindStringSubmatch(text); m != nil {
			info.Name = strings.TrimSpace(m[1])
		}
	}

	if info.Phone == "" {
		if m := phoneRe.FindString(text); m != "" {
			info.Phone = normalizePhone(m)
		}
	}

	if info.Email == "" {
		if m := emailRe.FindString(text); m != "" {
			info.Email = strings.ToLower(m)
		}
	}

	// Scheduling preferences take the newest match so "Friday at ten
	// works" after an alternates offer reschedules the draft.
	if m := timeRe.FindString(text); m != "" {
		info.TimePreference = strings.ToLower(m)
	}

	if m := dayRe.FindString(text); m != "" {
		info.DayPreference = strings.ToLower(m)
	}

	if info.Concern == "" {
		lower := strings.ToLower(text)
		for _, kw := range concernKeywords {
			if strings.Contains(lower, kw) {
				info.Concern = kw
				break
			}
		}
	}
}

// normalizePhone strips formatting and a leading country code, keeping the
// ten-digit national number.
func normalizePhone(raw string) string {
	d := digits.ReplaceAllString(raw, "")
	if len(d) == 11 && strings.HasPrefix(d, "1") {
		d = d[1:]
	}
	return d
}
