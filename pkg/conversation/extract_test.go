package conversation

import (
	"reflect"
	"testing"
)

func TestExtractPatientInfoFullUtterance(t *testing.T) {
	text := "My name is John Smith, phone 555-123-4567, I have a toothache, book me tomorrow afternoon"

	var info PatientInfo
	ExtractPatientInfo(text, &info)

	want := PatientInfo{
		Name:           "John Smith",
		Phone:          "5551234567",
		Concern:        "toothache",
		DayPreference:  "tomorrow",
		TimePreference: "afternoon",
	}
	if !reflect.DeepEqual(info, want) {
		t.Fatalf("extracted %+v, want %+v", info, want)
	}
}

func TestExtractPatientInfoIdempotent(t *testing.T) {
	text := "This is Mary Jones, my number is (555) 987-6543, I need a root canal on Friday morning"

	var once, twice PatientInfo
	ExtractPatientInfo(text, &once)
	ExtractPatientInfo(text, &twice)
	ExtractPatientInfo(text, &twice)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("re-applying identical text changed state: %+v vs %+v", once, twice)
	}
}

func TestExtractDoesNotOverwrite(t *testing.T) {
	info := PatientInfo{Name: "John Smith", Concern: "toothache"}
	ExtractPatientInfo("my name is Bob Wilson, I want a cleaning", &info)

	if info.Name != "John Smith" {
		t.Errorf("name overwritten to %q", info.Name)
	}
	if info.Concern != "toothache" {
		t.Errorf("concern overwritten to %q", info.Concern)
	}
}

func TestExtractReschedulesOnNewPreference(t *testing.T) {
	info := PatientInfo{
		Name: "John Smith", Phone: "5551234567", Concern: "toothache",
		DayPreference: "tomorrow", TimePreference: "afternoon",
	}
	ExtractPatientInfo("actually Friday morning works better for me", &info)

	if info.DayPreference != "friday" {
		t.Errorf("day = %q, want friday", info.DayPreference)
	}
	if info.TimePreference != "morning" {
		t.Errorf("time = %q, want morning", info.TimePreference)
	}
	if info.Name != "John Smith" || info.Concern != "toothache" {
		t.Errorf("identity fields changed: %+v", info)
	}
}

func TestExtractPhoneVariants(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"call me at 555-123-4567", "5551234567"},
		{"it's (555) 123-4567", "5551234567"},
		{"my number is 5551234567", "5551234567"},
		{"reach me on +1 555 123 4567", "5551234567"},
		{"555.123.4567 is my cell", "5551234567"},
	}
	for _, tt := range tests {
		var info PatientInfo
		ExtractPatientInfo(tt.text, &info)
		if info.Phone != tt.want {
			t.Errorf("ExtractPatientInfo(%q) phone = %q, want %q", tt.text, info.Phone, tt.want)
		}
	}
}

func TestExtractEmail(t *testing.T) {
	var info PatientInfo
	ExtractPatientInfo("send it to John.Smith+dental@Example.COM please", &info)
	if info.Email != "john.smith+dental@example.com" {
		t.Errorf("email = %q", info.Email)
	}
}

func TestExtractNameVariants(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"my name is Alice Cooper", "Alice Cooper"},
		{"this is Bob", "Bob"},
		{"I'm Jane O'Brien", "Jane O'Brien"},
		{"hi, I am Mary Anne Smith", "Mary Anne Smith"},
	}
	for _, tt := range tests {
		var info PatientInfo
		ExtractPatientInfo(tt.text, &info)
		if info.Name != tt.want {
			t.Errorf("ExtractPatientInfo(%q) name = %q, want %q", tt.text, info.Name, tt.want)
		}
	}
}

func TestExtractConcernLongestPhraseWins(t *testing.T) {
	var info PatientInfo
	ExtractPatientInfo("my wisdom tooth is killing me", &info)
	if info.Concern != "wisdom tooth" {
		t.Errorf("concern = %q, want wisdom tooth", info.Concern)
	}
}

func TestBookingComplete(t *testing.T) {
	info := PatientInfo{Name: "A", Phone: "5551234567"}
	if info.BookingComplete() {
		t.Error("complete without concern")
	}
	if got := info.Missing(); got != "concern" {
		t.Errorf("Missing() = %q, want concern", got)
	}
	info.Concern = "cleaning"
	if !info.BookingComplete() {
		t.Error("not complete with all required fields")
	}
}
