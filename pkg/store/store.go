// Package store persists call records, transcripts, appointments, and slot
// reservations. The dashboard and SMS-queue components read these tables;
// this core only writes them.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dentalline/voicecore/pkg/conversation"
)

// Call statuses.
const (
	CallStatusActive     = "active"
	CallStatusCompleted  = "completed"
	CallStatusIncomplete = "incomplete"
)

// Appointment statuses.
const (
	AppointmentStatusConfirmed = "confirmed"
	AppointmentStatusCancelled = "cancelled"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("store: not found")

// Call is one voice-call record.
type Call struct {
	ID              string
	Channel         string // "telephony" | "webrtc"
	StartedAt       time.Time
	EndedAt         time.Time
	DurationSeconds int
	Summary         string
	Status          string
}

// Appointment is the structured booking record consumed by the dashboard.
type Appointment struct {
	ID          string
	CallID      string
	PatientName string
	Phone       string
	Email       string
	Concern     string
	StartAt     time.Time
	Status      string
	Source      string
	CreatedAt   time.Time
}

// Store is the persistence boundary for the call core.
type Store interface {
	CreateCall(ctx context.Context, call Call) error
	// FinishCall records the terminal state of a call. It is idempotent at
	// the caller: session teardown invokes it exactly once.
	FinishCall(ctx context.Context, id string, endedAt time.Time, durationSeconds int, summary, status string) error
	// AppendTranscript stores transcript turns for a call. Turns are
	// append-only; existing rows are never updated.
	AppendTranscript(ctx context.Context, callID string, turns []conversation.Turn) error

	CreateAppointment(ctx context.Context, appt Appointment) error
	DeleteAppointment(ctx context.Context, id string) error

	// SlotAvailable reports whether the slot at startAt is unreserved.
	SlotAvailable(ctx context.Context, startAt time.Time) (bool, error)
	// ReserveSlot attempts to take the slot. Exactly one of any set of
	// concurrent callers wins; the rest observe false.
	ReserveSlot(ctx context.Context, startAt time.Time) (bool, error)
	// ReleaseSlot frees a previously reserved slot (compensation path).
	ReleaseSlot(ctx context.Context, startAt time.Time) error
}
