package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dentalline/voicecore/pkg/conversation"
	"github.com/dentalline/voicecore/pkg/notify"
	"github.com/dentalline/voicecore/pkg/store"
)

// maxAlternates is how many alternate slots are offered when the requested
// slot is taken.
const maxAlternates = 3

// Result is a booking outcome. A full slot is a business-rule outcome, not
// an error: Booked is false and Alternates carries up to maxAlternates
// openings.
type Result struct {
	Booked        bool
	AppointmentID string
	StartAt       time.Time
	Alternates    []time.Time
}

// AlternateStrings formats the alternates for spoken replies.
func (r Result) AlternateStrings() []string {
	out := make([]string, len(r.Alternates))
	for i, t := range r.Alternates {
		out[i] = FormatSlot(t)
	}
	return out
}

// Coordinator books appointments against the slot store and sends SMS
// confirmations. All failures after persistence trigger compensation.
type Coordinator struct {
	store  store.Store
	sender notify.Sender
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
	clinic string
}

// NewCoordinator wires the booking dependencies. sender may be nil, in which
// case confirmation sending is skipped.
func NewCoordinator(st store.Store, sender notify.Sender, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:  st,
		sender: sender,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
		clinic: "Dentalline",
	}
}

// WithClock injects a clock for tests.
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	if now != nil {
		c.now = now
	}
	return c
}

// Book resolves the draft's day/time preference to a concrete slot and runs
// the reserve → persist → confirm sequence. If persistence succeeds but a
// later step fails, the slot is released and the record deleted before the
// failure is reported.
func (c *Coordinator) Book(ctx context.Context, callID string, draft *conversation.AppointmentDraft) (Result, error) {
	if draft == nil {
		return Result{}, fmt.Errorf("booking: draft is nil")
	}
	if draft.PatientName == "" || draft.Phone == "" || draft.Concern == "" {
		return Result{}, fmt.Errorf("booking: draft is incomplete")
	}

	startAt := ResolveSlot(draft.Day, draft.TimeOfDay, c.now())

	available, err := c.store.SlotAvailable(ctx, startAt)
	if err != nil {
		return Result{}, fmt.Errorf("booking: availability check: %w", err)
	}
	if !available {
		return c.alternates(ctx, startAt), nil
	}

	won, err := c.store.ReserveSlot(ctx, startAt)
	if err != nil {
		return Result{}, fmt.Errorf("booking: reserve: %w", err)
	}
	if !won {
		// Lost the race between the availability check and the reserve.
		return c.alternates(ctx, startAt), nil
	}

	appt := store.Appointment{
		ID:          c.newID(),
		CallID:      callID,
		PatientName: draft.PatientName,
		Phone:       draft.Phone,
		Email:       draft.Email,
		Concern:     draft.Concern,
		StartAt:     startAt,
		Status:      store.AppointmentStatusConfirmed,
		Source:      "voice",
		CreatedAt:   c.now(),
	}
	if err := c.store.CreateAppointment(ctx, appt); err != nil {
		// Nothing persisted yet: only the slot needs releasing.
		if rerr := c.store.ReleaseSlot(ctx, startAt); rerr != nil {
			c.logger.Error("slot release after persist failure", "slot", startAt, "error", rerr)
		}
		return Result{}, fmt.Errorf("booking: persist: %w", err)
	}

	if err := c.confirm(ctx, appt); err != nil {
		c.compensate(ctx, appt)
		return Result{}, fmt.Errorf("booking: confirm: %w", err)
	}

	c.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"call_id", callID,
		"start_at", startAt)
	return Result{Booked: true, AppointmentID: appt.ID, StartAt: startAt}, nil
}

func (c *Coordinator) confirm(ctx context.Context, appt store.Appointment) error {
	if c.sender == nil {
		return nil
	}
	msg := fmt.Sprintf("%s: your appointment for %s is confirmed for %s. Reply CANCEL to cancel.",
		c.clinic, appt.Concern, FormatSlot(appt.StartAt))
	return c.sender.Send(ctx, appt.Phone, msg)
}

// compensate undoes a persisted booking: delete the record, release the slot.
func (c *Coordinator) compensate(ctx context.Context, appt store.Appointment) {
	if err := c.store.DeleteAppointment(ctx, appt.ID); err != nil {
		c.logger.Error("compensation: delete appointment", "appointment_id", appt.ID, "error", err)
	}
	if err := c.store.ReleaseSlot(ctx, appt.StartAt); err != nil {
		c.logger.Error("compensation: release slot", "slot", appt.StartAt, "error", err)
	}
}

func (c *Coordinator) alternates(ctx context.Context, requested time.Time) Result {
	res := Result{StartAt: requested}
	for _, candidate := range CandidateSlots(requested, c.now(), maxAlternates*4) {
		ok, err := c.store.SlotAvailable(ctx, candidate)
		if err != nil {
			c.logger.Warn("alternate availability check", "slot", candidate, "error", err)
			continue
		}
		if ok {
			res.Alternates = append(res.Alternates, candidate)
			if len(res.Alternates) == maxAlternates {
				break
			}
		}
	}
	return res
}
