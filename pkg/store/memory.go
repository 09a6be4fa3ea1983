package store

import (
	"context"
	"sync"
	"time"

	"github.com/dentalline/voicecore/pkg/conversation"
)

// Memory is an in-memory Store for tests and local development.
type Memory struct {
	mu           sync.Mutex
	calls        map[string]*Call
	transcripts  map[string][]conversation.Turn
	appointments map[string]Appointment
	reserved     map[time.Time]bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		calls:        make(map[string]*Call),
		transcripts:  make(map[string][]conversation.Turn),
		appointments: make(map[string]Appointment),
		reserved:     make(map[time.Time]bool),
	}
}

func (m *Memory) CreateCall(_ context.Context, call Call) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := call
	m.calls[call.ID] = &c
	return nil
}

func (m *Memory) FinishCall(_ context.Context, id string, endedAt time.Time, durationSeconds int, summary, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.calls[id]
	if !ok {
		return ErrNotFound
	}
	c.EndedAt = endedAt
	c.DurationSeconds = durationSeconds
	c.Summary = summary
	c.Status = status
	return nil
}

func (m *Memory) AppendTranscript(_ context.Context, callID string, turns []conversation.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcripts[callID] = append(m.transcripts[callID], turns...)
	return nil
}

func (m *Memory) CreateAppointment(_ context.Context, appt Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appointments[appt.ID] = appt
	return nil
}

func (m *Memory) DeleteAppointment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.appointments, id)
	return nil
}

func (m *Memory) SlotAvailable(_ context.Context, startAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.reserved[startAt.UTC()], nil
}

func (m *Memory) ReserveSlot(_ context.Context, startAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := startAt.UTC()
	if m.reserved[key] {
		return false, nil
	}
	m.reserved[key] = true
	return true, nil
}

func (m *Memory) ReleaseSlot(_ context.Context, startAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reserved, startAt.UTC())
	return nil
}

// Call returns a copy of the stored call record, for assertions.
func (m *Memory) Call(id string) (Call, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.calls[id]
	if !ok {
		return Call{}, false
	}
	return *c, true
}

// Transcript returns the stored transcript for a call.
func (m *Memory) Transcript(callID string) []conversation.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]conversation.Turn, len(m.transcripts[callID]))
	copy(out, m.transcripts[callID])
	return out
}

// Appointments returns all stored appointments.
func (m *Memory) Appointments() []Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Appointment, 0, len(m.appointments))
	for _, a := range m.appointments {
		out = append(out, a)
	}
	return out
}

var _ Store = (*Memory)(nil)
