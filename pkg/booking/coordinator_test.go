package booking

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dentalline/voicecore/pkg/conversation"
	"github.com/dentalline/voicecore/pkg/store"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to+": "+message)
	return nil
}

func testDraft() *conversation.AppointmentDraft {
	return &conversation.AppointmentDraft{
		PatientName: "John Smith",
		Phone:       "5551234567",
		Concern:     "toothache",
		Day:         "tomorrow",
		TimeOfDay:   "afternoon",
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestBookSuccess(t *testing.T) {
	st := store.NewMemory()
	sender := &fakeSender{}
	c := NewCoordinator(st, sender, quietLogger()).WithClock(func() time.Time { return wednesday })

	res, err := c.Book(context.Background(), "call-1", testDraft())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Booked {
		t.Fatal("Booked = false")
	}
	if res.StartAt.Day() != 3 || res.StartAt.Hour() != 14 {
		t.Errorf("booked %v, want tomorrow 14:00 (afternoon default)", res.StartAt)
	}

	appts := st.Appointments()
	if len(appts) != 1 {
		t.Fatalf("persisted %d appointments, want 1", len(appts))
	}
	if appts[0].PatientName != "John Smith" || appts[0].Status != store.AppointmentStatusConfirmed {
		t.Errorf("appointment = %+v", appts[0])
	}
	if len(sender.sent) != 1 {
		t.Errorf("sent %d confirmations, want 1", len(sender.sent))
	}
}

func TestBookUnavailableReturnsAlternates(t *testing.T) {
	st := store.NewMemory()
	c := NewCoordinator(st, nil, quietLogger()).WithClock(func() time.Time { return wednesday })

	requested := ResolveSlot("tomorrow", "afternoon", wednesday)
	if won, _ := st.ReserveSlot(context.Background(), requested); !won {
		t.Fatal("setup reserve failed")
	}

	res, err := c.Book(context.Background(), "call-1", testDraft())
	if err != nil {
		t.Fatalf("full slot must not be an error, got %v", err)
	}
	if res.Booked {
		t.Fatal("Booked = true for a taken slot")
	}
	if len(res.Alternates) == 0 || len(res.Alternates) > maxAlternates {
		t.Fatalf("alternates = %v", res.Alternates)
	}
	for _, alt := range res.Alternates {
		if alt.Equal(requested) {
			t.Errorf("alternates include the taken slot %v", alt)
		}
	}
	if len(st.Appointments()) != 0 {
		t.Error("appointment persisted despite unavailable slot")
	}
}

func TestConcurrentBookingOneWinner(t *testing.T) {
	st := store.NewMemory()
	c := NewCoordinator(st, &fakeSender{}, quietLogger()).WithClock(func() time.Time { return wednesday })

	const callers = 8
	results := make([]Result, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Book(context.Background(), "call", testDraft())
		}(i)
	}
	wg.Wait()

	wins := 0
	for i := range results {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i].Booked {
			wins++
		} else if len(results[i].Alternates) == 0 {
			t.Errorf("loser %d got no alternates", i)
		}
	}
	if wins != 1 {
		t.Fatalf("%d winners for one slot, want exactly 1", wins)
	}
	if got := len(st.Appointments()); got != 1 {
		t.Fatalf("%d appointments persisted, want 1", got)
	}
}

func TestConfirmFailureCompensates(t *testing.T) {
	st := store.NewMemory()
	sender := &fakeSender{err: errors.New("sms gateway down")}
	c := NewCoordinator(st, sender, quietLogger()).WithClock(func() time.Time { return wednesday })

	_, err := c.Book(context.Background(), "call-1", testDraft())
	if err == nil {
		t.Fatal("expected error when confirmation fails")
	}

	if got := len(st.Appointments()); got != 0 {
		t.Fatalf("%d appointments remain after compensation, want 0", got)
	}

	// The slot must be free again.
	slot := ResolveSlot("tomorrow", "afternoon", wednesday)
	ok, _ := st.SlotAvailable(context.Background(), slot)
	if !ok {
		t.Fatal("slot still reserved after compensation")
	}
}

func TestBookRejectsIncompleteDraft(t *testing.T) {
	c := NewCoordinator(store.NewMemory(), nil, quietLogger())
	if _, err := c.Book(context.Background(), "call-1", &conversation.AppointmentDraft{PatientName: "A"}); err == nil {
		t.Fatal("expected error for incomplete draft")
	}
	if _, err := c.Book(context.Background(), "call-1", nil); err == nil {
		t.Fatal("expected error for nil draft")
	}
}

func TestBookLateInDayNeverOffersPastAlternates(t *testing.T) {
	st := store.NewMemory()
	// 12:30 on the requested day: the caller asks for this afternoon.
	lateMorning := time.Date(2026, 9, 2, 12, 30, 0, 0, time.UTC)
	c := NewCoordinator(st, nil, quietLogger()).WithClock(func() time.Time { return lateMorning })

	draft := testDraft()
	draft.Day = "today"

	requested := ResolveSlot("today", "afternoon", lateMorning)
	if won, _ := st.ReserveSlot(context.Background(), requested); !won {
		t.Fatal("setup reserve failed")
	}

	res, err := c.Book(context.Background(), "call-1", draft)
	if err != nil {
		t.Fatal(err)
	}
	if res.Booked {
		t.Fatal("booked a reserved slot")
	}
	if len(res.Alternates) == 0 {
		t.Fatal("no alternates offered")
	}
	for _, alt := range res.Alternates {
		if !alt.After(lateMorning) {
			t.Errorf("alternate %v is already in the past at %v", alt, lateMorning)
		}
	}
}
