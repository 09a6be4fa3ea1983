package call

import (
	"context"
	"testing"
	"time"

	"github.com/dentalline/voicecore/pkg/vad"
)

func newTestSession(id string) *Session {
	return NewSession(id, ChannelWebRTC, &fakeChannel{}, vad.DefaultConfig())
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("call-1")

	unregister := r.Register(s)
	if r.Count() != 1 {
		t.Fatalf("count = %d, want 1", r.Count())
	}
	got, ok := r.Get("call-1")
	if !ok || got != s {
		t.Fatal("Get did not return the registered session")
	}

	unregister()
	if r.Count() != 0 {
		t.Fatalf("count after unregister = %d, want 0", r.Count())
	}
	if _, ok := r.Get("call-1"); ok {
		t.Fatal("Get returned a session after unregister")
	}
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	r := NewRegistry()
	unregister := r.Register(newTestSession("call-1"))

	unregister()
	unregister()
	unregister()

	if r.Count() != 0 {
		t.Fatalf("count = %d, want 0", r.Count())
	}
	// A hung waitgroup here would mean double Done panics or leaked slots.
	if !r.Wait(context.Background()) {
		t.Fatal("Wait did not return")
	}
}

func TestRegistrySupersedeHangsUpOldSession(t *testing.T) {
	r := NewRegistry()
	old := newTestSession("call-1")
	r.Register(old)

	replacement := newTestSession("call-1")
	r.Register(replacement)

	if r.Count() != 1 {
		t.Fatalf("count = %d, want 1", r.Count())
	}
	got, _ := r.Get("call-1")
	if got != replacement {
		t.Fatal("registry did not keep the replacement session")
	}

	select {
	case reason := <-old.hangup:
		if reason != "superseded" {
			t.Fatalf("hangup reason = %q, want superseded", reason)
		}
	default:
		t.Fatal("old session was not asked to hang up")
	}
}

func TestRegistryWaitTimesOut(t *testing.T) {
	r := NewRegistry()
	r.Register(newTestSession("call-1"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if r.Wait(ctx) {
		t.Fatal("Wait returned true with a session still registered")
	}
}

func TestRegistryHangupAll(t *testing.T) {
	r := NewRegistry()
	a := newTestSession("call-a")
	b := newTestSession("call-b")
	r.Register(a)
	r.Register(b)

	if n := r.HangupAll("shutdown"); n != 2 {
		t.Fatalf("HangupAll = %d, want 2", n)
	}
	for _, s := range []*Session{a, b} {
		select {
		case <-s.hangup:
		default:
			t.Fatalf("session %s was not hung up", s.ID)
		}
	}
}
