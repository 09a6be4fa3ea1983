package call

import (
	"context"
	"sync"
)

// Registry tracks live sessions so shutdown can cancel them all and wait
// for their loops to drain. Registering the same call id again hangs up
// the older session first.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*registered
	wg       sync.WaitGroup
}

type registered struct {
	session *Session
	once    sync.Once
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*registered),
	}
}

// Register adds s under its call id and returns the matching unregister
// func. Unregister is safe to call more than once; only the first call
// releases the waitgroup slot.
func (r *Registry) Register(s *Session) (unregister func()) {
	if r == nil {
		return func() {}
	}

	entry := &registered{session: s}

	r.mu.Lock()
	if r.sessions == nil {
		r.sessions = make(map[string]*registered)
	}
	old := r.sessions[s.ID]
	r.sessions[s.ID] = entry
	r.wg.Add(1)
	r.mu.Unlock()

	if old != nil {
		old.session.Hangup("superseded")
		r.unregister(s.ID, old)
	}

	return func() { r.unregister(s.ID, entry) }
}

func (r *Registry) unregister(callID string, entry *registered) {
	if r == nil || entry == nil {
		return
	}
	entry.once.Do(func() {
		r.mu.Lock()
		if r.sessions != nil && r.sessions[callID] == entry {
			delete(r.sessions, callID)
		}
		r.mu.Unlock()
		r.wg.Done()
	})
}

// Get returns the live session for a call id, if any.
func (r *Registry) Get(callID string) (*Session, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[callID]
	if !ok {
		return nil, false
	}
	return entry.session, true
}

func (r *Registry) Count() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// HangupAll asks every live session to tear down.
func (r *Registry) HangupAll(reason string) (count int) {
	if r == nil {
		return 0
	}

	var live []*Session
	r.mu.Lock()
	for _, entry := range r.sessions {
		if entry == nil || entry.session == nil {
			continue
		}
		live = append(live, entry.session)
	}
	r.mu.Unlock()

	for _, s := range live {
		s.Hangup(reason)
		count++
	}
	return count
}

// Wait blocks until every registered session has unregistered, or ctx
// expires. Returns false on expiry.
func (r *Registry) Wait(ctx context.Context) bool {
	if r == nil {
		return true
	}
	if ctx == nil {
		r.wg.Wait()
		return true
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.wg.Wait()
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
