package session

import (
	"context"
	"log/slog"
	"time"
)

// Actor is a single-writer state machine for one session: every mutation
// is applied by one dedicated goroutine reading from a mailbox channel, so
// callers on different goroutines never race on session fields. This is
// the Go mapping spec.md §9 calls for ("goroutines + dedicated mailbox
// channels").
type Actor struct {
	session *Session
	store   Store
	logger  *slog.Logger
	ttlMs   int64

	mailbox chan func(*Session)
	done    chan struct{}
}

// NewActor creates an Actor for id, restoring from store on a cache hit
// (spec.md §4.5 "Restore") or starting fresh on a miss.
func NewActor(ctx context.Context, id string, store Store, ttlMs int64, logger *slog.Logger) *Actor {
	if logger == nil {
		logger = slog.Default()
	}
	s := NewSession(id)
	if store != nil {
		if st, err := store.Load(ctx, id); err == nil {
			s = sessionFromState(st)
		}
	}

	a := &Actor{
		session: s,
		store:   store,
		logger:  logger,
		ttlMs:   ttlMs,
		mailbox: make(chan func(*Session), 64),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Actor) run() {
	defer close(a.done)
	for fn := range a.mailbox {
		fn(a.session)
		a.persistAsync()
	}
}

// Close stops the actor's goroutine by closing its mailbox. An Actor
// method called after or concurrently with Close sends on the closed
// mailbox and panics.
func (a *Actor) Close() {
	close(a.mailbox)
	<-a.done
}

func (a *Actor) do(fn func(*Session)) {
	result := make(chan struct{})
	a.mailbox <- func(s *Session) {
		fn(s)
		close(result)
	}
	<-result
}

// persistAsync saves the current state without blocking the actor loop on
// store latency. Save failures are logged but never fail the caller's
// operation, per spec.md §7 ("Persistence failures on save: logged but do
// not fail the session operation").
func (a *Actor) persistAsync() {
	if a.store == nil {
		return
	}
	snapshot := stateFromSession(a.session)
	id := a.session.ID
	ttlMs := a.ttlMs
	store := a.store
	logger := a.logger
	go func() {
		if err := store.Save(context.Background(), id, snapshot, ttlMs); err != nil {
			logger.Warn("session persist failed", "session_id", id, "error", err)
		}
	}()
}

// Get returns a point-in-time, independent copy of the session.
func (a *Actor) Get() *Session {
	var out *Session
	a.do(func(s *Session) { out = s.clone() })
	return out
}

func (a *Actor) SetProtocolVersion(v string) {
	a.do(func(s *Session) { s.ProtocolVersion = v })
}

func (a *Actor) SetClient(info ClientInfo, capabilities map[string]any) {
	a.do(func(s *Session) {
		s.ClientInfo = info
		s.ClientCapabilities = capabilities
	})
}

func (a *Actor) MarkInitialized() {
	a.do(func(s *Session) { s.Initialized = true })
}

func (a *Actor) SetLogLevel(level string) {
	a.do(func(s *Session) { s.LogLevel = level })
}

func (a *Actor) TrackRequest(id, method string) {
	a.do(func(s *Session) {
		s.PendingRequests[id] = PendingRequest{Method: method, StartedAt: time.Now()}
	})
}

func (a *Actor) CompleteRequest(id string) {
	a.do(func(s *Session) { delete(s.PendingRequests, id) })
}

func (a *Actor) HasPending(id string) bool {
	var ok bool
	a.do(func(s *Session) { _, ok = s.PendingRequests[id] })
	return ok
}

func (a *Actor) Pending() map[string]PendingRequest {
	out := map[string]PendingRequest{}
	a.do(func(s *Session) {
		for k, v := range s.PendingRequests {
			out[k] = v
		}
	})
	return out
}
