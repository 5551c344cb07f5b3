package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/benjaminschreck/docforge/pkg/docforge"
)

// Session is one user's document in progress. Store access is serialized by Do.
type Session struct {
	ID      string
	Created time.Time

	mu       sync.Mutex
	store    *docforge.Store
	lastSeen time.Time
}

// Do runs fn with exclusive access to the session's store.
func (s *Session) Do(fn func(store *docforge.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.store)
}

// SessionRegistry tracks live sessions and discards idle ones.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	log      zerolog.Logger

	storeOpts []docforge.StoreOption
	onDiscard func(id string)
}

// NewSessionRegistry creates a registry. A zero ttl keeps sessions until deleted.
// opts configure the store of every new session.
func NewSessionRegistry(ttl time.Duration, log zerolog.Logger, opts ...docforge.StoreOption) *SessionRegistry {
	return &SessionRegistry{
		sessions:  make(map[string]*Session),
		ttl:       ttl,
		now:       time.Now,
		log:       log,
		storeOpts: opts,
	}
}

// OnDiscard registers fn to run after a session is deleted or expires. It must be
// set before the registry is used.
func (r *SessionRegistry) OnDiscard(fn func(id string)) {
	r.onDiscard = fn
}

func (r *SessionRegistry) discarded(id string) {
	if r.onDiscard != nil {
		r.onDiscard(id)
	}
}

// Create starts a session with an empty store.
func (r *SessionRegistry) Create() *Session {
	now := r.now()
	sess := &Session{
		ID:       uuid.NewString(),
		Created:  now,
		store:    docforge.NewStore(r.storeOpts...),
		lastSeen: now,
	}

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	count := len(r.sessions)
	r.mu.Unlock()

	r.log.Info().Str("session", sess.ID).Int("sessions", count).Msg("session created")
	return sess
}

// Get returns a live session and marks it as used.
func (r *SessionRegistry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[id]
	if !ok || r.expiredLocked(sess) {
		return nil, docforge.NewNotFoundError("session", id)
	}
	sess.lastSeen = r.now()
	return sess, nil
}

// Delete discards a session.
func (r *SessionRegistry) Delete(id string) error {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return docforge.NewNotFoundError("session", id)
	}
	r.log.Info().Str("session", id).Msg("session discarded")
	r.discarded(id)
	return nil
}

// Len returns the number of tracked sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *SessionRegistry) expiredLocked(sess *Session) bool {
	return r.ttl > 0 && r.now().Sub(sess.lastSeen) > r.ttl
}

// Sweep removes idle sessions and returns how many were removed.
func (r *SessionRegistry) Sweep() int {
	r.mu.Lock()
	var expired []string
	for id, sess := range r.sessions {
		if r.expiredLocked(sess) {
			expired = append(expired, id)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, id := range expired {
		r.log.Info().Str("session", id).Msg("session expired")
		r.discarded(id)
	}
	return len(expired)
}

// RunSweeper sweeps every interval until ctx is done.
func (r *SessionRegistry) RunSweeper(ctx context.Context, interval time.Duration) {
	if r.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
