package cart

import (
	"sync"
	"time"
)

// Store hands each session its own Cart. Carts are ephemeral: they live in
// process memory and expire after the session TTL.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*entry
	now      func() time.Time
}

type entry struct {
	cart     *Cart
	lastSeen time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

// Get returns the session's cart, creating one if needed. Expired carts are
// discarded on access.
func (s *Store) Get(sessionID string) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictLocked(now)

	e, ok := s.sessions[sessionID]
	if !ok {
		e = &entry{cart: New()}
		s.sessions[sessionID] = e
	}
	e.lastSeen = now
	return e.cart
}

// Drop forgets the session's cart entirely.
func (s *Store) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

func (s *Store) evictLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for id, e := range s.sessions {
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
