// Package session keeps the map sessions of connected map views.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"maps-api/internal/metrics"
	"maps-api/internal/models"
	"maps-api/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrSessionNotFound is returned for an unknown or expired session id.
var ErrSessionNotFound = errors.New("session: not found")

// ModelFactory builds the map model of a new session. notify delivers to the session's listeners.
type ModelFactory func(query models.Query, notify service.Notifier) *service.Model

// Session is one map view: its model and the listeners of its notifications.
type Session struct {
	*service.Model
	ID string

	mu       sync.Mutex
	lastSeen time.Time
	streams  int
	closed   bool
	nextSub  uint64
	subs     map[uint64]chan models.Notification
}

// Notifications registers a listener. The returned cancel removes it and closes the channel.
// A listener that falls behind misses notifications.
func (s *Session) Notifications() (<-chan models.Notification, func()) {
	ch := make(chan models.Notification, 8)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.streams++

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[id]; ok {
				delete(s.subs, id)
				s.streams--
				close(ch)
			}
			s.lastSeen = time.Now()
		})
	}
}

// Close stops the model and ends every state and notification listener.
func (s *Session) Close() {
	s.Model.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		s.streams--
		close(ch)
	}
}

func (s *Session) notify(n models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen), s.streams == 0
}

// Hub owns every open session.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	newModel ModelFactory
	now      func() time.Time
}

// NewHub creates an empty hub.
func NewHub(newModel ModelFactory) *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
		newModel: newModel,
		now:      time.Now,
	}
}

// Create opens a session whose loads start from query.
func (h *Hub) Create(query models.Query) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		lastSeen: h.now(),
		subs:     make(map[uint64]chan models.Notification),
	}
	s.Model = h.newModel(query, s.notify)

	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()
	metrics.ActiveSessions.Inc()
	log.Debug().Str("session", s.ID).Msg("map session opened")
	return s
}

// Get returns a session and marks it as used.
func (h *Hub) Get(id string) (*Session, error) {
	h.mu.RLock()
	s, ok := h.sessions[id]
	h.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(h.now())
	return s, nil
}

// Delete stops the session's geocoding, closes its listeners and forgets it.
func (h *Hub) Delete(id string) error {
	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	metrics.ActiveSessions.Dec()
	log.Debug().Str("session", id).Msg("map session closed")
	return nil
}

// Sweep closes sessions idle for longer than ttl that have no open event stream.
func (h *Hub) Sweep(ttl time.Duration) int {
	now := h.now()
	var expired []string
	h.mu.RLock()
	for id, s := range h.sessions {
		if idle, free := s.idleSince(now); free && idle > ttl {
			expired = append(expired, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range expired {
		_ = h.Delete(id)
	}
	if len(expired) > 0 {
		log.Info().Int("count", len(expired)).Msg("expired idle map sessions")
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (h *Hub) Run(ctx context.Context, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Sweep(ttl)
		}
	}
}

// Close stops every session.
func (h *Hub) Close() {
	h.mu.RLock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	for _, id := range ids {
		_ = h.Delete(id)
	}
}

// Len returns the number of open sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
