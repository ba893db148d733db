// Package memory provides an in-process session store for deployments
// without PostgreSQL and for tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Strob0t/AgentForge/internal/domain"
	"github.com/Strob0t/AgentForge/internal/domain/orchestration"
	"github.com/Strob0t/AgentForge/internal/port/sessionstore"
)

// SessionStore keeps sessions in a map. Stored values are deep copies so
// callers cannot mutate persisted state.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*orchestration.Session
	now      func() time.Time
}

var _ sessionstore.Store = (*SessionStore)(nil)

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*orchestration.Session),
		now:      time.Now,
	}
}

func (s *SessionStore) Create(_ context.Context, sess *orchestration.Session) error {
	cp, err := clone(sess)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return fmt.Errorf("session %s: %w", sess.ID, domain.ErrConflict)
	}
	s.sessions[sess.ID] = cp
	return nil
}

func (s *SessionStore) Update(_ context.Context, id string, status orchestration.Status, p orchestration.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	next, err := clone(sess)
	if err != nil {
		return err
	}
	if err := next.Apply(status, p, s.now()); err != nil {
		return fmt.Errorf("session %s: %w", id, err)
	}
	// Re-clone so patch pointers held by the caller are not shared.
	stored, err := clone(next)
	if err != nil {
		return err
	}
	s.sessions[id] = stored
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (*orchestration.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return clone(sess)
}

// Len reports the number of stored sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func clone(sess *orchestration.Session) (*orchestration.Session, error) {
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	var cp orchestration.Session
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &cp, nil
}
