// Package session — in-memory session store.
package session

import (
	"errors"
	"sync"

	"github.com/gaurav-prasanna/pagebrief/core"
)

// ErrSessionNotFound is returned for unknown session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Store keeps sessions in memory for the life of the process.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*State)}
}

// Create starts a session holding brief.
func (st *Store) Create(brief *core.Brief) (*State, error) {
	s, err := New()
	if err != nil {
		return nil, err
	}
	if err := s.Reset(brief); err != nil {
		s.Close()
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.id] = s
	return s, nil
}

// Get returns the session with the given ID.
func (st *Store) Get(id string) (*State, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete removes a session and releases its index.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	return s.Close()
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Close releases every session.
func (st *Store) Close() {
	st.mu.Lock()
	defer st.mu.Unlock()
	for id, s := range st.sessions {
		s.Close()
		delete(st.sessions, id)
	}
}
