// Package mem is a volatile in-memory token store, mainly for tests
// and for simulating reloads by sharing one store across sessions.
package mem

import "sync"

// Store keeps the token in memory only.
type Store struct {
	mu    sync.Mutex
	token string
	set   bool
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Load implements session.TokenStore.
func (s *Store) Load() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.set, nil
}

// Save implements session.TokenStore.
func (s *Store) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.set = true
	return nil
}

// Clear implements session.TokenStore.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.set = false
	return nil
}
