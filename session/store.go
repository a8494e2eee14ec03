package session

import "errors"

// ErrUnavailable reports that no durable token storage exists in this
// environment. Callers treat it as "the session will not survive a
// restart", never as a failure of the operation that triggered it.
var ErrUnavailable = errors.New("session: token storage unavailable")

// TokenStore persists the single bearer token across restarts. At
// most one token is stored; saving replaces any previous one.
//
// Implementations: store/file (durable, one file under the user
// config dir), store/mem (volatile, for tests), NoStore (explicit
// no-persistence variant).
type TokenStore interface {
	// Load returns the persisted token. ok is false when nothing is
	// stored, which callers must treat as "logged out".
	Load() (token string, ok bool, err error)

	// Save persists the token, replacing any previous one.
	Save(token string) error

	// Clear removes the persisted token. Clearing an empty store is
	// not an error.
	Clear() error
}

// NoStore is a TokenStore for environments with no durable storage.
// Load always reports nothing stored and Save returns ErrUnavailable,
// so a Session backed by it works normally but never persists.
type NoStore struct{}

// Load implements TokenStore.
func (NoStore) Load() (string, bool, error) { return "", false, nil }

// Save implements TokenStore.
func (NoStore) Save(string) error { return ErrUnavailable }

// Clear implements TokenStore.
func (NoStore) Clear() error { return nil }
