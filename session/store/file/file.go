// Package file persists the session token as a single file under the
// user config directory.
package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Al-aminI/memsient-go/session"
)

// Store holds the token in one file, mode 0600, written atomically
// via a temp file and rename.
type Store struct {
	path string
}

// New creates a store writing to path.
func New(path string) *Store {
	return &Store{path: path}
}

// Default places the token under the user config directory
// (~/.config/memsient/token on Linux). When no config directory can
// be resolved it returns session.ErrUnavailable; callers should fall
// back to session.NoStore.
func Default() (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}
	return New(filepath.Join(dir, "memsient", "token")), nil
}

// Path returns the token file location.
func (s *Store) Path() string {
	return s.path
}

// Load implements session.TokenStore. A missing file means nothing is
// stored; any other read failure is reported as storage
// unavailability.
func (s *Store) Load() (string, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// Save implements session.TokenStore.
func (s *Store) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}
	return nil
}

// Clear implements session.TokenStore.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}
	return nil
}
