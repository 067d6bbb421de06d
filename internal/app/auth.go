package app

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// TokenStore is the single accessor for the bearer credential. The token
// lives in a file the user owns (the login command writes it, the user may
// delete it), mirroring how the web client keeps it in browser storage.
// It is set on login, cleared on logout or any unauthorized response, and
// never mutated anywhere else.
type TokenStore struct {
	mu    sync.RWMutex
	path  string
	token string
	log   zerolog.Logger
}

func NewTokenStore(path string, logger zerolog.Logger) *TokenStore {
	s := &TokenStore{path: path, log: logger}
	if v := os.Getenv("DEVMEM_TOKEN"); v != "" {
		s.token = v
		return s
	}
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			s.token = strings.TrimSpace(string(data))
		}
	}
	return s
}

func DefaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "devmem", "token")
}

func (s *TokenStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *TokenStore) Authenticated() bool {
	return s.Token() != ""
}

// Set stores the credential and persists it for future runs.
func (s *TokenStore) Set(token string) error {
	token = strings.TrimSpace(token)
	s.mu.Lock()
	s.token = token
	path := s.path
	s.mu.Unlock()

	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token+"\n"), 0o600)
}

// Clear discards the credential, both in memory and on disk. Called on
// logout and on any 401; after it returns every component sees an
// unauthenticated state.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	s.token = ""
	path := s.path
	s.mu.Unlock()

	s.log.Info().Msg("credential cleared")
	if path != "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.log.Error().Err(err).Str("path", path).Msg("remove token file")
		}
	}
}
