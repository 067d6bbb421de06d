package app

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Directory is the in-memory list of known sessions, in the order the
// server returns them. It is best-effort display state: it never blocks
// the conversation, and a failed refresh degrades to an empty list.
type Directory struct {
	mu       sync.RWMutex
	api      API
	auth     *TokenStore
	log      zerolog.Logger
	sessions []Session
}

func NewDirectory(api API, auth *TokenStore, logger zerolog.Logger) *Directory {
	return &Directory{api: api, auth: auth, log: logger}
}

// Refresh replaces the whole directory with the server's current list.
// Transport failure empties the list; a 401 additionally invalidates the
// credential. No error escapes either way.
func (d *Directory) Refresh(ctx context.Context) {
	sessions, err := d.api.ListSessions(ctx, d.auth.Token())
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			d.auth.Clear()
		}
		d.log.Warn().Err(err).Msg("session list refresh failed")
		sessions = nil
	}

	d.mu.Lock()
	d.sessions = sessions
	d.mu.Unlock()
}

// RecordNewSession inserts a session returned by a create call so the
// directory reflects it without waiting for a full refresh. Newest first,
// matching the server's list order.
func (d *Directory) RecordNewSession(s Session) {
	d.mu.Lock()
	d.sessions = append([]Session{s}, d.sessions...)
	d.mu.Unlock()
}

func (d *Directory) Sessions() []Session {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Session, len(d.sessions))
	copy(out, d.sessions)
	return out
}
