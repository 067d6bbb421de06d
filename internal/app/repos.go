package app

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// RepoTracker holds the set of repositories the user has opted into
// indexing. Selected is flipped optimistically on toggle; Indexed only
// ever changes through an authoritative refresh.
//
// There is intentionally no rollback when the toggle call fails: local
// state is left as the user set it and the next full refresh converges it
// to server truth. Do not add rollback — it changes observable behavior.
type RepoTracker struct {
	mu    sync.RWMutex
	api   API
	auth  *TokenStore
	log   zerolog.Logger
	repos []Repository
}

func NewRepoTracker(api API, auth *TokenStore, logger zerolog.Logger) *RepoTracker {
	return &RepoTracker{api: api, auth: auth, log: logger}
}

// LoadFromProfile seeds the set from the profile's embedded list. A
// profile without one leaves the set empty.
func (t *RepoTracker) LoadFromProfile(u *User) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if u == nil {
		t.repos = nil
		return
	}
	t.repos = make([]Repository, len(u.Repositories))
	copy(t.repos, u.Repositories)
}

// RefreshFromServer replaces the list wholesale with server truth,
// discarding any local selection drift.
func (t *RepoTracker) RefreshFromServer(u *User) {
	t.LoadFromProfile(u)
}

// Toggle flips the repo's selection locally first — the UI shows the new
// state before the network resolves — then tells the backend the desired
// value. Returns whether the repo was known.
func (t *RepoTracker) Toggle(ctx context.Context, repoID int64) bool {
	t.mu.Lock()
	desired, found := false, false
	for i := range t.repos {
		if t.repos[i].ID == repoID {
			t.repos[i].Selected = !t.repos[i].Selected
			desired = t.repos[i].Selected
			found = true
			break
		}
	}
	t.mu.Unlock()
	if !found {
		return false
	}

	if err := t.api.ToggleRepo(ctx, t.auth.Token(), repoID, desired); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			t.auth.Clear()
		}
		// No rollback: the poller's next refresh reconciles.
		t.log.Warn().Err(err).Int64("repo_id", repoID).Bool("selected", desired).
			Msg("toggle failed, keeping optimistic state")
	}
	return true
}

func (t *RepoTracker) Repositories() []Repository {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Repository, len(t.repos))
	copy(out, t.repos)
	return out
}

// AnyPending reports whether some repository is selected but not yet
// indexed — the predicate the indexing poller runs on.
func (t *RepoTracker) AnyPending() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, r := range t.repos {
		if r.Pending() {
			return true
		}
	}
	return false
}
