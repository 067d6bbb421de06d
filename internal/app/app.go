package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Application wires the components together. The presentation layer reads
// state from here; components never call each other except through the
// wiring below.
type Application struct {
	Config       Config
	Logger       zerolog.Logger
	Auth         *TokenStore
	Client       API
	Directory    *Directory
	Conversation *Conversation
	Repos        *RepoTracker
	Poller       *Poller

	mu   sync.RWMutex
	user *User
}

func NewApplication(cfg Config) *Application {
	logger := NewLogger(cfg)
	auth := NewTokenStore(DefaultTokenPath(), logger)
	client := NewClient(cfg.BaseURL, time.Duration(cfg.RequestTimeoutSeconds)*time.Second, logger)
	return newApplication(cfg, logger, auth, client)
}

// newApplication takes the API and auth store explicitly so tests can
// substitute a scripted backend.
func newApplication(cfg Config, logger zerolog.Logger, auth *TokenStore, client API) *Application {
	dir := NewDirectory(client, auth, logger)
	conv := NewConversation(client, auth, dir, logger)
	repos := NewRepoTracker(client, auth, logger)

	a := &Application{
		Config:       cfg,
		Logger:       logger,
		Auth:         auth,
		Client:       client,
		Directory:    dir,
		Conversation: conv,
		Repos:        repos,
	}
	a.Poller = NewPoller(
		time.Duration(cfg.PollIntervalSeconds)*time.Second,
		repos.AnyPending,
		a.refreshRepositories,
		logger,
	)
	return a
}

// LoadProfile fetches /me, seeds the repository tracker, and kicks the
// poller. This is the one read whose failure is page-fatal: the caller
// shows an error state (or the login screen on ErrUnauthorized) instead
// of a dashboard.
func (a *Application) LoadProfile(ctx context.Context) error {
	u, err := a.Client.Profile(ctx, a.Auth.Token())
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			a.Auth.Clear()
		}
		return err
	}

	a.mu.Lock()
	a.user = u
	a.mu.Unlock()

	a.Repos.LoadFromProfile(u)
	a.Poller.Sync()
	return nil
}

func (a *Application) User() *User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user
}

// refreshRepositories is the poller's reload: a full profile fetch
// followed by a wholesale tracker replace. Read failures are silent — the
// next tick tries again — except a 401, which tears the session down.
func (a *Application) refreshRepositories(ctx context.Context) {
	u, err := a.Client.Profile(ctx, a.Auth.Token())
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			a.Auth.Clear()
		}
		a.Logger.Warn().Err(err).Msg("repository refresh failed")
		return
	}

	a.mu.Lock()
	a.user = u
	a.mu.Unlock()

	a.Repos.RefreshFromServer(u)
}

// ToggleRepo is the user-facing toggle: optimistic flip plus a poller
// sync, since selecting an unindexed repo re-enters the pending state.
func (a *Application) ToggleRepo(ctx context.Context, repoID int64) bool {
	ok := a.Repos.Toggle(ctx, repoID)
	a.Poller.Sync()
	return ok
}

// Logout discards the credential and stops background work.
func (a *Application) Logout() {
	a.Poller.Stop()
	a.Auth.Clear()
	a.mu.Lock()
	a.user = nil
	a.mu.Unlock()
}
