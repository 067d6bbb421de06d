package app

import (
	"context"
	"errors"
)

// First-run setup: a fresh account has needs_setup set until the user
// picks an initial batch of repositories to index.

// ListGitHubRepos fetches the candidate repositories from the user's
// GitHub account, via the backend so its stored OAuth grant is used.
func (a *Application) ListGitHubRepos(ctx context.Context) ([]GitHubRepo, error) {
	repos, err := a.Client.ListGitHubRepos(ctx, a.Auth.Token())
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			a.Auth.Clear()
		}
		return nil, err
	}
	return repos, nil
}

// CompleteSetup submits the initial selection. On success the needs_setup
// flag clears and the profile is reloaded so the tracker sees the newly
// registered repositories (all pending, which starts the poller).
func (a *Application) CompleteSetup(ctx context.Context, fullNames []string) error {
	if err := a.Client.CompleteSetup(ctx, a.Auth.Token(), fullNames); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			a.Auth.Clear()
		}
		return err
	}

	a.mu.Lock()
	if a.user != nil {
		a.user.NeedsSetup = false
	}
	a.mu.Unlock()

	a.refreshRepositories(ctx)
	a.Poller.Sync()
	return nil
}
