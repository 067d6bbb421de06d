package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// apiStub is a scripted in-memory backend. Fields are read under the
// mutex so tests may adjust them between calls.
type apiStub struct {
	mu sync.Mutex

	profile    *User
	profileErr error

	sessions    []Session
	sessionsErr error

	details   map[int64]*SessionDetail
	detailErr error

	created   *Session
	createErr error

	query    *QueryResult
	queryErr error

	toggleErr error
	ghRepos   []GitHubRepo
	ghErr     error
	setupErr  error

	profileCalls int
	listCalls    int
	queryCalls   int
	toggleCalls  int

	sentQuestions  []string
	sentSessionIDs []int64
	toggledIDs     []int64
	toggledValues  []bool
	setupNames     []string

	// When set, SendMessage signals queryStarted then blocks on queryGate,
	// letting tests hold a send in flight. toggleStarted/toggleGate do the
	// same for ToggleRepo.
	queryStarted  chan struct{}
	queryGate     chan struct{}
	toggleStarted chan struct{}
	toggleGate    chan struct{}
}

func (s *apiStub) Profile(ctx context.Context, token string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profileCalls++
	if s.profileErr != nil {
		return nil, s.profileErr
	}
	if s.profile == nil {
		return &User{}, nil
	}
	u := *s.profile
	u.Repositories = append([]Repository(nil), s.profile.Repositories...)
	return &u, nil
}

func (s *apiStub) ListSessions(ctx context.Context, token string) ([]Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.sessionsErr != nil {
		return nil, s.sessionsErr
	}
	return append([]Session(nil), s.sessions...), nil
}

func (s *apiStub) SessionDetail(ctx context.Context, token string, id int64) (*SessionDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detailErr != nil {
		return nil, s.detailErr
	}
	if d, ok := s.details[id]; ok {
		return d, nil
	}
	return nil, ErrUnavailable
}

func (s *apiStub) CreateSession(ctx context.Context, token, title string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	if s.created != nil {
		return s.created, nil
	}
	return &Session{ID: 1, Title: title}, nil
}

func (s *apiStub) SendMessage(ctx context.Context, token, question string, sessionID int64) (*QueryResult, error) {
	s.mu.Lock()
	s.queryCalls++
	s.sentQuestions = append(s.sentQuestions, question)
	s.sentSessionIDs = append(s.sentSessionIDs, sessionID)
	started, gate := s.queryStarted, s.queryGate
	s.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	if s.query == nil {
		return &QueryResult{}, nil
	}
	res := *s.query
	return &res, nil
}

func (s *apiStub) ToggleRepo(ctx context.Context, token string, repoID int64, selected bool) error {
	s.mu.Lock()
	s.toggleCalls++
	s.toggledIDs = append(s.toggledIDs, repoID)
	s.toggledValues = append(s.toggledValues, selected)
	started, gate := s.toggleStarted, s.toggleGate
	s.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toggleErr
}

func (s *apiStub) ListGitHubRepos(ctx context.Context, token string) ([]GitHubRepo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ghErr != nil {
		return nil, s.ghErr
	}
	return append([]GitHubRepo(nil), s.ghRepos...), nil
}

func (s *apiStub) CompleteSetup(ctx context.Context, token string, fullNames []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setupNames = append([]string(nil), fullNames...)
	return s.setupErr
}

func (s *apiStub) counts() (profile, list, query, toggle int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profileCalls, s.listCalls, s.queryCalls, s.toggleCalls
}

func testAuth(t *testing.T) *TokenStore {
	t.Helper()
	t.Setenv("DEVMEM_TOKEN", "")
	store := NewTokenStore(filepath.Join(t.TempDir(), "token"), zerolog.Nop())
	if err := store.Set("test-token"); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	return store
}
