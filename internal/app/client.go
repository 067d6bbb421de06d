package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrUnauthorized means the credential was rejected. Fatal to the
	// session: callers must discard the token, never retry.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnavailable covers transport failures and non-2xx responses.
	// Recoverable: callers degrade to their documented fallback.
	ErrUnavailable = errors.New("backend unavailable")
)

// API is the remote boundary the stateful components talk through. The
// semantic search and answering behind it is opaque to this client.
type API interface {
	Profile(ctx context.Context, token string) (*User, error)
	ListSessions(ctx context.Context, token string) ([]Session, error)
	SessionDetail(ctx context.Context, token string, id int64) (*SessionDetail, error)
	CreateSession(ctx context.Context, token, title string) (*Session, error)
	SendMessage(ctx context.Context, token, question string, sessionID int64) (*QueryResult, error)
	ToggleRepo(ctx context.Context, token string, repoID int64, selected bool) error
	ListGitHubRepos(ctx context.Context, token string) ([]GitHubRepo, error)
	CompleteSetup(ctx context.Context, token string, fullNames []string) error
}

// Client is the stateless HTTP implementation of API. One method per
// remote operation, bearer + JSON headers on every call, no retries;
// retry policy belongs to callers.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	log     zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
		log:     logger,
	}
}

func (c *Client) Profile(ctx context.Context, token string) (*User, error) {
	var u User
	if err := c.do(ctx, token, http.MethodGet, "/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListSessions(ctx context.Context, token string) ([]Session, error) {
	var sessions []Session
	if err := c.do(ctx, token, http.MethodGet, "/chat/sessions", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *Client) SessionDetail(ctx context.Context, token string, id int64) (*SessionDetail, error) {
	var detail SessionDetail
	path := fmt.Sprintf("/chat/sessions/%d", id)
	if err := c.do(ctx, token, http.MethodGet, path, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *Client) CreateSession(ctx context.Context, token, title string) (*Session, error) {
	body := struct {
		Title *string `json:"title"`
	}{}
	if title != "" {
		body.Title = &title
	}
	var s Session
	if err := c.do(ctx, token, http.MethodPost, "/chat/session", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) SendMessage(ctx context.Context, token, question string, sessionID int64) (*QueryResult, error) {
	body := struct {
		Question  string `json:"question"`
		SessionID *int64 `json:"session_id,omitempty"`
	}{Question: question}
	if sessionID != 0 {
		body.SessionID = &sessionID
	}
	var res QueryResult
	if err := c.do(ctx, token, http.MethodPost, "/chat/query", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ToggleRepo(ctx context.Context, token string, repoID int64, selected bool) error {
	body := struct {
		RepositoryID int64 `json:"repository_id"`
		Selected     bool  `json:"selected"`
	}{RepositoryID: repoID, Selected: selected}
	return c.do(ctx, token, http.MethodPost, "/repos/toggle", body, nil)
}

func (c *Client) ListGitHubRepos(ctx context.Context, token string) ([]GitHubRepo, error) {
	var repos []GitHubRepo
	if err := c.do(ctx, token, http.MethodGet, "/repos/github", nil, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

func (c *Client) CompleteSetup(ctx context.Context, token string, fullNames []string) error {
	body := struct {
		Repositories []string `json:"repositories"`
	}{Repositories: fullNames}
	return c.do(ctx, token, http.MethodPost, "/setup/complete", body, nil)
}

// do runs one request/response cycle. A 401 maps to ErrUnauthorized so
// callers can tell "credential invalid" apart from a flaky backend; any
// other non-2xx maps to ErrUnavailable with the body logged, not parsed.
func (c *Client) do(ctx context.Context, token, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, payload)
	if err != nil {
		return err
	}
	request.Header.Set("Authorization", "Bearer "+token)
	request.Header.Set("Content-Type", "application/json")

	reqID := uuid.NewString()
	start := time.Now()
	resp, err := c.HTTP.Do(request)
	if err != nil {
		c.log.Warn().Str("req_id", reqID).Str("method", method).Str("path", path).
			Err(err).Msg("request failed")
		return fmt.Errorf("%s %s: %w", method, path, errors.Join(ErrUnavailable, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, errors.Join(ErrUnavailable, err))
	}

	c.log.Debug().Str("req_id", reqID).Str("method", method).Str("path", path).
		Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("request done")

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	case resp.StatusCode >= 300:
		c.log.Warn().Str("req_id", reqID).Str("path", path).Int("status", resp.StatusCode).
			Str("body", string(respBody)).Msg("server rejected request")
		return fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, ErrUnavailable)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, errors.Join(ErrUnavailable, err))
	}
	return nil
}
