package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(srv.URL, 5*time.Second, zerolog.Nop())
}

func TestClient_AttachesBearerAndJSONHeaders(t *testing.T) {
	var gotAuth, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewEncoder(w).Encode(User{ID: 1, Username: "ava"})
	}))
	defer srv.Close()

	u, err := newTestClient(srv).Profile(context.Background(), "tok-123")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "ava", u.Username)
}

func TestClient_ProfileParsesRepositories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": 7, "username": "ava", "avatar": "https://a.png", "needs_setup": false,
			"repositories": [
				{"id": 1, "github_repo_id": 555, "name": "payments", "full_name": "ava/payments",
				 "indexed": false, "selected": true}
			]
		}`))
	}))
	defer srv.Close()

	u, err := newTestClient(srv).Profile(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, u.Repositories, 1)
	assert.Equal(t, "ava/payments", u.Repositories[0].FullName)
	assert.True(t, u.Repositories[0].Pending())
}

func TestClient_UnauthorizedIsDistinguished(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	c := newTestClient(srv)

	_, err := c.Profile(context.Background(), "expired")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrUnavailable)

	_, err = c.ListSessions(context.Background(), "expired")
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = c.ToggleRepo(context.Background(), "expired", 1, true)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_ServerRejectionIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).SendMessage(context.Background(), "tok", "q", 0)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestClient_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening

	_, err := newTestClient(srv).ListSessions(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_SendMessageBody(t *testing.T) {
	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/query", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		_, _ = w.Write([]byte(`{"answer": "ok", "session_id": 42}`))
	}))
	defer srv.Close()
	c := newTestClient(srv)

	res, err := c.SendMessage(context.Background(), "tok", "first question", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(42), res.SessionID)

	_, err = c.SendMessage(context.Background(), "tok", "second question", 42)
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.Equal(t, "first question", bodies[0]["question"])
	_, hasID := bodies[0]["session_id"]
	assert.False(t, hasID, "unbound sends omit session_id")
	assert.Equal(t, float64(42), bodies[1]["session_id"])
}

func TestClient_ToggleRepoBody(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/toggle", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, newTestClient(srv).ToggleRepo(context.Background(), "tok", 9, true))
	assert.Equal(t, float64(9), body["repository_id"])
	assert.Equal(t, true, body["selected"])
}

func TestClient_SessionDetailPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/sessions/17", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": 17, "title": "t", "messages": [
			{"role": "user", "content": "q", "created_at": "2026-08-30T10:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	detail, err := newTestClient(srv).SessionDetail(context.Background(), "tok", 17)
	require.NoError(t, err)
	assert.Equal(t, int64(17), detail.ID)
	require.Len(t, detail.Messages, 1)
	assert.Equal(t, "q", detail.Messages[0].Content)
}

func TestClient_CompleteSetupBody(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/setup/complete", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newTestClient(srv).CompleteSetup(context.Background(), "tok", []string{"ava/payments", "ava/web"})
	require.NoError(t, err)
	assert.Equal(t, []any{"ava/payments", "ava/web"}, body["repositories"])
}

func TestClient_NoRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).ListSessions(context.Background(), "tok")
	require.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, 1, calls, "retry policy belongs to callers, not the transport")
}
