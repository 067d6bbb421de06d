package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ConvState names where the active conversation sits relative to the
// server: nothing yet, local-only draft, or bound to a persisted session.
type ConvState int

const (
	StateEmpty ConvState = iota
	StateDrafting
	StateBound
)

const (
	greetingFormat      = "New chat started. What do you want to explore in your code today, %s?"
	fallbackUnreachable = "⚠️ Unable to reach backend. Please try again."
	fallbackNoAnswer    = "No answer returned."
)

// Conversation is the active chat: session identity (possibly unsaved),
// the append-only message log, and the in-flight send flag. The log may
// run ahead of the server (optimistic user messages, fallback assistant
// messages); opening a session replaces it wholesale with server truth.
//
// Failures never escape as errors from the send path: they become
// conversation content.
type Conversation struct {
	mu   sync.Mutex
	api  API
	auth *TokenStore
	dir  *Directory
	log  zerolog.Logger
	now  func() time.Time

	messages  []Message
	sessionID int64
	sending   bool
}

func NewConversation(api API, auth *TokenStore, dir *Directory, logger zerolog.Logger) *Conversation {
	return &Conversation{
		api:  api,
		auth: auth,
		dir:  dir,
		log:  logger,
		now:  time.Now,
	}
}

func (c *Conversation) State() ConvState {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.sessionID != 0:
		return StateBound
	case len(c.messages) > 0:
		return StateDrafting
	default:
		return StateEmpty
	}
}

// CurrentSessionID returns the bound session id; ok is false while the
// conversation has never been persisted remotely.
func (c *Conversation) CurrentSessionID() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID, c.sessionID != 0
}

func (c *Conversation) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// StartNewChat clears the log, seeds the greeting, and drops the session
// binding. The session is created server-side implicitly by the first
// send. An in-flight send is deliberately left alone: its response will
// append to whatever log is active when it lands.
func (c *Conversation) StartNewChat(u *User) {
	name := ""
	if u != nil {
		name = u.Username
	}
	c.mu.Lock()
	c.messages = []Message{{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   fmt.Sprintf(greetingFormat, name),
		Timestamp: c.now(),
	}}
	c.sessionID = 0
	c.mu.Unlock()
}

// StartNamedChat creates a session explicitly, records it in the
// directory, and opens it with the greeting. On failure nothing changes.
func (c *Conversation) StartNamedChat(ctx context.Context, title string, u *User) error {
	s, err := c.api.CreateSession(ctx, c.auth.Token(), title)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			c.auth.Clear()
		}
		c.log.Warn().Err(err).Msg("create session failed")
		return err
	}

	name := ""
	if u != nil {
		name = u.Username
	}
	c.mu.Lock()
	c.messages = []Message{{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   fmt.Sprintf(greetingFormat, name),
		Timestamp: c.now(),
	}}
	c.sessionID = s.ID
	c.mu.Unlock()

	c.dir.RecordNewSession(*s)
	return nil
}

// OpenSession loads a persisted session and replaces the log wholesale
// with the server's transcript: no merging with prior optimistic state.
// On failure the conversation is left exactly as it was.
func (c *Conversation) OpenSession(ctx context.Context, id int64) error {
	detail, err := c.api.SessionDetail(ctx, c.auth.Token(), id)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			c.auth.Clear()
		}
		c.log.Warn().Err(err).Int64("session_id", id).Msg("open session failed")
		return err
	}

	msgs := make([]Message, 0, len(detail.Messages))
	for _, m := range detail.Messages {
		msgs = append(msgs, Message{
			ID:        uuid.NewString(),
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: parseWireTime(m.CreatedAt),
		})
	}

	c.mu.Lock()
	c.messages = msgs
	c.sessionID = detail.ID
	c.mu.Unlock()
	return nil
}

// Send submits one question. Empty input and concurrent sends are
// rejected outright (single-flight: a second send is refused, not
// queued). Accepted sends append the user message immediately — that
// optimistic write is permanent even if the network call fails — then
// block through the network call and append exactly one assistant
// message: the answer, or a fallback literal that stays in the log.
//
// Returns whether the send was accepted.
func (c *Conversation) Send(ctx context.Context, text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		c.log.Debug().Msg("send rejected: one already in flight")
		return false
	}
	c.sending = true
	c.messages = append(c.messages, Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   text,
		Timestamp: c.now(),
	})
	sessionID := c.sessionID
	c.mu.Unlock()

	res, err := c.api.SendMessage(ctx, c.auth.Token(), text, sessionID)

	adopted := false
	c.mu.Lock()
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			c.auth.Clear()
		}
		c.log.Warn().Err(err).Msg("send failed")
		c.messages = append(c.messages, Message{
			ID:        uuid.NewString(),
			Role:      RoleAssistant,
			Content:   fallbackUnreachable,
			Timestamp: c.now(),
		})
	} else {
		// The binding check uses the session id as it is *now*, not the
		// one captured before the call: a session switched mid-flight
		// must not be rebound by a stale response.
		if res.SessionID != 0 && c.sessionID == 0 {
			c.sessionID = res.SessionID
			adopted = true
		}
		answer := res.Answer
		if answer == "" {
			answer = fallbackNoAnswer
		}
		c.messages = append(c.messages, Message{
			ID:        uuid.NewString(),
			Role:      RoleAssistant,
			Content:   answer,
			Timestamp: c.now(),
		})
	}
	c.sending = false
	c.mu.Unlock()

	if adopted {
		// A session was created server-side as a side effect of the
		// send; let the directory catch up.
		c.dir.Refresh(ctx)
	}
	return true
}
