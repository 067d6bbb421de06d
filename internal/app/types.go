package app

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// User is the authenticated identity returned by /me. The embedded
// repository list is present when the profile endpoint is asked for the
// full dashboard payload.
type User struct {
	ID           int64        `json:"id"`
	Username     string       `json:"username"`
	AvatarURL    string       `json:"avatar"`
	NeedsSetup   bool         `json:"needs_setup"`
	Repositories []Repository `json:"repositories,omitempty"`
}

// Session is a server-persisted conversation thread. ID is authoritative
// only once the backend has assigned it; an unsaved draft has no Session
// at all. Timestamps stay in wire form, the directory only displays them.
type Session struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
	Preview   string `json:"preview,omitempty"`
}

// Message is one entry in the conversation log. Entries are append-only:
// never edited, never deleted, never reordered.
type Message struct {
	ID        string
	Role      string
	Content   string
	Timestamp time.Time
}

// Repository tracks one repo the user can opt into indexing. Selected is
// user intent; Indexed is a remote fact and only an authoritative refresh
// may change it.
type Repository struct {
	ID            int64  `json:"id"`
	GitHubRepoID  int64  `json:"github_repo_id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Indexed       bool   `json:"indexed"`
	LastIndexedAt string `json:"last_indexed,omitempty"`
	Selected      bool   `json:"selected"`
}

// Pending reports whether the repo is waiting on remote indexing.
func (r Repository) Pending() bool {
	return r.Selected && !r.Indexed
}

// GitHubRepo is an entry from the user's GitHub account, offered during
// first-run setup before the backend knows about it.
type GitHubRepo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Private     bool   `json:"private"`
	Description string `json:"description,omitempty"`
}

// SessionDetail is the full transcript returned by the detail endpoint.
type SessionDetail struct {
	ID       int64         `json:"id"`
	Title    string        `json:"title"`
	Messages []WireMessage `json:"messages"`
}

// WireMessage is a stored message as the backend serializes it.
type WireMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at,omitempty"`
}

// QueryResult is the answer to one question. SessionID echoes the bound
// session, or carries the id of a session the backend created implicitly
// for an unbound send.
type QueryResult struct {
	Answer    string `json:"answer"`
	SessionID int64  `json:"session_id"`
}

// parseWireTime accepts the timestamp formats the backend emits. A zero
// time is returned when the field is absent or unparseable; display code
// treats that as "no timestamp".
func parseWireTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
