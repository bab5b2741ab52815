// Package chatclient implements the client side of the chat application:
// a backend API client, persistent profile storage, sign-in session
// reconciliation, and the chat view state machine.
package chatclient

import (
	"context"
	"time"
)

// Principal is the signed-in identity as reported by the OAuth provider.
type Principal struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// User is the backend's record for a registered identity.
type User struct {
	Id        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is one conversation thread.
type Session struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is one turn in a session.
type Message struct {
	Id        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Sources   []Source  `json:"sources,omitempty"`
}

// Source is one citation attached to an assistant message.
type Source struct {
	Title *string  `json:"title,omitempty"`
	URL   *string  `json:"url,omitempty"`
	Score *float64 `json:"score,omitempty"`
}

// Answer is a synthesized response for a query.
type Answer struct {
	Query       string   `json:"query"`
	FinalAnswer string   `json:"final_answer"`
	Sources     []Source `json:"sources"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Backend is the chat API surface the client depends on.
type Backend interface {
	// RegisterUser upserts by email and is safe to call repeatedly.
	RegisterUser(ctx context.Context, email, name string) (*User, error)
	// ListSessions returns the user's sessions most recent first. An
	// unknown email yields an empty list, not an error.
	ListSessions(ctx context.Context, email string) ([]Session, error)
	CreateSession(ctx context.Context, email, title string) (*Session, error)
	// StoreMessage appends a turn. Sources are only meaningful for
	// assistant turns.
	StoreMessage(ctx context.Context, sessionId, role, content string, sources []Source) error
	// ListMessages returns a session's messages in creation order.
	ListMessages(ctx context.Context, sessionId string) ([]Message, error)
	Synthesize(ctx context.Context, query string) (*Answer, error)
}
