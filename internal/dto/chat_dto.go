package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	UserEmail string `json:"user_email" validate:"required,email"`
	Title     string `json:"title" validate:"omitempty,max=255"`
}

type SessionResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type CreateSessionResponse struct {
	User    UserResponse    `json:"user"`
	Session SessionResponse `json:"session"`
}

type GetSessionsResponse struct {
	UserId   uuid.UUID         `json:"user_id"`
	Sessions []SessionResponse `json:"sessions"`
}

type StoreMessageRequest struct {
	SessionId uuid.UUID   `json:"session_id" validate:"required"`
	Role      string      `json:"role" validate:"required,oneof=user assistant"`
	Content   string      `json:"content" validate:"required"`
	Sources   []SourceDTO `json:"sources,omitempty" validate:"omitempty,max=10"` // Assistant turns only
}

type StoreMessageResponse struct {
	Id        uuid.UUID `json:"id"`
	SessionId uuid.UUID `json:"session_id"`
	Role      string    `json:"role"`
}

type MessageResponse struct {
	Id        uuid.UUID   `json:"id"`
	Role      string      `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	Sources   []SourceDTO `json:"sources,omitempty"`
}

type GetMessagesResponse struct {
	SessionId    uuid.UUID         `json:"session_id"`
	MessageCount int               `json:"message_count"`
	Messages     []MessageResponse `json:"messages"`
}

// GenerateTitleMessage is the payload published after the first exchange
// of a session, consumed by the title generation worker.
type GenerateTitleMessage struct {
	ChatSessionId uuid.UUID `json:"chat_session_id"`
}
