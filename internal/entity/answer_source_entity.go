package entity

import (
	"time"

	"github.com/google/uuid"
)

// AnswerSource is one web source cited by a synthesized assistant message.
type AnswerSource struct {
	Id            uuid.UUID
	ChatMessageId uuid.UUID
	Title         *string
	URL           *string
	Score         *float64
	Raw           []byte // Provider payload as returned by the search API
	CreatedAt     time.Time
}
