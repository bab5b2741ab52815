package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AnswerSource struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatMessageId uuid.UUID      `gorm:"type:uuid;not null;index"`
	Title         *string        `gorm:"type:text"`
	URL           *string        `gorm:"type:text"`
	Score         *float64       `gorm:"type:double precision"`
	Raw           datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`

	// Relationships
	ChatMessage *ChatMessage `gorm:"foreignKey:ChatMessageId;references:Id;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (AnswerSource) TableName() string {
	return "answer_sources"
}
