package contract

import (
	"context"

	"spectra-chat/internal/entity"

	"github.com/google/uuid"
)

type AnswerSourceRepository interface {
	CreateBatch(ctx context.Context, sources []*entity.AnswerSource) error
	FindByMessageIds(ctx context.Context, messageIds []uuid.UUID) ([]*entity.AnswerSource, error)
}
