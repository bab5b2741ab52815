package implementation

import (
	"context"

	"spectra-chat/internal/entity"
	"spectra-chat/internal/mapper"
	"spectra-chat/internal/model"
	"spectra-chat/internal/repository/contract"
	"spectra-chat/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AnswerSourceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewAnswerSourceRepository(db *gorm.DB) contract.AnswerSourceRepository {
	return &AnswerSourceRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *AnswerSourceRepositoryImpl) CreateBatch(ctx context.Context, sources []*entity.AnswerSource) error {
	if len(sources) == 0 {
		return nil
	}
	models := make([]*model.AnswerSource, len(sources))
	for i, s := range sources {
		models[i] = r.mapper.AnswerSourceToModel(s)
	}
	return r.db.WithContext(ctx).Create(models).Error
}

func (r *AnswerSourceRepositoryImpl) FindByMessageIds(ctx context.Context, messageIds []uuid.UUID) ([]*entity.AnswerSource, error) {
	if len(messageIds) == 0 {
		return []*entity.AnswerSource{}, nil
	}

	var models []*model.AnswerSource
	query := specification.ByChatMessageIDs{ChatMessageIDs: messageIds}.Apply(r.db.WithContext(ctx))
	err := query.
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	entities := make([]*entity.AnswerSource, len(models))
	for i, m := range models {
		entities[i] = r.mapper.AnswerSourceToEntity(m)
	}
	return entities, nil
}
