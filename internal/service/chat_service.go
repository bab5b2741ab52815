package service

import (
	"context"
	"encoding/json"
	"time"

	"spectra-chat/internal/constant"
	"spectra-chat/internal/dto"
	"spectra-chat/internal/entity"
	"spectra-chat/internal/pkg/logger"
	"spectra-chat/internal/repository/specification"
	"spectra-chat/internal/repository/unitofwork"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatService interface {
	CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetSessionsByEmail(ctx context.Context, email string) (*dto.GetSessionsResponse, error)
	StoreMessage(ctx context.Context, req *dto.StoreMessageRequest) (*dto.StoreMessageResponse, error)
	GetMessages(ctx context.Context, sessionId uuid.UUID) (*dto.GetMessagesResponse, error)
}

type chatService struct {
	uowFactory       unitofwork.RepositoryFactory
	userService      IUserService
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	userService IUserService,
	publisherService IPublisherService,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:       uowFactory,
		userService:      userService,
		publisherService: publisherService,
		logger:           log,
	}
}

func (s *chatService) CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	user, err := s.userService.GetOrCreateByEmail(ctx, req.UserEmail, "")
	if err != nil {
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = constant.DefaultSessionTitle
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session := entity.ChatSession{
		Id:        uuid.New(),
		UserId:    user.Id,
		Title:     title,
		CreatedAt: time.Now(),
	}

	if err := uow.ChatSessionRepository().Create(ctx, &session); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{
		User:    *toUserResponse(user),
		Session: toSessionResponse(&session),
	}, nil
}

func (s *chatService) GetSessionsByEmail(ctx context.Context, email string) (*dto.GetSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Unknown email is not an error: the client treats it as "no sessions".
		return &dto.GetSessionsResponse{Sessions: []dto.SessionResponse{}}, nil
	}

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: user.Id},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := &dto.GetSessionsResponse{
		UserId:   user.Id,
		Sessions: make([]dto.SessionResponse, 0, len(sessions)),
	}
	for _, sess := range sessions {
		response.Sessions = append(response.Sessions, toSessionResponse(sess))
	}

	return response, nil
}

func (s *chatService) StoreMessage(ctx context.Context, req *dto.StoreMessageRequest) (*dto.StoreMessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: req.SessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "session not found")
	}

	now := time.Now()
	message := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: req.SessionId,
		Role:          req.Role,
		Content:       req.Content,
		CreatedAt:     now,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().Create(ctx, &message); err != nil {
		return nil, err
	}

	if len(req.Sources) > 0 && req.Role == constant.ChatMessageRoleAssistant {
		sources := make([]*entity.AnswerSource, 0, len(req.Sources))
		for _, src := range req.Sources {
			raw, _ := json.Marshal(src)
			sources = append(sources, &entity.AnswerSource{
				Id:            uuid.New(),
				ChatMessageId: message.Id,
				Title:         src.Title,
				URL:           src.URL,
				Score:         src.Score,
				Raw:           raw,
				CreatedAt:     now,
			})
		}
		if err := uow.AnswerSourceRepository().CreateBatch(ctx, sources); err != nil {
			return nil, err
		}
	}

	count, err := uow.ChatMessageRepository().Count(ctx,
		specification.ByChatSessionID{ChatSessionID: req.SessionId},
	)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	// First full exchange completes the default-titled session: hand title
	// generation to the background consumer.
	if count == 2 && session.Title == constant.DefaultSessionTitle && s.publisherService != nil {
		payload, _ := json.Marshal(dto.GenerateTitleMessage{ChatSessionId: req.SessionId})
		// Title generation is best effort, the message is already stored.
		if err := s.publisherService.Publish(ctx, payload); err != nil {
			s.logger.Warn("ChatService", "Failed to publish title event", map[string]interface{}{
				"session_id": req.SessionId.String(),
				"error":      err.Error(),
			})
		}
	}

	return &dto.StoreMessageResponse{
		Id:        message.Id,
		SessionId: message.ChatSessionId,
		Role:      message.Role,
	}, nil
}

func (s *chatService) GetMessages(ctx context.Context, sessionId uuid.UUID) (*dto.GetMessagesResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "session not found")
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	messageIds := make([]uuid.UUID, len(messages))
	for i, msg := range messages {
		messageIds[i] = msg.Id
	}

	sources, err := uow.AnswerSourceRepository().FindByMessageIds(ctx, messageIds)
	if err != nil {
		return nil, err
	}

	sourcesByMsgId := make(map[uuid.UUID][]dto.SourceDTO)
	for _, src := range sources {
		sourcesByMsgId[src.ChatMessageId] = append(sourcesByMsgId[src.ChatMessageId], dto.SourceDTO{
			Title: src.Title,
			URL:   src.URL,
			Score: src.Score,
		})
	}

	response := &dto.GetMessagesResponse{
		SessionId:    sessionId,
		MessageCount: len(messages),
		Messages:     make([]dto.MessageResponse, 0, len(messages)),
	}
	for _, msg := range messages {
		response.Messages = append(response.Messages, dto.MessageResponse{
			Id:        msg.Id,
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
			Sources:   sourcesByMsgId[msg.Id],
		})
	}

	return response, nil
}

func toSessionResponse(session *entity.ChatSession) dto.SessionResponse {
	return dto.SessionResponse{
		Id:        session.Id,
		Title:     session.Title,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}
}
