package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"spectra-chat/internal/constant"
	"spectra-chat/internal/dto"
	"spectra-chat/internal/repository/specification"
	"spectra-chat/internal/repository/unitofwork"
	"spectra-chat/pkg/llm"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService generates session titles in the background once a
// session has its first full exchange.
type consumerService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	uowFactory  unitofwork.RepositoryFactory
	llmProvider llm.LLMProvider
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
) IConsumerService {
	return &consumerService{
		pubSub:      pubSub,
		topicName:   topicName,
		uowFactory:  uowFactory,
		llmProvider: llmProvider,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.GenerateTitleMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Generating title for session: %s", payload.ChatSessionId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: payload.ChatSessionId})
	if err != nil {
		log.Printf("[ERROR] Failed to get session %s: %v", payload.ChatSessionId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if session == nil {
		log.Printf("[ERROR] Session not found: %s", payload.ChatSessionId)
		msg.Ack() // Session deleted? Ack.
		return
	}
	if session.Title != constant.DefaultSessionTitle {
		// The user already renamed it, keep their title.
		msg.Ack()
		return
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: payload.ChatSessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
		specification.Pagination{Limit: 4},
	)
	if err != nil {
		log.Printf("[ERROR] Failed to get messages for session %s: %v", payload.ChatSessionId, err)
		msg.Nack()
		return
	}
	if len(messages) == 0 {
		msg.Ack()
		return
	}

	var sb strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
	}

	prompt := fmt.Sprintf(constant.TitlePromptV1, sb.String())
	title, err := cs.llmProvider.Generate(ctx, prompt)
	if err != nil {
		log.Printf("[ERROR] Failed to generate title for session %s: %v", payload.ChatSessionId, err)
		msg.Nack()
		return
	}

	title = strings.Trim(strings.TrimSpace(title), `"`)
	if title == "" {
		msg.Ack()
		return
	}

	session.Title = title
	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		log.Printf("[ERROR] Failed to update session title %s: %v", payload.ChatSessionId, err)
		msg.Nack()
		return
	}

	log.Printf("[SUCCESS] Session %s titled: %s", payload.ChatSessionId, title)
	msg.Ack()
}
