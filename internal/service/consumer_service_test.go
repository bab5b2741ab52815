package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"spectra-chat/internal/constant"
	"spectra-chat/internal/dto"
	"spectra-chat/internal/entity"
	"spectra-chat/internal/repository/contract"
	"spectra-chat/internal/repository/specification"
	"spectra-chat/internal/repository/unitofwork"
	"spectra-chat/pkg/llm"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeTitleSessionRepo struct {
	session     *entity.ChatSession
	findErr     error
	updateCalls int
}

func (f *fakeTitleSessionRepo) Create(ctx context.Context, session *entity.ChatSession) error {
	return nil
}

func (f *fakeTitleSessionRepo) Update(ctx context.Context, session *entity.ChatSession) error {
	f.updateCalls++
	return nil
}

func (f *fakeTitleSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (f *fakeTitleSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.session, nil
}

func (f *fakeTitleSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	return nil, nil
}

func (f *fakeTitleSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}

type fakeTitleMessageRepo struct {
	messages []*entity.ChatMessage
}

func (f *fakeTitleMessageRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	return nil
}

func (f *fakeTitleMessageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (f *fakeTitleMessageRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error) {
	return nil, nil
}

func (f *fakeTitleMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	return f.messages, nil
}

func (f *fakeTitleMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}

type fakeTitleUow struct {
	sessions *fakeTitleSessionRepo
	messages *fakeTitleMessageRepo
}

func (f *fakeTitleUow) Begin(ctx context.Context) error { return nil }
func (f *fakeTitleUow) Commit() error                   { return nil }
func (f *fakeTitleUow) Rollback() error                 { return nil }

func (f *fakeTitleUow) UserRepository() contract.UserRepository { return nil }

func (f *fakeTitleUow) ChatSessionRepository() contract.ChatSessionRepository { return f.sessions }

func (f *fakeTitleUow) ChatMessageRepository() contract.ChatMessageRepository { return f.messages }

func (f *fakeTitleUow) AnswerSourceRepository() contract.AnswerSourceRepository { return nil }

type fakeTitleFactory struct {
	uow *fakeTitleUow
}

func (f *fakeTitleFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type fakeTitleLLM struct {
	title         string
	err           error
	generateCalls int
}

func (f *fakeTitleLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", nil
}

func (f *fakeTitleLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.generateCalls++
	if f.err != nil {
		return "", f.err
	}
	return f.title, nil
}

func titleMessage(t *testing.T, sessionId uuid.UUID) *message.Message {
	t.Helper()
	payload, err := json.Marshal(dto.GenerateTitleMessage{ChatSessionId: sessionId})
	assert.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), payload)
}

func defaultTitledSession() *entity.ChatSession {
	return &entity.ChatSession{
		Id:     uuid.New(),
		UserId: uuid.New(),
		Title:  constant.DefaultSessionTitle,
	}
}

func firstExchange(sessionId uuid.UUID) []*entity.ChatMessage {
	return []*entity.ChatMessage{
		{Id: uuid.New(), ChatSessionId: sessionId, Role: constant.ChatMessageRoleUser, Content: "what is the capital of France?"},
		{Id: uuid.New(), ChatSessionId: sessionId, Role: constant.ChatMessageRoleAssistant, Content: "The capital of France is Paris."},
	}
}

func newTitleConsumer(sessions *fakeTitleSessionRepo, messages *fakeTitleMessageRepo, provider *fakeTitleLLM) *consumerService {
	return &consumerService{
		topicName:   "generate_title",
		uowFactory:  &fakeTitleFactory{uow: &fakeTitleUow{sessions: sessions, messages: messages}},
		llmProvider: provider,
	}
}

func assertNacked(t *testing.T, msg *message.Message) {
	t.Helper()
	select {
	case <-msg.Nacked():
	default:
		t.Fatal("expected message to be nacked")
	}
}

func assertAcked(t *testing.T, msg *message.Message) {
	t.Helper()
	select {
	case <-msg.Acked():
	default:
		t.Fatal("expected message to be acked")
	}
}

func TestProcessMessageGenerationFailureKeepsDefaultTitle(t *testing.T) {
	session := defaultTitledSession()
	sessions := &fakeTitleSessionRepo{session: session}
	messages := &fakeTitleMessageRepo{messages: firstExchange(session.Id)}
	provider := &fakeTitleLLM{err: errors.New("model unavailable")}

	cs := newTitleConsumer(sessions, messages, provider)
	msg := titleMessage(t, session.Id)
	cs.processMessage(context.Background(), msg)

	assert.Equal(t, constant.DefaultSessionTitle, session.Title)
	assert.Equal(t, 0, sessions.updateCalls)
	assertNacked(t, msg)
}

func TestProcessMessageKeepsUserRenamedTitle(t *testing.T) {
	session := defaultTitledSession()
	session.Title = "Paris itinerary"
	sessions := &fakeTitleSessionRepo{session: session}
	messages := &fakeTitleMessageRepo{messages: firstExchange(session.Id)}
	provider := &fakeTitleLLM{title: "French Capitals"}

	cs := newTitleConsumer(sessions, messages, provider)
	msg := titleMessage(t, session.Id)
	cs.processMessage(context.Background(), msg)

	assert.Equal(t, "Paris itinerary", session.Title)
	assert.Equal(t, 0, provider.generateCalls)
	assert.Equal(t, 0, sessions.updateCalls)
	assertAcked(t, msg)
}

func TestProcessMessageUpdatesTitleOnSuccess(t *testing.T) {
	session := defaultTitledSession()
	sessions := &fakeTitleSessionRepo{session: session}
	messages := &fakeTitleMessageRepo{messages: firstExchange(session.Id)}
	provider := &fakeTitleLLM{title: "  \"French Capitals\"  "}

	cs := newTitleConsumer(sessions, messages, provider)
	msg := titleMessage(t, session.Id)
	cs.processMessage(context.Background(), msg)

	assert.Equal(t, "French Capitals", session.Title)
	assert.Equal(t, 1, sessions.updateCalls)
	assertAcked(t, msg)
}

func TestProcessMessageInvalidPayloadAcked(t *testing.T) {
	sessions := &fakeTitleSessionRepo{}
	provider := &fakeTitleLLM{}

	cs := newTitleConsumer(sessions, &fakeTitleMessageRepo{}, provider)
	msg := message.NewMessage(watermill.NewUUID(), []byte("not json"))
	cs.processMessage(context.Background(), msg)

	assert.Equal(t, 0, provider.generateCalls)
	assert.Equal(t, 0, sessions.updateCalls)
	assertAcked(t, msg)
}

func TestProcessMessageSessionLookupFailureNacked(t *testing.T) {
	sessions := &fakeTitleSessionRepo{findErr: errors.New("connection refused")}
	provider := &fakeTitleLLM{}

	cs := newTitleConsumer(sessions, &fakeTitleMessageRepo{}, provider)
	msg := titleMessage(t, uuid.New())
	cs.processMessage(context.Background(), msg)

	assert.Equal(t, 0, provider.generateCalls)
	assertNacked(t, msg)
}

func TestProcessMessageMissingSessionAcked(t *testing.T) {
	sessions := &fakeTitleSessionRepo{}
	provider := &fakeTitleLLM{title: "unused"}

	cs := newTitleConsumer(sessions, &fakeTitleMessageRepo{}, provider)
	msg := titleMessage(t, uuid.New())
	cs.processMessage(context.Background(), msg)

	assert.Equal(t, 0, provider.generateCalls)
	assert.Equal(t, 0, sessions.updateCalls)
	assertAcked(t, msg)
}
