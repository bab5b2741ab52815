package chatclient

import (
	"context"
	"errors"
	"fmt"
)

// ErrBusy is returned when a submit arrives while a previous one is
// still outstanding or initialization is in progress.
var ErrBusy = errors.New("a request is already in progress")

// View is the chat view state: the active session, its message list, and
// the two independent busy flags. It is not safe for concurrent use; all
// methods are expected to run on the UI's event loop.
type View struct {
	backend    Backend
	reconciler *Reconciler

	user     *User
	session  *Session
	messages []Message

	initializing     bool
	awaitingResponse bool

	// Warning holds the last non-fatal problem, e.g. history that could
	// not be loaded. Cleared on the next successful initialization.
	Warning error
}

func NewView(backend Backend, store ProfileStore) *View {
	return &View{
		backend:    backend,
		reconciler: NewReconciler(backend, store),
		messages:   []Message{},
	}
}

func (v *View) Session() *Session      { return v.session }
func (v *View) User() *User            { return v.user }
func (v *View) Messages() []Message    { return v.messages }
func (v *View) Initializing() bool     { return v.initializing }
func (v *View) AwaitingResponse() bool { return v.awaitingResponse }

// InputDisabled reports whether the input form accepts a submit.
func (v *View) InputDisabled() bool {
	return v.initializing || v.awaitingResponse
}

// Initialize runs sign-in reconciliation and populates the view. On
// failure the view is left signed out with no active session.
func (v *View) Initialize(ctx context.Context, principal *Principal) error {
	if v.awaitingResponse {
		return ErrBusy
	}

	v.initializing = true
	defer func() { v.initializing = false }()

	result, err := v.reconciler.Reconcile(ctx, principal)
	if err != nil {
		v.user = nil
		v.session = nil
		v.messages = []Message{}
		return err
	}
	if result == nil {
		// Signed out.
		v.user = nil
		v.session = nil
		v.messages = []Message{}
		v.Warning = nil
		return nil
	}

	v.user = result.User
	v.session = result.Session
	v.messages = result.Messages
	v.Warning = result.HydrationErr
	return nil
}

// SignOut clears the view and the persisted local state.
func (v *View) SignOut() error {
	v.user = nil
	v.session = nil
	v.messages = []Message{}
	v.Warning = nil
	return v.reconciler.SignOut()
}

// Send persists the user's turn, synthesizes an answer, and persists the
// assistant's turn. The steps are not transactional: once the user turn
// is stored it stays in the view even if synthesis fails, and the caller
// may resend.
func (v *View) Send(ctx context.Context, content string) (*Answer, error) {
	if v.InputDisabled() {
		return nil, ErrBusy
	}
	if v.session == nil {
		return nil, errors.New("no active session")
	}

	v.awaitingResponse = true
	defer func() { v.awaitingResponse = false }()

	if err := v.backend.StoreMessage(ctx, v.session.Id, RoleUser, content, nil); err != nil {
		return nil, fmt.Errorf("store user message: %w", err)
	}
	v.messages = append(v.messages, Message{
		Role:    RoleUser,
		Content: content,
	})

	answer, err := v.backend.Synthesize(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}

	if err := v.backend.StoreMessage(ctx, v.session.Id, RoleAssistant, answer.FinalAnswer, answer.Sources); err != nil {
		return nil, fmt.Errorf("store assistant message: %w", err)
	}
	v.messages = append(v.messages, Message{
		Role:    RoleAssistant,
		Content: answer.FinalAnswer,
		Sources: answer.Sources,
	})

	return answer, nil
}
