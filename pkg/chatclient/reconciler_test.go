package chatclient

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeBackend is an in-memory Backend for exercising the client without
// a running server.
type fakeBackend struct {
	users    map[string]*User
	sessions map[string][]Session // keyed by email, most recent first
	messages map[string][]Message // keyed by session id
	answers  map[string]*Answer   // keyed by query

	registerErr   error
	listErr       error
	createErr     error
	storeErr      error
	listMsgErr    error
	synthesizeErr error

	storeCalls []Message
	nextId     int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		users:    map[string]*User{},
		sessions: map[string][]Session{},
		messages: map[string][]Message{},
		answers:  map[string]*Answer{},
	}
}

func (f *fakeBackend) id(prefix string) string {
	f.nextId++
	return fmt.Sprintf("%s-%d", prefix, f.nextId)
}

func (f *fakeBackend) RegisterUser(ctx context.Context, email, name string) (*User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	u := &User{Id: f.id("user"), Email: email, FullName: name, CreatedAt: time.Now()}
	f.users[email] = u
	return u, nil
}

func (f *fakeBackend) ListSessions(ctx context.Context, email string) ([]Session, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.sessions[email], nil
}

func (f *fakeBackend) CreateSession(ctx context.Context, email, title string) (*Session, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, err := f.RegisterUser(ctx, email, ""); err != nil {
		return nil, err
	}
	s := Session{Id: f.id("session"), Title: title, CreatedAt: time.Now()}
	f.sessions[email] = append([]Session{s}, f.sessions[email]...)
	return &s, nil
}

func (f *fakeBackend) StoreMessage(ctx context.Context, sessionId, role, content string, sources []Source) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	msg := Message{Id: f.id("msg"), Role: role, Content: content, Sources: sources, CreatedAt: time.Now()}
	f.messages[sessionId] = append(f.messages[sessionId], msg)
	f.storeCalls = append(f.storeCalls, msg)
	return nil
}

func (f *fakeBackend) ListMessages(ctx context.Context, sessionId string) ([]Message, error) {
	if f.listMsgErr != nil {
		return nil, f.listMsgErr
	}
	return f.messages[sessionId], nil
}

func (f *fakeBackend) Synthesize(ctx context.Context, query string) (*Answer, error) {
	if f.synthesizeErr != nil {
		return nil, f.synthesizeErr
	}
	if a, ok := f.answers[query]; ok {
		return a, nil
	}
	return &Answer{Query: query, FinalAnswer: "answer to " + query}, nil
}

func TestReconcileFreshSignIn(t *testing.T) {
	backend := newFakeBackend()
	store := NewMemoryStore()
	r := NewReconciler(backend, store)

	result, err := r.Reconcile(context.Background(), &Principal{Email: "new@example.com", Name: "New User"})
	assert.NoError(t, err)
	assert.NotNil(t, result)

	// Exactly one session created with the default title and no history.
	assert.Equal(t, DefaultSessionTitle, result.Session.Title)
	assert.False(t, result.Hydrated)
	assert.Empty(t, result.Messages)
	assert.Len(t, backend.sessions["new@example.com"], 1)

	pointer, ok := store.ReadPointer()
	assert.True(t, ok)
	assert.Equal(t, result.Session.Id, pointer)
}

func TestReconcilePointerMatchesList(t *testing.T) {
	backend := newFakeBackend()
	backend.users["u@example.com"] = &User{Id: "user-1", Email: "u@example.com"}
	backend.sessions["u@example.com"] = []Session{{Id: "abc"}, {Id: "xyz"}}
	backend.messages["abc"] = []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	}

	store := NewMemoryStore()
	store.WritePointer("abc")

	r := NewReconciler(backend, store)
	result, err := r.Reconcile(context.Background(), &Principal{Email: "u@example.com"})
	assert.NoError(t, err)

	assert.Equal(t, "abc", result.Session.Id)
	assert.True(t, result.Hydrated)
	assert.Len(t, result.Messages, 2)
	assert.Equal(t, RoleUser, result.Messages[0].Role)
}

func TestReconcileStalePointer(t *testing.T) {
	backend := newFakeBackend()
	backend.users["u@example.com"] = &User{Id: "user-1", Email: "u@example.com"}
	backend.sessions["u@example.com"] = []Session{{Id: "xyz"}}

	store := NewMemoryStore()
	store.WritePointer("stale")

	r := NewReconciler(backend, store)
	result, err := r.Reconcile(context.Background(), &Principal{Email: "u@example.com"})
	assert.NoError(t, err)

	// Stale pointer is discarded, the most recent session takes over.
	assert.Equal(t, "xyz", result.Session.Id)
	assert.True(t, result.Hydrated)

	pointer, ok := store.ReadPointer()
	assert.True(t, ok)
	assert.Equal(t, "xyz", pointer)
}

func TestReconcileStalePointerEmptySessionList(t *testing.T) {
	backend := newFakeBackend()
	backend.users["u@example.com"] = &User{Id: "user-1", Email: "u@example.com"}

	store := NewMemoryStore()
	store.WritePointer("ghost")

	r := NewReconciler(backend, store)
	result, err := r.Reconcile(context.Background(), &Principal{Email: "u@example.com"})
	assert.NoError(t, err)

	// Nothing to resume: the stale pointer is dropped and exactly one
	// default-titled session is created, with no history to load.
	assert.Equal(t, DefaultSessionTitle, result.Session.Title)
	assert.False(t, result.Hydrated)
	assert.Empty(t, result.Messages)
	assert.Len(t, backend.sessions["u@example.com"], 1)

	pointer, ok := store.ReadPointer()
	assert.True(t, ok)
	assert.NotEqual(t, "ghost", pointer)
	assert.Equal(t, result.Session.Id, pointer)
}

func TestReconcileUpsertIdempotent(t *testing.T) {
	backend := newFakeBackend()
	store := NewMemoryStore()
	r := NewReconciler(backend, store)

	ctx := context.Background()
	first, err := r.Reconcile(ctx, &Principal{Email: "same@example.com"})
	assert.NoError(t, err)
	second, err := r.Reconcile(ctx, &Principal{Email: "same@example.com"})
	assert.NoError(t, err)

	assert.Equal(t, first.User.Id, second.User.Id)
	// The second sign-in resumes the session from the first, it does not
	// create another one.
	assert.Equal(t, first.Session.Id, second.Session.Id)
	assert.Len(t, backend.sessions["same@example.com"], 1)
}

func TestReconcileSignedOut(t *testing.T) {
	backend := newFakeBackend()
	store := NewMemoryStore()
	store.WritePointer("abc")
	store.WriteProfile(&Principal{Email: "u@example.com"})

	r := NewReconciler(backend, store)
	result, err := r.Reconcile(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, result)

	_, ok := store.ReadPointer()
	assert.False(t, ok)
	_, ok = store.ReadProfile()
	assert.False(t, ok)
}

func TestReconcileRegisterFailureClearsPointer(t *testing.T) {
	backend := newFakeBackend()
	backend.registerErr = errors.New("backend down")

	store := NewMemoryStore()
	store.WritePointer("abc")

	r := NewReconciler(backend, store)
	result, err := r.Reconcile(context.Background(), &Principal{Email: "u@example.com"})
	assert.Error(t, err)
	assert.Nil(t, result)

	_, ok := store.ReadPointer()
	assert.False(t, ok)
}

func TestReconcileListFailureClearsPointer(t *testing.T) {
	backend := newFakeBackend()
	backend.users["u@example.com"] = &User{Id: "user-1", Email: "u@example.com"}
	backend.listErr = errors.New("backend down")

	store := NewMemoryStore()
	store.WritePointer("abc")

	r := NewReconciler(backend, store)
	_, err := r.Reconcile(context.Background(), &Principal{Email: "u@example.com"})
	assert.Error(t, err)

	_, ok := store.ReadPointer()
	assert.False(t, ok)
}

func TestReconcileHydrationFailureIsNonFatal(t *testing.T) {
	backend := newFakeBackend()
	backend.users["u@example.com"] = &User{Id: "user-1", Email: "u@example.com"}
	backend.sessions["u@example.com"] = []Session{{Id: "abc"}}
	backend.listMsgErr = errors.New("history unavailable")

	store := NewMemoryStore()
	store.WritePointer("abc")

	r := NewReconciler(backend, store)
	result, err := r.Reconcile(context.Background(), &Principal{Email: "u@example.com"})
	assert.NoError(t, err)

	// Session selection survives, history degrades to empty.
	assert.Equal(t, "abc", result.Session.Id)
	assert.Empty(t, result.Messages)
	assert.Error(t, result.HydrationErr)

	pointer, ok := store.ReadPointer()
	assert.True(t, ok)
	assert.Equal(t, "abc", pointer)
}
