package chatclient

import (
	"context"
	"fmt"
)

// DefaultSessionTitle is the title given to sessions created implicitly
// when a signed-in user has none.
const DefaultSessionTitle = "New Conversation"

// ReconcileResult is the outcome of a sign-in reconciliation: the active
// session, its history when hydrated, and any non-fatal warning.
type ReconcileResult struct {
	User     *User
	Session  *Session
	Messages []Message
	Hydrated bool
	// HydrationErr is set when the session was selected but its history
	// could not be loaded. The session is still usable.
	HydrationErr error
}

// Reconciler decides, on each sign-in, which session the client resumes
// or creates and whether prior messages are loaded. The locally cached
// pointer is only a hint: a pointer not present in the backend's session
// list is discarded, never trusted.
type Reconciler struct {
	backend Backend
	store   ProfileStore
}

func NewReconciler(backend Backend, store ProfileStore) *Reconciler {
	return &Reconciler{
		backend: backend,
		store:   store,
	}
}

// SignOut clears the cached profile and session pointer.
func (r *Reconciler) SignOut() error {
	if err := r.store.ClearPointer(); err != nil {
		return err
	}
	return r.store.ClearProfile()
}

// Reconcile runs the sign-in flow for principal. Initialization failures
// (register, list, create) clear the pointer and return an error; a
// failure loading history does not, it is reported via HydrationErr.
func (r *Reconciler) Reconcile(ctx context.Context, principal *Principal) (*ReconcileResult, error) {
	if principal == nil || principal.Email == "" {
		if err := r.SignOut(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	user, err := r.backend.RegisterUser(ctx, principal.Email, principal.Name)
	if err != nil {
		r.store.ClearPointer()
		return nil, fmt.Errorf("register user: %w", err)
	}

	_ = r.store.WriteProfile(principal)

	sessions, err := r.backend.ListSessions(ctx, principal.Email)
	if err != nil {
		r.store.ClearPointer()
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	// Resume the pointed-at session when it still exists.
	if pointer, ok := r.store.ReadPointer(); ok {
		for i := range sessions {
			if sessions[i].Id == pointer {
				return r.hydrate(ctx, user, &sessions[i])
			}
		}
		// Stale pointer: the session is gone or belongs elsewhere.
		if err := r.store.ClearPointer(); err != nil {
			return nil, err
		}
	}

	if len(sessions) > 0 {
		selected := &sessions[0]
		if err := r.store.WritePointer(selected.Id); err != nil {
			return nil, err
		}
		return r.hydrate(ctx, user, selected)
	}

	session, err := r.backend.CreateSession(ctx, principal.Email, DefaultSessionTitle)
	if err != nil {
		r.store.ClearPointer()
		return nil, fmt.Errorf("create session: %w", err)
	}
	if err := r.store.WritePointer(session.Id); err != nil {
		return nil, err
	}

	// A brand new session has no history to load.
	return &ReconcileResult{
		User:     user,
		Session:  session,
		Messages: []Message{},
		Hydrated: false,
	}, nil
}

func (r *Reconciler) hydrate(ctx context.Context, user *User, session *Session) (*ReconcileResult, error) {
	result := &ReconcileResult{
		User:     user,
		Session:  session,
		Hydrated: true,
	}

	messages, err := r.backend.ListMessages(ctx, session.Id)
	if err != nil {
		// Degrade to an empty but functional view.
		result.Messages = []Message{}
		result.HydrationErr = err
		return result, nil
	}

	result.Messages = messages
	return result, nil
}
