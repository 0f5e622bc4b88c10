package service

import (
	"context"
	"sync"

	"github.com/lumenstudio/lumen/backend/models"
)

// Identity is the auth-provider view of a signed-in user.
type Identity struct {
	UID   string
	Email string
}

// SessionState tracks where the session is in its lifecycle.
type SessionState int

const (
	// SessionLoading is the initial state, before the first auth event.
	SessionLoading SessionState = iota
	SessionAnonymous
	SessionAuthenticated
)

// Session is the current observable auth state: who is signed in and
// with which role. User is nil unless State is SessionAuthenticated.
type Session struct {
	State SessionState
	User  *models.User
}

// Role returns the session's resolved role, or "" when not authenticated.
func (s Session) Role() models.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// ProfileStore is the slice of the user store the session machinery
// needs: an insert-if-absent profile read and a role write.
type ProfileStore interface {
	EnsureProfile(ctx context.Context, uid, email string) (*models.User, error)
	SetUserRole(ctx context.Context, uid string, role models.Role) error
}

// SessionStore holds the current session and republishes every change to
// its subscribers. Auth handlers feed it identity-change events via
// Apply; consumers observe via Current or Subscribe.
type SessionStore struct {
	profiles ProfileStore

	mu      sync.Mutex
	session Session
	subs    map[int]func(Session)
	nextSub int
}

func NewSessionStore(profiles ProfileStore) *SessionStore {
	return &SessionStore{
		profiles: profiles,
		session:  Session{State: SessionLoading},
		subs:     make(map[int]func(Session)),
	}
}

// Apply consumes an identity-change event. A non-nil identity resolves
// the user's profile, creating one with the default role on first login;
// nil means signed out. Subscribers are notified synchronously. On a
// profile lookup failure the previous state is kept and the error
// returned; the caller decides how to surface it.
func (s *SessionStore) Apply(ctx context.Context, ident *Identity) error {
	if ident == nil {
		s.set(Session{State: SessionAnonymous})
		return nil
	}
	user, err := s.profiles.EnsureProfile(ctx, ident.UID, ident.Email)
	if err != nil {
		return err
	}
	s.set(Session{State: SessionAuthenticated, User: user})
	return nil
}

// Current returns the session as of the last applied event.
func (s *SessionStore) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Subscribe registers fn to run on every session change and returns an
// unsubscribe func. After unsubscribing, fn is never called again.
func (s *SessionStore) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// SetRole persists a role change for uid. When uid is the currently
// authenticated identity the in-memory session is refreshed in place,
// without a store re-fetch.
func (s *SessionStore) SetRole(ctx context.Context, uid string, role models.Role) error {
	if err := s.profiles.SetUserRole(ctx, uid, role); err != nil {
		return err
	}

	s.mu.Lock()
	if s.session.User != nil && s.session.User.UID == uid {
		updated := *s.session.User
		updated.Role = role
		s.session.User = &updated
		session := s.session
		subs := s.snapshotSubs()
		s.mu.Unlock()
		for _, fn := range subs {
			fn(session)
		}
		return nil
	}
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) set(session Session) {
	s.mu.Lock()
	s.session = session
	subs := s.snapshotSubs()
	s.mu.Unlock()
	for _, fn := range subs {
		fn(session)
	}
}

// snapshotSubs must be called with mu held. Notifications run outside
// the lock so a subscriber may subscribe or unsubscribe from its callback.
func (s *SessionStore) snapshotSubs() []func(Session) {
	out := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}
